package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"imperialism/internal/adapter/dataset/csvfile"
	"imperialism/internal/adapter/historyfile"
	"imperialism/internal/adapter/repo/memory"
	"imperialism/internal/adapter/rosterfile"
	"imperialism/internal/app/history"
	"imperialism/internal/app/ports"
	"imperialism/internal/app/replay"
	"imperialism/internal/app/shared/universe"
	"imperialism/internal/domain/conquest"
	"imperialism/internal/domain/territory"
)

const exitMalformed = 3

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr, nil))
}

// run replays a history file offline. dataset overrides the csv files when
// non-nil.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, dataset ports.DatasetProvider) int {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		historyPath   = fs.String("history", "", "history file (.json, .jsonl or .jsonl.zst)")
		rosterPath    = fs.String("roster", "", "roster file (.yaml or text) replacing the history's agents (optional)")
		entitiesPath  = fs.String("entities", "data/county-centroids.csv", "entity centroid csv")
		adjacencyPath = fs.String("adjacency", "data/county-adjacency.csv", "adjacency csv")
		strict        = fs.Bool("strict", false, "require every battle to be fought between bordering agents")
		fromStep      = fs.Int("from", 0, "first step to print")
		toStep        = fs.Int("to", 0, "last step to print (0 = last)")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *historyPath == "" {
		fmt.Fprintln(stderr, "missing -history")
		return 2
	}

	doc, err := historyfile.ReadFile(*historyPath)
	if err != nil {
		fmt.Fprintln(stderr, "read history:", err)
		return 1
	}
	agents := doc.Agents
	if *rosterPath != "" {
		if agents, err = rosterfile.Load(*rosterPath); err != nil {
			fmt.Fprintln(stderr, "read roster:", err)
			return 1
		}
	}

	if dataset == nil {
		dataset = csvfile.Provider{EntitiesPath: *entitiesPath, AdjacencyPath: *adjacencyPath}
	}
	u, err := universe.Load(ctx, dataset)
	if err != nil {
		fmt.Fprintln(stderr, "load dataset:", err)
		return 1
	}

	store := memory.NewStore()
	games, battles := memory.NewGameRepo(store), memory.NewBattleRepo(store)
	imported, err := history.ImportUseCase{
		TxManager: memory.NewTxManager(store),
		Games:     games,
		Battles:   battles,
		Universe:  u,
	}.Execute(ctx, history.ImportRequest{Agents: agents, Battles: doc.Battles, Strict: *strict || doc.Strict})
	if err != nil {
		fmt.Fprintln(stderr, "replay:", err)
		if errors.Is(err, conquest.ErrMalformedLog) {
			return exitMalformed
		}
		return 1
	}

	frames, err := replay.UseCase{Games: games, Battles: battles, Universe: u}.Execute(ctx, replay.Request{
		GameID:   imported.GameID,
		FromStep: *fromStep,
		ToStep:   *toStep,
	})
	if err != nil {
		fmt.Fprintln(stderr, "frames:", err)
		return 1
	}

	names := make(map[territory.AgentID]string, len(frames.Agents))
	for _, a := range frames.Agents {
		names[a.ID] = a.Name
	}
	fmt.Fprintf(stdout, "entities=%d edges=%d agents=%d battles=%d\n", len(u.Entities), u.Graph.Edges(), len(frames.Agents), frames.Steps)
	for _, f := range frames.Frames {
		if f.Battle == nil {
			fmt.Fprintf(stdout, "step %d: initial | %s\n", f.Step, formatCounts(names, f.Counts))
			continue
		}
		fmt.Fprintf(stdout, "step %d: %s vs %s -> %s | %s\n", f.Step,
			names[f.Battle.Attacker], names[f.Battle.Defender], names[f.Battle.Winner], formatCounts(names, f.Counts))
	}
	fmt.Fprintf(stdout, "outcome: %s\n", imported.Outcome)
	return 0
}

func formatCounts(names map[territory.AgentID]string, counts map[territory.AgentID]int) string {
	parts := make([]string, 0, len(counts))
	for id, n := range counts {
		if n == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%d", names[id], n))
	}
	sort.Strings(parts)
	return strings.Join(parts, " ")
}
