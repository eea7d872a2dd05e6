package main

import (
	"context"
	"fmt"
	"io/fs"
	"math/rand"
	"os"
	"strings"
	"sync"
	"time"

	"imperialism/internal/adapter/dataset/csvfile"
	httpadapter "imperialism/internal/adapter/http"
	metricsinmem "imperialism/internal/adapter/metrics/inmemory"
	gormrepo "imperialism/internal/adapter/repo/gorm"
	"imperialism/internal/adapter/repo/memory"
	sqliterepo "imperialism/internal/adapter/repo/sqlite"
	"imperialism/internal/app/battle"
	"imperialism/internal/app/game"
	"imperialism/internal/app/history"
	"imperialism/internal/app/ports"
	"imperialism/internal/app/replay"
	"imperialism/internal/app/shared/universe"
	"imperialism/internal/config"
	"imperialism/internal/domain/conquest"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
)

func main() {
	cfg, err := config.ParseEnv()
	if err != nil {
		hlog.Fatalf("config: %v", err)
	}
	ctx := context.Background()

	u, err := universe.Load(ctx, csvfile.Provider{EntitiesPath: cfg.EntitiesPath, AdjacencyPath: cfg.AdjacencyPath})
	if err != nil {
		hlog.Fatalf("load dataset: %v", err)
	}
	hlog.Infof("loaded %d entities, %d adjacency edges (%d pairs outside the dataset skipped)", len(u.Entities), u.Graph.Edges(), u.Graph.Skipped())

	repos, err := buildRepos(ctx, cfg)
	if err != nil {
		hlog.Fatalf("build repos: %v (store=%s)", err, cfg.Store)
	}
	defer func() {
		if err := repos.close(); err != nil {
			hlog.Warnf("close store: %v", err)
		}
	}()

	h := buildHandler(u, repos, newRand(cfg.Seed))
	h.AllowedOrigins = cfg.CORSOrigins

	s := server.Default(server.WithHostPorts(cfg.Addr))
	h.RegisterRoutes(s)

	hlog.Infof("imperialism server listening on %s (store=%s)", cfg.Addr, cfg.Store)
	s.Spin()
}

type repoSet struct {
	games   ports.GameRepository
	battles ports.BattleRepository
	tx      ports.TxManager
	close   func() error
}

func buildRepos(ctx context.Context, cfg config.Config) (repoSet, error) {
	switch cfg.Store {
	case config.StoreMemory:
		store := memory.NewStore()
		return repoSet{
			games:   memory.NewGameRepo(store),
			battles: memory.NewBattleRepo(store),
			tx:      memory.NewTxManager(store),
			close:   func() error { return nil },
		}, nil
	case config.StorePostgres:
		db, err := gormrepo.OpenPostgres(cfg.DBDSN)
		if err != nil {
			return repoSet{}, fmt.Errorf("open postgres: %w", err)
		}
		if err := gormrepo.ApplyMigrations(ctx, db, migrationsFS(cfg.MigrationsDir)); err != nil {
			return repoSet{}, fmt.Errorf("apply migrations: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return repoSet{}, fmt.Errorf("postgres handle: %w", err)
		}
		return repoSet{
			games:   gormrepo.NewGameRepo(db),
			battles: gormrepo.NewBattleRepo(db),
			tx:      gormrepo.NewTxManager(db),
			close:   sqlDB.Close,
		}, nil
	case config.StoreSQLite:
		db, err := sqliterepo.Open(cfg.SQLitePath)
		if err != nil {
			return repoSet{}, fmt.Errorf("open sqlite: %w", err)
		}
		return repoSet{
			games:   sqliterepo.NewGameRepo(db),
			battles: sqliterepo.NewBattleRepo(db),
			tx:      sqliterepo.NewTxManager(db),
			close:   db.Close,
		}, nil
	default:
		return repoSet{}, fmt.Errorf("%w: unknown store %q", config.ErrInvalidConfig, cfg.Store)
	}
}

func migrationsFS(dir string) fs.FS {
	if strings.TrimSpace(dir) == "" {
		return gormrepo.Migrations()
	}
	return os.DirFS(dir)
}

func buildHandler(u universe.Universe, repos repoSet, rnd func() conquest.Rand) httpadapter.Handler {
	kpiRecorder := metricsinmem.NewRecorder()
	return httpadapter.Handler{
		CreateUC:    game.CreateUseCase{Games: repos.games, Universe: u, Now: time.Now},
		StatusUC:    game.StatusUseCase{Games: repos.games, Battles: repos.battles, Universe: u},
		NeighborsUC: game.NeighborsUseCase{Games: repos.games, Battles: repos.battles, Universe: u},
		BattleUC: battle.UseCase{
			TxManager: repos.tx,
			Games:     repos.games,
			Battles:   repos.battles,
			Universe:  u,
			Metrics:   kpiRecorder,
			Now:       time.Now,
			NewRand:   rnd,
		},
		ReplayUC: replay.UseCase{Games: repos.games, Battles: repos.battles, Universe: u},
		ExportUC: history.ExportUseCase{Games: repos.games, Battles: repos.battles},
		ImportUC: history.ImportUseCase{
			TxManager: repos.tx,
			Games:     repos.games,
			Battles:   repos.battles,
			Universe:  u,
			Now:       time.Now,
		},
		KPI: kpiRecorder,
	}
}

// newRand returns nil for seed 0 so the battle use case falls back to a
// time-seeded source per request. A non-zero seed makes every choice of the
// process come from one shared, reproducible sequence.
func newRand(seed int64) func() conquest.Rand {
	if seed == 0 {
		return nil
	}
	shared := &lockedRand{r: rand.New(rand.NewSource(seed))}
	return func() conquest.Rand { return shared }
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}
