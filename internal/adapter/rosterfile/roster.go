// Package rosterfile loads agent rosters from YAML files or from plain
// "Name, lat, lon[, color]" lines. The colour takes the rest of the line, so
// it may itself contain commas.
package rosterfile

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"imperialism/internal/domain/territory"
)

var ErrInvalidRoster = errors.New("invalid roster file")

type File struct {
	Teams []Team `yaml:"teams"`
}

type Team struct {
	ID    string  `yaml:"id,omitempty"`
	Name  string  `yaml:"name"`
	Lat   float64 `yaml:"lat"`
	Lon   float64 `yaml:"lon"`
	Color string  `yaml:"color,omitempty"`
}

// Load reads a roster, choosing the format from the extension.
func Load(path string) ([]territory.Agent, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(raw)
	default:
		return ParseText(bytes.NewReader(raw))
	}
}

func ParseYAML(raw []byte) ([]territory.Agent, error) {
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("roster yaml: %w", err)
	}
	if len(f.Teams) == 0 {
		return nil, fmt.Errorf("%w: no teams", ErrInvalidRoster)
	}
	out := make([]territory.Agent, 0, len(f.Teams))
	for i, t := range f.Teams {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: team %d has no name", ErrInvalidRoster, i)
		}
		out = append(out, territory.Agent{
			ID:    territory.AgentID(strings.TrimSpace(t.ID)),
			Name:  name,
			Lat:   t.Lat,
			Lon:   t.Lon,
			Color: strings.TrimSpace(t.Color),
		})
	}
	return out, nil
}

// ParseText reads one agent per line. Blank lines and lines starting with #
// are skipped.
func ParseText(r io.Reader) ([]territory.Agent, error) {
	var out []territory.Agent
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		a, err := parseLine(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		out = append(out, a)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no teams", ErrInvalidRoster)
	}
	return out, nil
}

func parseLine(text string) (territory.Agent, error) {
	parts := strings.SplitN(text, ",", 4)
	if len(parts) < 3 {
		return territory.Agent{}, fmt.Errorf("%w: want \"Name, lat, lon\", got %q", ErrInvalidRoster, text)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if parts[0] == "" {
		return territory.Agent{}, fmt.Errorf("%w: empty name", ErrInvalidRoster)
	}
	lat, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || !finite(lat) {
		return territory.Agent{}, fmt.Errorf("%w: bad latitude %q", ErrInvalidRoster, parts[1])
	}
	lon, err := strconv.ParseFloat(parts[2], 64)
	if err != nil || !finite(lon) {
		return territory.Agent{}, fmt.Errorf("%w: bad longitude %q", ErrInvalidRoster, parts[2])
	}
	a := territory.Agent{Name: parts[0], Lat: lat, Lon: lon}
	if len(parts) == 4 {
		a.Color = parts[3]
	}
	return a, nil
}

// Coordinates are planar; any finite value is a valid site.
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
