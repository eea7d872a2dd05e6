// Package csvfile loads the entity universe from a centroid CSV and an
// adjacency CSV. Both files may be comma or tab separated.
package csvfile

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"imperialism/internal/domain/adjacency"
	"imperialism/internal/domain/territory"
)

var ErrBadHeader = errors.New("csv header missing required column")

// FIPSWidth is the width county codes are left padded to.
const FIPSWidth = 5

var (
	idColumns       = []string{"fips", "geoid", "id"}
	nameColumns     = []string{"name", "county name"}
	stateColumns    = []string{"state"}
	latColumns      = []string{"lat", "latitude"}
	lonColumns      = []string{"lon", "lng", "longitude"}
	entityColumns   = []string{"fipscounty", "county geoid", "entity"}
	neighborColumns = []string{"fipsneighbor", "neighbor geoid", "neighbor"}
)

type Provider struct {
	EntitiesPath  string
	AdjacencyPath string
}

func (p Provider) Entities(_ context.Context) ([]territory.Entity, error) {
	f, err := os.Open(p.EntitiesPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	out, err := ReadEntities(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.EntitiesPath, err)
	}
	return out, nil
}

func (p Provider) AdjacencyPairs(_ context.Context) ([]adjacency.Pair, error) {
	f, err := os.Open(p.AdjacencyPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	out, err := ReadAdjacency(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.AdjacencyPath, err)
	}
	return out, nil
}

// ReadEntities parses rows of fips,name,state,lat,lng. Only the id and the
// coordinates are required.
func ReadEntities(r io.Reader) ([]territory.Entity, error) {
	cr, header, err := open(r)
	if err != nil {
		return nil, err
	}
	idCol, err := column(header, idColumns)
	if err != nil {
		return nil, err
	}
	latCol, err := column(header, latColumns)
	if err != nil {
		return nil, err
	}
	lonCol, err := column(header, lonColumns)
	if err != nil {
		return nil, err
	}
	nameCol, _ := column(header, nameColumns)
	stateCol, _ := column(header, stateColumns)

	var out []territory.Entity
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		id := PadFIPS(field(rec, idCol))
		if id == "" {
			return nil, fmt.Errorf("line %d: empty id", line)
		}
		lat, err := strconv.ParseFloat(field(rec, latCol), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: latitude: %w", line, err)
		}
		lon, err := strconv.ParseFloat(field(rec, lonCol), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: longitude: %w", line, err)
		}
		out = append(out, territory.Entity{
			ID:    territory.EntityID(id),
			Name:  field(rec, nameCol),
			State: field(rec, stateCol),
			Lat:   lat,
			Lon:   lon,
		})
	}
	return out, nil
}

// ReadAdjacency parses entity,neighbor pairs. A row with an empty entity
// column continues the previous entity, as in the Census adjacency file.
func ReadAdjacency(r io.Reader) ([]adjacency.Pair, error) {
	cr, header, err := open(r)
	if err != nil {
		return nil, err
	}
	entityCol, err := column(header, entityColumns)
	if err != nil {
		return nil, err
	}
	neighborCol, err := column(header, neighborColumns)
	if err != nil {
		return nil, err
	}

	var (
		out     []adjacency.Pair
		current string
	)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if id := PadFIPS(field(rec, entityCol)); id != "" {
			current = id
		}
		neighbor := PadFIPS(field(rec, neighborCol))
		if current == "" || neighbor == "" {
			return nil, fmt.Errorf("line %d: incomplete pair", line)
		}
		out = append(out, adjacency.Pair{
			Entity:   territory.EntityID(current),
			Neighbor: territory.EntityID(neighbor),
		})
	}
	return out, nil
}

// PadFIPS left pads all-digit codes to FIPSWidth. Other codes are returned
// trimmed but otherwise unchanged.
func PadFIPS(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" || len(s) >= FIPSWidth {
		return s
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return s
		}
	}
	return strings.Repeat("0", FIPSWidth-len(s)) + s
}

func open(r io.Reader) (*csv.Reader, []string, error) {
	br := bufio.NewReader(r)
	first, err := br.Peek(4096)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, nil, err
	}
	cr := csv.NewReader(br)
	if headerLine, _, _ := strings.Cut(string(first), "\n"); strings.Contains(headerLine, "\t") {
		cr.Comma = '\t'
	}
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}
	return cr, normalized, nil
}

func column(header []string, names []string) (int, error) {
	for _, name := range names {
		for i, h := range header {
			if h == name {
				return i, nil
			}
		}
	}
	return -1, fmt.Errorf("%w: %s", ErrBadHeader, names[0])
}

func field(rec []string, col int) string {
	if col < 0 || col >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[col])
}
