// Package matrix holds the static lookup tables of a run: the MPA × layer
// inclusion matrix and the HU × CP interaction severity matrix.
package matrix

import (
	"io"
	"sort"
	"strings"

	"github.com/jcristia/CGA/internal/csvio"
	"github.com/jcristia/CGA/pkg/apperr"
	"github.com/jcristia/CGA/pkg/bioregion"
)

// Cell is one inclusion matrix value.
type Cell string

const (
	Blank Cell = ""
	Yes   Cell = "Y"
	No    Cell = "N"
	Unset Cell = "U"
)

// ParseCell maps anything other than Y, N or U to Blank.
func ParseCell(s string) Cell {
	switch c := Cell(strings.TrimSpace(s)); c {
	case Yes, No, Unset:
		return c
	}
	return Blank
}

// Overrides controls how matrix cells interact with the threshold test.
// Y and N disable their cell value when true. U is inverted: nil defers
// U cells to the threshold test, otherwise its value is the decision.
type Overrides struct {
	Y bool
	N bool
	U *bool
}

// Decide resolves a cell against the overrides. decided is false when the
// threshold test must be used instead.
func Decide(c Cell, o Overrides) (include, decided bool) {
	switch c {
	case Yes:
		if !o.Y {
			return true, true
		}
	case No:
		if !o.N {
			return false, true
		}
	case Unset:
		if o.U != nil {
			return *o.U, true
		}
	}
	return false, false
}

// ShouldInclude applies Decide and falls back to fraction > threshold.
func ShouldInclude(c Cell, o Overrides, fraction, threshold float64) bool {
	if include, ok := Decide(c, o); ok {
		return include
	}
	return fraction > threshold
}

// Forced reports whether a cell marks a human use as present regardless of
// measured geometry: Y always, U only when the U override is true.
func Forced(c Cell, o Overrides) bool {
	switch c {
	case Yes:
		return true
	case Unset:
		return o.U != nil && *o.U
	}
	return false
}

// Inclusion is the parsed MPA × layer matrix. The zero value is an empty
// matrix in which every lookup is Blank.
type Inclusion struct {
	layers []string
	cells  map[bioregion.MPAID]map[string]Cell
}

// NewInclusion returns an empty matrix.
func NewInclusion() *Inclusion {
	return &Inclusion{cells: make(map[bioregion.MPAID]map[string]Cell)}
}

// Set records a cell.
func (m *Inclusion) Set(mpa bioregion.MPAID, layer string, c Cell) {
	if m.cells == nil {
		m.cells = make(map[bioregion.MPAID]map[string]Cell)
	}
	row, ok := m.cells[mpa]
	if !ok {
		row = make(map[string]Cell)
		m.cells[mpa] = row
	}
	if _, seen := row[layer]; !seen && !m.hasLayer(layer) {
		m.layers = append(m.layers, layer)
	}
	row[layer] = c
}

// ReadInclusion parses a matrix whose header row names the layers and
// whose first column names the MPAs.
func ReadInclusion(r io.Reader) (*Inclusion, error) {
	rows, err := csvio.Read(r)
	if err != nil {
		return nil, apperr.Config("inclusion matrix", err)
	}
	return fromRows(rows), nil
}

// LoadInclusion reads the matrix file. Blank cells fall back to the
// threshold test, but the file itself is required.
func LoadInclusion(path string) (*Inclusion, error) {
	if path == "" {
		return nil, apperr.Configf("inclusion matrix path is required")
	}
	rows, err := csvio.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return fromRows(rows), nil
}

func fromRows(rows [][]string) *Inclusion {
	m := NewInclusion()
	if len(rows) == 0 {
		return m
	}
	header := rows[0]
	for _, row := range rows[1:] {
		mpa := bioregion.MPAID(row[0])
		if mpa == "" {
			continue
		}
		for i := 1; i < len(row) && i < len(header); i++ {
			if header[i] == "" {
				continue
			}
			m.Set(mpa, header[i], ParseCell(row[i]))
		}
	}
	return m
}

// Lookup returns the first non-blank cell among names in the MPA's row.
// Absent MPAs and layers are Blank.
func (m *Inclusion) Lookup(mpa bioregion.MPAID, names ...string) Cell {
	row, ok := m.cells[mpa]
	if !ok {
		return Blank
	}
	for _, n := range names {
		if c := row[n]; c != Blank {
			return c
		}
	}
	return Blank
}

// MPAs returns the matrix rows in sorted order.
func (m *Inclusion) MPAs() []bioregion.MPAID {
	out := make([]bioregion.MPAID, 0, len(m.cells))
	for id := range m.cells {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Layers returns the matrix columns in header order.
func (m *Inclusion) Layers() []string {
	return append([]string(nil), m.layers...)
}

func (m *Inclusion) hasLayer(layer string) bool {
	for _, l := range m.layers {
		if l == layer {
			return true
		}
	}
	return false
}
