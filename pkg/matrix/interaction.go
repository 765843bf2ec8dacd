package matrix

import (
	"fmt"
	"io"
	"strings"

	"github.com/jcristia/CGA/internal/csvio"
	"github.com/jcristia/CGA/pkg/apperr"
	"github.com/jcristia/CGA/pkg/bioregion"
)

// Severity of a HU × CP interaction.
type Severity int

const (
	Low Severity = iota + 1
	Moderate
	High
)

func (s Severity) String() string {
	switch s {
	case Low:
		return "LOW"
	case Moderate:
		return "MODERATE"
	case High:
		return "HIGH"
	}
	return ""
}

// MarshalText renders the severity label.
func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// ParseSeverity maps matrix labels to severities. MEDIUM reads as MODERATE
// and VERY HIGH as HIGH. A blank label returns ok == false.
func ParseSeverity(label string) (s Severity, ok bool, err error) {
	switch strings.ToUpper(strings.Join(strings.Fields(label), " ")) {
	case "":
		return 0, false, nil
	case "LOW":
		return Low, true, nil
	case "MODERATE", "MEDIUM":
		return Moderate, true, nil
	case "HIGH", "VERY HIGH":
		return High, true, nil
	}
	return 0, false, apperr.Configf("unknown interaction severity %q", label)
}

// Interactions is the HU × CP severity matrix keyed by normalized labels.
// It is immutable once built.
type Interactions struct {
	byCP map[string]map[string]Severity
}

// NewInteractions returns an empty matrix.
func NewInteractions() *Interactions {
	return &Interactions{byCP: make(map[string]map[string]Severity)}
}

func (m *Interactions) set(hu, cp string, s Severity) {
	row, ok := m.byCP[cp]
	if !ok {
		row = make(map[string]Severity)
		m.byCP[cp] = row
	}
	row[hu] = s
}

// ReadInteractions parses rows of [HU label, _, CP label, severity] after
// a discarded header row. Rows with a blank severity are skipped.
func ReadInteractions(r io.Reader) (*Interactions, error) {
	rows, err := csvio.Read(r)
	if err != nil {
		return nil, apperr.Config("interaction matrix", err)
	}
	return fromInteractionRows(rows)
}

// LoadInteractions reads the interaction matrix file.
func LoadInteractions(path string) (*Interactions, error) {
	rows, err := csvio.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := fromInteractionRows(rows)
	if err != nil {
		return nil, apperr.Config(path, err)
	}
	return m, nil
}

func fromInteractionRows(rows [][]string) (*Interactions, error) {
	m := NewInteractions()
	if len(rows) == 0 {
		return m, nil
	}
	for i, row := range rows[1:] {
		if len(row) < 4 {
			return nil, apperr.Configf("interaction matrix line %d: expected 4 columns, got %d", i+2, len(row))
		}
		sev, ok, err := ParseSeverity(row[3])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+2, err)
		}
		if !ok {
			continue
		}
		hu, cp := bioregion.NormalizeKey(row[0]), bioregion.NormalizeKey(row[2])
		if hu == "" || cp == "" {
			continue
		}
		m.set(hu, cp, sev)
	}
	return m, nil
}

// HasCP reports whether the CP key has any recorded interaction.
func (m *Interactions) HasCP(cp string) bool {
	_, ok := m.byCP[bioregion.NormalizeKey(cp)]
	return ok
}

// Lookup returns the severity of the (cp, hu) pair.
func (m *Interactions) Lookup(cp, hu string) (Severity, bool) {
	row, ok := m.byCP[bioregion.NormalizeKey(cp)]
	if !ok {
		return 0, false
	}
	s, ok := row[bioregion.NormalizeKey(hu)]
	return s, ok
}

// Len returns the number of recorded pairs.
func (m *Interactions) Len() int {
	n := 0
	for _, row := range m.byCP {
		n += len(row)
	}
	return n
}
