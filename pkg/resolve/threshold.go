package resolve

import (
	"fmt"
	"strconv"

	"github.com/jcristia/CGA/internal/csvio"
	"github.com/jcristia/CGA/pkg/apperr"
	"github.com/jcristia/CGA/pkg/bioregion"
)

// Thresholds resolves the presence threshold of a layer: a per-layer entry
// when present, otherwise the default for the layer's kind.
type Thresholds struct {
	cp, hu   float64
	perLayer map[string]float64
}

// NewThresholds validates that every threshold is a fraction.
func NewThresholds(cp, hu float64, perLayer map[string]float64) (*Thresholds, error) {
	if err := checkFraction("cp_threshold", cp); err != nil {
		return nil, err
	}
	if err := checkFraction("hu_threshold", hu); err != nil {
		return nil, err
	}
	for layer, v := range perLayer {
		if err := checkFraction(layer, v); err != nil {
			return nil, err
		}
	}
	return &Thresholds{cp: cp, hu: hu, perLayer: perLayer}, nil
}

// LoadThresholds reads an optional headerless (layer, threshold) file.
func LoadThresholds(cp, hu float64, file string) (*Thresholds, error) {
	if file == "" {
		return NewThresholds(cp, hu, nil)
	}
	pairs, err := csvio.Pairs(file)
	if err != nil {
		return nil, err
	}
	perLayer := make(map[string]float64, len(pairs))
	for _, p := range pairs {
		v, err := strconv.ParseFloat(p[1], 64)
		if err != nil {
			return nil, apperr.Config(file, fmt.Errorf("threshold for %s: %w", p[0], err))
		}
		perLayer[p[0]] = v
	}
	return NewThresholds(cp, hu, perLayer)
}

// For returns the threshold for the first of names with an entry, falling
// back to the kind default.
func (t *Thresholds) For(kind bioregion.LayerKind, names ...string) float64 {
	for _, n := range names {
		if v, ok := t.perLayer[n]; ok {
			return v
		}
	}
	if kind == bioregion.KindHU {
		return t.hu
	}
	return t.cp
}

func checkFraction(what string, v float64) error {
	if v < 0 || v > 1 {
		return apperr.Configf("threshold %s = %g is outside [0, 1]", what, v)
	}
	return nil
}
