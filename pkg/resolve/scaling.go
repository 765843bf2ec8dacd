// Package resolve maps layers to their scaling attribute and presence
// threshold.
package resolve

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jcristia/CGA/internal/csvio"
	"github.com/jcristia/CGA/pkg/apperr"
)

// Scaling resolves the attribute that scales a layer's feature areas.
// A per-layer table and a global attribute are mutually exclusive.
type Scaling struct {
	attribute string
	perLayer  map[string]string
}

// NewScaling builds a resolver. Setting both sources is a configuration
// error.
func NewScaling(attribute string, perLayer map[string]string) (*Scaling, error) {
	if attribute != "" && len(perLayer) > 0 {
		return nil, apperr.Configf("scaling attribute %q and a per-layer scaling file are both set", attribute)
	}
	return &Scaling{attribute: attribute, perLayer: perLayer}, nil
}

// LoadScaling builds a resolver from the configured attribute and an
// optional headerless (layer, attribute) file.
func LoadScaling(attribute, file string) (*Scaling, error) {
	if attribute != "" && file != "" {
		return nil, apperr.Configf("scaling attribute %q and scaling file %q are both set", attribute, file)
	}
	if file == "" {
		return NewScaling(attribute, nil)
	}
	pairs, err := csvio.Pairs(file)
	if err != nil {
		return nil, err
	}
	perLayer := make(map[string]string, len(pairs))
	for _, p := range pairs {
		perLayer[p[0]] = p[1]
	}
	return NewScaling("", perLayer)
}

// Attribute returns the scaling attribute for the first of names with an
// entry, or "" when areas are not scaled.
func (s *Scaling) Attribute(names ...string) string {
	for _, n := range names {
		if a, ok := s.perLayer[n]; ok {
			return a
		}
	}
	return s.attribute
}

// Value returns the scaling factor for a feature. ok is false when the
// attribute is configured but absent or non-numeric, in which case the
// factor falls back to 1.
func Value(attribute string, props map[string]interface{}) (v float64, ok bool) {
	if attribute == "" {
		return 1, true
	}
	raw, present := props[attribute]
	if !present || raw == nil {
		return 1, false
	}
	f, err := toFloat(raw)
	if err != nil {
		return 1, false
	}
	return f, true
}

func toFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(n), 64)
	}
	return 0, fmt.Errorf("not a number: %T", v)
}
