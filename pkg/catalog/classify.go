package catalog

import (
	"strings"

	"github.com/jcristia/CGA/pkg/apperr"
	"github.com/jcristia/CGA/pkg/bioregion"
)

// Rules maps dataset names onto the roles they play in a run.
type Rules struct {
	MPAPrefix   string
	Ecosections string
	Subregions  string
	// ReferencePrefix marks datasets that are neither MPAs nor features,
	// such as per-subregion clip polygons. They are ignored.
	ReferencePrefix string
	Layers          bioregion.Conventions
}

// DefaultRules matches the MPATT dataset naming scheme.
func DefaultRules() Rules {
	return Rules{
		MPAPrefix:       "mpatt_mpa_",
		Ecosections:     "mpatt_eco_coarse_ecosections",
		Subregions:      "mpatt_rgn_subregions",
		ReferencePrefix: "mpatt_rgn_",
		Layers:          bioregion.DefaultConventions(),
	}
}

// Classification is the partition of a catalog's datasets. Feature layers
// keep catalog order.
type Classification struct {
	MPA         []string             `json:"mpa"`
	Ecosections string               `json:"ecosections"`
	Subregions  string               `json:"subregions"`
	Features    []bioregion.Identity `json:"features"`
	Ignored     []string             `json:"ignored,omitempty"`
}

// HU returns the human use layers.
func (c Classification) HU() []bioregion.Identity { return c.ofKind(bioregion.KindHU) }

// CP returns the conservation priority layers.
func (c Classification) CP() []bioregion.Identity { return c.ofKind(bioregion.KindCP) }

func (c Classification) ofKind(k bioregion.LayerKind) []bioregion.Identity {
	var out []bioregion.Identity
	for _, id := range c.Features {
		if id.Kind == k {
			out = append(out, id)
		}
	}
	return out
}

// Classify partitions entries by naming rules. It fails when the MPA,
// ecosection or subregion layers are missing, or when a HU/CP dataset name
// does not carry an interaction key.
func Classify(entries []Entry, r Rules) (Classification, error) {
	var c Classification
	for _, e := range entries {
		name := e.Dataset
		switch {
		case name == r.Ecosections:
			c.Ecosections = name
		case name == r.Subregions:
			c.Subregions = name
		case r.Ecosections != "" && strings.HasPrefix(name, r.Ecosections):
			// derived copies of the ecosection layer
			c.Ignored = append(c.Ignored, name)
		case r.MPAPrefix != "" && strings.HasPrefix(name, r.MPAPrefix):
			c.MPA = append(c.MPA, name)
		case r.ReferencePrefix != "" && strings.HasPrefix(name, r.ReferencePrefix):
			c.Ignored = append(c.Ignored, name)
		case r.Layers.Kind(name) != "":
			id, err := r.Layers.Parse(name)
			if err != nil {
				return Classification{}, err
			}
			c.Features = append(c.Features, id)
		default:
			c.Ignored = append(c.Ignored, name)
		}
	}

	if len(c.MPA) == 0 {
		return Classification{}, apperr.Configf("no MPA layers with prefix %q", r.MPAPrefix)
	}
	if c.Ecosections == "" {
		return Classification{}, apperr.Configf("ecosection layer %q not found", r.Ecosections)
	}
	if c.Subregions == "" {
		return Classification{}, apperr.Configf("subregion layer %q not found", r.Subregions)
	}
	return c, nil
}
