package bioregion

import (
	"regexp"
	"strings"

	"github.com/jcristia/CGA/pkg/apperr"
)

// Conventions describes how catalog dataset names encode layer identity.
type Conventions struct {
	CPPrefix       string
	HUPrefix       string
	SubregionCodes []Subregion
}

// DefaultConventions matches the MPATT dataset naming scheme.
func DefaultConventions() Conventions {
	return Conventions{
		CPPrefix:       "mpatt_eco_",
		HUPrefix:       "mpatt_hu_",
		SubregionCodes: append([]Subregion(nil), ReportingSubregions...),
	}
}

// Identity is the structured parse of a feature layer's dataset name.
type Identity struct {
	// Dataset is the name as it appears in the catalog.
	Dataset string `json:"dataset"`
	// Name is Dataset with any subregion suffix removed.
	Name string `json:"name"`
	Kind LayerKind `json:"kind"`
	// InteractionKey matches the normalised HU or CP label of the
	// interaction matrix.
	InteractionKey string `json:"interaction_key"`
	// Subregion is set when the layer was pre-clipped to one subregion.
	Subregion Subregion `json:"subregion,omitempty"`
}

// Clipped reports whether the layer covers only one subregion.
func (id Identity) Clipped() bool { return id.Subregion != "" }

// Kind returns the layer kind implied by a dataset name, or "" when the name
// matches neither prefix.
func (c Conventions) Kind(dataset string) LayerKind {
	switch {
	case c.CPPrefix != "" && strings.HasPrefix(dataset, c.CPPrefix):
		return KindCP
	case c.HUPrefix != "" && strings.HasPrefix(dataset, c.HUPrefix):
		return KindHU
	}
	return ""
}

// Parse derives the Identity of a HU or CP dataset. CP names carry their
// interaction key in the 4th underscore segment, HU names in the 3rd.
func (c Conventions) Parse(dataset string) (Identity, error) {
	kind := c.Kind(dataset)
	if kind == "" {
		return Identity{}, apperr.Configf("dataset %q is neither a CP (%s*) nor a HU (%s*) layer", dataset, c.CPPrefix, c.HUPrefix)
	}

	id := Identity{Dataset: dataset, Name: dataset, Kind: kind}
	parts := strings.Split(dataset, "_")
	if last := Subregion(parts[len(parts)-1]); len(parts) > 1 && c.isSubregion(last) {
		id.Subregion = last
		parts = parts[:len(parts)-1]
		id.Name = strings.Join(parts, "_")
	}

	segment := 3
	if kind == KindHU {
		segment = 2
	}
	if len(parts) <= segment || parts[segment] == "" {
		return Identity{}, apperr.Configf("dataset %q has no interaction key at segment %d", dataset, segment+1)
	}
	id.InteractionKey = NormalizeKey(parts[segment])
	return id, nil
}

var nonAlpha = regexp.MustCompile(`[^a-zA-Z]`)

// NormalizeKey lower-cases s and strips every non-alphabetic character so
// interaction matrix labels line up with dataset name segments.
func NormalizeKey(s string) string {
	return strings.ToLower(nonAlpha.ReplaceAllString(s, ""))
}

func (c Conventions) isSubregion(s Subregion) bool {
	for _, code := range c.SubregionCodes {
		if code == s {
			return true
		}
	}
	return false
}
