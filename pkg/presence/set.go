package presence

import (
	"sort"

	"github.com/jcristia/CGA/pkg/bioregion"
)

// Set collects the results of one layer kind under canonical layer names.
// Subregion-clipped variants of a layer share one name; a variant added
// later replaces an earlier one for the same MPA and ecosection.
type Set struct {
	Kind       bioregion.LayerKind
	Identities map[string]bioregion.Identity
	Records    map[bioregion.MPAID]map[bioregion.EcosectionID]map[string]Record
	Slivers    map[bioregion.MPAID]map[string]bioregion.Fraction
}

// NewSet returns an empty set for kind.
func NewSet(kind bioregion.LayerKind) *Set {
	return &Set{
		Kind:       kind,
		Identities: make(map[string]bioregion.Identity),
		Records:    make(map[bioregion.MPAID]map[bioregion.EcosectionID]map[string]Record),
		Slivers:    make(map[bioregion.MPAID]map[string]bioregion.Fraction),
	}
}

// Add merges r into the set. Results of another kind are ignored.
func (s *Set) Add(r *Result) {
	if r.Identity.Kind != s.Kind {
		return
	}
	name := r.Identity.Name
	s.Identities[name] = r.Identity

	for mpaID, row := range r.Presence {
		ecos, ok := s.Records[mpaID]
		if !ok {
			ecos = make(map[bioregion.EcosectionID]map[string]Record)
			s.Records[mpaID] = ecos
		}
		for eco, rec := range row {
			layers, ok := ecos[eco]
			if !ok {
				layers = make(map[string]Record)
				ecos[eco] = layers
			}
			layers[name] = rec
		}
	}
	for mpaID, frac := range r.Slivers {
		layers, ok := s.Slivers[mpaID]
		if !ok {
			layers = make(map[string]bioregion.Fraction)
			s.Slivers[mpaID] = layers
		}
		layers[name] = frac
	}
}

// MPAs returns the MPAs where at least one layer is present, sorted.
func (s *Set) MPAs() []bioregion.MPAID {
	ids := make([]bioregion.MPAID, 0, len(s.Records))
	for id := range s.Records {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Layers returns the names of layers present anywhere in the MPA, sorted.
func (s *Set) Layers(id bioregion.MPAID) []string {
	seen := make(map[string]bool)
	for _, layers := range s.Records[id] {
		for name := range layers {
			seen[name] = true
		}
	}
	return sortedKeys(seen)
}

// Ecosections returns the ecosections of the MPA in which name is present,
// sorted.
func (s *Set) Ecosections(id bioregion.MPAID, name string) []bioregion.EcosectionID {
	var out []bioregion.EcosectionID
	for eco, layers := range s.Records[id] {
		if _, ok := layers[name]; ok {
			out = append(out, eco)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Record returns the record of name in one MPA ecosection.
func (s *Set) Record(id bioregion.MPAID, eco bioregion.EcosectionID, name string) (Record, bool) {
	rec, ok := s.Records[id][eco][name]
	return rec, ok
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
