// Package interaction scores how much human uses present in an MPA degrade
// the protection of each conservation priority inside it.
package interaction

import (
	"fmt"
	"sort"

	"github.com/jcristia/CGA/internal/logging"
	"github.com/jcristia/CGA/pkg/bioregion"
	"github.com/jcristia/CGA/pkg/matrix"
	"github.com/jcristia/CGA/pkg/presence"
	"github.com/jcristia/CGA/pkg/validation"
)

// Effectiveness maps the severities of a CP's interactions to a discrete
// protection multiplier.
func Effectiveness(severities []matrix.Severity) float64 {
	var high, moderate, low int
	for _, s := range severities {
		switch s {
		case matrix.High:
			high++
		case matrix.Moderate:
			moderate++
		case matrix.Low:
			low++
		}
	}
	switch {
	case high > 0 || moderate > 2:
		return 0
	case moderate == 2:
		return 0.24
	case moderate == 1:
		return 0.6
	case low > 0:
		return 0.85
	}
	return 1
}

// Interaction is one recorded HU severity for a CP.
type Interaction struct {
	HU       string          `json:"hu"`
	Severity matrix.Severity `json:"severity"`
	// Placeholder marks a human use present only through the inclusion
	// matrix.
	Placeholder bool `json:"placeholder,omitempty"`
}

// Score is the effectiveness of protection for one CP in one MPA.
type Score struct {
	MPA           bioregion.MPAID `json:"mpa"`
	CP            string          `json:"cp"`
	Effectiveness float64         `json:"effectiveness"`
	Interactions  []Interaction   `json:"interactions"`
}

// Scores maps MPA and canonical CP name to a score.
type Scores map[bioregion.MPAID]map[string]Score

// Lookup returns the score of cp in the MPA.
func (s Scores) Lookup(id bioregion.MPAID, cp string) (Score, bool) {
	sc, ok := s[id][cp]
	return sc, ok
}

// Options configures a Scorer.
type Options struct {
	Inclusion   *matrix.Inclusion
	Overrides   matrix.Overrides
	Conventions bioregion.Conventions
	Logger      logging.Logger
}

// Scorer reconciles HU and CP presence against the interaction matrix.
type Scorer struct {
	matrix *matrix.Interactions
	opts   Options
	log    logging.Logger
}

// NewScorer returns a Scorer.
func NewScorer(m *matrix.Interactions, opts Options) *Scorer {
	if opts.Inclusion == nil {
		opts.Inclusion = matrix.NewInclusion()
	}
	return &Scorer{matrix: m, opts: opts, log: logging.OrNop(opts.Logger).Named("interaction")}
}

type presentHU struct {
	identity    bioregion.Identity
	placeholder bool
}

// Score scores every CP present in every MPA of cp. Co-occurrence anywhere
// in the MPA counts; ecosections are ignored.
func (s *Scorer) Score(hu, cp *presence.Set) (Scores, *validation.Report) {
	report := validation.NewReport()
	uses := s.humanUses(hu)

	missing := make(map[string]bool)
	scores := make(Scores)
	for _, mpaID := range cp.MPAs() {
		row := make(map[string]Score)
		for _, name := range cp.Layers(mpaID) {
			cpID := cp.Identities[name]
			if !s.matrix.HasCP(cpID.InteractionKey) && !missing[cpID.InteractionKey] {
				missing[cpID.InteractionKey] = true
				report.AddInfo(validation.Result{
					Level:   validation.LevelInteraction,
					Layer:   name,
					Message: fmt.Sprintf("CP key %q has no recorded interactions", cpID.InteractionKey),
				})
			}

			sc := Score{MPA: mpaID, CP: name, Interactions: []Interaction{}}
			var severities []matrix.Severity
			for _, h := range uses[mpaID] {
				sev, ok := s.matrix.Lookup(cpID.InteractionKey, h.identity.InteractionKey)
				if !ok {
					continue
				}
				severities = append(severities, sev)
				sc.Interactions = append(sc.Interactions, Interaction{
					HU:          h.identity.Name,
					Severity:    sev,
					Placeholder: h.placeholder,
				})
			}
			sc.Effectiveness = Effectiveness(severities)
			row[name] = sc
		}
		scores[mpaID] = row
	}

	s.log.Debug("interactions scored",
		logging.Int("mpas", len(scores)),
		logging.Int("cp_without_interactions", len(missing)))
	return scores, report
}

// humanUses lists the HUs present in each MPA, including placeholders for
// HUs the inclusion matrix forces in, sorted by name.
func (s *Scorer) humanUses(hu *presence.Set) map[bioregion.MPAID][]presentHU {
	byName := make(map[bioregion.MPAID]map[string]presentHU)
	add := func(id bioregion.MPAID, h presentHU) {
		row, ok := byName[id]
		if !ok {
			row = make(map[string]presentHU)
			byName[id] = row
		}
		if _, seen := row[h.identity.Name]; !seen {
			row[h.identity.Name] = h
		}
	}

	for _, mpaID := range hu.MPAs() {
		for _, name := range hu.Layers(mpaID) {
			add(mpaID, presentHU{identity: hu.Identities[name]})
		}
	}

	inc := s.opts.Inclusion
	for _, mpaID := range inc.MPAs() {
		for _, column := range inc.Layers() {
			if s.opts.Conventions.Kind(column) != bioregion.KindHU {
				continue
			}
			if !matrix.Forced(inc.Lookup(mpaID, column), s.opts.Overrides) {
				continue
			}
			id, err := s.opts.Conventions.Parse(column)
			if err != nil {
				s.log.Warn("inclusion column is not a valid HU name", logging.Layer(column), logging.Err(err))
				continue
			}
			add(mpaID, presentHU{identity: id, placeholder: true})
		}
	}

	out := make(map[bioregion.MPAID][]presentHU, len(byName))
	for mpaID, row := range byName {
		list := make([]presentHU, 0, len(row))
		for _, h := range row {
			list = append(list, h)
		}
		sort.Slice(list, func(i, j int) bool { return list[i].identity.Name < list[j].identity.Name })
		out[mpaID] = list
	}
	return out
}
