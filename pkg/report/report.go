// Package report assembles the protected-fraction tables of a run.
package report

import (
	"sort"

	"github.com/jcristia/CGA/pkg/bioregion"
	"github.com/jcristia/CGA/pkg/interaction"
	"github.com/jcristia/CGA/pkg/presence"
)

// Protected is one CP in one MPA ecosection after effectiveness scaling.
type Protected struct {
	CP            string             `json:"cp"`
	Effectiveness float64            `json:"effectiveness"`
	UnscaledArea  float64            `json:"unscaled_area"`
	ScaledArea    float64            `json:"scaled_area"`
	OriginalArea  float64            `json:"original_area"`
	SectionArea   float64            `json:"section_area"`
	PctOfSection  bioregion.Fraction `json:"pct_of_section"`
	PctOfOriginal bioregion.Fraction `json:"pct_of_original"`
}

// Table1Row is one MPA ecosection. Values is keyed by CP name.
type Table1Row struct {
	MPA        bioregion.MPAID        `json:"mpa"`
	Subregion  bioregion.Subregion    `json:"subregion"`
	Ecosection bioregion.EcosectionID `json:"ecosection"`
	Values     map[string]Protected   `json:"values"`
}

// Table2Cell aggregates one CP over the MPAs of one subregion.
type Table2Cell struct {
	Original  float64            `json:"original"`
	Protected float64            `json:"protected"`
	Pct       bioregion.Fraction `json:"pct"`
}

// Table2Row is one CP.
type Table2Row struct {
	CP    string                             `json:"cp"`
	Cells map[bioregion.Subregion]Table2Cell `json:"cells"`
}

// Table3Row is the raw overlap of one layer with one MPA.
type Table3Row struct {
	MPA            bioregion.MPAID     `json:"mpa"`
	Type           bioregion.LayerKind `json:"type"`
	Layer          string              `json:"layer"`
	PercentOverlap bioregion.Fraction  `json:"percent_overlap"`
}

// Tables is the complete output of a run.
type Tables struct {
	CPs        []string              `json:"cps"`
	Subregions []bioregion.Subregion `json:"subregions"`
	Table1     []Table1Row           `json:"table1"`
	Table2     []Table2Row           `json:"table2"`
	Table3     []Table3Row           `json:"table3"`
}

// Builder assembles Tables.
type Builder struct {
	ecosections []bioregion.EcosectionID
	subregions  []bioregion.Subregion
}

// NewBuilder returns a builder that orders table 1 ecosections by order
// and reports table 2 over subregions.
func NewBuilder(order []bioregion.EcosectionID, subregions []bioregion.Subregion) *Builder {
	return &Builder{ecosections: order, subregions: subregions}
}

// Build assembles all three tables.
func (b *Builder) Build(hu, cp *presence.Set, scores interaction.Scores) *Tables {
	t := &Tables{Subregions: append([]bioregion.Subregion(nil), b.subregions...)}
	t.Table1, t.CPs = b.table1(cp, scores)
	t.Table2 = b.table2(t.Table1, t.CPs)
	t.Table3 = table3(hu, cp)
	return t
}

func (b *Builder) table1(cp *presence.Set, scores interaction.Scores) ([]Table1Row, []string) {
	ids := make([]bioregion.MPAID, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	columns := make(map[string]bool)
	var rows []Table1Row
	for _, id := range ids {
		names := make([]string, 0, len(scores[id]))
		ecos := make(map[bioregion.EcosectionID]bool)
		for name := range scores[id] {
			names = append(names, name)
			for _, eco := range cp.Ecosections(id, name) {
				ecos[eco] = true
			}
		}
		sort.Strings(names)

		for _, eco := range b.order(ecos) {
			row := Table1Row{MPA: id, Ecosection: eco, Values: make(map[string]Protected)}
			for _, name := range names {
				rec, ok := cp.Record(id, eco, name)
				if !ok {
					continue
				}
				eff := scores[id][name].Effectiveness
				scaled := rec.ClippedArea * eff
				row.Subregion = rec.Subregion
				row.Values[name] = Protected{
					CP:            name,
					Effectiveness: eff,
					UnscaledArea:  rec.ClippedArea,
					ScaledArea:    scaled,
					OriginalArea:  rec.LayerTotalArea,
					SectionArea:   rec.SectionArea,
					PctOfSection:  bioregion.Ratio(scaled, rec.SectionArea, "protected fraction of MPA section"),
					PctOfOriginal: bioregion.Ratio(scaled, rec.LayerTotalArea, "protected fraction of "+name),
				}
				columns[name] = true
			}
			if len(row.Values) > 0 {
				rows = append(rows, row)
			}
		}
	}

	cps := make([]string, 0, len(columns))
	for name := range columns {
		cps = append(cps, name)
	}
	sort.Strings(cps)
	return rows, cps
}

// order lists ecos by the configured order, then the rest alphabetically.
func (b *Builder) order(ecos map[bioregion.EcosectionID]bool) []bioregion.EcosectionID {
	out := make([]bioregion.EcosectionID, 0, len(ecos))
	placed := make(map[bioregion.EcosectionID]bool, len(ecos))
	for _, eco := range b.ecosections {
		if ecos[eco] && !placed[eco] {
			out = append(out, eco)
			placed[eco] = true
		}
	}
	var rest []bioregion.EcosectionID
	for eco := range ecos {
		if !placed[eco] {
			rest = append(rest, eco)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	return append(out, rest...)
}

// table2 sums scaled area per CP and subregion. The original area is the
// total of the first contributing layer, which for subregion-clipped CPs
// is the variant clipped to that subregion.
func (b *Builder) table2(rows []Table1Row, cps []string) []Table2Row {
	reported := make(map[bioregion.Subregion]bool, len(b.subregions))
	for _, s := range b.subregions {
		reported[s] = true
	}

	cells := make(map[string]map[bioregion.Subregion]*Table2Cell)
	for _, row := range rows {
		if !reported[row.Subregion] {
			continue
		}
		for name, v := range row.Values {
			bySub, ok := cells[name]
			if !ok {
				bySub = make(map[bioregion.Subregion]*Table2Cell)
				cells[name] = bySub
			}
			c, ok := bySub[row.Subregion]
			if !ok {
				c = &Table2Cell{Original: v.OriginalArea}
				bySub[row.Subregion] = c
			}
			c.Protected += v.ScaledArea
		}
	}

	out := make([]Table2Row, 0, len(cps))
	for _, name := range cps {
		bySub, ok := cells[name]
		if !ok {
			continue
		}
		row := Table2Row{CP: name, Cells: make(map[bioregion.Subregion]Table2Cell, len(bySub))}
		for sub, c := range bySub {
			c.Pct = bioregion.Ratio(c.Protected, c.Original, "protected fraction of "+name)
			row.Cells[sub] = *c
		}
		out = append(out, row)
	}
	return out
}

func table3(sets ...*presence.Set) []Table3Row {
	var out []Table3Row
	for _, s := range sets {
		for id, layers := range s.Slivers {
			for name, frac := range layers {
				out = append(out, Table3Row{MPA: id, Type: s.Kind, Layer: name, PercentOverlap: frac})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.MPA != b.MPA {
			return a.MPA < b.MPA
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return a.Layer < b.Layer
	})
	return out
}
