package report

import (
	"io"

	"github.com/jcristia/CGA/internal/csvio"
)

// Header returns the column headers of the three tables.
func (t *Tables) Header() (table1, table2, table3 []string) {
	table1 = append([]string{"MPA", "Subregion", "Ecosection"}, t.CPs...)
	table2 = []string{"CP"}
	for _, s := range t.Subregions {
		table2 = append(table2, string(s))
	}
	table3 = []string{"mpa", "type", "cp_hu", "percent_overlap"}
	return table1, table2, table3
}

// Records renders the tables as CSV records, without headers. Absent cells
// are blank and undefined fractions read "undefined".
func (t *Tables) Records() (table1, table2, table3 [][]string) {
	for _, row := range t.Table1 {
		rec := []string{string(row.MPA), string(row.Subregion), string(row.Ecosection)}
		for _, cp := range t.CPs {
			v, ok := row.Values[cp]
			if !ok {
				rec = append(rec, "")
				continue
			}
			rec = append(rec, v.PctOfOriginal.String())
		}
		table1 = append(table1, rec)
	}

	for _, row := range t.Table2 {
		rec := []string{row.CP}
		for _, s := range t.Subregions {
			c, ok := row.Cells[s]
			if !ok {
				rec = append(rec, "")
				continue
			}
			rec = append(rec, c.Pct.String())
		}
		table2 = append(table2, rec)
	}

	for _, row := range t.Table3 {
		table3 = append(table3, []string{string(row.MPA), string(row.Type), row.Layer, row.PercentOverlap.String()})
	}
	return table1, table2, table3
}

// WriteCSV writes the three tables to w1, w2 and w3.
func (t *Tables) WriteCSV(w1, w2, w3 io.Writer) error {
	h1, h2, h3 := t.Header()
	r1, r2, r3 := t.Records()
	if err := csvio.Write(w1, h1, r1); err != nil {
		return err
	}
	if err := csvio.Write(w2, h2, r2); err != nil {
		return err
	}
	return csvio.Write(w3, h3, r3)
}

// WriteFiles writes the three tables to the given paths, creating parent
// directories as needed.
func (t *Tables) WriteFiles(table1, table2, table3 string) error {
	h1, h2, h3 := t.Header()
	r1, r2, r3 := t.Records()
	if err := csvio.WriteFile(table1, h1, r1); err != nil {
		return err
	}
	if err := csvio.WriteFile(table2, h2, r2); err != nil {
		return err
	}
	return csvio.WriteFile(table3, h3, r3)
}
