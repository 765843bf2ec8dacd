package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/jcristia/CGA/pkg/catalog"
	"github.com/jcristia/CGA/pkg/config"
	"github.com/jcristia/CGA/pkg/pipeline"
	"github.com/jcristia/CGA/pkg/validation"
)

func printResult(r validation.Result) {
	fmt.Printf("  [%s] %s\n", r.Level, r.Message)
	switch subject := r.Subject(); {
	case r.Path != "":
		fmt.Printf("    -> %s = %v\n", subject, r.ActualValue)
	case subject != "":
		fmt.Printf("    -> %s\n", subject)
	}
	if r.Expected != "" {
		fmt.Printf("    expected: %s\n", r.Expected)
	}
	if r.ConflictWith != "" {
		fmt.Printf("    conflicts with: %s\n", r.ConflictWith)
	}
	for _, s := range r.Suggestions {
		fmt.Printf("    * %s\n", s)
	}
}

func printValidationReport(r *validation.Report) {
	if len(r.Errors) > 0 {
		fmt.Printf("ERRORS (%d):\n", len(r.Errors))
		for _, e := range r.Errors {
			printResult(e)
		}
		fmt.Println()
	}

	if len(r.Warnings) > 0 {
		fmt.Printf("WARNINGS (%d):\n", len(r.Warnings))
		for _, w := range r.Warnings {
			printResult(w)
		}
		fmt.Println()
	}

	if len(r.Info) > 0 {
		fmt.Printf("INFO (%d):\n", len(r.Info))
		for _, i := range r.Info {
			fmt.Printf("  [%s] %s\n", i.Level, i.Message)
		}
		fmt.Println()
	}

	if r.Valid {
		fmt.Printf("Result: VALID (%s)\n", r.Summary)
	} else {
		fmt.Printf("Result: INVALID (%s)\n", r.Summary)
	}
}

func printClassification(c catalog.Classification) {
	fmt.Println()
	fmt.Printf("MPA layers:       %d\n", len(c.MPA))
	fmt.Printf("Ecosection layer: %s\n", c.Ecosections)
	fmt.Printf("Subregion layer:  %s\n", c.Subregions)
	fmt.Printf("CP layers:        %d\n", len(c.CP()))
	fmt.Printf("HU layers:        %d\n", len(c.HU()))
	fmt.Printf("Ignored:          %d\n", len(c.Ignored))
}

func printLayers(entries []catalog.Entry, c catalog.Classification) {
	role := make(map[string]string, len(entries))
	for _, name := range c.MPA {
		role[name] = "mpa"
	}
	role[c.Ecosections] = "ecosections"
	role[c.Subregions] = "subregions"
	for _, name := range c.Ignored {
		role[name] = "ignored"
	}
	features := make(map[string]int, len(c.Features))
	for i, id := range c.Features {
		features[id.Dataset] = i
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATASET\tCRS\tROLE\tNAME\tKEY\tSUBREGION")
	for _, e := range entries {
		if i, ok := features[e.Dataset]; ok {
			id := c.Features[i]
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", e.Dataset, e.CRS, id.Kind, id.Name, id.InteractionKey, id.Subregion)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t\t\t\n", e.Dataset, e.CRS, role[e.Dataset])
	}
	tw.Flush()
}

func printRunSummary(cfg *config.Config, res *pipeline.Result) {
	fmt.Println()
	fmt.Printf("Run %s\n", res.RunID)
	fmt.Println("===========================================")
	fmt.Printf("  MPAs:              %d\n", len(res.MPAs))
	fmt.Printf("  CP layers:         %d\n", len(res.Classification.CP()))
	fmt.Printf("  HU layers:         %d\n", len(res.Classification.HU()))
	fmt.Printf("  Table 1 rows:      %d -> %s\n", len(res.Tables.Table1), cfg.Path(cfg.Output.Table1))
	fmt.Printf("  Table 2 rows:      %d -> %s\n", len(res.Tables.Table2), cfg.Path(cfg.Output.Table2))
	fmt.Printf("  Table 3 rows:      %d -> %s\n", len(res.Tables.Table3), cfg.Path(cfg.Output.Table3))
	fmt.Printf("  Took:              %s\n", res.Finished.Sub(res.Started).Round(time.Millisecond))
}
