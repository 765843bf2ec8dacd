package validation

import (
	"fmt"

	"github.com/jcristia/CGA/pkg/config"
	"github.com/jcristia/CGA/pkg/geo"
)

// ValidateConfig checks a loaded configuration before any input is read.
func ValidateConfig(c *config.Config) *Report {
	r := NewReport()

	validateCatalog(c, r)
	validateCRS(c, r)
	validateNaming(c, r)
	validateScaling(c, r)
	validateThresholds(c, r)
	validateMatrices(c, r)
	validateOutput(c, r)
	validateExecution(c, r)

	return r
}

func validateCatalog(c *config.Config, r *Report) {
	switch c.Catalog.Kind {
	case config.CatalogGeoJSON:
		if c.Catalog.Path == "" {
			r.AddError(Result{
				Level:    LevelConfig,
				Message:  "catalog.path is required for a geojson catalog",
				Path:     "catalog.path",
				Expected: "directory of *.geojson files",
			})
		}
	case config.CatalogPostGIS:
		if c.Catalog.DSN == "" {
			r.AddError(Result{
				Level:       LevelConfig,
				Message:     "catalog.dsn is required for a postgis catalog",
				Path:        "catalog.dsn",
				Suggestions: []string{"Set CGA_CATALOG_DSN or catalog.dsn in cga.yaml"},
			})
		}
	default:
		r.AddError(Result{
			Level:       LevelConfig,
			Message:     fmt.Sprintf("unknown catalog kind %q", c.Catalog.Kind),
			Path:        "catalog.kind",
			ActualValue: c.Catalog.Kind,
			Expected:    "geojson | postgis",
		})
	}
}

func validateCRS(c *config.Config, r *Report) {
	if t, err := geo.ParseCRS(c.TargetCRS); err != nil {
		r.AddError(Result{
			Level:       LevelConfig,
			Message:     err.Error(),
			Path:        "target_crs",
			ActualValue: c.TargetCRS,
			Expected:    "EPSG:3005 | EPSG:3857 | EPSG:4326",
		})
	} else if t != geo.BCAlbersCRS {
		r.AddWarning(Result{
			Level:       LevelConfig,
			Message:     "target CRS is not equal-area; areas will be distorted",
			Path:        "target_crs",
			ActualValue: c.TargetCRS,
		})
	}
	if c.Catalog.Kind == config.CatalogGeoJSON {
		if _, err := geo.ParseCRS(c.Catalog.SourceCRS); err != nil {
			r.AddError(Result{
				Level:       LevelConfig,
				Message:     err.Error(),
				Path:        "catalog.source_crs",
				ActualValue: c.Catalog.SourceCRS,
			})
		}
	}
}

func validateNaming(c *config.Config, r *Report) {
	if len(c.MPA.NameFields) == 0 {
		r.AddError(Result{
			Level:    LevelConfig,
			Message:  "mpa.name_fields must list at least one field",
			Path:     "mpa.name_fields",
			Expected: "[NAME_E, Name_E]",
		})
	}
	for _, p := range []struct{ path, value string }{
		{"mpa.prefix", c.MPA.Prefix},
		{"layers.cp_prefix", c.Layers.CPPrefix},
		{"layers.hu_prefix", c.Layers.HUPrefix},
		{"layers.ecosections", c.Layers.Ecosections},
		{"layers.subregions", c.Layers.Subregions},
	} {
		if p.value == "" {
			r.AddError(Result{
				Level:   LevelConfig,
				Message: p.path + " must not be empty",
				Path:    p.path,
			})
		}
	}
	if c.Layers.CPPrefix != "" && c.Layers.CPPrefix == c.Layers.HUPrefix {
		r.AddError(Result{
			Level:        LevelConfig,
			Message:      "CP and HU prefixes must differ",
			Path:         "layers.cp_prefix",
			ConflictWith: "layers.hu_prefix",
			ActualValue:  c.Layers.CPPrefix,
		})
	}
	if len(c.Layers.SubregionCodes) == 0 {
		r.AddError(Result{
			Level:    LevelConfig,
			Message:  "layers.subregion_codes must list at least one code",
			Path:     "layers.subregion_codes",
			Expected: "[CC, NC, NCVI, HG]",
		})
	}
}

func validateScaling(c *config.Config, r *Report) {
	if c.Scaling.Attribute != "" && c.Scaling.File != "" {
		r.AddError(Result{
			Level:        LevelConfig,
			Message:      "scaling.attribute and scaling.file are mutually exclusive",
			Path:         "scaling.attribute",
			ConflictWith: "scaling.file",
			Suggestions:  []string{"Keep one scaling source and remove the other"},
		})
	}
}

func validateThresholds(c *config.Config, r *Report) {
	for _, p := range []struct {
		path  string
		value float64
	}{
		{"presence.cp_threshold", c.Presence.CPThreshold},
		{"presence.hu_threshold", c.Presence.HUThreshold},
	} {
		if p.value < 0 || p.value > 1 {
			r.AddError(Result{
				Level:       LevelConfig,
				Message:     p.path + " must be a fraction",
				Path:        p.path,
				ActualValue: p.value,
				Expected:    "0 <= x <= 1",
			})
		}
	}
}

func validateMatrices(c *config.Config, r *Report) {
	if c.Interactions.Matrix == "" {
		r.AddError(Result{
			Level:   LevelConfig,
			Message: "interactions.matrix is required",
			Path:    "interactions.matrix",
		})
	}
	if c.Inclusion.Matrix == "" {
		r.AddError(Result{
			Level:   LevelConfig,
			Message: "inclusion.matrix is required",
			Path:    "inclusion.matrix",
		})
	}
}

func validateOutput(c *config.Config, r *Report) {
	for _, p := range []struct{ path, value string }{
		{"output.table1", c.Output.Table1},
		{"output.table2", c.Output.Table2},
		{"output.table3", c.Output.Table3},
	} {
		if p.value == "" {
			r.AddError(Result{
				Level:   LevelConfig,
				Message: p.path + " must not be empty",
				Path:    p.path,
			})
		}
	}
}

func validateExecution(c *config.Config, r *Report) {
	if c.Workers < 1 {
		r.AddError(Result{
			Level:       LevelConfig,
			Message:     "workers must be at least 1",
			Path:        "workers",
			ActualValue: c.Workers,
			Expected:    ">= 1",
		})
	}
	seen := make(map[string]bool, len(c.EcosectionOrder))
	for _, e := range c.EcosectionOrder {
		if seen[e] {
			r.AddWarning(Result{
				Level:       LevelConfig,
				Message:     fmt.Sprintf("ecosection %q listed twice in ecosection_order", e),
				Path:        "ecosection_order",
				ActualValue: e,
			})
		}
		seen[e] = true
	}
}
