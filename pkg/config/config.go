package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/jcristia/CGA/pkg/apperr"
	"github.com/jcristia/CGA/pkg/bioregion"
	"github.com/jcristia/CGA/pkg/catalog"
	"github.com/jcristia/CGA/pkg/geo"
)

// FileName is the configuration file looked up in a project directory.
const FileName = "cga.yaml"

// Default returns the configuration used for keys absent from cga.yaml.
func Default() *Config {
	rules := catalog.DefaultRules()
	codes := make([]string, len(bioregion.ReportingSubregions))
	for i, s := range bioregion.ReportingSubregions {
		codes[i] = string(s)
	}
	order := make([]string, len(bioregion.DefaultEcosectionOrder))
	for i, e := range bioregion.DefaultEcosectionOrder {
		order[i] = string(e)
	}
	return &Config{
		SpecVersion: "1",
		Catalog: CatalogDef{
			Kind:      CatalogGeoJSON,
			Path:      "layers",
			Schema:    "public",
			SourceCRS: string(geo.WGS84),
		},
		TargetCRS: string(geo.BCAlbersCRS),
		MPA: MPADef{
			Prefix:     rules.MPAPrefix,
			NameFields: []string{"NAME_E", "Name_E"},
		},
		Layers: LayersDef{
			CPPrefix:        rules.Layers.CPPrefix,
			HUPrefix:        rules.Layers.HUPrefix,
			Ecosections:     rules.Ecosections,
			Subregions:      rules.Subregions,
			SubregionCodes:  codes,
			EcosectionField: "ecosection",
			SubregionField:  "subregion",
			Complex:         []string{"mpatt_eco_coarse_bottompatches_data"},
		},
		Presence: PresenceDef{CPThreshold: 0.05, HUThreshold: 0.05},
		Inclusion: InclusionDef{
			OverrideY: false,
			OverrideN: true,
		},
		Output: OutputDef{
			Table1: "output/table1_mpa_ecosection.csv",
			Table2: "output/table2_subregion.csv",
			Table3: "output/table3_slivers.csv",
		},
		Workspace: WorkspaceDef{
			Dir:     os.TempDir(),
			Cleanup: true,
		},
		EcosectionOrder: order,
		Workers:         1,
	}
}

// Load reads a configuration from a YAML file. Keys absent from the file
// keep their defaults and relative paths resolve against the file's
// directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.Config(path, fmt.Errorf("reading config file: %w", err))
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, apperr.Config(path, fmt.Errorf("parsing config YAML: %w", err))
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, apperr.Config(path, err)
	}
	cfg.dir = filepath.Dir(abs)
	return cfg, nil
}

// LoadProject loads cga.yaml from a project directory.
func LoadProject(projectDir string) (*Config, error) {
	return Load(filepath.Join(projectDir, FileName))
}

// Dir returns the project directory, or "" for configurations not read
// from disk.
func (c *Config) Dir() string { return c.dir }

// WithDir returns a copy of c rooted at dir.
func (c *Config) WithDir(dir string) *Config {
	cp := *c
	cp.dir = dir
	return &cp
}

// Path resolves p against the project directory. Empty paths stay empty.
func (c *Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
}

// Rules returns the dataset naming rules.
func (c *Config) Rules() catalog.Rules {
	codes := make([]bioregion.Subregion, len(c.Layers.SubregionCodes))
	for i, s := range c.Layers.SubregionCodes {
		codes[i] = bioregion.Subregion(s)
	}
	ref := catalog.DefaultRules().ReferencePrefix
	return catalog.Rules{
		MPAPrefix:       c.MPA.Prefix,
		Ecosections:     c.Layers.Ecosections,
		Subregions:      c.Layers.Subregions,
		ReferencePrefix: ref,
		Layers: bioregion.Conventions{
			CPPrefix:       c.Layers.CPPrefix,
			HUPrefix:       c.Layers.HUPrefix,
			SubregionCodes: codes,
		},
	}
}

// Subregions returns the configured subregion codes in column order.
func (c *Config) Subregions() []bioregion.Subregion {
	return c.Rules().Layers.SubregionCodes
}

// Ecosections returns the configured table 1 row order.
func (c *Config) Ecosections() []bioregion.EcosectionID {
	out := make([]bioregion.EcosectionID, len(c.EcosectionOrder))
	for i, e := range c.EcosectionOrder {
		out[i] = bioregion.EcosectionID(e)
	}
	return out
}

// Complex reports whether dataset must be exploded before use.
func (c *Config) Complex(dataset string) bool {
	for _, name := range c.Layers.Complex {
		if name == dataset {
			return true
		}
	}
	return false
}

// Target parses the target CRS.
func (c *Config) Target() (geo.CRS, error) {
	crs, err := geo.ParseCRS(c.TargetCRS)
	if err != nil {
		return "", apperr.Config("target_crs", err)
	}
	return crs, nil
}

// Source parses the catalog source CRS.
func (c *Config) Source() (geo.CRS, error) {
	crs, err := geo.ParseCRS(c.Catalog.SourceCRS)
	if err != nil {
		return "", apperr.Config("catalog.source_crs", err)
	}
	return crs, nil
}
