package config

// Config is the run configuration read from cga.yaml. It is not modified
// after Load returns.
type Config struct {
	SpecVersion     string          `yaml:"spec_version" json:"spec_version"`
	Catalog         CatalogDef      `yaml:"catalog" json:"catalog"`
	TargetCRS       string          `yaml:"target_crs" json:"target_crs"`
	MPA             MPADef          `yaml:"mpa" json:"mpa"`
	Layers          LayersDef       `yaml:"layers" json:"layers"`
	Scaling         ScalingDef      `yaml:"scaling" json:"scaling"`
	Presence        PresenceDef     `yaml:"presence" json:"presence"`
	Inclusion       InclusionDef    `yaml:"inclusion" json:"inclusion"`
	Interactions    InteractionsDef `yaml:"interactions" json:"interactions"`
	Output          OutputDef       `yaml:"output" json:"output"`
	Workspace       WorkspaceDef    `yaml:"workspace" json:"workspace"`
	EcosectionOrder []string        `yaml:"ecosection_order" json:"ecosection_order"`
	Workers         int             `yaml:"workers" json:"workers"`

	dir string
}

// CatalogDef selects where layers come from.
type CatalogDef struct {
	Kind      string `yaml:"kind" json:"kind"`
	Path      string `yaml:"path" json:"path"`
	DSN       string `yaml:"dsn" json:"-"`
	Schema    string `yaml:"schema" json:"schema"`
	SourceCRS string `yaml:"source_crs" json:"source_crs"`
}

const (
	CatalogGeoJSON = "geojson"
	CatalogPostGIS = "postgis"
)

type MPADef struct {
	Prefix     string   `yaml:"prefix" json:"prefix"`
	NameFields []string `yaml:"name_fields" json:"name_fields"`
}

type LayersDef struct {
	CPPrefix        string   `yaml:"cp_prefix" json:"cp_prefix"`
	HUPrefix        string   `yaml:"hu_prefix" json:"hu_prefix"`
	Ecosections     string   `yaml:"ecosections" json:"ecosections"`
	Subregions      string   `yaml:"subregions" json:"subregions"`
	SubregionCodes  []string `yaml:"subregion_codes" json:"subregion_codes"`
	EcosectionField string   `yaml:"ecosection_field" json:"ecosection_field"`
	SubregionField  string   `yaml:"subregion_field" json:"subregion_field"`
	Complex         []string `yaml:"complex" json:"complex"`
}

// ScalingDef configures per-feature scaling. Attribute and File are
// mutually exclusive.
type ScalingDef struct {
	Attribute string `yaml:"attribute" json:"attribute"`
	File      string `yaml:"file" json:"file"`
}

type PresenceDef struct {
	CPThreshold   float64 `yaml:"cp_threshold" json:"cp_threshold"`
	HUThreshold   float64 `yaml:"hu_threshold" json:"hu_threshold"`
	ThresholdFile string  `yaml:"threshold_file" json:"threshold_file"`
}

// InclusionDef configures the inclusion matrix. OverrideU is tri-state:
// nil leaves U cells to the threshold test.
type InclusionDef struct {
	Matrix    string `yaml:"matrix" json:"matrix"`
	OverrideY bool   `yaml:"override_y" json:"override_y"`
	OverrideN bool   `yaml:"override_n" json:"override_n"`
	OverrideU *bool  `yaml:"override_u" json:"override_u"`
}

type InteractionsDef struct {
	Matrix string `yaml:"matrix" json:"matrix"`
}

type OutputDef struct {
	Table1 string `yaml:"table1" json:"table1"`
	Table2 string `yaml:"table2" json:"table2"`
	Table3 string `yaml:"table3" json:"table3"`
}

type WorkspaceDef struct {
	Dir       string `yaml:"dir" json:"dir"`
	Cleanup   bool   `yaml:"cleanup" json:"cleanup"`
	Snapshots bool   `yaml:"snapshots" json:"snapshots"`
}
