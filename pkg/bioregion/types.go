package bioregion

// MPAID identifies a Marine Protected Area by its unified name.
type MPAID string

// EcosectionID identifies an ecosection polygon by its name.
type EcosectionID string

// Subregion is one of the fixed coastal reporting zones.
type Subregion string

const (
	CentralCoast           Subregion = "CC"
	NorthCoast             Subregion = "NC"
	NorthCoastVancouverIsl Subregion = "NCVI"
	HaidaGwaii             Subregion = "HG"
)

// ReportingSubregions is the column order of the per-subregion table.
var ReportingSubregions = []Subregion{CentralCoast, NorthCoast, NorthCoastVancouverIsl, HaidaGwaii}

// LayerKind distinguishes human use layers from conservation priorities.
type LayerKind string

const (
	KindHU LayerKind = "hu"
	KindCP LayerKind = "cp"
)

// DefaultEcosectionOrder is the row order of the per-MPA table.
var DefaultEcosectionOrder = []EcosectionID{
	"Johnstone Strait",
	"Continental Slope",
	"Dixon Entrance",
	"Strait of Georgia",
	"Juan de Fuca Strait",
	"Queen Charlotte Strait",
	"North Coast Fjords",
	"Hecate Strait",
	"Queen Charlotte Sound",
	"Vancouver Island Shelf",
	"Transitional Pacific",
	"Subarctic Pacific",
}
