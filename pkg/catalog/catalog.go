// Package catalog discovers and opens the named polygon layers an analysis
// run consumes.
package catalog

import (
	"context"
	"errors"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/jcristia/CGA/pkg/geo"
)

// ErrNotFound is returned by Open for unknown datasets.
var ErrNotFound = errors.New("dataset not found")

// Entry describes one dataset available in a catalog.
type Entry struct {
	Dataset string  `json:"dataset"`
	CRS     geo.CRS `json:"crs"`
}

// RawFeature is a feature as stored, before normalization.
type RawFeature struct {
	Geometry   orb.Geometry
	Properties map[string]interface{}
}

// Layer is an opened dataset.
type Layer struct {
	Dataset  string
	CRS      geo.CRS
	Features []RawFeature
}

// Catalog lists and opens datasets.
type Catalog interface {
	List(ctx context.Context) ([]Entry, error)
	Open(ctx context.Context, dataset string) (*Layer, error)
}

func fromGeoJSON(f *geojson.Feature) RawFeature {
	props := make(map[string]interface{}, len(f.Properties))
	for k, v := range f.Properties {
		props[k] = v
	}
	return RawFeature{Geometry: f.Geometry, Properties: props}
}
