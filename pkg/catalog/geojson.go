package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/paulmach/orb/geojson"

	"github.com/jcristia/CGA/pkg/geo"
)

const geojsonExt = ".geojson"

// GeoJSONDir serves every *.geojson file in Dir as a dataset named by its
// file stem. All files share one CRS.
type GeoJSONDir struct {
	Dir string
	CRS geo.CRS
}

// NewGeoJSONDir returns a catalog over dir.
func NewGeoJSONDir(dir string, crs geo.CRS) *GeoJSONDir {
	return &GeoJSONDir{Dir: dir, CRS: crs}
}

func (d *GeoJSONDir) List(ctx context.Context) ([]Entry, error) {
	des, err := os.ReadDir(d.Dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", d.Dir, err)
	}
	var entries []Entry
	for _, de := range des {
		if de.IsDir() || !strings.EqualFold(filepath.Ext(de.Name()), geojsonExt) {
			continue
		}
		stem := strings.TrimSuffix(de.Name(), filepath.Ext(de.Name()))
		entries = append(entries, Entry{Dataset: stem, CRS: d.CRS})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Dataset < entries[j].Dataset })
	return entries, ctx.Err()
}

func (d *GeoJSONDir) Open(ctx context.Context, dataset string) (*Layer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(d.Dir, dataset+geojsonExt)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: %w", dataset, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	layer := &Layer{Dataset: dataset, CRS: d.CRS, Features: make([]RawFeature, 0, len(fc.Features))}
	for _, f := range fc.Features {
		layer.Features = append(layer.Features, fromGeoJSON(f))
	}
	return layer, nil
}
