package pipeline

import (
	"context"

	"github.com/jcristia/CGA/pkg/apperr"
	"github.com/jcristia/CGA/pkg/catalog"
	"github.com/jcristia/CGA/pkg/config"
)

// OpenCatalog returns the catalog described by cfg and a function that
// releases it.
func OpenCatalog(ctx context.Context, cfg *config.Config) (catalog.Catalog, func(), error) {
	switch cfg.Catalog.Kind {
	case config.CatalogGeoJSON:
		crs, err := cfg.Source()
		if err != nil {
			return nil, nil, err
		}
		return catalog.NewGeoJSONDir(cfg.Path(cfg.Catalog.Path), crs), func() {}, nil
	case config.CatalogPostGIS:
		db, err := catalog.OpenPostGIS(ctx, cfg.Catalog.DSN, cfg.Catalog.Schema)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	default:
		return nil, nil, apperr.Configf("unknown catalog kind %q", cfg.Catalog.Kind)
	}
}

// WriteTables writes the three output tables to the paths in cfg.
func WriteTables(cfg *config.Config, res *Result) error {
	if res == nil || res.Tables == nil {
		return apperr.Configf("no tables to write")
	}
	return res.Tables.WriteFiles(
		cfg.Path(cfg.Output.Table1),
		cfg.Path(cfg.Output.Table2),
		cfg.Path(cfg.Output.Table3),
	)
}
