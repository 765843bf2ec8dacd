package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paulmach/orb/geojson"

	"github.com/jcristia/CGA/pkg/geo"
)

// querier is the subset of *pgxpool.Pool used here.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostGIS serves every table registered in geometry_columns of one schema.
type PostGIS struct {
	db     querier
	pool   *pgxpool.Pool
	schema string
}

// OpenPostGIS connects to dsn and verifies the connection.
func OpenPostGIS(ctx context.Context, dsn, schema string) (*PostGIS, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgis catalog: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to postgis catalog: %w", err)
	}
	if schema == "" {
		schema = "public"
	}
	return &PostGIS{db: pool, pool: pool, schema: schema}, nil
}

// Close releases the connection pool.
func (p *PostGIS) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

const listSQL = `
SELECT f_table_name, srid
FROM geometry_columns
WHERE f_table_schema = $1
ORDER BY f_table_name`

func (p *PostGIS) List(ctx context.Context) ([]Entry, error) {
	rows, err := p.db.Query(ctx, listSQL, p.schema)
	if err != nil {
		return nil, fmt.Errorf("listing geometry tables: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var name string
		var srid int
		if err := rows.Scan(&name, &srid); err != nil {
			return nil, fmt.Errorf("scanning geometry_columns: %w", err)
		}
		entries = append(entries, Entry{Dataset: name, CRS: sridCRS(srid)})
	}
	return entries, rows.Err()
}

const columnSQL = `
SELECT f_geometry_column, srid
FROM geometry_columns
WHERE f_table_schema = $1 AND f_table_name = $2`

func (p *PostGIS) Open(ctx context.Context, dataset string) (*Layer, error) {
	var column string
	var srid int
	err := p.db.QueryRow(ctx, columnSQL, p.schema, dataset).Scan(&column, &srid)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", dataset, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("looking up %s: %w", dataset, err)
	}

	table := pgx.Identifier{p.schema, dataset}.Sanitize()
	query := fmt.Sprintf(`SELECT ST_AsGeoJSON(t.*, $1::text)::text FROM %s AS t`, table)
	rows, err := p.db.Query(ctx, query, column)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dataset, err)
	}
	defer rows.Close()

	layer := &Layer{Dataset: dataset, CRS: sridCRS(srid)}
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", dataset, err)
		}
		f, err := geojson.UnmarshalFeature([]byte(doc))
		if err != nil {
			return nil, fmt.Errorf("decoding %s feature: %w", dataset, err)
		}
		layer.Features = append(layer.Features, fromGeoJSON(f))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", dataset, err)
	}
	return layer, nil
}

func sridCRS(srid int) geo.CRS {
	return geo.CRS("EPSG:" + strconv.Itoa(srid))
}
