package geodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/paulmach/orb/geojson"

	"github.com/osmquality/osmquality/internal/engine"
	"github.com/osmquality/osmquality/internal/indicator"
)

// pgUndefinedTable is the PostgreSQL error code for a query against a table
// that does not exist. A missing results table means nothing was ever
// persisted, which the engine treats the same as a missing row.
const pgUndefinedTable = "42P01"

// GetFeature fetches a stored region with its geometry as GeoJSON. The
// dataset name is registry-validated by the engine before it reaches here,
// but is sanitized anyway because it is interpolated as an identifier.
func (db *DB) GetFeature(ctx context.Context, dataset, featureID string) (*geojson.Feature, error) {
	field, err := db.defaultField(dataset)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf(
		`SELECT ST_AsGeoJSON(geom), name FROM %s WHERE %s = $1`,
		pgx.Identifier{dataset}.Sanitize(), pgx.Identifier{field}.Sanitize(),
	)
	var rawGeom []byte
	var name string
	err = db.Pool.QueryRow(ctx, q, featureID).Scan(&rawGeom, &name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("geodb: region %s/%s: %w", dataset, featureID, engine.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	geom, err := geojson.UnmarshalGeometry(rawGeom)
	if err != nil {
		return nil, fmt.Errorf("geodb: region %s/%s geometry: %w", dataset, featureID, err)
	}
	feat := geojson.NewFeature(geom.Geometry())
	feat.ID = featureID
	feat.Properties["name"] = name
	return feat, nil
}

// MapFeatureID resolves an alternate id field value to the dataset's
// canonical feature id. Ambiguous values (several matching rows) are
// rejected rather than silently picking one.
func (db *DB) MapFeatureID(ctx context.Context, dataset, id, field string) (string, error) {
	def, err := db.defaultField(dataset)
	if err != nil {
		return "", err
	}
	q := fmt.Sprintf(
		`SELECT %s::text FROM %s WHERE %s = $1`,
		pgx.Identifier{def}.Sanitize(), pgx.Identifier{dataset}.Sanitize(), pgx.Identifier{field}.Sanitize(),
	)
	rows, err := db.Pool.Query(ctx, q, id)
	if err != nil {
		return "", err
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return "", err
	}
	switch len(ids) {
	case 0:
		return "", fmt.Errorf("geodb: no region with %s=%q in %s: %w", field, id, dataset, engine.ErrNotFound)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("geodb: %s=%q matches %d regions in %s", field, id, len(ids), dataset)
	}
}

// Area computes the area of the feature's geometry in square kilometers on
// the spheroid.
func (db *DB) Area(ctx context.Context, feat *geojson.Feature) (float64, error) {
	raw, err := geojson.NewGeometry(feat.Geometry).MarshalJSON()
	if err != nil {
		return 0, err
	}
	var sqkm float64
	err = db.Pool.QueryRow(ctx,
		`SELECT ST_Area(ST_SetSRID(ST_GeomFromGeoJSON($1), 4326)::geography) / 1000000.0`,
		string(raw),
	).Scan(&sqkm)
	return sqkm, err
}

// ZonalPopulation sums the GHS population raster inside the feature's
// geometry and returns the population count together with the geometry's
// area in square kilometers.
func (db *DB) ZonalPopulation(ctx context.Context, feat *geojson.Feature) (count, areaSqkm float64, err error) {
	raw, err := geojson.NewGeometry(feat.Geometry).MarshalJSON()
	if err != nil {
		return 0, 0, err
	}
	err = db.Pool.QueryRow(ctx, `
		WITH bpoly AS (
			SELECT ST_SetSRID(ST_GeomFromGeoJSON($1), 4326) AS geom
		)
		SELECT
			COALESCE(SUM((ST_SummaryStats(ST_Clip(p.rast, ST_Transform(b.geom, 954009)))).sum), 0),
			ST_Area(b.geom::geography) / 1000000.0
		FROM bpoly b
		LEFT JOIN ghs_pop p ON ST_Intersects(p.rast, ST_Transform(b.geom, 954009))
		GROUP BY b.geom
	`, string(raw)).Scan(&count, &areaSqkm)
	return count, areaSqkm, err
}

// LoadIndicator fills the indicator's result from a previously persisted
// computation. A missing row or a missing results table maps to
// engine.ErrNotFound.
func (db *DB) LoadIndicator(ctx context.Context, ind indicator.Indicator, dataset, featureID string) error {
	base := ind.Base()
	res := &base.Result
	err := db.Pool.QueryRow(ctx, `
		SELECT created_at, source_at, label, value, description, svg, html
		FROM results
		WHERE dataset = $1 AND fid = $2 AND indicator = $3 AND layer = $4
	`, dataset, featureID, base.Metadata.Name, base.Layer.LayerName()).Scan(
		&res.CreatedAt, &res.SourceAt, &res.Label, &res.Value,
		&res.Description, &res.SVG, &res.HTML,
	)
	if isMissing(err) {
		return fmt.Errorf("geodb: result %s/%s for %s/%s: %w",
			base.Metadata.Name, base.Layer.LayerName(), dataset, featureID, engine.ErrNotFound)
	}
	return err
}

// SaveIndicator upserts the indicator's result under its composite key,
// overwriting any previous value.
func (db *DB) SaveIndicator(ctx context.Context, ind indicator.Indicator, dataset, featureID string) error {
	base := ind.Base()
	res := base.Result
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO results
			(id, dataset, fid, indicator, layer,
			 created_at, source_at, label, value, description, svg, html)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (dataset, fid, indicator, layer) DO UPDATE SET
			created_at = EXCLUDED.created_at,
			source_at = EXCLUDED.source_at,
			label = EXCLUDED.label,
			value = EXCLUDED.value,
			description = EXCLUDED.description,
			svg = EXCLUDED.svg,
			html = EXCLUDED.html
	`, uuid.NewString(), dataset, featureID, base.Metadata.Name, base.Layer.LayerName(),
		res.CreatedAt, res.SourceAt, string(res.Label), res.Value,
		res.Description, res.SVG, res.HTML,
	)
	return err
}

// FeatureIDs lists every canonical feature id of the dataset, ordered.
func (db *DB) FeatureIDs(ctx context.Context, dataset string) ([]string, error) {
	field, err := db.defaultField(dataset)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf(
		`SELECT %s::text FROM %s ORDER BY 1`,
		pgx.Identifier{field}.Sanitize(), pgx.Identifier{dataset}.Sanitize(),
	)
	rows, err := db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (db *DB) defaultField(dataset string) (string, error) {
	ds, ok := db.reg.Dataset(dataset)
	if !ok {
		return "", fmt.Errorf("geodb: unknown dataset %q", dataset)
	}
	return ds.DefaultField, nil
}

func isMissing(err error) bool {
	if errors.Is(err, pgx.ErrNoRows) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUndefinedTable
}
