package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/evcraddock/sfa-backend/internal/db"
)

// DefaultSubqueryTimeout bounds each sub-detail lookup in DetailsWithSubs.
const DefaultSubqueryTimeout = 5 * time.Second

const (
	featureColumns   = "id_feature, nama, is_active"
	detailColumns    = "id_featuredetail, id_feature, nama, urutan, is_active"
	subDetailColumns = "id_featuresubdetail, id_featuredetail, nama, urutan, is_active"
)

// Repository provides read access to the catalog.
type Repository struct {
	db         *db.DB
	subTimeout time.Duration
}

// NewRepository creates a catalog repository. A non-positive subqueryTimeout
// uses DefaultSubqueryTimeout.
func NewRepository(d *db.DB, subqueryTimeout time.Duration) *Repository {
	if subqueryTimeout <= 0 {
		subqueryTimeout = DefaultSubqueryTimeout
	}
	return &Repository{db: d, subTimeout: subqueryTimeout}
}

// ListFeatures returns all active features.
func (r *Repository) ListFeatures(ctx context.Context) (features []Feature, err error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+featureColumns+" FROM bsa_feature WHERE is_active = 1 ORDER BY id_feature")
	if err != nil {
		return nil, fmt.Errorf("listing features: %w", err)
	}
	defer closeRows(rows, &err)

	features = make([]Feature, 0)
	for rows.Next() {
		var f Feature
		if err := rows.Scan(&f.ID, &f.Name, &f.IsActive); err != nil {
			return nil, fmt.Errorf("scanning feature: %w", err)
		}
		features = append(features, f)
	}
	return features, rows.Err()
}

// ListDetails returns active details, limited to one feature when featureID is not empty.
func (r *Repository) ListDetails(ctx context.Context, featureID string) ([]Detail, error) {
	query := "SELECT " + detailColumns + " FROM bsa_featuredetail WHERE is_active = 1"
	var args []any
	if featureID != "" {
		query += " AND id_feature = ?"
		args = append(args, featureID)
	}
	query += " ORDER BY id_feature, urutan, id_featuredetail"

	return r.queryDetails(ctx, query, args...)
}

// ListSubDetails returns active sub-details, limited to one detail when detailID is not empty.
func (r *Repository) ListSubDetails(ctx context.Context, detailID string) ([]SubDetail, error) {
	query := "SELECT " + subDetailColumns + " FROM bsa_featuresubdetail WHERE is_active = 1"
	var args []any
	if detailID != "" {
		query += " AND id_featuredetail = ?"
		args = append(args, detailID)
	}
	query += " ORDER BY id_featuredetail, urutan, id_featuresubdetail"

	return r.querySubDetails(ctx, query, args...)
}

// DetailsWithSubs returns the active details of a feature, each with its
// active sub-details. A sub-detail lookup that fails or exceeds the subquery
// timeout yields an empty list for that detail rather than failing the call.
func (r *Repository) DetailsWithSubs(ctx context.Context, featureID string) ([]DetailWithSubs, error) {
	if featureID == "" {
		return nil, fmt.Errorf("feature id is required")
	}

	// Details are fully read before any sub-detail query so the single
	// SQLite connection is free again.
	details, err := r.ListDetails(ctx, featureID)
	if err != nil {
		return nil, err
	}

	out := make([]DetailWithSubs, 0, len(details))
	for _, d := range details {
		out = append(out, DetailWithSubs{Detail: d, SubDetails: r.subDetailsOrEmpty(ctx, d.ID)})
	}
	return out, nil
}

func (r *Repository) subDetailsOrEmpty(ctx context.Context, detailID string) []SubDetail {
	subCtx, cancel := context.WithTimeout(ctx, r.subTimeout)
	defer cancel()

	subs, err := r.ListSubDetails(subCtx, detailID)
	if err != nil {
		slog.Warn("sub-detail lookup failed, returning empty list",
			"detail_id", detailID,
			"error", err,
		)
		return []SubDetail{}
	}
	return subs
}

func (r *Repository) queryDetails(ctx context.Context, query string, args ...any) (details []Detail, err error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("listing details: %w", err)
	}
	defer closeRows(rows, &err)

	details = make([]Detail, 0)
	for rows.Next() {
		var d Detail
		if err := rows.Scan(&d.ID, &d.FeatureID, &d.Name, &d.Order, &d.IsActive); err != nil {
			return nil, fmt.Errorf("scanning detail: %w", err)
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

func (r *Repository) querySubDetails(ctx context.Context, query string, args ...any) (subs []SubDetail, err error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("listing sub-details: %w", err)
	}
	defer closeRows(rows, &err)

	subs = make([]SubDetail, 0)
	for rows.Next() {
		var s SubDetail
		if err := rows.Scan(&s.ID, &s.DetailID, &s.Name, &s.Order, &s.IsActive); err != nil {
			return nil, fmt.Errorf("scanning sub-detail: %w", err)
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

func closeRows(rows *sql.Rows, err *error) {
	if closeErr := rows.Close(); closeErr != nil && *err == nil {
		*err = fmt.Errorf("closing rows: %w", closeErr)
	}
}
