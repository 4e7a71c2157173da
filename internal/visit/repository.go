package visit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/evcraddock/sfa-backend/internal/db"
)

// ErrNotFound is returned when no visit has the requested id.
var ErrNotFound = errors.New("visit not found")

// Repository reads stored visits.
type Repository struct {
	db *db.DB
}

// NewRepository creates a visit repository.
func NewRepository(d *db.DB) *Repository {
	return &Repository{db: d}
}

// Get returns the visit header and its checklist entries.
func (r *Repository) Get(ctx context.Context, visitID string) (*Visit, error) {
	var (
		v        Visit
		lat, lng sql.NullFloat64
		notes    sql.NullString
	)
	err := r.db.QueryRowContext(ctx, r.db.Rebind(
		`SELECT id_visit, tanggal, idspv, idpelanggan, latitude, longitude, mulai, selesai, catatan, idsales, nocall
		 FROM sfa_visit WHERE id_visit = ?`), visitID,
	).Scan(&v.VisitID, &v.Date, &v.SupervisorID, &v.CustomerID, &lat, &lng,
		&v.Start, &v.End, &notes, &v.SalesID, &v.CallNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading visit: %w", err)
	}
	if lat.Valid {
		v.Latitude = &lat.Float64
	}
	if lng.Valid {
		v.Longitude = &lng.Float64
	}
	v.Notes = notes.String

	entries, err := r.Entries(ctx, visitID)
	if err != nil {
		return nil, err
	}
	v.Entries = entries

	return &v, nil
}

// Entries returns the checklist entries stored for a visit.
func (r *Repository) Entries(ctx context.Context, visitID string) (entries []ChecklistEntry, err error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(
		`SELECT id_visit, id_feature, id_featuredetail, id_featuresubdetail, checklist
		 FROM sfa_visitdet WHERE id_visit = ?
		 ORDER BY id_featuredetail, id_featuresubdetail`), visitID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing checklist entries: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	entries = make([]ChecklistEntry, 0)
	for rows.Next() {
		var e ChecklistEntry
		var featureID sql.NullString
		if err := rows.Scan(&e.VisitID, &featureID, &e.DetailID, &e.SubDetailID, &e.Checked); err != nil {
			return nil, fmt.Errorf("scanning checklist entry: %w", err)
		}
		e.FeatureID = featureID.String
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating checklist entries: %w", err)
	}

	return entries, nil
}
