// Package customer maintains customer (store) records visited by sales staff.
package customer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/evcraddock/sfa-backend/internal/db"
)

// ErrNotFound is returned when no customer has the requested id.
var ErrNotFound = errors.New("customer not found")

// ErrInvalidLocation is returned for coordinates outside the valid range.
var ErrInvalidLocation = errors.New("invalid location")

// Customer is a store with an optional geo-location.
type Customer struct {
	ID        string     `json:"id_pelanggan"`
	Name      string     `json:"nama"`
	Latitude  *float64   `json:"latitude"`
	Longitude *float64   `json:"longitude"`
	UpdatedBy string     `json:"updated_by,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Repository handles customer persistence.
type Repository struct {
	db  *db.DB
	now func() time.Time
}

// NewRepository creates a customer repository.
func NewRepository(d *db.DB) *Repository {
	return &Repository{db: d, now: time.Now}
}

// Add inserts a customer without a location.
func (r *Repository) Add(ctx context.Context, id, name string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("customer id is required")
	}
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(
		"INSERT INTO sfa_pelanggan (id, nama) VALUES (?, ?)"), id, name); err != nil {
		return fmt.Errorf("adding customer: %w", err)
	}
	return nil
}

// Get returns a customer by id.
func (r *Repository) Get(ctx context.Context, id string) (*Customer, error) {
	var (
		c         Customer
		lat, lng  sql.NullFloat64
		updatedBy sql.NullString
		updatedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, r.db.Rebind(
		"SELECT id, nama, latitude, longitude, updated_by, updated_at FROM sfa_pelanggan WHERE id = ?"), id,
	).Scan(&c.ID, &c.Name, &lat, &lng, &updatedBy, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading customer: %w", err)
	}

	if lat.Valid {
		c.Latitude = &lat.Float64
	}
	if lng.Valid {
		c.Longitude = &lng.Float64
	}
	c.UpdatedBy = updatedBy.String
	if updatedAt.Valid {
		c.UpdatedAt = &updatedAt.Time
	}
	return &c, nil
}

// UpdateLocation sets a customer's coordinates and records who changed them.
func (r *Repository) UpdateLocation(ctx context.Context, id string, lat, lng float64, updatedBy string) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidLocation, lat)
	}
	if lng < -180 || lng > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidLocation, lng)
	}

	result, err := r.db.ExecContext(ctx, r.db.Rebind(
		"UPDATE sfa_pelanggan SET latitude = ?, longitude = ?, updated_by = ?, updated_at = ? WHERE id = ?"),
		lat, lng, nullString(updatedBy), r.now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating location: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
