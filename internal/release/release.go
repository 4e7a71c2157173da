// Package release tracks published builds of the mobile app so devices can
// check whether they need to update.
package release

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/evcraddock/sfa-backend/internal/db"
)

// ErrNotFound is returned when no version has the requested id.
var ErrNotFound = errors.New("version not found")

// ErrInvalid is returned when a new version is missing required fields.
var ErrInvalid = errors.New("invalid version")

// Version is a published app build.
type Version struct {
	ID            int64     `json:"id"`
	VersionName   string    `json:"version_name"`
	VersionCode   int64     `json:"version_code"`
	DownloadURL   string    `json:"download_url"`
	ReleaseNotes  string    `json:"release_notes"`
	IsForceUpdate int       `json:"is_force_update"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewVersion holds the fields needed to publish a build.
type NewVersion struct {
	VersionName  string
	VersionCode  int64
	DownloadURL  string
	ReleaseNotes string
	ForceUpdate  bool
}

// Validate checks required fields and that the download URL is absolute http(s).
func (n NewVersion) Validate() error {
	var missing []string
	if strings.TrimSpace(n.VersionName) == "" {
		missing = append(missing, "version_name")
	}
	if n.VersionCode <= 0 {
		missing = append(missing, "version_code")
	}
	if strings.TrimSpace(n.DownloadURL) == "" {
		missing = append(missing, "download_url")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalid, strings.Join(missing, ", "))
	}

	u, err := url.Parse(n.DownloadURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: download_url must be an http(s) URL", ErrInvalid)
	}
	return nil
}

const selectColumns = `SELECT id, version_name, version_code, download_url, release_notes, is_force_update, created_at
	FROM apk_versions`

// Repository handles app version persistence.
type Repository struct {
	db *db.DB
}

// NewRepository creates a release repository.
func NewRepository(d *db.DB) *Repository {
	return &Repository{db: d}
}

// Latest returns the version with the highest version code, or nil when
// nothing has been published.
func (r *Repository) Latest(ctx context.Context) (*Version, error) {
	v, err := scanVersion(r.db.QueryRowContext(ctx, selectColumns+" ORDER BY version_code DESC, id DESC LIMIT 1"))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading latest version: %w", err)
	}
	return v, nil
}

// List returns all versions, newest version code first.
func (r *Repository) List(ctx context.Context) (versions []Version, err error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+" ORDER BY version_code DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("listing versions: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", cerr)
		}
	}()

	versions = []Version{}
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning version: %w", err)
		}
		versions = append(versions, *v)
	}
	return versions, rows.Err()
}

// Add publishes a version and returns it with its assigned id.
func (r *Repository) Add(ctx context.Context, n NewVersion) (*Version, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}

	force := 0
	if n.ForceUpdate {
		force = 1
	}
	notes := sql.NullString{String: n.ReleaseNotes, Valid: n.ReleaseNotes != ""}

	v, err := scanVersion(r.db.QueryRowContext(ctx, r.db.Rebind(`INSERT INTO apk_versions
		(version_name, version_code, download_url, release_notes, is_force_update)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id, version_name, version_code, download_url, release_notes, is_force_update, created_at`),
		strings.TrimSpace(n.VersionName), n.VersionCode, strings.TrimSpace(n.DownloadURL), notes, force,
	))
	if err != nil {
		return nil, fmt.Errorf("adding version: %w", err)
	}
	return v, nil
}

// Delete removes a version by id.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM apk_versions WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("deleting version: %w", err)
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

type scanner interface {
	Scan(dest ...any) error
}

func scanVersion(s scanner) (*Version, error) {
	var (
		v         Version
		notes     sql.NullString
		createdAt sql.NullTime
	)
	if err := s.Scan(&v.ID, &v.VersionName, &v.VersionCode, &v.DownloadURL, &notes, &v.IsForceUpdate, &createdAt); err != nil {
		return nil, err
	}
	v.ReleaseNotes = notes.String
	if createdAt.Valid {
		v.CreatedAt = createdAt.Time
	}
	return &v, nil
}
