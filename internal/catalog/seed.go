package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/evcraddock/sfa-backend/internal/db"
)

// SeedFile is the YAML layout accepted by Seed.
//
//	features:
//	  - id: F1
//	    name: Display
//	    details:
//	      - id: D1
//	        name: Rak depan
//	        sub_details:
//	          - id: S1
//	            name: Produk terpajang
type SeedFile struct {
	Features []SeedFeature `yaml:"features"`
}

// SeedFeature is a feature and its details.
type SeedFeature struct {
	ID      string       `yaml:"id"`
	Name    string       `yaml:"name"`
	Active  *bool        `yaml:"active"`
	Details []SeedDetail `yaml:"details"`
}

// SeedDetail is a detail and its sub-details. Order defaults to the
// item's 1-based position in the file.
type SeedDetail struct {
	ID         string          `yaml:"id"`
	Name       string          `yaml:"name"`
	Order      int             `yaml:"order"`
	Active     *bool           `yaml:"active"`
	SubDetails []SeedSubDetail `yaml:"sub_details"`
}

// SeedSubDetail is a single checklist item.
type SeedSubDetail struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Order  int    `yaml:"order"`
	Active *bool  `yaml:"active"`
}

// SeedResult counts the rows written by Seed.
type SeedResult struct {
	Features   int
	Details    int
	SubDetails int
}

const (
	upsertFeatureSQL = `INSERT INTO bsa_feature (id_feature, nama, is_active) VALUES (?, ?, ?)
		ON CONFLICT (id_feature) DO UPDATE SET nama = excluded.nama, is_active = excluded.is_active`
	upsertDetailSQL = `INSERT INTO bsa_featuredetail (id_featuredetail, id_feature, nama, urutan, is_active)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id_featuredetail) DO UPDATE SET id_feature = excluded.id_feature,
			nama = excluded.nama, urutan = excluded.urutan, is_active = excluded.is_active`
	upsertSubDetailSQL = `INSERT INTO bsa_featuresubdetail (id_featuresubdetail, id_featuredetail, nama, urutan, is_active)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id_featuresubdetail) DO UPDATE SET id_featuredetail = excluded.id_featuredetail,
			nama = excluded.nama, urutan = excluded.urutan, is_active = excluded.is_active`
)

// ParseSeed decodes and checks a YAML catalog.
func ParseSeed(r io.Reader) (*SeedFile, error) {
	var f SeedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("catalog file is empty")
		}
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	for i, feat := range f.Features {
		if feat.ID == "" || feat.Name == "" {
			return nil, fmt.Errorf("feature %d: id and name are required", i+1)
		}
		for j, d := range feat.Details {
			if d.ID == "" || d.Name == "" {
				return nil, fmt.Errorf("feature %s detail %d: id and name are required", feat.ID, j+1)
			}
			for k, s := range d.SubDetails {
				if s.ID == "" || s.Name == "" {
					return nil, fmt.Errorf("detail %s sub-detail %d: id and name are required", d.ID, k+1)
				}
			}
		}
	}

	return &f, nil
}

// Seed loads a YAML catalog and upserts every row in one transaction.
// Rows not mentioned in the file are left untouched.
func Seed(ctx context.Context, d *db.DB, r io.Reader) (res SeedResult, err error) {
	f, err := ParseSeed(r)
	if err != nil {
		return SeedResult{}, err
	}

	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return SeedResult{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = fmt.Errorf("%w (also failed to roll back: %v)", err, rbErr)
			}
		}
	}()

	exec := func(query string, args ...any) error {
		_, err := tx.ExecContext(ctx, d.Rebind(query), args...)
		return err
	}

	for _, feat := range f.Features {
		if err := exec(upsertFeatureSQL, feat.ID, feat.Name, activeFlag(feat.Active)); err != nil {
			return SeedResult{}, fmt.Errorf("seeding feature %s: %w", feat.ID, err)
		}
		res.Features++

		for i, det := range feat.Details {
			if err := exec(upsertDetailSQL, det.ID, feat.ID, det.Name, orderOr(det.Order, i), activeFlag(det.Active)); err != nil {
				return SeedResult{}, fmt.Errorf("seeding detail %s: %w", det.ID, err)
			}
			res.Details++

			for j, sub := range det.SubDetails {
				if err := exec(upsertSubDetailSQL, sub.ID, det.ID, sub.Name, orderOr(sub.Order, j), activeFlag(sub.Active)); err != nil {
					return SeedResult{}, fmt.Errorf("seeding sub-detail %s: %w", sub.ID, err)
				}
				res.SubDetails++
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return SeedResult{}, fmt.Errorf("committing catalog: %w", err)
	}
	return res, nil
}

func activeFlag(b *bool) int {
	if b == nil || *b {
		return 1
	}
	return 0
}

func orderOr(order, index int) int {
	if order != 0 {
		return order
	}
	return index + 1
}
