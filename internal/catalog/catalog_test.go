package catalog

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evcraddock/sfa-backend/internal/db"
)

const testCatalog = `
features:
  - id: F1
    name: Display
    details:
      - id: D1
        name: Rak depan
        sub_details:
          - id: S1
            name: Produk terpajang
          - id: S2
            name: Harga terpasang
      - id: D2
        name: Gudang
      - id: D3
        name: Lama
        active: false
  - id: F2
    name: Promosi
    details:
      - id: D4
        name: Poster
        order: 7
        sub_details:
          - id: S3
            name: Poster baru
          - id: S4
            name: Poster rusak
            active: false
  - id: F3
    name: Arsip
    active: false
`

func testDB(t *testing.T) *db.DB {
	t.Helper()
	d, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, d.Close())
	})
	return d
}

func seededRepo(t *testing.T) (*Repository, *db.DB) {
	t.Helper()
	d := testDB(t)
	_, err := Seed(context.Background(), d, strings.NewReader(testCatalog))
	require.NoError(t, err)
	return NewRepository(d, 0), d
}

func ids[T any](items []T, id func(T) string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, id(it))
	}
	return out
}

func TestSeedCounts(t *testing.T) {
	d := testDB(t)

	res, err := Seed(context.Background(), d, strings.NewReader(testCatalog))
	require.NoError(t, err)
	assert.Equal(t, SeedResult{Features: 3, Details: 4, SubDetails: 4}, res)
}

func TestSeedIsIdempotent(t *testing.T) {
	repo, d := seededRepo(t)
	ctx := context.Background()

	renamed := strings.Replace(testCatalog, "name: Display", "name: Tampilan", 1)
	_, err := Seed(ctx, d, strings.NewReader(renamed))
	require.NoError(t, err)

	features, err := repo.ListFeatures(ctx)
	require.NoError(t, err)
	require.Len(t, features, 2)
	assert.Equal(t, "Tampilan", features[0].Name)
}

func TestSeedRejectsInvalid(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()

	cases := map[string]string{
		"empty":         "",
		"missing id":    "features:\n  - name: X\n",
		"unknown field": "features:\n  - id: F1\n    name: X\n    colour: red\n",
		"sub no name":   "features:\n  - id: F1\n    name: X\n    details:\n      - id: D1\n        name: Y\n        sub_details:\n          - id: S1\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Seed(ctx, d, strings.NewReader(doc))
			assert.Error(t, err)
		})
	}

	repo := NewRepository(d, 0)
	features, err := repo.ListFeatures(ctx)
	require.NoError(t, err)
	assert.Empty(t, features, "rejected files write nothing")
}

func TestListFeaturesActiveOnly(t *testing.T) {
	repo, _ := seededRepo(t)

	features, err := repo.ListFeatures(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"F1", "F2"}, ids(features, func(f Feature) string { return f.ID }))
	assert.Equal(t, 1, features[0].IsActive)
}

func TestListDetails(t *testing.T) {
	repo, _ := seededRepo(t)
	ctx := context.Background()

	all, err := repo.ListDetails(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"D1", "D2", "D4"}, ids(all, func(d Detail) string { return d.ID }))

	f2, err := repo.ListDetails(ctx, "F2")
	require.NoError(t, err)
	require.Len(t, f2, 1)
	assert.Equal(t, "F2", f2[0].FeatureID)
	assert.Equal(t, 7, f2[0].Order)

	none, err := repo.ListDetails(ctx, "nope")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestListSubDetails(t *testing.T) {
	repo, _ := seededRepo(t)
	ctx := context.Background()

	all, err := repo.ListSubDetails(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"S1", "S2", "S3"}, ids(all, func(s SubDetail) string { return s.ID }))

	d1, err := repo.ListSubDetails(ctx, "D1")
	require.NoError(t, err)
	assert.Equal(t, []string{"S1", "S2"}, ids(d1, func(s SubDetail) string { return s.ID }))
	assert.Equal(t, 1, d1[0].Order)
	assert.Equal(t, 2, d1[1].Order)
}

func TestDetailsWithSubs(t *testing.T) {
	repo, _ := seededRepo(t)

	got, err := repo.DetailsWithSubs(context.Background(), "F1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "D1", got[0].ID)
	assert.Equal(t, []string{"S1", "S2"}, ids(got[0].SubDetails, func(s SubDetail) string { return s.ID }))
	assert.Equal(t, "D2", got[1].ID)
	assert.NotNil(t, got[1].SubDetails)
	assert.Empty(t, got[1].SubDetails)
}

func TestDetailsWithSubsJSONShape(t *testing.T) {
	repo, _ := seededRepo(t)

	got, err := repo.DetailsWithSubs(context.Background(), "F2")
	require.NoError(t, err)

	data, err := json.Marshal(got)
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "D4", decoded[0]["ID_FEATUREDETAIL"])
	assert.Equal(t, "F2", decoded[0]["ID_FEATURE"])

	subs, ok := decoded[0]["SUBDETAIL"].([]any)
	require.True(t, ok, "SUBDETAIL must be a list")
	require.Len(t, subs, 1)
	assert.Equal(t, "S3", subs[0].(map[string]any)["ID_FEATURESUBDETAIL"])
}

func TestDetailsWithSubsUnknownFeature(t *testing.T) {
	repo, _ := seededRepo(t)

	got, err := repo.DetailsWithSubs(context.Background(), "nope")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestDetailsWithSubsRequiresFeature(t *testing.T) {
	repo, _ := seededRepo(t)

	_, err := repo.DetailsWithSubs(context.Background(), "")
	assert.Error(t, err)
}

func TestDetailsWithSubsFallsBackOnSubqueryFailure(t *testing.T) {
	repo, d := seededRepo(t)

	_, err := d.Exec("DROP TABLE bsa_featuresubdetail")
	require.NoError(t, err)

	got, err := repo.DetailsWithSubs(context.Background(), "F1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, det := range got {
		assert.NotNil(t, det.SubDetails)
		assert.Empty(t, det.SubDetails)
	}
}

func TestNewRepositoryDefaultTimeout(t *testing.T) {
	repo := NewRepository(nil, 0)
	assert.Equal(t, DefaultSubqueryTimeout, repo.subTimeout)
}
