package visit

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagUnmarshal(t *testing.T) {
	tests := []struct {
		in      string
		want    Flag
		wantErr bool
	}{
		{`true`, true, false},
		{`false`, false, false},
		{`1`, true, false},
		{`0`, false, false},
		{`"true"`, true, false},
		{`"1"`, true, false},
		{`"false"`, false, false},
		{`null`, false, false},
		{`2`, true, false},
		{`-1`, true, false},
		{`0.0`, false, false},
		{`"2"`, true, false},
		{`"0"`, false, false},
		{`"maybe"`, false, true},
		{`[1]`, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var f Flag
			err := json.Unmarshal([]byte(tt.in), &f)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, f)
		})
	}
}

func TestFlagAbsentIsUnchecked(t *testing.T) {
	var s SubDetail
	require.NoError(t, json.Unmarshal([]byte(`{"id_feature_sub_detail":"S1"}`), &s))

	assert.Equal(t, 0, s.Checked.Int())
}

func TestIDUnmarshal(t *testing.T) {
	tests := []struct {
		in      string
		want    ID
		wantErr bool
	}{
		{`"V1"`, "V1", false},
		{`" V1 "`, "V1", false},
		{`42`, "42", false},
		{`null`, "", false},
		{`true`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var id ID
			err := json.Unmarshal([]byte(tt.in), &id)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestPayloadDecode(t *testing.T) {
	body := `{
		"id_visit": "V1",
		"tanggal": "2024-01-01",
		"id_spv": 7,
		"id_pelanggan": "C1",
		"latitude": -6.2,
		"longitude": 106.8,
		"mulai": "2024-01-01T09:00:00.000",
		"selesai": "2024-01-01T09:45:00.000",
		"id_feature": "F1",
		"id_sales": "S1",
		"nocall": "N1",
		"details": [
			{"id_feature_detail": "D1", "sub_details": [{"id_feature_sub_detail": "S1", "is_checked": true}]}
		]
	}`

	var p Payload
	require.NoError(t, json.Unmarshal([]byte(body), &p))

	assert.Equal(t, ID("7"), p.SupervisorID)
	require.NotNil(t, p.Latitude)
	assert.InDelta(t, -6.2, *p.Latitude, 1e-9)
	require.Len(t, p.Details, 1)
	assert.Equal(t, Flag(true), p.Details[0].SubDetails[0].Checked)

	h, err := p.Validate()
	require.NoError(t, err)
	assert.Equal(t, "V1", h.VisitID)
	assert.Empty(t, h.Notes)
}
