package status

import (
	"encoding/json"
	"testing"
	"time"

	"kafe-backend/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestNormalize_Representations(t *testing.T) {
	want := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	istanbul := time.FixedZone("TRT", 3*60*60)

	tests := []struct {
		name string
		in   any
	}{
		{"native", want.In(istanbul)},
		{"native pointer", &want},
		{"wrapper struct", SecondsWrapper{Seconds: want.Unix()}},
		{"wrapper map", map[string]any{"seconds": float64(want.Unix()), "nanoseconds": float64(0)}},
		{"underscore map", map[string]any{"_seconds": want.Unix()}},
		{"iso", "2026-03-14T09:30:00Z"},
		{"iso offset", "2026-03-14T12:30:00+03:00"},
		{"epoch millis", want.UnixMilli()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.in)
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "got %v", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestNormalize_Invalid(t *testing.T) {
	_, err := Normalize("yesterday-ish")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = Normalize(map[string]any{"minutes": 3})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = Normalize(struct{}{})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	zero, err := Normalize(nil)
	require.NoError(t, err)
	assert.True(t, zero.IsZero())
}

// Karışık biçimler aynı listede yerel zamanlarla birebir aynı sıralanmalı.
func TestTimestamp_MixedListSortsUniformly(t *testing.T) {
	payload := `[
		{"id": 1, "createdAt": "2026-03-14T09:05:00Z"},
		{"id": 2, "createdAt": {"seconds": 1773479100, "nanoseconds": 0}},
		{"id": 3, "createdAt": "2026-03-14T09:10:00.000Z"},
		{"id": 4, "createdAt": 1773479400000}
	]`
	var docs []struct {
		ID        uint      `json:"id"`
		CreatedAt Timestamp `json:"createdAt"`
	}
	require.NoError(t, json.Unmarshal([]byte(payload), &docs))

	mixed := make([]OrderSnapshot, 0, len(docs))
	for _, d := range docs {
		mixed = append(mixed, OrderSnapshot{ID: d.ID, Status: OrderPending, CreatedAt: d.CreatedAt.Time})
	}

	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	native := []OrderSnapshot{
		{ID: 1, Status: OrderPending, CreatedAt: base.Add(5 * time.Minute)},
		{ID: 2, Status: OrderPending, CreatedAt: base.Add(5 * time.Minute)},
		{ID: 3, Status: OrderPending, CreatedAt: base.Add(10 * time.Minute)},
		{ID: 4, Status: OrderPending, CreatedAt: base.Add(10 * time.Minute)},
	}

	newestFirst(mixed)
	newestFirst(native)
	assert.Equal(t, native, mixed)
	assert.Equal(t, uint(4), mixed[0].ID)
	assert.Equal(t, uint(4), mixed[SelectCurrentOrder(mixed)].ID)
}

func TestTimestamp_MarshalRoundTrip(t *testing.T) {
	ts := Timestamp{Time: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	out, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.JSONEq(t, `"2026-01-02T03:04:05Z"`, string(out))

	var back Timestamp
	require.NoError(t, json.Unmarshal([]byte("null"), &back))
	assert.True(t, back.IsZero())
}

func TestTimestamp_YAML(t *testing.T) {
	var doc struct {
		A Timestamp `yaml:"a"`
		B Timestamp `yaml:"b"`
		C Timestamp `yaml:"c"`
	}
	err := yaml.Unmarshal([]byte(`
a: "2026-03-14T09:05:00Z"
b: {seconds: 1773479100, nanoseconds: 0}
c: 1773479100000
`), &doc)
	require.NoError(t, err)
	assert.True(t, doc.A.Equal(doc.B.Time))
	assert.True(t, doc.B.Equal(doc.C.Time))

	err = yaml.Unmarshal([]byte("a: dün\n"), &doc)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}
