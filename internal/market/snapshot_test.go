package market

import (
	"encoding/json"
	"testing"
	"time"
)

func TestScalar_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		raw   string
		value float64
		valid bool
	}{
		{"number", `12.5`, 12.5, true},
		{"integer", `3`, 3, true},
		{"numeric string", `"0.75"`, 0.75, true},
		{"padded numeric string", `" 42 "`, 42, true},
		{"null", `null`, 0, false},
		{"garbage string", `"not-a-number"`, 0, false},
		{"object", `{"v":1}`, 0, false},
		{"array", `[1,2]`, 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var s Scalar
			if err := json.Unmarshal([]byte(tc.raw), &s); err != nil {
				t.Fatalf("Unmarshal(%s) returned error: %v", tc.raw, err)
			}
			if s.Valid != tc.valid {
				t.Errorf("Unmarshal(%s): valid = %v, want %v", tc.raw, s.Valid, tc.valid)
			}
			if s.Valid && s.Value != tc.value {
				t.Errorf("Unmarshal(%s): value = %v, want %v", tc.raw, s.Value, tc.value)
			}
		})
	}
}

func TestDecode_ToleratesLooseFields(t *testing.T) {
	t.Parallel()

	raw := `{
		"id": "mkt-1",
		"totalVolume": "1200.5",
		"totalLiquidity": 300,
		"prices": [0.6, "0.4"],
		"outcomes": [{"name": "Yes"}, {"name": "No"}],
		"history": [{"prices": [0.5, 0.5]}, {"prices": ["0.6", 0.4]}]
	}`

	snap, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !snap.TotalVolume.Valid || snap.TotalVolume.Value != 1200.5 {
		t.Errorf("totalVolume = %+v, want 1200.5", snap.TotalVolume)
	}
	vals, ok := snap.PriceValues()
	if !ok {
		t.Fatal("PriceValues not ok for coercible prices")
	}
	if vals[0] != 0.6 || vals[1] != 0.4 {
		t.Errorf("prices = %v, want [0.6 0.4]", vals)
	}
	if len(snap.History) != 2 {
		t.Errorf("history length = %d, want 2", len(snap.History))
	}
}

func TestDecode_MalformedInput(t *testing.T) {
	t.Parallel()

	if _, err := Decode([]byte(`{not json`)); err == nil {
		t.Error("expected error for malformed JSON")
	}
	if _, err := Decode([]byte(`[1,2,3]`)); err == nil {
		t.Error("expected error for non-object input")
	}
}

func TestSnapshot_NumOutcomes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		snap *Snapshot
		want int
	}{
		{"nil snapshot", nil, 2},
		{"empty snapshot", &Snapshot{}, 2},
		{"prices win over outcomeCount", &Snapshot{Prices: []Scalar{Num(0.2), Num(0.3), Num(0.5)}, OutcomeCount: 5}, 3},
		{"outcomeCount when no prices", &Snapshot{OutcomeCount: 4}, 4},
		{"outcomeCount below two ignored", &Snapshot{OutcomeCount: 1}, 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.snap.NumOutcomes(); got != tc.want {
				t.Errorf("NumOutcomes() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestSnapshot_PriceValues(t *testing.T) {
	t.Parallel()

	empty := &Snapshot{}
	if _, ok := empty.PriceValues(); ok {
		t.Error("expected ok=false for empty prices")
	}

	bad := &Snapshot{Prices: []Scalar{Num(0.5), {}}}
	if _, ok := bad.PriceValues(); ok {
		t.Error("expected ok=false when an entry failed coercion")
	}
}

func TestSnapshot_OutcomeName(t *testing.T) {
	t.Parallel()

	snap := &Snapshot{Outcomes: []Outcome{{Name: "Yes"}, {}}}
	if got := snap.OutcomeName(0); got != "Yes" {
		t.Errorf("OutcomeName(0) = %q, want Yes", got)
	}
	if got := snap.OutcomeName(1); got != "Outcome 1" {
		t.Errorf("OutcomeName(1) = %q, want synthesized name", got)
	}
	if got := snap.OutcomeName(7); got != "Outcome 7" {
		t.Errorf("OutcomeName(7) = %q, want synthesized name", got)
	}
	if got := (*Snapshot)(nil).OutcomeName(0); got != "Outcome 0" {
		t.Errorf("nil snapshot OutcomeName(0) = %q, want synthesized name", got)
	}
}

func TestSnapshot_HoursToResolution(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		field string
		want  float64
		ok    bool
	}{
		{"rfc3339 future", "2026-03-02T12:00:00Z", 24, true},
		{"rfc3339 past", "2026-03-01T06:00:00Z", -6, true},
		{"naive datetime", "2026-03-01T18:00:00", 6, true},
		{"bare date", "2026-03-03", 36, true},
		{"absent", "", 0, false},
		{"garbage", "soon", 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			snap := &Snapshot{ResolutionTime: tc.field}
			got, ok := snap.HoursToResolution(now)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if ok && got != tc.want {
				t.Errorf("hours = %v, want %v", got, tc.want)
			}
		})
	}
}
