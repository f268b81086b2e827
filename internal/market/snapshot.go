// Package market defines the snapshot schema the forecast pipeline consumes.
// Upstream producers are loosely typed (numbers sometimes arrive as strings,
// optional fields are frequently missing), so decoding is deliberately
// tolerant: a field that cannot be coerced is marked invalid instead of
// failing the whole snapshot.
package market

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"marketcast/internal/common"
)

// Scalar is a numeric value that may arrive as a JSON number, a numeric
// string, or garbage. Garbage leaves Valid false; it never fails the decode.
type Scalar struct {
	Value float64
	Valid bool
}

// Num wraps a plain float64 in a valid Scalar.
func Num(v float64) Scalar { return Scalar{Value: v, Valid: true} }

func (s *Scalar) UnmarshalJSON(data []byte) error {
	s.Value, s.Valid = 0, false

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return nil
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
		if err != nil {
			return nil
		}
		s.Value, s.Valid = v, true
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	s.Value, s.Valid = v, true
	return nil
}

func (s Scalar) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(s.Value)
}

// Outcome is one possible resolution of a market.
type Outcome struct {
	Name string `json:"name"`
}

// HistoryPoint is one past observation of the market's price vector,
// chronological order, most recent last.
type HistoryPoint struct {
	Prices []Scalar `json:"prices"`
}

// Snapshot is the input record for a single forecast. All fields are
// read-only once decoded.
type Snapshot struct {
	ID             string         `json:"id,omitempty"`
	TotalVolume    Scalar         `json:"totalVolume"`
	TotalLiquidity Scalar         `json:"totalLiquidity"`
	ResolutionTime string         `json:"resolutionTime,omitempty"`
	Prices         []Scalar       `json:"prices,omitempty"`
	OutcomeCount   int            `json:"outcomeCount,omitempty"`
	Outcomes       []Outcome      `json:"outcomes,omitempty"`
	History        []HistoryPoint `json:"history,omitempty"`
}

// Decode parses a snapshot from raw JSON. This is the only place a malformed
// input surfaces as an error; individual bad fields inside a structurally
// valid snapshot degrade to defaults instead.
func Decode(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// NumOutcomes resolves the outcome count for one forecast: length of the
// price vector when present, the advisory outcomeCount when usable, two
// otherwise. Every stage of a single call must use this one resolution.
func (s *Snapshot) NumOutcomes() int {
	if s == nil {
		return common.DefaultOutcomeCount
	}
	if len(s.Prices) > 0 {
		return len(s.Prices)
	}
	if s.OutcomeCount >= 2 {
		return s.OutcomeCount
	}
	return common.DefaultOutcomeCount
}

// PriceValues returns the price vector as floats. ok is false when the
// vector is empty or any entry failed coercion; callers treat that as
// "no usable prices" rather than an error.
func (s *Snapshot) PriceValues() (vals []float64, ok bool) {
	if s == nil || len(s.Prices) == 0 {
		return nil, false
	}
	vals = make([]float64, len(s.Prices))
	for i, p := range s.Prices {
		if !p.Valid {
			return nil, false
		}
		vals[i] = p.Value
	}
	return vals, true
}

// OutcomeName returns the display name for outcome i, synthesizing one when
// the snapshot carries no usable name at that index.
func (s *Snapshot) OutcomeName(i int) string {
	if s != nil && i >= 0 && i < len(s.Outcomes) && s.Outcomes[i].Name != "" {
		return s.Outcomes[i].Name
	}
	return "Outcome " + strconv.Itoa(i)
}

// resolutionLayouts covers the timestamp shapes upstream actually sends:
// RFC 3339 with zone, naive datetimes (assumed UTC), and bare dates.
var resolutionLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// HoursToResolution reports the signed hours from now until resolutionTime.
// ok is false when the field is absent or unparseable.
func (s *Snapshot) HoursToResolution(now time.Time) (hours float64, ok bool) {
	if s == nil || s.ResolutionTime == "" {
		return 0, false
	}
	raw := strings.TrimSpace(s.ResolutionTime)
	for _, layout := range resolutionLayouts {
		t, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		return t.Sub(now).Hours(), true
	}
	return 0, false
}
