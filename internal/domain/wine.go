package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// WineData is the normalized record of a single label scan. Every field
// except Category is optional: absence means "not extracted", not an error.
// Values are immutable once constructed.
type WineData struct {
	Producer        *string      `json:"producer,omitempty"`
	Region          *string      `json:"region,omitempty"`
	Country         *string      `json:"country,omitempty"`
	Subregion       *string      `json:"subregion,omitempty"`
	Appellation     *string      `json:"appellation,omitempty"`
	Grapes          []string     `json:"grapes,omitempty"`
	Vintage         *string      `json:"vintage,omitempty"`
	Classification  *string      `json:"classification,omitempty"`
	TastingNotes    *string      `json:"tastingNotes,omitempty"`
	Pairings        []string     `json:"pairings,omitempty"`
	VibeTag         *string      `json:"vibeTag,omitempty"`
	Vineyard        *string      `json:"vineyard,omitempty"`
	SoilType        *string      `json:"soilType,omitempty"`
	Climate         *string      `json:"climate,omitempty"`
	DrinkingWindow  *string      `json:"drinkingWindow,omitempty"`
	ABV             *string      `json:"abv,omitempty"`
	WinemakingStyle *string      `json:"winemakingStyle,omitempty"`
	Category        WineCategory `json:"category"`
}

// UnmarshalJSON decodes model output field by field. A missing or malformed
// field degrades to nil rather than failing the whole record; only a payload
// that is not a JSON object at all is a hard error. Vintage accepts an
// integer or a string, abv accepts a number or a string, and category falls
// back to unknown.
func (w *WineData) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}

	w.Producer = optString(fields, "producer")
	w.Region = optString(fields, "region")
	w.Country = optString(fields, "country")
	w.Subregion = optString(fields, "subregion")
	w.Appellation = optString(fields, "appellation")
	w.Grapes = optStrings(fields, "grapes")
	w.Vintage = decodeVintage(fields["vintage"])
	w.Classification = optString(fields, "classification")
	w.TastingNotes = optString(fields, "tastingNotes")
	w.Pairings = optStrings(fields, "pairings")
	w.VibeTag = optString(fields, "vibeTag")
	w.Vineyard = optString(fields, "vineyard")
	w.SoilType = optString(fields, "soilType")
	w.Climate = optString(fields, "climate")
	w.DrinkingWindow = optString(fields, "drinkingWindow")
	w.ABV = decodeABV(fields["abv"])
	w.WinemakingStyle = optString(fields, "winemakingStyle")

	w.Category = CategoryUnknown
	if raw, ok := fields["category"]; ok {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			w.Category = ParseWineCategory(s)
		}
	}
	return nil
}

// ID derives a stable identity from producer, region, country, and vintage so
// repeated scans of the same label collapse to the same key for downstream
// matching. Empty fields are simply omitted from the join.
func (w *WineData) ID() string {
	parts := make([]string, 0, 4)
	for _, p := range []*string{w.Producer, w.Region, w.Country, w.Vintage} {
		if p != nil {
			parts = append(parts, *p)
		}
	}
	return strings.Join(parts, "-")
}

// DisplayName renders something like "Produttori del Barbaresco 2019".
func (w *WineData) DisplayName() string {
	parts := make([]string, 0, 2)
	if w.Producer != nil {
		parts = append(parts, *w.Producer)
	}
	if w.Vintage != nil {
		parts = append(parts, *w.Vintage)
	}
	if len(parts) == 0 {
		return "Unknown Wine"
	}
	return strings.Join(parts, " ")
}

// optString returns the field as *string, or nil when absent, null, or not a
// string.
func optString(fields map[string]json.RawMessage, key string) *string {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	return &s
}

// optStrings returns the field as []string, or nil when absent or malformed.
func optStrings(fields map[string]json.RawMessage, key string) []string {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

// decodeVintage accepts 2019 or "2019" and normalizes to a string.
func decodeVintage(raw json.RawMessage) *string {
	if raw == nil {
		return nil
	}
	var year int
	if err := json.Unmarshal(raw, &year); err == nil {
		s := strconv.Itoa(year)
		return &s
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	return &s
}

// decodeABV accepts "13.5" or 13.5, formatting numbers with one decimal place
// (or none when the value is whole): 13 → "13", 13.5 → "13.5".
func decodeABV(raw json.RawMessage) *string {
	if raw == nil {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return &s
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil
	}
	if f == math.Floor(f) {
		s = fmt.Sprintf("%.0f", f)
	} else {
		s = fmt.Sprintf("%.1f", f)
	}
	return &s
}
