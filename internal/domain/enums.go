// Package domain defines the wine domain model: the closed tasting
// vocabularies, the normalized label-scan record (WineData), the synthesized
// AI tasting profile, the user's tasting input, and the persistence models
// mapped with GORM.
//
// All categorical types in this file decode leniently: upstream AI output is
// not guaranteed to match any fixed casing or spelling convention, so parsing
// lower-cases the input, matches against the known raw values, and falls back
// to the type's Unknown member instead of failing. "unknown" is a valid,
// displayable, gate-able state everywhere downstream.
package domain

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Intensity5 is the five-point structural scale used for acidity, alcohol,
// and tannin.
type Intensity5 string

const (
	IntensityLow         Intensity5 = "low"
	IntensityMediumMinus Intensity5 = "medium-"
	IntensityMedium      Intensity5 = "medium"
	IntensityMediumPlus  Intensity5 = "medium+"
	IntensityHigh        Intensity5 = "high"
	IntensityUnknown     Intensity5 = "unknown"
)

// Intensity5Values lists the selectable members in scale order, excluding
// unknown.
func Intensity5Values() []Intensity5 {
	return []Intensity5{IntensityLow, IntensityMediumMinus, IntensityMedium, IntensityMediumPlus, IntensityHigh}
}

// ParseIntensity5 matches s case-insensitively against the known raw values
// and returns IntensityUnknown when nothing matches. It never fails.
func ParseIntensity5(s string) Intensity5 {
	switch v := Intensity5(strings.ToLower(strings.TrimSpace(s))); v {
	case IntensityLow, IntensityMediumMinus, IntensityMedium, IntensityMediumPlus, IntensityHigh, IntensityUnknown:
		return v
	default:
		return IntensityUnknown
	}
}

// UnmarshalJSON implements lenient decoding per the package contract.
func (i *Intensity5) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*i = ParseIntensity5(s)
	return nil
}

// BodyLevel is the five-point body scale.
type BodyLevel string

const (
	BodyLight       BodyLevel = "light"
	BodyMediumMinus BodyLevel = "medium-"
	BodyMedium      BodyLevel = "medium"
	BodyMediumPlus  BodyLevel = "medium+"
	BodyFull        BodyLevel = "full"
	BodyUnknown     BodyLevel = "unknown"
)

// BodyLevelValues lists the selectable members in scale order, excluding
// unknown.
func BodyLevelValues() []BodyLevel {
	return []BodyLevel{BodyLight, BodyMediumMinus, BodyMedium, BodyMediumPlus, BodyFull}
}

// ParseBodyLevel matches s case-insensitively and falls back to BodyUnknown.
func ParseBodyLevel(s string) BodyLevel {
	switch v := BodyLevel(strings.ToLower(strings.TrimSpace(s))); v {
	case BodyLight, BodyMediumMinus, BodyMedium, BodyMediumPlus, BodyFull, BodyUnknown:
		return v
	default:
		return BodyUnknown
	}
}

// UnmarshalJSON implements lenient decoding per the package contract.
func (l *BodyLevel) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*l = ParseBodyLevel(s)
	return nil
}

// SweetnessLevel is the five-point sweetness scale.
type SweetnessLevel string

const (
	SweetnessBoneDry   SweetnessLevel = "bone-dry"
	SweetnessDry       SweetnessLevel = "dry"
	SweetnessOffDry    SweetnessLevel = "off-dry"
	SweetnessSweet     SweetnessLevel = "sweet"
	SweetnessVerySweet SweetnessLevel = "very sweet"
	SweetnessUnknown   SweetnessLevel = "unknown"
)

// SweetnessLevelValues lists the selectable members in scale order, excluding
// unknown.
func SweetnessLevelValues() []SweetnessLevel {
	return []SweetnessLevel{SweetnessBoneDry, SweetnessDry, SweetnessOffDry, SweetnessSweet, SweetnessVerySweet}
}

// ParseSweetnessLevel matches s case-insensitively and falls back to
// SweetnessUnknown.
func ParseSweetnessLevel(s string) SweetnessLevel {
	switch v := SweetnessLevel(strings.ToLower(strings.TrimSpace(s))); v {
	case SweetnessBoneDry, SweetnessDry, SweetnessOffDry, SweetnessSweet, SweetnessVerySweet, SweetnessUnknown:
		return v
	default:
		return SweetnessUnknown
	}
}

// UnmarshalJSON implements lenient decoding per the package contract.
func (l *SweetnessLevel) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*l = ParseSweetnessLevel(s)
	return nil
}

// WineCategory is the closed enumeration over the ten supported wine styles
// plus unknown. Category is the one field of a scan that is never allowed to
// be absent: decoding falls back to CategoryUnknown, never to an error.
type WineCategory string

const (
	CategoryRed            WineCategory = "red"
	CategoryWhite          WineCategory = "white"
	CategoryRose           WineCategory = "rose"
	CategoryOrange         WineCategory = "orange"
	CategoryRedSparkling   WineCategory = "red sparkling"
	CategoryWhiteSparkling WineCategory = "white sparkling"
	CategoryRedDessert     WineCategory = "red dessert"
	CategoryWhiteDessert   WineCategory = "white dessert"
	CategoryRedFortified   WineCategory = "red fortified"
	CategoryWhiteFortified WineCategory = "white fortified"
	CategoryUnknown        WineCategory = "unknown"
)

// WineCategories lists every defined style, excluding unknown.
func WineCategories() []WineCategory {
	return []WineCategory{
		CategoryRed, CategoryWhite, CategoryRose, CategoryOrange,
		CategoryRedSparkling, CategoryWhiteSparkling,
		CategoryRedDessert, CategoryWhiteDessert,
		CategoryRedFortified, CategoryWhiteFortified,
	}
}

var (
	// trailingWine strips an optional trailing "wine" token ("Red Wine" → "red").
	trailingWine = regexp.MustCompile(`\s*wine\s*$`)

	// stripAccents removes combining marks after NFD decomposition
	// ("rosé" → "rose").
	stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	titleCaser = cases.Title(language.English)
)

// ParseWineCategory normalizes raw (trim, fold diacritics, lower-case, drop a
// trailing "wine" suffix) and matches it against the defined styles. Anything
// still unmatched yields CategoryUnknown.
func ParseWineCategory(raw string) WineCategory {
	cleaned := strings.TrimSpace(raw)
	if folded, _, err := transform.String(stripAccents, cleaned); err == nil {
		cleaned = folded
	}
	cleaned = strings.ToLower(cleaned)
	cleaned = trailingWine.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)

	switch v := WineCategory(cleaned); v {
	case CategoryRed, CategoryWhite, CategoryRose, CategoryOrange,
		CategoryRedSparkling, CategoryWhiteSparkling,
		CategoryRedDessert, CategoryWhiteDessert,
		CategoryRedFortified, CategoryWhiteFortified,
		CategoryUnknown:
		return v
	default:
		return CategoryUnknown
	}
}

// UnmarshalJSON implements lenient decoding per the package contract.
func (c *WineCategory) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*c = ParseWineCategory(s)
	return nil
}

// TanninExists reports whether the style structurally carries tannin. This is
// a fact about the wine style, independent of any AI opinion, and is merged
// with the synthesized profile's hasTannin downstream.
func (c WineCategory) TanninExists() bool {
	switch c {
	case CategoryRed, CategoryRedSparkling, CategoryRedFortified, CategoryRedDessert, CategoryOrange:
		return true
	default:
		return false
	}
}

// DisplayName returns the user-facing label, restoring the accent for rosé.
func (c WineCategory) DisplayName() string {
	switch c {
	case CategoryUnknown:
		return "Unknown"
	case CategoryRose:
		return "Rosé Wine"
	default:
		return titleCaser.String(string(c)) + " Wine"
	}
}
