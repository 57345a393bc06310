package domain

import (
	"encoding/json"
	"time"
)

// AITastingProfile is the synthesized reference tasting profile for a wine:
// five structural ratings, exactly four aromas and four flavors drawn from
// the category's descriptor pools, coaching tips, and the tannin-presence
// flag. Created once per synthesis call and immutable for the duration of a
// guided tasting.
//
// HasTannin as stored here is the merged value: what the model returned ORed
// with the category's structural TanninExists. The synthesizer performs the
// merge before handing the profile out; the tasting flow recomputes it
// defensively for profiles revived from persistence that predate the merge.
type AITastingProfile struct {
	Acidity   Intensity5     `json:"acidity"`
	Alcohol   Intensity5     `json:"alcohol"`
	Tannin    Intensity5     `json:"tannin"`
	Body      BodyLevel      `json:"body"`
	Sweetness SweetnessLevel `json:"sweetness"`
	Aromas    []string       `json:"aromas"`
	Flavors   []string       `json:"flavors"`
	Tips      []string       `json:"tips"`
	HasTannin bool           `json:"hasTannin"`
}

// UnmarshalJSON decodes leniently: the scalar fields use the enum decoders
// (arbitrary casing, unknown fallback) and a field the model omitted ends up
// as the unknown member rather than an empty string.
func (p *AITastingProfile) UnmarshalJSON(b []byte) error {
	type alias AITastingProfile
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*p = AITastingProfile(a)
	if p.Acidity == "" {
		p.Acidity = IntensityUnknown
	}
	if p.Alcohol == "" {
		p.Alcohol = IntensityUnknown
	}
	if p.Tannin == "" {
		p.Tannin = IntensityUnknown
	}
	if p.Body == "" {
		p.Body = BodyUnknown
	}
	if p.Sweetness == "" {
		p.Sweetness = SweetnessUnknown
	}
	return nil
}

// EmptyProfile is the minimal fallback used when a persisted profile blob
// cannot be decoded, so readers never see half-typed zero values.
func EmptyProfile() AITastingProfile {
	return AITastingProfile{
		Acidity:   IntensityUnknown,
		Alcohol:   IntensityUnknown,
		Tannin:    IntensityUnknown,
		Body:      BodyUnknown,
		Sweetness: SweetnessUnknown,
		Aromas:    []string{},
		Flavors:   []string{},
		Tips:      []string{},
	}
}

// TastingInput is the mutable scratch buffer of the user's own sensory
// judgments, filled in incrementally as the guided tasting advances and
// snapshotted into a TastingSession on finalization.
type TastingInput struct {
	Acidity   Intensity5     `json:"acidity"`
	Alcohol   Intensity5     `json:"alcohol"`
	Tannin    Intensity5     `json:"tannin"`
	Body      BodyLevel      `json:"body"`
	Sweetness SweetnessLevel `json:"sweetness"`
	Aromas    []string       `json:"aromas"`
	Flavors   []string       `json:"flavors"`
	Notes     string         `json:"notes"`
}

// NewTastingInput returns an input with every scalar at unknown and empty
// selections.
func NewTastingInput() TastingInput {
	return TastingInput{
		Acidity:   IntensityUnknown,
		Alcohol:   IntensityUnknown,
		Tannin:    IntensityUnknown,
		Body:      BodyUnknown,
		Sweetness: SweetnessUnknown,
		Aromas:    []string{},
		Flavors:   []string{},
	}
}

// TastingSession is the finalized DTO pairing the user's input snapshot with
// the AI profile it was compared against, plus denormalized wine identity for
// display. Immutable once constructed; owned by the persistence layer.
type TastingSession struct {
	ID        string           `json:"id"`
	WineID    string           `json:"wine_id"`
	WineName  string           `json:"wine_name"`
	Grape     string           `json:"grape"`
	Region    string           `json:"region"`
	Vintage   *string          `json:"vintage,omitempty"`
	UserInput TastingInput     `json:"user_input"`
	AIProfile AITastingProfile `json:"ai_profile"`
	CreatedAt time.Time        `json:"created_at"`
}
