// Package tasting implements the guided-tasting flow: a linear finite-state
// machine over eight sensory steps whose membership depends on the wine just
// scanned. The flow collects the user's TastingInput, gates advancement on
// answered steps, skips the tannin step for styles that structurally cannot
// have tannin, and finalizes into an immutable TastingSession at the summary
// step.
//
// A Flow is a single-user, single-session wizard: it is not safe for
// concurrent use and callers own any locking (see services.TastingFlowService).
package tasting

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vinobytes/somm-backend/internal/domain"
)

// Step identifies one position in the guided flow. Order is significant:
// Advance moves linearly from StepAcidity toward StepSummary.
type Step int

const (
	StepAcidity Step = iota
	StepAlcohol
	StepTannin
	StepBody
	StepSweetness
	StepAromas
	StepFlavors
	StepSummary
)

var stepNames = [...]string{"acidity", "alcohol", "tannin", "body", "sweetness", "aromas", "flavors", "summary"}

// String returns the wire name of the step.
func (s Step) String() string {
	if s < StepAcidity || s > StepSummary {
		return "unknown"
	}
	return stepNames[s]
}

// ParseStep resolves a wire name back to a Step.
func ParseStep(name string) (Step, bool) {
	for i, n := range stepNames {
		if n == strings.ToLower(strings.TrimSpace(name)) {
			return Step(i), true
		}
	}
	return 0, false
}

// MaxSelections caps how many aromas and flavors a taster may pick.
const MaxSelections = 4

var (
	// ErrStepIncomplete is returned by Advance when the current step's input
	// is still at its unknown member.
	ErrStepIncomplete = errors.New("tasting: current step not answered")

	// ErrSelectionFull signals a blocked fifth pick. The selection is left
	// unchanged; the caller surfaces negative feedback.
	ErrSelectionFull = errors.New("tasting: selection limit reached")

	// ErrNotInPool is returned when a toggled descriptor is not part of the
	// category's vocabulary.
	ErrNotInPool = errors.New("tasting: descriptor not in category pool")

	// ErrFinished is returned by Advance once Finish has confirmed the
	// session was stored; the flow has no restart transition.
	ErrFinished = errors.New("tasting: session already finalized")
)

// Options is the per-session configuration threaded in at construction
// instead of being read from ambient state (e.g. whether the intro overlay
// should be shown for this user).
type Options struct {
	ShowIntro bool
}

// Flow is the state machine for one guided tasting. It owns the mutable
// TastingInput buffer until finalization.
type Flow struct {
	wine    domain.WineData
	profile domain.AITastingProfile
	pool    domain.DescriptorPool
	opts    Options

	input     domain.TastingInput
	step      Step
	session   *domain.TastingSession
	finalized bool
}

// New seeds a flow with the scanned wine and its synthesized profile. The
// initial step is acidity. Tannin applicability is recomputed here from
// profile OR category so the skip rule holds even for profiles revived from
// persistence that predate the synthesis-side merge.
func New(wine domain.WineData, profile domain.AITastingProfile, opts Options) *Flow {
	return &Flow{
		wine:    wine,
		profile: profile,
		pool:    wine.Category.Descriptors(),
		opts:    opts,
		input:   domain.NewTastingInput(),
		step:    StepAcidity,
	}
}

// Step returns the current cursor position.
func (f *Flow) Step() Step { return f.step }

// Options returns the session configuration the flow was constructed with.
func (f *Flow) Options() Options { return f.opts }

// Wine returns the scanned wine this flow rates.
func (f *Flow) Wine() domain.WineData { return f.wine }

// Profile returns the AI reference profile this flow compares against.
func (f *Flow) Profile() domain.AITastingProfile { return f.profile }

// Input returns a snapshot of the in-progress tasting input.
func (f *Flow) Input() domain.TastingInput {
	in := f.input
	in.Aromas = append([]string(nil), f.input.Aromas...)
	in.Flavors = append([]string(nil), f.input.Flavors...)
	return in
}

// ShowsTannin reports effective tannin applicability for this session:
// the AI-reported flag ORed with the category's structural fact.
func (f *Flow) ShowsTannin() bool {
	return f.profile.HasTannin || f.wine.Category.TanninExists()
}

// TotalSteps returns the progress-bar denominator: eight steps minus the
// summary, minus tannin when it does not apply (7 or 6).
func (f *Flow) TotalSteps() int {
	if f.ShowsTannin() {
		return len(stepNames) - 1
	}
	return len(stepNames) - 2
}

// AromaOptions returns the selectable aroma vocabulary.
func (f *Flow) AromaOptions() []string { return append([]string(nil), f.pool.Aromas...) }

// FlavorOptions returns the selectable flavor vocabulary.
func (f *Flow) FlavorOptions() []string { return append([]string(nil), f.pool.Flavours...) }

// SetAcidity records the acidity judgment.
func (f *Flow) SetAcidity(v domain.Intensity5) { f.input.Acidity = v }

// SetAlcohol records the alcohol judgment.
func (f *Flow) SetAlcohol(v domain.Intensity5) { f.input.Alcohol = v }

// SetTannin records the tannin judgment.
func (f *Flow) SetTannin(v domain.Intensity5) { f.input.Tannin = v }

// SetBody records the body judgment.
func (f *Flow) SetBody(v domain.BodyLevel) { f.input.Body = v }

// SetSweetness records the sweetness judgment.
func (f *Flow) SetSweetness(v domain.SweetnessLevel) { f.input.Sweetness = v }

// SetNotes records free-text notes.
func (f *Flow) SetNotes(notes string) { f.input.Notes = notes }

// ToggleAroma selects or deselects an aroma. Deselection is always allowed;
// a fifth distinct selection is rejected with ErrSelectionFull and leaves the
// selection unchanged.
func (f *Flow) ToggleAroma(item string) error {
	next, err := toggle(f.input.Aromas, item, f.pool.Aromas)
	if err != nil {
		return err
	}
	f.input.Aromas = next
	return nil
}

// ToggleFlavor selects or deselects a flavor with the same cap semantics as
// ToggleAroma.
func (f *Flow) ToggleFlavor(item string) error {
	next, err := toggle(f.input.Flavors, item, f.pool.Flavours)
	if err != nil {
		return err
	}
	f.input.Flavors = next
	return nil
}

func toggle(selection []string, item string, pool []string) ([]string, error) {
	for i, s := range selection {
		if s == item {
			return append(selection[:i:i], selection[i+1:]...), nil
		}
	}
	if !contains(pool, item) {
		return nil, ErrNotInPool
	}
	if len(selection) >= MaxSelections {
		return nil, ErrSelectionFull
	}
	return append(selection, item), nil
}

func contains(pool []string, item string) bool {
	for _, p := range pool {
		if p == item {
			return true
		}
	}
	return false
}

// CanAdvance reports whether the gating precondition for the current step is
// satisfied. Scalar steps require an answer other than unknown; the tannin
// gate short-circuits to satisfied when tannin is inapplicable; aromas,
// flavors, and summary are never gated (zero selections is legal).
func (f *Flow) CanAdvance() bool {
	switch f.step {
	case StepAcidity:
		return f.input.Acidity != domain.IntensityUnknown
	case StepAlcohol:
		return f.input.Alcohol != domain.IntensityUnknown
	case StepTannin:
		if !f.ShowsTannin() {
			return true
		}
		return f.input.Tannin != domain.IntensityUnknown
	case StepBody:
		return f.input.Body != domain.BodyUnknown
	case StepSweetness:
		return f.input.Sweetness != domain.SweetnessUnknown
	default:
		return true
	}
}

// Advance moves the cursor one step forward, skipping tannin when it does not
// apply. From the summary step it does not move; instead it finalizes the
// input buffer into a TastingSession and returns it for the caller to hand to
// the persistence collaborator. The flow stays open until Finish confirms the
// session was stored, so a failed store can be retried; repeated terminal
// advances return the same session. Advance after Finish returns ErrFinished;
// Advance with an unanswered gated step returns ErrStepIncomplete.
func (f *Flow) Advance() (*domain.TastingSession, error) {
	if f.finalized {
		return nil, ErrFinished
	}
	if f.step == StepSummary {
		if f.session == nil {
			s := f.finalize()
			f.session = &s
		}
		return f.session, nil
	}
	if !f.CanAdvance() {
		return nil, ErrStepIncomplete
	}

	next := f.step + 1
	if next == StepTannin && !f.ShowsTannin() {
		next++
	}
	if next > StepSummary {
		next = StepSummary
	}
	f.step = next
	return nil, nil
}

// Finish closes the flow once the finalized session has been stored.
// Subsequent advances return ErrFinished.
func (f *Flow) Finish() { f.finalized = true }

// Finished reports whether the stored session has been confirmed via Finish.
func (f *Flow) Finished() bool { return f.finalized }

func (f *Flow) finalize() domain.TastingSession {
	grape := ""
	if len(f.profile.Aromas) > 0 {
		grape = f.profile.Aromas[0]
	}
	region := ""
	if f.wine.Region != nil {
		region = *f.wine.Region
	}
	return domain.TastingSession{
		ID:        uuid.NewString(),
		WineID:    f.wine.ID(),
		WineName:  f.wine.DisplayName(),
		Grape:     grape,
		Region:    region,
		Vintage:   f.wine.Vintage,
		UserInput: f.Input(),
		AIProfile: f.profile,
		CreatedAt: time.Now().UTC(),
	}
}
