package tasting

import (
	"strings"
)

// ScalarComparison pairs the user's judgment with the AI reference for one
// structural field, plus a normalized-equality match flag.
type ScalarComparison struct {
	Field string `json:"field"`
	User  string `json:"user"`
	AI    string `json:"ai"`
	Match bool   `json:"match"`
}

// SelectionComparison splits a descriptor selection into the intersection
// with the AI's picks and each side's unique remainder. Order follows the
// user's insertion order for Shared/UserOnly and the AI's order for AIOnly.
type SelectionComparison struct {
	Shared   []string `json:"shared"`
	UserOnly []string `json:"user_only"`
	AIOnly   []string `json:"ai_only"`
}

// Summary is the reconciliation view exposed at the terminal step: both sides
// of every scalar field, selection overlap for aromas and flavors, the user's
// notes, and the AI's first coaching tip. It reads state without mutating it.
type Summary struct {
	WineName string              `json:"wine_name"`
	Scalars  []ScalarComparison  `json:"scalars"`
	Aromas   SelectionComparison `json:"aromas"`
	Flavors  SelectionComparison `json:"flavors"`
	Notes    string              `json:"notes,omitempty"`
	Tip      string              `json:"tip,omitempty"`
}

// Summary builds the comparison view from the current input buffer and the
// AI profile. It may be called at any step, though the UI surfaces it only
// at the summary step.
func (f *Flow) Summary() Summary {
	in := f.input
	p := f.profile

	tip := ""
	if len(p.Tips) > 0 {
		tip = p.Tips[0]
	}

	return Summary{
		WineName: f.wine.DisplayName(),
		Scalars: []ScalarComparison{
			compareScalar("acidity", string(in.Acidity), string(p.Acidity)),
			compareScalar("alcohol", string(in.Alcohol), string(p.Alcohol)),
			compareScalar("tannin", string(in.Tannin), string(p.Tannin)),
			compareScalar("body", string(in.Body), string(p.Body)),
			compareScalar("sweetness", string(in.Sweetness), string(p.Sweetness)),
		},
		Aromas:  compareSelections(in.Aromas, p.Aromas),
		Flavors: compareSelections(in.Flavors, p.Flavors),
		Notes:   in.Notes,
		Tip:     tip,
	}
}

// compareScalar flags agreement using case- and format-insensitive equality,
// so "Medium+" from the model matches the user's "medium+".
func compareScalar(field, user, ai string) ScalarComparison {
	return ScalarComparison{
		Field: field,
		User:  user,
		AI:    ai,
		Match: normalizeScalar(user) == normalizeScalar(ai),
	}
}

func normalizeScalar(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, " ", "-")
}

func compareSelections(user, ai []string) SelectionComparison {
	aiSet := make(map[string]struct{}, len(ai))
	for _, a := range ai {
		aiSet[strings.ToLower(a)] = struct{}{}
	}
	userSet := make(map[string]struct{}, len(user))
	for _, u := range user {
		userSet[strings.ToLower(u)] = struct{}{}
	}

	out := SelectionComparison{
		Shared:   []string{},
		UserOnly: []string{},
		AIOnly:   []string{},
	}
	for _, u := range user {
		if _, ok := aiSet[strings.ToLower(u)]; ok {
			out.Shared = append(out.Shared, u)
		} else {
			out.UserOnly = append(out.UserOnly, u)
		}
	}
	for _, a := range ai {
		if _, ok := userSet[strings.ToLower(a)]; !ok {
			out.AIOnly = append(out.AIOnly, a)
		}
	}
	return out
}
