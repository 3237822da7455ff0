package flow

import (
	"slices"
	"strings"

	"github.com/soyeahso/sidekick/internal/textnorm"
)

// Vocabulary lists the phrases recognised as yes, no and skip. It is loaded
// from configuration so it can be localised.
type Vocabulary struct {
	Affirm []string `yaml:"affirm,omitempty" json:"affirm,omitempty"`
	Cancel []string `yaml:"cancel,omitempty" json:"cancel,omitempty"`
	Skip   []string `yaml:"skip,omitempty" json:"skip,omitempty"`
}

// DefaultVocabulary returns the built-in French/English phrases.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Affirm: []string{"oui", "yes", "ok", "confirmer", "valider", "d'accord", "go"},
		Cancel: []string{"annuler", "cancel", "stop", "arreter", "non", "quitter"},
		Skip:   []string{"passer", "skip"},
	}
}

// WithDefaults fills empty lists from DefaultVocabulary.
func (v Vocabulary) WithDefaults() Vocabulary {
	d := DefaultVocabulary()
	if len(v.Affirm) == 0 {
		v.Affirm = d.Affirm
	}
	if len(v.Cancel) == 0 {
		v.Cancel = d.Cancel
	}
	if len(v.Skip) == 0 {
		v.Skip = d.Skip
	}
	return v
}

// IsCancel reports whether input contains a cancellation phrase.
func (v Vocabulary) IsCancel(input string) bool {
	return containsAny(textnorm.Fold(input), v.Cancel)
}

// IsAffirm reports whether input contains an affirmation phrase.
func (v Vocabulary) IsAffirm(input string) bool {
	return containsAny(textnorm.Fold(input), v.Affirm)
}

// IsSkip reports whether input is exactly a skip phrase. Substrings do not
// count so that a real value containing "passer" is kept.
func (v Vocabulary) IsSkip(input string) bool {
	folded := textnorm.Fold(input)
	return folded != "" && slices.ContainsFunc(v.Skip, func(p string) bool {
		return textnorm.Fold(p) == folded
	})
}

func containsAny(folded string, phrases []string) bool {
	if folded == "" {
		return false
	}
	for _, p := range phrases {
		if p = textnorm.Fold(p); p != "" && strings.Contains(folded, p) {
			return true
		}
	}
	return false
}
