package intent

import (
	"strings"

	"github.com/soyeahso/sidekick/internal/textnorm"
)

const (
	// Unknown is the action of text that matched nothing.
	Unknown = "unknown"
	// CategoryGeneral is the category of unknown intents.
	CategoryGeneral = "general"
)

// DetectedIntent is the structured reading of one message.
type DetectedIntent struct {
	Action     string            `json:"action"`
	Category   string            `json:"category"`
	Entities   map[string]string `json:"entities,omitempty"`
	Confidence float64           `json:"confidence"`
}

// Known reports whether the text resolved to a catalogue action.
func (i DetectedIntent) Known() bool { return i.Action != Unknown }

// Detector classifies text against a catalogue. Same text, same intent.
type Detector struct {
	catalogue *Catalogue
}

// NewDetector creates a detector over c.
func NewDetector(c *Catalogue) *Detector {
	return &Detector{catalogue: c}
}

// Catalogue returns the catalogue the detector matches against.
func (d *Detector) Catalogue() *Catalogue { return d.catalogue }

// Detect returns the best-scoring action for text and the entities found in
// it.
func (d *Detector) Detect(text string) DetectedIntent {
	folded := textnorm.Fold(text)
	if folded == "" {
		return DetectedIntent{Action: Unknown, Category: CategoryGeneral}
	}

	var (
		best      ActionDefinition
		bestScore float64
	)
	for _, def := range d.catalogue.All() {
		score := scoreDefinition(def, folded)
		if score > bestScore {
			bestScore = score
			best = def
		}
	}
	if bestScore == 0 {
		return DetectedIntent{Action: Unknown, Category: CategoryGeneral}
	}

	confidence := min(bestScore/100.0, 1.0)
	confidence = max(confidence, 0.3)

	return DetectedIntent{
		Action:     best.Action,
		Category:   best.Category,
		Entities:   extractEntities(text, best),
		Confidence: confidence,
	}
}

// scoreDefinition weighs a pattern hit above the longest keyword hit; the
// priority adds a small bonus either way. Zero means no match.
func scoreDefinition(def ActionDefinition, folded string) float64 {
	score := 0.0
	for _, p := range def.Patterns {
		if p.MatchString(folded) {
			score = 50.0 + float64(def.Priority)/10.0
			break
		}
	}
	if score == 0 {
		longest := 0
		for _, kw := range def.Keywords {
			kw = textnorm.Fold(kw)
			if kw != "" && strings.Contains(folded, kw) && len(kw) > longest {
				longest = len(kw)
			}
		}
		if longest > 0 {
			score = 20.0 + float64(longest)/2.0 + float64(def.Priority)/20.0
		}
	}
	if score == 0 {
		return 0
	}
	return score + float64(def.Priority)/50.0
}
