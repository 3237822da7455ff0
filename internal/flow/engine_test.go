package flow

import (
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func priorityOptions() []Option {
	return []Option{
		{Label: "Haute", Value: "high"},
		{Label: "Moyenne", Value: "medium"},
		{Label: "Basse", Value: "low"},
	}
}

func taskDefinition() Definition {
	return Definition{
		Action:      "create_task",
		Description: "Créons une tâche.",
		Steps: []Step{
			{Field: "title", Label: "Quel est le titre de la tâche ?", Type: TypeText, Required: true},
			{Field: "priority", Label: "Quelle priorité ?", Type: TypeSelect, Options: priorityOptions(), Required: true},
			{Field: "due_date", Label: "Date d'échéance (AAAA-MM-JJ) ?", Type: TypeDate, Validate: func(v string) string {
				if len(v) != 10 || v[4] != '-' || v[7] != '-' {
					return "Format de date invalide."
				}
				return ""
			}},
			{Field: "confirm", Label: "Confirmer la création ?", Type: TypeConfirm, Required: true},
		},
	}
}

var ignoreFuncs = cmpopts.IgnoreFields(Step{}, "Validate")

func TestStartPrefixPrefill(t *testing.T) {
	e := NewEngine(DefaultVocabulary())
	def := taskDefinition()

	tests := []struct {
		name      string
		entities  map[string]string
		wantIndex int
		wantData  map[string]string
	}{
		{"nothing", nil, 0, map[string]string{}},
		{"first step", map[string]string{"title": "Rapport"}, 1, map[string]string{"title": "Rapport"}},
		{"two steps", map[string]string{"title": "Rapport", "priority": "haute"}, 2,
			map[string]string{"title": "Rapport", "priority": "high"}},
		{"gap discards later entity", map[string]string{"priority": "haute", "due_date": "2026-03-10"}, 0,
			map[string]string{}},
		{"invalid select stops prefix", map[string]string{"title": "Rapport", "priority": "urgent"}, 1,
			map[string]string{"title": "Rapport"}},
		{"blank value is not a fill", map[string]string{"title": "   "}, 0, map[string]string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := e.Start(def, tt.entities)
			require.NotNil(t, out.Flow)
			assert.Equal(t, tt.wantIndex, out.Flow.CurrentStepIndex)
			assert.Equal(t, tt.wantData, out.Flow.CollectedData)
			assert.True(t, strings.HasPrefix(out.Message, def.Description))
		})
	}
}

func TestStartLandsOnConfirmWithSummary(t *testing.T) {
	e := NewEngine(DefaultVocabulary())
	out := e.Start(taskDefinition(), map[string]string{
		"title": "Rapport", "priority": "basse", "due_date": "2026-03-10",
	})

	assert.Equal(t, StateConfirming, out.State)
	assert.Equal(t, 3, out.Flow.CurrentStepIndex)
	assert.Contains(t, out.Message, "- Quel est le titre de la tâche : Rapport")
	assert.Contains(t, out.Message, "- Quelle priorité : Basse")
	assert.Contains(t, out.Message, "- Date d'échéance : 2026-03-10")
	assert.True(t, strings.HasSuffix(out.Message, "Confirmer la création ?"))
}

func TestStartWithoutConfirmCompletesImmediately(t *testing.T) {
	e := NewEngine(DefaultVocabulary())
	def := Definition{Action: "note", Steps: []Step{{Field: "text", Label: "Texte ?", Type: TypeText, Required: true}}}

	out := e.Start(def, map[string]string{"text": "bonjour"})
	assert.Equal(t, StateCompleted, out.State)
	assert.Nil(t, out.Flow)
	assert.Equal(t, map[string]string{"text": "bonjour"}, out.Data)
}

func TestSelectResolvesIndexAndLabel(t *testing.T) {
	e := NewEngine(DefaultVocabulary())
	start := e.Start(taskDefinition(), map[string]string{"title": "Rapport"})
	require.Equal(t, 1, start.Flow.CurrentStepIndex)

	for i, opt := range priorityOptions() {
		inputs := []string{
			strconv.Itoa(i + 1),
			opt.Label,
			strings.ToUpper(opt.Label),
			strings.ToLower(opt.Label),
			opt.Value,
		}
		for _, in := range inputs {
			t.Run(in, func(t *testing.T) {
				out := e.Advance(start.Flow, in)
				require.False(t, out.Rejected)
				assert.Equal(t, 2, out.Flow.CurrentStepIndex)
				assert.Equal(t, opt.Value, out.Flow.CollectedData["priority"])
			})
		}
	}

	years := Definition{Action: "plan_budget", Steps: []Step{
		{Field: "year", Label: "Quelle année ?", Type: TypeSelect, Required: true, Options: []Option{
			{Label: "2025", Value: "y25"},
			{Label: "2026", Value: "y26"},
		}},
	}}
	for in, want := range map[string]string{"2": "y26", "2026": "y26", "2025": "y25"} {
		t.Run("numeric label "+in, func(t *testing.T) {
			out := e.Advance(e.Start(years, nil).Flow, in)
			require.False(t, out.Rejected)
			assert.Equal(t, StateCompleted, out.State)
			assert.Equal(t, want, out.Data["year"])
		})
	}
}

func TestOptionalSelect(t *testing.T) {
	e := NewEngine(DefaultVocabulary())
	def := Definition{Action: "tag_task", Steps: []Step{
		{Field: "tag", Label: "Quelle étiquette ?", Type: TypeSelect, Options: priorityOptions()},
		{Field: "note", Label: "Une note ?", Type: TypeText},
	}}
	start := e.Start(def, nil).Flow

	out := e.Advance(start, "urgent")
	assert.True(t, out.Rejected)
	assert.Equal(t, 0, out.Flow.CurrentStepIndex)
	assert.Contains(t, out.Message, "1. Haute")

	for _, in := range []string{"", "passer"} {
		out = e.Advance(start, in)
		require.False(t, out.Rejected)
		assert.Equal(t, 1, out.Flow.CurrentStepIndex)
		assert.Equal(t, "", out.Flow.CollectedData["tag"])
	}
}

func TestSelectMismatchReprompts(t *testing.T) {
	e := NewEngine(DefaultVocabulary())
	start := e.Start(taskDefinition(), map[string]string{"title": "Rapport"})

	for _, in := range []string{"4", "0", "-1", "urgent"} {
		t.Run(in, func(t *testing.T) {
			out := e.Advance(start.Flow, in)
			assert.True(t, out.Rejected)
			assert.Equal(t, 1, out.Flow.CurrentStepIndex)
			assert.Contains(t, out.Message, "1. Haute")
			assert.Contains(t, out.Message, "2. Moyenne")
			assert.Contains(t, out.Message, "3. Basse")
			assert.NotContains(t, out.Flow.CollectedData, "priority")
		})
	}
}

func TestEmptyInput(t *testing.T) {
	e := NewEngine(DefaultVocabulary())
	def := taskDefinition()

	t.Run("required step re-prompts", func(t *testing.T) {
		start := e.Start(def, nil)
		out := e.Advance(start.Flow, "   ")
		assert.True(t, out.Rejected)
		assert.Equal(t, 0, out.Flow.CurrentStepIndex)
		assert.Contains(t, out.Message, "obligatoire")
		assert.Contains(t, out.Message, def.Steps[0].Label)
	})

	t.Run("optional step stores empty string", func(t *testing.T) {
		start := e.Start(def, map[string]string{"title": "Rapport", "priority": "1"})
		require.Equal(t, 2, start.Flow.CurrentStepIndex)

		out := e.Advance(start.Flow, "")
		assert.False(t, out.Rejected)
		assert.Equal(t, 3, out.Flow.CurrentStepIndex)
		v, ok := out.Flow.CollectedData["due_date"]
		assert.True(t, ok)
		assert.Equal(t, "", v)
		assert.Contains(t, out.Message, "Date d'échéance : non renseigné")
	})

	t.Run("skip word counts as empty on optional step", func(t *testing.T) {
		start := e.Start(def, map[string]string{"title": "Rapport", "priority": "1"})
		out := e.Advance(start.Flow, "Passer")
		assert.False(t, out.Rejected)
		assert.Equal(t, "", out.Flow.CollectedData["due_date"])
	})

	t.Run("skip word is a value on required step", func(t *testing.T) {
		start := e.Start(def, nil)
		out := e.Advance(start.Flow, "passer")
		assert.False(t, out.Rejected)
		assert.Equal(t, "passer", out.Flow.CollectedData["title"])
	})
}

func TestValidation(t *testing.T) {
	e := NewEngine(DefaultVocabulary())
	start := e.Start(taskDefinition(), map[string]string{"title": "Rapport", "priority": "1"})

	out := e.Advance(start.Flow, "demain")
	assert.True(t, out.Rejected)
	assert.Equal(t, 2, out.Flow.CurrentStepIndex)
	assert.Contains(t, out.Message, "Format de date invalide.")

	out = e.Advance(start.Flow, "  2026-03-10 ")
	assert.False(t, out.Rejected)
	assert.Equal(t, "2026-03-10", out.Flow.CollectedData["due_date"])
}

func confirmingFlow(t *testing.T, e *Engine) *ActiveFlow {
	t.Helper()
	out := e.Start(taskDefinition(), map[string]string{"title": "Rapport", "priority": "2", "due_date": "2026-03-10"})
	require.Equal(t, StateConfirming, out.State)
	return out.Flow
}

func TestConfirmCancellationWords(t *testing.T) {
	e := NewEngine(DefaultVocabulary())
	f := confirmingFlow(t, e)

	for _, w := range DefaultVocabulary().Cancel {
		for _, in := range []string{w, strings.ToUpper(w), "euh " + w + " merci"} {
			t.Run(in, func(t *testing.T) {
				out := e.Advance(f, in)
				assert.Equal(t, StateCancelled, out.State)
				assert.Nil(t, out.Flow)
				assert.Nil(t, out.Data)
			})
		}
	}
}

func TestConfirmAffirmationWords(t *testing.T) {
	e := NewEngine(DefaultVocabulary())
	f := confirmingFlow(t, e)

	for _, w := range DefaultVocabulary().Affirm {
		t.Run(w, func(t *testing.T) {
			out := e.Advance(f, strings.ToUpper(w))
			assert.Equal(t, StateCompleted, out.State)
			assert.Nil(t, out.Flow)
			assert.Equal(t, "create_task", out.Action)
			assert.Equal(t, map[string]string{"title": "Rapport", "priority": "medium", "due_date": "2026-03-10"}, out.Data)
		})
	}
}

func TestConfirmNeitherReprompts(t *testing.T) {
	e := NewEngine(DefaultVocabulary())
	f := confirmingFlow(t, e)

	out := e.Advance(f, "peut-être")
	assert.Equal(t, StateConfirming, out.State)
	assert.True(t, out.Rejected)
	assert.Same(t, f, out.Flow)
	assert.Contains(t, out.Message, "Confirmer la création ?")
}

func TestAccentedArreterCancels(t *testing.T) {
	e := NewEngine(DefaultVocabulary())
	out := e.Advance(confirmingFlow(t, e), "Arrêter")
	assert.Equal(t, StateCancelled, out.State)
}

func TestCustomVocabulary(t *testing.T) {
	e := NewEngine(Vocabulary{Affirm: []string{"si"}, Cancel: []string{"basta"}})
	f := confirmingFlow(t, e)

	assert.Equal(t, StateCompleted, e.Advance(f, "si").State)
	assert.Equal(t, StateCancelled, e.Advance(f, "basta").State)
	assert.Equal(t, StateConfirming, e.Advance(f, "oui").State)
}

func TestAdvanceDoesNotMutateInput(t *testing.T) {
	e := NewEngine(DefaultVocabulary())
	start := e.Start(taskDefinition(), nil)
	before := start.Flow.Clone()

	out := e.Advance(start.Flow, "Rapport")
	require.Equal(t, 1, out.Flow.CurrentStepIndex)

	if diff := cmp.Diff(before, start.Flow, ignoreFuncs); diff != "" {
		t.Errorf("input flow mutated (-before +after):\n%s", diff)
	}
}

func TestTurnBound(t *testing.T) {
	e := NewEngine(DefaultVocabulary())
	def := taskDefinition()
	inputs := []string{"", "Rapport", "9", "haute", "pas une date", "", "hmm", "oui"}

	out := e.Start(def, nil)
	accepted := 0
	for _, in := range inputs {
		if out.State.Terminal() {
			break
		}
		prev := out.Flow.CurrentStepIndex
		out = e.Advance(out.Flow, in)
		if !out.Rejected {
			accepted++
		}
		if out.Flow != nil {
			assert.GreaterOrEqual(t, out.Flow.CurrentStepIndex, prev)
			assert.LessOrEqual(t, out.Flow.CurrentStepIndex, len(def.Steps))
			for k := range out.Flow.CollectedData {
				assert.True(t, fieldOf(def, k), "unexpected field %q", k)
			}
		}
	}

	assert.Equal(t, StateCompleted, out.State)
	assert.LessOrEqual(t, accepted, len(def.Steps)+1)
}

func fieldOf(def Definition, field string) bool {
	for _, s := range def.Steps {
		if s.Field == field {
			return true
		}
	}
	return false
}

func TestSummaryLabel(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Quel est le titre ?", "Quel est le titre"},
		{"Date de fin (JJ/MM/AAAA) ?", "Date de fin"},
		{"Participants (optionnel)", "Participants"},
		{"Titre", "Titre"},
		{"Pourquoi??", "Pourquoi"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, SummaryLabel(tt.input))
		})
	}
}
