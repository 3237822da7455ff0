package catalogue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/sidekick/internal/action"
	"github.com/soyeahso/sidekick/internal/command"
	"github.com/soyeahso/sidekick/internal/domain"
	"github.com/soyeahso/sidekick/internal/intent"
	"github.com/soyeahso/sidekick/internal/logging"
)

func TestSuggestionQueriesResolveToTheirAction(t *testing.T) {
	d := intent.NewDetector(NewIntentCatalogue())
	for _, s := range Suggestions().Autocomplete {
		t.Run(s.ID, func(t *testing.T) {
			assert.Equal(t, s.Action, d.Detect(s.Query).Action, "query %q", s.Query)
		})
	}
}

func TestFlowActionsMatchCatalogue(t *testing.T) {
	cat := NewIntentCatalogue()
	reg := NewFlowRegistry()

	for _, def := range cat.All() {
		_, hasFlow := reg.Get(def.Action)
		assert.Equal(t, def.RequiresFlow, hasFlow, def.Action)
	}
	for _, a := range reg.Actions() {
		_, ok := cat.Get(a)
		assert.True(t, ok, a)
	}
}

func TestDetectPhrases(t *testing.T) {
	d := intent.NewDetector(NewIntentCatalogue())

	tests := []struct {
		input  string
		action string
	}{
		{"Je veux declarer une absence", ActionDeclareAbsence},
		{"je serai absente demain", ActionDeclareAbsence},
		{"poser des congés du 10/03/2026 au 14/03/2026", ActionDeclareAbsence},
		{"Bonjour, je voudrais créer une tâche", ActionCreateTask},
		{"ajoute une tâche urgente", ActionCreateTask},
		{"montre-moi mes tâches", ActionListTasks},
		{"organiser une réunion demain", ActionScheduleMeeting},
		{"lancer un nouveau projet", ActionCreateProject},
		{"ouvre la liste des projets", ActionOpenProjects},
		{"mes prochaines réunions", ActionOpenMeetings},
		{"que sais-tu faire ?", ActionHelp},
		{"salut", ActionGreeting},
		{"quel temps fait-il", intent.Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.action, d.Detect(tt.input).Action)
		})
	}
}

func TestFlowValidators(t *testing.T) {
	assert.Empty(t, validateDate("10/03/2026"))
	assert.Empty(t, validateDate("2026-03-10"))
	assert.NotEmpty(t, validateDate("demain"))
	assert.Empty(t, validateTime("14h30"))
	assert.NotEmpty(t, validateTime("midi"))
	assert.NotEmpty(t, maxLength(3)("abcd"))
	assert.Empty(t, maxLength(3)("été"))
}

func TestRegisterInvokers(t *testing.T) {
	exec := action.NewExecutor(logging.New(nil, "silent"))
	cat := NewIntentCatalogue()
	RegisterInvokers(exec, cat, command.NewParser("/", command.Builtin()...))

	for a, route := range Routes {
		res := exec.Execute(context.Background(), a, nil, domain.AssistantContext{})
		assert.True(t, res.Success, a)
		assert.Equal(t, route, res.NavigateTo, a)
		assert.NotEmpty(t, res.Message, a)
	}

	res := exec.Execute(context.Background(), ActionGreeting, nil, domain.AssistantContext{User: domain.User{Name: "Lea"}})
	assert.Equal(t, "Bonjour Lea ! Que puis-je faire pour vous ?", res.Message)
}

func TestHelpListsOnlyPermittedActions(t *testing.T) {
	inv := HelpInvoker(NewIntentCatalogue(), command.NewParser("/", command.Builtin()...))

	res, err := inv.Invoke(context.Background(), action.Request{
		Context: domain.AssistantContext{Permissions: []string{PermTasksView, PermTasksCreate}},
	})
	require.NoError(t, err)
	assert.Contains(t, res.Message, "créer une tâche")
	assert.NotContains(t, res.Message, "déclarer une absence")
	assert.Contains(t, res.Message, "ouvrir le tableau de bord")
	assert.Contains(t, res.Message, "/effacer")
}
