package catalogue

import (
	"github.com/soyeahso/sidekick/internal/flow"
	"github.com/soyeahso/sidekick/internal/intent"
)

// PriorityOptions are the task priorities.
var PriorityOptions = []flow.Option{
	{Label: "Haute", Value: "high"},
	{Label: "Moyenne", Value: "medium"},
	{Label: "Basse", Value: "low"},
}

// AbsenceTypeOptions are the kinds of absence.
var AbsenceTypeOptions = []flow.Option{
	{Label: "Congés payés", Value: "conges"},
	{Label: "Maladie", Value: "maladie"},
	{Label: "RTT", Value: "rtt"},
	{Label: "Autre", Value: "autre"},
}

func validateDate(v string) string {
	if _, ok := intent.ParseDate(v); !ok {
		return "Je n'ai pas reconnu cette date. Utilisez le format JJ/MM/AAAA ou AAAA-MM-JJ."
	}
	return ""
}

func validateTime(v string) string {
	if _, ok := intent.ParseTime(v); !ok {
		return "Je n'ai pas reconnu cette heure. Utilisez le format HH:MM, par exemple 14:30."
	}
	return ""
}

func maxLength(n int) func(string) string {
	return func(v string) string {
		if len([]rune(v)) > n {
			return "Ce texte est trop long."
		}
		return ""
	}
}

// Flows returns the guided flow definitions.
func Flows() []flow.Definition {
	return []flow.Definition{
		{
			Action:      ActionCreateTask,
			Description: "Créons une nouvelle tâche.",
			Steps: []flow.Step{
				{Field: "title", Label: "Quel est le titre de la tâche ?", Type: flow.TypeText, Required: true, Validate: maxLength(200)},
				{Field: "priority", Label: "Quelle est la priorité ?", Type: flow.TypeSelect, Options: PriorityOptions, Required: true},
				{Field: "due_date", Label: "Pour quand (JJ/MM/AAAA, optionnel) ?", Type: flow.TypeDate, Validate: validateDate},
				{Field: "confirm", Label: "Je crée cette tâche ?", Type: flow.TypeConfirm, Required: true},
			},
		},
		{
			Action:      ActionDeclareAbsence,
			Description: "Déclarons votre absence.",
			Steps: []flow.Step{
				{Field: "start_date", Label: "Quelle est la date de début (JJ/MM/AAAA) ?", Type: flow.TypeDate, Required: true, Validate: validateDate},
				{Field: "end_date", Label: "Quelle est la date de fin (JJ/MM/AAAA) ?", Type: flow.TypeDate, Required: true, Validate: validateDate},
				{Field: "absence_type", Label: "Quel type d'absence ?", Type: flow.TypeSelect, Options: AbsenceTypeOptions, Required: true},
				{Field: "reason", Label: "Un commentaire (optionnel) ?", Type: flow.TypeText, Validate: maxLength(500)},
				{Field: "confirm", Label: "Je soumets cette demande d'absence ?", Type: flow.TypeConfirm, Required: true},
			},
		},
		{
			Action:      ActionScheduleMeeting,
			Description: "Planifions une réunion.",
			Steps: []flow.Step{
				{Field: "title", Label: "Quel est l'objet de la réunion ?", Type: flow.TypeText, Required: true, Validate: maxLength(200)},
				{Field: "date", Label: "Quel jour (JJ/MM/AAAA) ?", Type: flow.TypeDate, Required: true, Validate: validateDate},
				{Field: "time", Label: "À quelle heure (HH:MM) ?", Type: flow.TypeText, Required: true, Validate: validateTime},
				{Field: "participants", Label: "Qui faut-il inviter (optionnel) ?", Type: flow.TypeText},
				{Field: "confirm", Label: "Je planifie cette réunion ?", Type: flow.TypeConfirm, Required: true},
			},
		},
		{
			Action:      ActionCreateProject,
			Description: "Créons un nouveau projet.",
			Steps: []flow.Step{
				{Field: "name", Label: "Quel est le nom du projet ?", Type: flow.TypeText, Required: true, Validate: maxLength(120)},
				{Field: "description", Label: "Une description (optionnel) ?", Type: flow.TypeText, Validate: maxLength(1000)},
				{Field: "confirm", Label: "Je crée ce projet ?", Type: flow.TypeConfirm, Required: true},
			},
		},
	}
}

// NewFlowRegistry builds the registry of guided flows.
func NewFlowRegistry() *flow.Registry {
	reg := flow.NewRegistry()
	for _, def := range Flows() {
		reg.MustRegister(def)
	}
	return reg
}
