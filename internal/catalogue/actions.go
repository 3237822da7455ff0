// Package catalogue holds the built-in French catalogue: the actions the
// detector knows, the guided flows, the suggestion material and the
// navigation and help invokers.
package catalogue

import (
	"regexp"

	"github.com/soyeahso/sidekick/internal/intent"
)

// Action categories.
const (
	CategoryTasks    = "tasks"
	CategoryAbsences = "absences"
	CategoryMeetings = "meetings"
	CategoryProjects = "projects"
	CategoryNavigate = "navigation"
	CategoryGeneral  = intent.CategoryGeneral
)

// Action names.
const (
	ActionCreateTask      = "create_task"
	ActionListTasks       = "list_tasks"
	ActionDeclareAbsence  = "declare_absence"
	ActionScheduleMeeting = "schedule_meeting"
	ActionCreateProject   = "create_project"
	ActionOpenTasks       = "open_tasks"
	ActionOpenProjects    = "open_projects"
	ActionOpenAbsences    = "open_absences"
	ActionOpenMeetings    = "open_meetings"
	ActionOpenDashboard   = "open_dashboard"
	ActionHelp            = "help"
	ActionGreeting        = "greeting"
)

// Permissions.
const (
	PermTasksCreate    = "tasks.create"
	PermTasksView      = "tasks.view"
	PermProjectsCreate = "projects.create"
	PermProjectsView   = "projects.view"
	PermAbsencesCreate = "absences.create"
	PermAbsencesView   = "absences.view"
	PermMeetingsCreate = "meetings.create"
	PermMeetingsView   = "meetings.view"
)

// Routes maps navigation actions to host routes.
var Routes = map[string]string{
	ActionOpenTasks:     "/tasks",
	ActionOpenProjects:  "/projects",
	ActionOpenAbsences:  "/absences",
	ActionOpenMeetings:  "/meetings",
	ActionOpenDashboard: "/dashboard",
}

func re(expr string) *regexp.Regexp { return regexp.MustCompile(expr) }

// Actions returns the action definitions. Patterns match folded text: lower
// case without accents.
func Actions() []intent.ActionDefinition {
	return []intent.ActionDefinition{
		{
			Action:      ActionCreateTask,
			Category:    CategoryTasks,
			Description: "créer une tâche",
			Keywords:    []string{"nouvelle tache", "ajouter une tache", "creer une tache", "new task"},
			Patterns: []*regexp.Regexp{
				re(`\b(creer|cree|ajouter|ajoute|nouvelle|nouveau|rajouter)\b.*\btaches?\b`),
				re(`\b(create|add|new)\b.*\btask\b`),
			},
			Priority:     80,
			Permission:   PermTasksCreate,
			RequiresFlow: true,
			DateFields:   []string{"due_date"},
		},
		{
			Action:      ActionListTasks,
			Category:    CategoryTasks,
			Description: "afficher vos tâches",
			Keywords:    []string{"mes taches", "my tasks"},
			Patterns: []*regexp.Regexp{
				re(`\b(mes|voir|afficher|affiche|lister|liste|montre|montrer)\b.*\btaches\b`),
			},
			Priority:   55,
			Permission: PermTasksView,
		},
		{
			Action:      ActionDeclareAbsence,
			Category:    CategoryAbsences,
			Description: "déclarer une absence",
			Keywords:    []string{"absence", "conges", "vacances", "arret maladie"},
			Patterns: []*regexp.Regexp{
				re(`\b(declarer|declare|poser|prendre|demander|signaler)\b.*\b(absence|conges?|rtt|vacances|arret maladie)\b`),
				re(`\bje (serai|suis) (absente?|malade|en conges)\b`),
			},
			Priority:     80,
			Permission:   PermAbsencesCreate,
			RequiresFlow: true,
			DateFields:   []string{"start_date", "end_date"},
		},
		{
			Action:      ActionScheduleMeeting,
			Category:    CategoryMeetings,
			Description: "planifier une réunion",
			Keywords:    []string{"nouvelle reunion", "planifier", "schedule a meeting"},
			Patterns: []*regexp.Regexp{
				re(`\b(planifier|organiser|programmer|creer|caler|prevoir|schedule)\b.*\b(reunion|meeting|rdv|rendez-vous)\b`),
			},
			Priority:     80,
			Permission:   PermMeetingsCreate,
			RequiresFlow: true,
			DateFields:   []string{"date"},
		},
		{
			Action:      ActionCreateProject,
			Category:    CategoryProjects,
			Description: "créer un projet",
			Keywords:    []string{"nouveau projet", "new project"},
			Patterns: []*regexp.Regexp{
				re(`\b(creer|nouveau|lancer|demarrer|ajouter)\b.*\bprojet\b`),
			},
			Priority:     75,
			Permission:   PermProjectsCreate,
			RequiresFlow: true,
			TitleField:   "name",
		},
		{
			Action:      ActionOpenTasks,
			Category:    CategoryNavigate,
			Description: "ouvrir la page des tâches",
			Keywords:    []string{"page des taches"},
			Patterns:    []*regexp.Regexp{re(`\b(ouvrir|ouvre|aller|va)\b.*\btaches\b`)},
			Priority:    60,
			Permission:  PermTasksView,
		},
		{
			Action:      ActionOpenAbsences,
			Category:    CategoryNavigate,
			Description: "consulter les absences",
			Keywords:    []string{"calendrier des absences", "mes absences"},
			Patterns:    []*regexp.Regexp{re(`\b(voir|afficher|mes|ouvrir|calendrier|liste)\b.*\babsences\b`)},
			Priority:    60,
			Permission:  PermAbsencesView,
		},
		{
			Action:      ActionOpenMeetings,
			Category:    CategoryNavigate,
			Description: "consulter vos réunions",
			Keywords:    []string{"mes reunions", "agenda"},
			Patterns:    []*regexp.Regexp{re(`\b(mes|voir|afficher|prochaines?|ouvrir|liste)\b.*\b(reunions|meetings)\b`)},
			Priority:    60,
			Permission:  PermMeetingsView,
		},
		{
			Action:      ActionOpenProjects,
			Category:    CategoryNavigate,
			Description: "consulter les projets",
			Keywords:    []string{"mes projets", "liste des projets"},
			Patterns:    []*regexp.Regexp{re(`\b(mes|voir|afficher|liste|lister|ouvrir)\b.*\bprojets\b`)},
			Priority:    60,
			Permission:  PermProjectsView,
		},
		{
			Action:      ActionOpenDashboard,
			Category:    CategoryNavigate,
			Description: "ouvrir le tableau de bord",
			Keywords:    []string{"tableau de bord", "dashboard", "accueil"},
			Priority:    40,
		},
		{
			Action:      ActionHelp,
			Category:    CategoryGeneral,
			Description: "vous expliquer ce que je sais faire",
			Keywords:    []string{"aide", "help", "comment ca marche"},
			Patterns:    []*regexp.Regexp{re(`\bque (sais|peux)[- ]tu faire\b`)},
			Priority:    20,
		},
		{
			Action:      ActionGreeting,
			Category:    CategoryGeneral,
			Description: "vous saluer",
			Keywords:    []string{"bonjour", "salut", "hello", "coucou", "bonsoir"},
			Priority:    10,
		},
	}
}

// NewIntentCatalogue builds the detector catalogue.
func NewIntentCatalogue() *intent.Catalogue {
	return intent.NewCatalogue(Actions()...)
}
