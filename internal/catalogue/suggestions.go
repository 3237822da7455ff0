package catalogue

import (
	"github.com/soyeahso/sidekick/internal/domain"
	"github.com/soyeahso/sidekick/internal/suggest"
)

var (
	sNewTask = domain.Suggestion{ID: "new-task", Label: "Créer une tâche", Icon: "plus",
		Query: "Créer une tâche", Category: CategoryTasks, Action: ActionCreateTask}
	sMyTasks = domain.Suggestion{ID: "my-tasks", Label: "Mes tâches", Icon: "list",
		Query: "Afficher mes tâches", Category: CategoryTasks, Action: ActionListTasks}
	sDeclareAbsence = domain.Suggestion{ID: "declare-absence", Label: "Déclarer une absence", Icon: "calendar-off",
		Query: "Déclarer une absence", Category: CategoryAbsences, Action: ActionDeclareAbsence}
	sMyAbsences = domain.Suggestion{ID: "my-absences", Label: "Mes absences", Icon: "calendar",
		Query: "Voir mes absences", Category: CategoryAbsences, Action: ActionOpenAbsences}
	sScheduleMeeting = domain.Suggestion{ID: "schedule-meeting", Label: "Planifier une réunion", Icon: "users",
		Query: "Planifier une réunion", Category: CategoryMeetings, Action: ActionScheduleMeeting}
	sMyMeetings = domain.Suggestion{ID: "my-meetings", Label: "Mes réunions", Icon: "clock",
		Query: "Voir mes réunions", Category: CategoryMeetings, Action: ActionOpenMeetings}
	sNewProject = domain.Suggestion{ID: "new-project", Label: "Nouveau projet", Icon: "folder-plus",
		Query: "Créer un nouveau projet", Category: CategoryProjects, Action: ActionCreateProject}
	sProjects = domain.Suggestion{ID: "projects", Label: "Projets", Icon: "folder",
		Query: "Voir les projets", Category: CategoryProjects, Action: ActionOpenProjects}
	sDashboard = domain.Suggestion{ID: "dashboard", Label: "Tableau de bord", Icon: "home",
		Query: "Ouvrir le tableau de bord", Category: CategoryNavigate, Action: ActionOpenDashboard}
	sHelp = domain.Suggestion{ID: "help", Label: "Aide", Icon: "help",
		Query: "aide", Category: CategoryGeneral, Action: ActionHelp,
		Description: "Ce que je sais faire"}
)

// Suggestions returns the suggestion material, keyed by page and category.
func Suggestions() suggest.Catalogue {
	defaults := []domain.Suggestion{sNewTask, sDeclareAbsence, sScheduleMeeting, sMyTasks, sHelp}
	return suggest.Catalogue{
		Defaults: defaults,
		Pages: map[string][]domain.Suggestion{
			"tasks":     {sNewTask, sMyTasks, sDashboard},
			"absences":  {sDeclareAbsence, sMyAbsences, sDashboard},
			"meetings":  {sScheduleMeeting, sMyMeetings, sDashboard},
			"projects":  {sNewProject, sProjects, sNewTask},
			"dashboard": defaults,
		},
		FollowUps: map[string][]domain.Suggestion{
			CategoryTasks:    {sMyTasks, sNewTask, sDashboard},
			CategoryAbsences: {sMyAbsences, sDeclareAbsence},
			CategoryMeetings: {sMyMeetings, sScheduleMeeting},
			CategoryProjects: {sProjects, sNewProject, sNewTask},
			CategoryNavigate: defaults,
		},
		Autocomplete: []domain.Suggestion{
			sNewTask, sMyTasks, sDeclareAbsence, sMyAbsences, sScheduleMeeting,
			sMyMeetings, sNewProject, sProjects, sDashboard, sHelp,
		},
	}
}
