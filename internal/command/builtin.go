package command

import "github.com/soyeahso/sidekick/internal/textnorm"

// Pages maps page names accepted by the navigate command to the action
// that opens them.
var Pages = map[string]string{
	"taches":    "open_tasks",
	"tasks":     "open_tasks",
	"projets":   "open_projects",
	"projects":  "open_projects",
	"absences":  "open_absences",
	"reunions":  "open_meetings",
	"meetings":  "open_meetings",
	"tableau":   "open_dashboard",
	"dashboard": "open_dashboard",
	"accueil":   "open_dashboard",
}

// PageAction resolves a page name to its navigation action.
func PageAction(page string) (string, bool) {
	a, ok := Pages[textnorm.Fold(page)]
	return a, ok
}

// Builtin returns the standard commands.
func Builtin() []Command {
	return []Command{
		{Name: "effacer", Aliases: []string{"clear", "reset"}, Kind: KindClear,
			Description: "efface la conversation"},
		{Name: "aide", Aliases: []string{"help", "?"}, Kind: KindHelp,
			Description: "liste les commandes et ce que je sais faire"},
		{Name: "aller", Aliases: []string{"go", "ouvrir"}, Kind: KindNavigate, Usage: "<page>",
			Description: "ouvre une page (taches, projets, absences, reunions, tableau)"},
		{Name: "taches", Aliases: []string{"tasks"}, Kind: KindNavigate, Action: "open_tasks",
			Description: "ouvre vos tâches"},
		{Name: "projets", Aliases: []string{"projects"}, Kind: KindNavigate, Action: "open_projects",
			Description: "ouvre les projets"},
		{Name: "absences", Kind: KindNavigate, Action: "open_absences",
			Description: "ouvre le calendrier des absences"},
		{Name: "reunions", Aliases: []string{"meetings"}, Kind: KindNavigate, Action: "open_meetings",
			Description: "ouvre vos réunions"},
		{Name: "tableau", Aliases: []string{"dashboard"}, Kind: KindNavigate, Action: "open_dashboard",
			Description: "ouvre le tableau de bord"},
	}
}
