package catalogue

import (
	"context"
	"fmt"
	"strings"

	"github.com/soyeahso/sidekick/internal/action"
	"github.com/soyeahso/sidekick/internal/command"
	"github.com/soyeahso/sidekick/internal/domain"
	"github.com/soyeahso/sidekick/internal/intent"
)

var navigationMessages = map[string]string{
	ActionOpenTasks:     "Je vous emmène à vos tâches.",
	ActionOpenProjects:  "Voici les projets.",
	ActionOpenAbsences:  "Voici le calendrier des absences.",
	ActionOpenMeetings:  "Voici vos réunions.",
	ActionOpenDashboard: "Retour au tableau de bord.",
}

// RegisterInvokers binds the navigation, help and greeting actions. Domain
// actions are registered by the host backend.
func RegisterInvokers(exec *action.Executor, cat *intent.Catalogue, cmds *command.Parser) {
	for a, route := range Routes {
		exec.Register(a, action.Navigate(route, navigationMessages[a]))
	}
	exec.Register(ActionHelp, HelpInvoker(cat, cmds))
	exec.RegisterFunc(ActionGreeting, func(_ context.Context, req action.Request) (domain.ActionResult, error) {
		name := req.Context.User.Name
		if name == "" {
			return domain.ActionResult{Success: true, Message: "Bonjour ! Que puis-je faire pour vous ?"}, nil
		}
		return domain.ActionResult{Success: true, Message: fmt.Sprintf("Bonjour %s ! Que puis-je faire pour vous ?", name)}, nil
	})
}

// HelpInvoker lists what the user is allowed to ask and the commands.
func HelpInvoker(cat *intent.Catalogue, cmds *command.Parser) action.Invoker {
	return action.InvokerFunc(func(_ context.Context, req action.Request) (domain.ActionResult, error) {
		var b strings.Builder
		b.WriteString("Je peux :")
		for _, def := range cat.All() {
			if def.Category == CategoryGeneral || !req.Context.Can(def.Permission) {
				continue
			}
			fmt.Fprintf(&b, "\n- %s", def.Description)
		}
		if cmds != nil {
			b.WriteString("\n\n**Commandes**")
			b.WriteString(cmds.Usage())
		}
		return domain.ActionResult{Success: true, Message: b.String()}, nil
	})
}
