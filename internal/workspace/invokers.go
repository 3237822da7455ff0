package workspace

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/soyeahso/sidekick/internal/action"
	"github.com/soyeahso/sidekick/internal/catalogue"
	"github.com/soyeahso/sidekick/internal/domain"
	"github.com/soyeahso/sidekick/internal/intent"
)

const dayFormat = "02/01/2006"

var priorityLabels = map[string]string{"high": "haute", "medium": "moyenne", "low": "basse"}

var absenceLabels = map[string]string{
	"conges":  "congés payés",
	"maladie": "maladie",
	"rtt":     "RTT",
	"autre":   "autre",
}

// Register binds the workspace actions to st.
func Register(exec *action.Executor, st *Store) {
	exec.RegisterFunc(catalogue.ActionCreateTask, st.createTask)
	exec.RegisterFunc(catalogue.ActionListTasks, st.listTasks)
	exec.RegisterFunc(catalogue.ActionCreateProject, st.createProject)
	exec.RegisterFunc(catalogue.ActionDeclareAbsence, st.declareAbsence)
	exec.RegisterFunc(catalogue.ActionScheduleMeeting, st.scheduleMeeting)
}

func parseDay(v string) (time.Time, error) {
	iso, ok := intent.ParseDate(v)
	if !ok {
		return time.Time{}, action.Fail(fmt.Sprintf("La date « %s » n'est pas valide.", v))
	}
	return time.Parse(time.DateOnly, iso)
}

func (s *Store) createTask(ctx context.Context, req action.Request) (domain.ActionResult, error) {
	t := Task{
		Title:    strings.TrimSpace(req.Params["title"]),
		Priority: req.Params["priority"],
		Owner:    req.Context.User.ID,
	}
	if t.Priority == "" {
		t.Priority = "medium"
	}
	if v := req.Params["due_date"]; v != "" {
		due, err := parseDay(v)
		if err != nil {
			return domain.ActionResult{}, err
		}
		t.DueDate = &due
	}

	t, err := s.CreateTask(ctx, t)
	if err != nil {
		return domain.ActionResult{}, action.Failf(err, "Impossible de créer la tâche sans titre.")
	}

	fields := []domain.AttachmentField{{Label: "Priorité", Value: priorityLabels[t.Priority]}}
	if t.DueDate != nil {
		fields = append(fields, domain.AttachmentField{Label: "Échéance", Value: t.DueDate.Format(dayFormat)})
	}
	return domain.ActionResult{
		Success:    true,
		Message:    fmt.Sprintf("La tâche « %s » a été créée.", t.Title),
		Attachment: &domain.Attachment{Kind: "task", Title: t.Title, Fields: fields, Link: "/tasks/" + t.ID},
		NavigateTo: "/tasks",
		Data:       map[string]any{"taskId": t.ID, "refresh": catalogue.CategoryTasks},
	}, nil
}

func (s *Store) listTasks(ctx context.Context, req action.Request) (domain.ActionResult, error) {
	tasks := s.Tasks(ctx, req.Context.User.ID)
	if len(tasks) == 0 {
		return domain.ActionResult{Success: true, Message: "Vous n'avez aucune tâche en cours."}, nil
	}

	items := make([]string, 0, len(tasks))
	for _, t := range tasks {
		item := fmt.Sprintf("%s (%s)", t.Title, priorityLabels[t.Priority])
		if t.DueDate != nil {
			item += " pour le " + t.DueDate.Format(dayFormat)
		}
		items = append(items, item)
	}
	return domain.ActionResult{
		Success:    true,
		Message:    fmt.Sprintf("Vous avez %d tâche(s) en cours.", len(tasks)),
		Attachment: &domain.Attachment{Kind: "list", Title: "Mes tâches", Items: items, Link: "/tasks"},
		Data:       map[string]any{"count": len(tasks)},
	}, nil
}

func (s *Store) createProject(ctx context.Context, req action.Request) (domain.ActionResult, error) {
	p, err := s.CreateProject(ctx, Project{
		Name:        strings.TrimSpace(req.Params["name"]),
		Description: strings.TrimSpace(req.Params["description"]),
		Owner:       req.Context.User.ID,
	})
	if err != nil {
		return domain.ActionResult{}, action.Failf(err, "Impossible de créer un projet sans nom.")
	}

	att := &domain.Attachment{Kind: "project", Title: p.Name, Link: "/projects/" + p.ID}
	if p.Description != "" {
		att.Fields = []domain.AttachmentField{{Label: "Description", Value: p.Description}}
	}
	return domain.ActionResult{
		Success:    true,
		Message:    fmt.Sprintf("Le projet « %s » a été créé.", p.Name),
		Attachment: att,
		NavigateTo: "/projects",
		Data:       map[string]any{"projectId": p.ID, "refresh": catalogue.CategoryProjects},
	}, nil
}

func (s *Store) declareAbsence(ctx context.Context, req action.Request) (domain.ActionResult, error) {
	start, err := parseDay(req.Params["start_date"])
	if err != nil {
		return domain.ActionResult{}, err
	}
	end, err := parseDay(req.Params["end_date"])
	if err != nil {
		return domain.ActionResult{}, err
	}

	a, err := s.DeclareAbsence(ctx, Absence{
		UserID: req.Context.User.ID,
		Start:  start,
		End:    end,
		Type:   req.Params["absence_type"],
		Reason: strings.TrimSpace(req.Params["reason"]),
	})
	switch {
	case errors.Is(err, ErrInvalidRange):
		return domain.ActionResult{}, action.Failf(err, "La date de fin doit être postérieure ou égale à la date de début.")
	case errors.Is(err, ErrOverlap):
		return domain.ActionResult{}, action.Failf(err, "Vous avez déjà une absence déclarée sur cette période.")
	case err != nil:
		return domain.ActionResult{}, err
	}

	days := int(a.End.Sub(a.Start).Hours()/24) + 1
	return domain.ActionResult{
		Success: true,
		Message: fmt.Sprintf("Votre demande d'absence du %s au %s a été enregistrée.", a.Start.Format(dayFormat), a.End.Format(dayFormat)),
		Attachment: &domain.Attachment{
			Kind:  "absence",
			Title: "Demande d'absence",
			Fields: []domain.AttachmentField{
				{Label: "Type", Value: absenceLabels[a.Type]},
				{Label: "Durée", Value: fmt.Sprintf("%d jour(s)", days)},
				{Label: "Statut", Value: "en attente de validation"},
			},
		},
		NavigateTo: "/absences",
		Data:       map[string]any{"absenceId": a.ID, "refresh": catalogue.CategoryAbsences},
	}, nil
}

func (s *Store) scheduleMeeting(ctx context.Context, req action.Request) (domain.ActionResult, error) {
	day, err := parseDay(req.Params["date"])
	if err != nil {
		return domain.ActionResult{}, err
	}
	hhmm, ok := intent.ParseTime(strings.TrimSpace(req.Params["time"]))
	if !ok {
		return domain.ActionResult{}, action.Fail("L'heure de la réunion n'est pas valide.")
	}
	clock, err := time.Parse("15:04", hhmm)
	if err != nil {
		return domain.ActionResult{}, err
	}
	start := day.Add(time.Duration(clock.Hour())*time.Hour + time.Duration(clock.Minute())*time.Minute)

	m, err := s.ScheduleMeeting(ctx, Meeting{
		Title:        strings.TrimSpace(req.Params["title"]),
		Start:        start,
		Participants: splitParticipants(req.Params["participants"]),
		Organizer:    req.Context.User.ID,
	})
	if err != nil {
		return domain.ActionResult{}, action.Failf(err, "Impossible de planifier une réunion sans objet.")
	}

	att := &domain.Attachment{
		Kind:   "meeting",
		Title:  m.Title,
		Fields: []domain.AttachmentField{{Label: "Quand", Value: m.Start.Format("02/01/2006 15:04")}},
		Items:  m.Participants,
	}
	return domain.ActionResult{
		Success:    true,
		Message:    fmt.Sprintf("La réunion « %s » est planifiée le %s à %s.", m.Title, m.Start.Format(dayFormat), hhmm),
		Attachment: att,
		NavigateTo: "/meetings",
		Data:       map[string]any{"meetingId": m.ID, "refresh": catalogue.CategoryMeetings},
	}, nil
}

func splitParticipants(v string) []string {
	var out []string
	for _, p := range strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ';' }) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
