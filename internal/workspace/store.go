// Package workspace is an in-memory project-management backend: projects,
// tasks, absences and meetings. It stands in for the host application's
// services and exposes them to the assistant as action invokers.
package workspace

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidRange = errors.New("workspace: end before start")
	ErrOverlap      = errors.New("workspace: absence overlaps an existing one")
	ErrEmpty        = errors.New("workspace: required field is empty")
)

// Task is a unit of work.
type Task struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Priority  string     `json:"priority"`
	DueDate   *time.Time `json:"dueDate,omitempty"`
	Owner     string     `json:"owner"`
	Done      bool       `json:"done"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Project groups tasks.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Owner       string    `json:"owner"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Absence is a leave request. Start and End are inclusive days.
type Absence struct {
	ID     string    `json:"id"`
	UserID string    `json:"userId"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Type   string    `json:"type"`
	Reason string    `json:"reason,omitempty"`
	Status string    `json:"status"`
}

// Meeting is a scheduled meeting.
type Meeting struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Start        time.Time `json:"start"`
	Participants []string  `json:"participants,omitempty"`
	Organizer    string    `json:"organizer"`
}

// Store holds the workspace data in memory. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	projects []Project
	tasks    []Task
	absences []Absence
	meetings []Meeting
	now      func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{now: time.Now}
}

func (s *Store) CreateTask(_ context.Context, t Task) (Task, error) {
	if t.Title == "" {
		return Task{}, ErrEmpty
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = uuid.NewString()
	t.CreatedAt = s.now().UTC()
	s.tasks = append(s.tasks, t)
	return t, nil
}

// Tasks returns the open tasks of owner, soonest due first.
func (s *Store) Tasks(_ context.Context, owner string) []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Task
	for _, t := range s.tasks {
		if t.Owner == owner && !t.Done {
			out = append(out, t)
		}
	}
	slices.SortStableFunc(out, func(a, b Task) int {
		switch {
		case a.DueDate == nil && b.DueDate == nil:
			return 0
		case a.DueDate == nil:
			return 1
		case b.DueDate == nil:
			return -1
		}
		return a.DueDate.Compare(*b.DueDate)
	})
	return out
}

func (s *Store) CreateProject(_ context.Context, p Project) (Project, error) {
	if p.Name == "" {
		return Project{}, ErrEmpty
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = uuid.NewString()
	p.CreatedAt = s.now().UTC()
	s.projects = append(s.projects, p)
	return p, nil
}

func (s *Store) Projects(_ context.Context) []Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.projects)
}

// DeclareAbsence records a pending absence. It refuses reversed ranges and
// ranges overlapping another absence of the same user.
func (s *Store) DeclareAbsence(_ context.Context, a Absence) (Absence, error) {
	if a.End.Before(a.Start) {
		return Absence{}, ErrInvalidRange
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.absences {
		if other.UserID == a.UserID && !a.Start.After(other.End) && !other.Start.After(a.End) {
			return Absence{}, ErrOverlap
		}
	}
	a.ID = uuid.NewString()
	a.Status = "pending"
	s.absences = append(s.absences, a)
	return a, nil
}

func (s *Store) Absences(_ context.Context, userID string) []Absence {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Absence
	for _, a := range s.absences {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out
}

func (s *Store) ScheduleMeeting(_ context.Context, m Meeting) (Meeting, error) {
	if m.Title == "" {
		return Meeting{}, ErrEmpty
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = uuid.NewString()
	s.meetings = append(s.meetings, m)
	return m, nil
}

// Meetings returns the meetings organised by or involving user, in
// chronological order.
func (s *Store) Meetings(_ context.Context, user string) []Meeting {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Meeting
	for _, m := range s.meetings {
		if m.Organizer == user || slices.Contains(m.Participants, user) {
			out = append(out, m)
		}
	}
	slices.SortFunc(out, func(a, b Meeting) int { return a.Start.Compare(b.Start) })
	return out
}
