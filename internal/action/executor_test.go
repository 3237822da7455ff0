package action

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/sidekick/internal/domain"
	"github.com/soyeahso/sidekick/internal/logging"
)

func testExecutor() *Executor {
	return NewExecutor(logging.New(nil, "silent"))
}

func TestExecuteUnknownAction(t *testing.T) {
	e := testExecutor()
	res := e.Execute(context.Background(), "fly_to_moon", nil, domain.AssistantContext{})
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "fly_to_moon")
}

func TestExecuteDelegates(t *testing.T) {
	e := testExecutor()
	var got Request
	calls := 0
	e.RegisterFunc("create_task", func(_ context.Context, req Request) (domain.ActionResult, error) {
		calls++
		got = req
		return domain.ActionResult{Success: true, Message: "ok", NavigateTo: "/tasks"}, nil
	})

	actx := domain.AssistantContext{User: domain.User{ID: "u1"}}
	res := e.Execute(context.Background(), "create_task", map[string]string{"title": "Rapport"}, actx)

	require.True(t, res.Success)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "/tasks", res.NavigateTo)
	assert.Equal(t, "create_task", got.Action)
	assert.Equal(t, "Rapport", got.Params["title"])
	assert.Equal(t, "u1", got.Context.User.ID)
}

func TestExecuteNilParams(t *testing.T) {
	e := testExecutor()
	e.RegisterFunc("x", func(_ context.Context, req Request) (domain.ActionResult, error) {
		assert.NotNil(t, req.Params)
		return domain.ActionResult{Success: true}, nil
	})
	e.Execute(context.Background(), "x", nil, domain.AssistantContext{})
}

func TestExecuteFailures(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"user-facing failure", Fail("Le projet est archivé."), "Le projet est archivé."},
		{"wrapped failure", Failf(errors.New("db down"), "Impossible de créer %s.", "la tâche"), "Impossible de créer la tâche."},
		{"internal error", errors.New("boom"), msgGenericError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := testExecutor()
			calls := 0
			e.RegisterFunc("a", func(context.Context, Request) (domain.ActionResult, error) {
				calls++
				return domain.ActionResult{}, tt.err
			})

			res := e.Execute(context.Background(), "a", nil, domain.AssistantContext{})
			assert.False(t, res.Success)
			assert.Equal(t, tt.wantMsg, res.Message)
			assert.Equal(t, 1, calls, "executor must not retry")
		})
	}
}

func TestExecuteRecoversPanic(t *testing.T) {
	e := testExecutor()
	e.RegisterFunc("a", func(context.Context, Request) (domain.ActionResult, error) {
		panic("nil map")
	})

	res := e.Execute(context.Background(), "a", nil, domain.AssistantContext{})
	assert.False(t, res.Success)
	assert.Equal(t, msgGenericError, res.Message)
}

func TestFailureUnwrap(t *testing.T) {
	root := errors.New("root")
	err := Failf(root, "oops")
	assert.ErrorIs(t, err, root)
	assert.Equal(t, "oops: root", err.Error())
	assert.Equal(t, "plain", Fail("plain").Error())
}

func TestRegistryHelpers(t *testing.T) {
	e := testExecutor()
	e.Register("open_tasks", Navigate("/tasks", "Voici vos tâches."))
	e.Register("greeting", Reply("Bonjour !"))

	assert.True(t, e.Has("open_tasks"))
	assert.False(t, e.Has("nope"))
	assert.Equal(t, []string{"greeting", "open_tasks"}, e.Actions())

	res := e.Execute(context.Background(), "open_tasks", nil, domain.AssistantContext{})
	assert.Equal(t, domain.ActionResult{Success: true, Message: "Voici vos tâches.", NavigateTo: "/tasks"}, res)
}
