package flow

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(taskDefinition()))

	def, ok := reg.Get("create_task")
	require.True(t, ok)
	assert.Len(t, def.Steps, 4)

	_, ok = reg.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"create_task"}, reg.Actions())
}

func TestRegistryRejectsInvalidDefinitions(t *testing.T) {
	tests := []struct {
		name string
		def  Definition
	}{
		{"no action", Definition{Steps: []Step{{Field: "a", Type: TypeText}}}},
		{"no steps", Definition{Action: "x"}},
		{"no field", Definition{Action: "x", Steps: []Step{{Type: TypeText}}}},
		{"duplicate field", Definition{Action: "x", Steps: []Step{{Field: "a"}, {Field: "a"}}}},
		{"confirm not last", Definition{Action: "x", Steps: []Step{{Field: "c", Type: TypeConfirm}, {Field: "a"}}}},
		{"select without options", Definition{Action: "x", Steps: []Step{{Field: "s", Type: TypeSelect}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, NewRegistry().Register(tt.def))
		})
	}
}

func TestRegistryDuplicate(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(taskDefinition())
	assert.Error(t, reg.Register(taskDefinition()))
	assert.Panics(t, func() { reg.MustRegister(taskDefinition()) })
}

func TestSnapshotRestore(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(taskDefinition())
	e := NewEngine(DefaultVocabulary())

	out := e.Start(taskDefinition(), map[string]string{"title": "Rapport", "priority": "3"})
	snap := out.Flow.Snapshot()
	assert.Equal(t, Snapshot{Action: "create_task", StepIndex: 2, Collected: map[string]string{"title": "Rapport", "priority": "low"}}, snap)

	restored, err := Restore(snap, reg)
	require.NoError(t, err)
	if diff := cmp.Diff(out.Flow, restored, ignoreFuncs); diff != "" {
		t.Errorf("restored flow differs (-want +got):\n%s", diff)
	}
	require.NotNil(t, restored.Steps[2].Validate)
}

func TestRestoreErrors(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(taskDefinition())

	_, err := Restore(Snapshot{Action: "unknown"}, reg)
	assert.True(t, errors.Is(err, ErrUnknownFlow))

	_, err = Restore(Snapshot{Action: "create_task", StepIndex: 9}, reg)
	assert.Error(t, err)
}

func TestRestoreDropsUnknownFields(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(taskDefinition())

	f, err := Restore(Snapshot{Action: "create_task", StepIndex: 1, Collected: map[string]string{"title": "A", "stale": "x"}}, reg)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"title": "A"}, f.CollectedData)
}

func TestCloneIsIndependent(t *testing.T) {
	f := New(taskDefinition())
	c := f.Clone()
	c.CollectedData["title"] = "x"
	c.CurrentStepIndex = 1

	assert.Empty(t, f.CollectedData)
	assert.Equal(t, 0, f.CurrentStepIndex)

	var nilFlow *ActiveFlow
	assert.Nil(t, nilFlow.Clone())
}

func TestVocabulary(t *testing.T) {
	v := DefaultVocabulary()
	assert.True(t, v.IsAffirm("Oui, merci"))
	assert.True(t, v.IsCancel("non merci"))
	assert.False(t, v.IsCancel(""))
	assert.True(t, v.IsSkip(" SKIP "))
	assert.False(t, v.IsSkip("passer la commande"))

	partial := Vocabulary{Affirm: []string{"si"}}.WithDefaults()
	assert.Equal(t, []string{"si"}, partial.Affirm)
	assert.Equal(t, v.Cancel, partial.Cancel)
}
