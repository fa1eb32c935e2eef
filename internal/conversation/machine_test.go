package conversation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachine_InitialState(t *testing.T) {
	m := NewMachine(nil)
	assert.Equal(t, StateIdle, m.State())
	assert.Equal(t, StateIdle, m.Context().PreviousState)
	assert.Empty(t, m.History())
}

func TestMachine_TransitionTable(t *testing.T) {
	tests := []struct {
		name    string
		path    []Trigger
		want    State
		wantErr bool
	}{
		{"ambiguity from idle", []Trigger{TriggerAmbiguity}, StateAwaitingConfirmation, false},
		{"actionable from idle", []Trigger{TriggerActionable}, StateProcessingTask, false},
		{"multiple from idle", []Trigger{TriggerActionableMultiple}, StateProcessingMultipleTasks, false},
		{"confirm then done", []Trigger{TriggerAmbiguity, TriggerConfirm, TriggerDone}, StateIdle, false},
		{"cancel", []Trigger{TriggerAmbiguity, TriggerCancel}, StateIdle, false},
		{"ambiguity again", []Trigger{TriggerAmbiguity, TriggerAmbiguity}, StateAwaitingConfirmation, false},
		{"fresh input while awaiting", []Trigger{TriggerAmbiguity, TriggerActionable}, StateProcessingTask, false},
		{"clarify", []Trigger{TriggerClarify}, StateAwaitingClarification, false},
		{"clarify then act", []Trigger{TriggerClarify, TriggerActionable, TriggerDone}, StateIdle, false},
		{"reset from processing", []Trigger{TriggerActionable, TriggerReset}, StateIdle, false},
		{"confirm from idle", []Trigger{TriggerConfirm}, StateIdle, true},
		{"done from idle", []Trigger{TriggerDone}, StateIdle, true},
		{"ambiguity while processing", []Trigger{TriggerActionable, TriggerAmbiguity}, StateProcessingTask, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMachine(nil)
			var err error
			for _, tr := range tt.path {
				if err = m.Fire(tr); err != nil {
					break
				}
			}
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidTransition), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, m.State())
		})
	}
}

func TestMachine_HistoryIsBounded(t *testing.T) {
	m := NewMachine(nil)
	for range 8 {
		require.NoError(t, m.Fire(TriggerActionable))
		require.NoError(t, m.Fire(TriggerDone))
	}
	h := m.History()
	require.Len(t, h, HistorySize)
	assert.Equal(t, TriggerDone, h[len(h)-1].Trigger)
	assert.Equal(t, StateIdle, h[len(h)-1].To)
}

func TestMachine_ConfirmationGating(t *testing.T) {
	m := NewMachine(nil)
	require.NoError(t, m.Fire(TriggerAmbiguity))

	yes := m.Analyze("yes")
	assert.True(t, yes.IsConfirmation)
	assert.False(t, yes.IsCancel)

	cancel := m.Analyze("cancel")
	assert.False(t, cancel.IsConfirmation)
	assert.True(t, cancel.IsCancel)

	banana := m.Analyze("banana")
	assert.False(t, banana.IsConfirmation)
	assert.False(t, banana.IsCancel)
	assert.Equal(t, "banana", banana.Input)
}

func TestConfirmationAndCancelSets(t *testing.T) {
	for _, s := range []string{"yes", "Y", "OK", "okay", "Sure!", "proceed", "Create Anyway", "do  it"} {
		assert.True(t, IsConfirmation(s), s)
		assert.False(t, IsCancel(s), s)
	}
	for _, s := range []string{"no", "N", "cancel", "STOP", "abort", "nevermind", "never mind."} {
		assert.True(t, IsCancel(s), s)
		assert.False(t, IsConfirmation(s), s)
	}
	for _, s := range []string{"yes please create it", "nope", "", "create anyway Buy milk"} {
		assert.False(t, IsConfirmation(s), s)
		assert.False(t, IsCancel(s), s)
	}
}

func TestMachine_ArtifactFilteringScope(t *testing.T) {
	const input = "create anyway Buy milk"

	idle := NewMachine(nil)
	got := idle.Analyze(input)
	assert.Equal(t, input, got.Input)
	assert.False(t, got.Filtered)

	awaiting := NewMachine(nil)
	require.NoError(t, awaiting.Fire(TriggerAmbiguity))
	got = awaiting.Analyze(input)
	assert.Equal(t, "Buy milk", got.Input)
	assert.Equal(t, input, got.Original)
	assert.True(t, got.Filtered)

	// Just left awaiting_confirmation: the previous state still counts.
	justCancelled := NewMachine(nil)
	require.NoError(t, justCancelled.Fire(TriggerAmbiguity))
	require.NoError(t, justCancelled.Fire(TriggerCancel))
	require.Equal(t, StateAwaitingConfirmation, justCancelled.Context().PreviousState)
	assert.Equal(t, "Walk dog", justCancelled.Analyze("yes, Walk dog").Input)
	assert.Equal(t, "Walk dog", justCancelled.Analyze("proceed Walk dog").Input)

	processing := NewMachine(nil)
	require.NoError(t, processing.Fire(TriggerActionable))
	assert.Equal(t, input, processing.Analyze(input).Input)
}

func TestMachine_ExactConfirmationIsNotFiltered(t *testing.T) {
	m := NewMachine(nil)
	require.NoError(t, m.Fire(TriggerAmbiguity))
	got := m.Analyze("create anyway")
	assert.True(t, got.IsConfirmation)
	assert.False(t, got.Filtered)
	assert.Equal(t, "create anyway", got.Input)
}

func TestMachine_ResetClearsPendingAction(t *testing.T) {
	m := NewMachine(nil)
	require.NoError(t, m.Fire(TriggerAmbiguity))
	m.SetPendingAction("duplicate")
	m.SetMetadata("content", "Buy milk")

	m.Reset()
	assert.Equal(t, StateIdle, m.State())
	assert.Empty(t, m.Context().PendingAction)
	assert.Empty(t, m.Context().Metadata)
}

func TestMachine_AnsweredQuestionClearsPendingAction(t *testing.T) {
	for _, trigger := range []Trigger{TriggerConfirm, TriggerCancel, TriggerActionable, TriggerClarify} {
		t.Run(string(trigger), func(t *testing.T) {
			m := NewMachine(nil)
			require.NoError(t, m.Fire(TriggerAmbiguity))
			m.SetPendingAction("duplicate")

			require.NoError(t, m.Fire(trigger))
			assert.Empty(t, m.Context().PendingAction)
		})
	}

	m := NewMachine(nil)
	require.NoError(t, m.Fire(TriggerAmbiguity))
	m.SetPendingAction("priority")
	require.NoError(t, m.Fire(TriggerAmbiguity))
	assert.Equal(t, "priority", m.Context().PendingAction, "re-asking keeps the question open")
}

func TestMachine_SnapshotRestore(t *testing.T) {
	m := NewMachine(nil)
	require.NoError(t, m.Fire(TriggerAmbiguity))
	m.SetPendingAction("priority")
	m.SetMetadata("content", "Call mom")

	snap := m.Snapshot()
	restored := NewMachine(nil)
	restored.Restore(snap)
	assert.Equal(t, StateAwaitingConfirmation, restored.State())
	assert.Equal(t, "priority", restored.Context().PendingAction)
	assert.Equal(t, "Call mom", restored.Context().Metadata["content"])

	// Mutating the snapshot must not leak into the machine.
	snap.Context.Metadata["content"] = "changed"
	assert.Equal(t, "Call mom", restored.Context().Metadata["content"])

	bogus := NewMachine(nil)
	bogus.Restore(Snapshot{State: "exploded"})
	assert.Equal(t, StateIdle, bogus.State())
}
