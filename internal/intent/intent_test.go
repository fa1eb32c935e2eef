package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityTier(t *testing.T) {
	tests := []struct {
		word string
		want *int
	}{
		{"urgent", intPtr(4)},
		{"HIGH", intPtr(3)},
		{" medium ", intPtr(2)},
		{"low", intPtr(1)},
		{"important", nil},
		{"asap", nil},
		{"", nil},
	}
	for _, tt := range tests {
		got := PriorityTier(tt.word)
		if tt.want == nil {
			assert.Nil(t, got, tt.word)
			continue
		}
		require.NotNil(t, got, tt.word)
		assert.Equal(t, *tt.want, *got, tt.word)
	}
}

func TestFallback(t *testing.T) {
	f := Fallback()
	assert.Equal(t, ActionNone, f.Action)
	assert.Equal(t, 0.1, f.Confidence)
	assert.Equal(t, Entities{}, f.Entities)
	assert.Equal(t, "fallback", f.Reasoning)
	assert.True(t, f.IsFallback())
	assert.False(t, f.Actionable(DefaultThreshold))
}

func TestActionable(t *testing.T) {
	assert.False(t, Result{Action: ActionCreate, Confidence: 0.7}.Actionable(0.7), "threshold is exclusive")
	assert.True(t, Result{Action: ActionCreate, Confidence: 0.71}.Actionable(0.7))
	assert.False(t, Result{Action: ActionNone, Confidence: 0.99}.Actionable(0.7))
}

func TestAction_IsKnown(t *testing.T) {
	for _, a := range []Action{ActionCreate, ActionCreateMultiple, ActionUpdate, ActionComplete, ActionList, ActionNone} {
		assert.True(t, a.IsKnown(), a)
	}
	assert.False(t, Action("delete").IsKnown())
}

func intPtr(n int) *int { return &n }
