package intent

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantAction Action
		wantErr    error
	}{
		{
			name:       "plain json",
			raw:        `{"action":"create","confidence":0.92,"entities":{"taskContent":"Buy milk"}}`,
			wantAction: ActionCreate,
		},
		{
			name:       "markdown fence",
			raw:        "```json\n{\"action\":\"list\",\"confidence\":0.8,\"entities\":{}}\n```",
			wantAction: ActionList,
		},
		{
			name:       "prose around object",
			raw:        "Sure! Here you go: {\"action\":\"none\",\"confidence\":0.4} Hope that helps.",
			wantAction: ActionNone,
		},
		{
			name:    "not json",
			raw:     "I think you want to buy milk.",
			wantErr: ErrNoJSON,
		},
		{
			name:    "truncated json",
			raw:     `{"action":"create","confidence":0.9,"entities":{"taskContent":"Buy`,
			wantErr: ErrNoJSON,
		},
		{
			name:    "missing action",
			raw:     `{"confidence":0.9}`,
			wantErr: ErrContract,
		},
		{
			name:    "unknown action",
			raw:     `{"action":"delete","confidence":0.9}`,
			wantErr: ErrContract,
		},
		{
			name:    "confidence as string",
			raw:     `{"action":"list","confidence":"0.9"}`,
			wantErr: ErrContract,
		},
		{
			name:    "confidence out of range",
			raw:     `{"action":"list","confidence":1.5}`,
			wantErr: ErrContract,
		},
		{
			name:    "create without content",
			raw:     `{"action":"create","confidence":0.9,"entities":{"taskContent":"  "}}`,
			wantErr: ErrMissingEntities,
		},
		{
			name:    "update without target",
			raw:     `{"action":"update","confidence":0.9,"entities":{"dueDate":"friday"}}`,
			wantErr: ErrMissingEntities,
		},
		{
			name:    "create_multiple without tasks",
			raw:     `{"action":"create_multiple","confidence":0.9,"entities":{"taskCount":2}}`,
			wantErr: ErrMissingEntities,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.raw)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAction, got.Action)
		})
	}
}

func TestParse_Entities(t *testing.T) {
	got, err := Parse(`{
		"action": "create_multiple",
		"confidence": 0.88,
		"entities": {
			"taskCount": 2,
			"tasks": [
				{"content": "Buy milk", "dueDate": "tomorrow", "priority": "high"},
				{"content": "Call mom", "priority": 2, "labels": ["family"]}
			]
		},
		"reasoning": "two tasks"
	}`)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Entities.TaskCount)
	require.Len(t, got.Entities.Tasks, 2)
	assert.Equal(t, Priority(3), got.Entities.Tasks[0].Priority)
	assert.Equal(t, Priority(2), got.Entities.Tasks[1].Priority)
	assert.Equal(t, []string{"family"}, got.Entities.Tasks[1].Labels)
	assert.Equal(t, "two tasks", got.Reasoning)
}

func TestPriority_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		raw  string
		want Priority
	}{
		{`"urgent"`, 4},
		{`"High"`, 3},
		{`"medium"`, 2},
		{`"low"`, 1},
		{`"P2"`, 2},
		{`"4"`, 4},
		{`3`, 3},
		{`1.0`, 1},
		{`"important"`, 0},
		{`""`, 0},
		{`null`, 0},
		{`0`, 0},
		{`5`, 0},
		{`2.5`, 0},
	}
	for _, tt := range tests {
		var p Priority
		require.NoError(t, json.Unmarshal([]byte(tt.raw), &p), tt.raw)
		assert.Equal(t, tt.want, p, tt.raw)
	}
}

func TestPriority_Ptr(t *testing.T) {
	assert.Nil(t, Priority(0).Ptr())
	require.NotNil(t, Priority(3).Ptr())
	assert.Equal(t, 3, *Priority(3).Ptr())
}
