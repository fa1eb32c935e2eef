package assistant

import (
	"strings"
	"testing"

	"github.com/josephgoksu/TodoChat/models"
	"github.com/stretchr/testify/assert"
)

func TestFindDuplicates_Symmetric(t *testing.T) {
	contents := []string{"Buy groceries", "buy", "GROCERIES", "Call mom", "Buy groceries for the week", "mom"}
	for _, a := range contents {
		for _, b := range contents {
			got := FindDuplicates(a, []models.Task{{ID: "1", Content: b}})
			want := strings.Contains(strings.ToLower(a), strings.ToLower(b)) ||
				strings.Contains(strings.ToLower(b), strings.ToLower(a))
			assert.Equal(t, want, len(got) > 0, "a=%q b=%q", a, b)

			reverse := FindDuplicates(b, []models.Task{{ID: "2", Content: a}})
			assert.Equal(t, len(got) > 0, len(reverse) > 0, "asymmetric for a=%q b=%q", a, b)
		}
	}
}

func TestHasAmbiguousPriority(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Finish report asap", true},
		{"This is IMPORTANT", true},
		{"call the bank immediately", true},
		{"urgent: fix the sink", true},
		{"urgent fix p2", false},
		{"important call, priority 3", false},
		{"Buy groceries", false},
		{"unimportant chores", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HasAmbiguousPriority(tt.text), tt.text)
	}
}

func TestParsePrioritySelection(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"P1", 1, true},
		{"p4", 4, true},
		{" priority 2 ", 2, true},
		{"Proceed.", 4, true},
		{"P5", 0, false},
		{"yes", 0, false},
		{"p2 please", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParsePrioritySelection(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
