package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusReadyForEvaluation, StatusReadyForEvaluation, true},
		{StatusReadyForEvaluation, StatusCompleted, true},
		{StatusCompleted, StatusCompleted, true},
		{StatusCompleted, StatusReadyForEvaluation, false},
		{Status("archived"), StatusCompleted, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestStatus_Scan(t *testing.T) {
	var st Status
	assert.NoError(t, st.Scan([]byte("completed")))
	assert.Equal(t, StatusCompleted, st)

	assert.NoError(t, st.Scan("ready_for_evaluation"))
	assert.Equal(t, StatusReadyForEvaluation, st)

	assert.Error(t, st.Scan("draft"))
	assert.Error(t, st.Scan(42))

	_, err := ParseStatus("COMPLETED")
	assert.Error(t, err)
}
