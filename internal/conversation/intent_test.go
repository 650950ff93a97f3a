package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyIntent(t *testing.T) {
	tests := []struct {
		input string
		want  Intent
	}{
		{"yes", IntentConfirm},
		{"YES", IntentConfirm},
		{"yep, looks good", IntentConfirm},
		{"  Looks Good  ", IntentConfirm},
		{"ok", IntentConfirm},
		{"okay sure", IntentConfirm},
		{"send it", IntentConfirm},
		{"approved!", IntentConfirm},
		{"no", IntentReject},
		{"NO", IntentReject},
		{"nope", IntentReject},
		{"cancel please", IntentReject},
		{"start over", IntentReject},
		{"maybe", IntentOther},
		{"the milk was $4", IntentOther},
		{"put diapers under baby supplies", IntentOther},
		{"", IntentOther},
		{"   ", IntentOther},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyIntent(tt.input))
		})
	}
}

func TestClassifyIntent_ConfirmWinsOverReject(t *testing.T) {
	// A reply matching both lists classifies by the confirm list first.
	assert.Equal(t, IntentConfirm, ClassifyIntent("yes, cancel the rest"))
}
