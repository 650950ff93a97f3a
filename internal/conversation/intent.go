package conversation

import "strings"

// Intent is the classified meaning of a free-text reply.
type Intent int

const (
	IntentOther Intent = iota
	IntentConfirm
	IntentReject
)

var confirmWords = []string{
	"yes",
	"yep",
	"yeah",
	"y",
	"confirm",
	"looks good",
	"good",
	"correct",
	"ok",
	"okay",
	"send it",
	"send",
	"approved",
	"approve",
}

var rejectWords = []string{
	"no",
	"nope",
	"cancel",
	"stop",
	"reset",
	"start over",
}

// ClassifyIntent matches a reply against the fixed confirmation and
// rejection word lists. Matching is case-insensitive and prefix-based, so
// "yep, looks good" confirms and "cancel please" rejects. Anything that
// matches neither list is IntentOther and is treated by the state machine as
// guidance or a correction.
func ClassifyIntent(text string) Intent {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return IntentOther
	}
	for _, word := range confirmWords {
		if normalized == word || strings.HasPrefix(normalized, word) {
			return IntentConfirm
		}
	}
	for _, word := range rejectWords {
		if normalized == word || strings.HasPrefix(normalized, word) {
			return IntentReject
		}
	}
	return IntentOther
}
