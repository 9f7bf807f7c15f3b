package ir

import (
	"strings"
)

// Violation is a fatal composition error. The document cannot be served
// while any violation remains.
type Violation struct {
	Message string   `json:"message"`
	Trace   []string `json:"trace,omitempty"`
}

type ValidationError []*Violation

func (e ValidationError) Error() string {
	msg := "violations found:\n"
	for _, v := range e {
		line := "- " + v.Message
		if len(v.Trace) > 0 {
			line += " [" + strings.Join(v.Trace, ".") + "]"
		}
		msg += line + "\n"
	}
	return msg
}

// Core primitive used by all template helpers.
func violationAt(message string, trace ...string) *Violation {
	return &Violation{Message: message, Trace: trace}
}
