package ir

import "strings"

// Diagnostic is a non-fatal composition finding. The field it describes is
// still served, but resolves to an error carrying the same message and trace.
type Diagnostic struct {
	Message string   `json:"message"`
	Trace   []string `json:"trace"`
}

func (d Diagnostic) String() string {
	return d.Message + " (trace: " + strings.Join(d.Trace, ".") + ")"
}
