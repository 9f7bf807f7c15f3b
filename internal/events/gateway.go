package events

// Diagnostic is emitted for each composition diagnostic when a gateway is
// built.
type Diagnostic struct {
	Message string
	Trace   []string
}

// Reload is emitted after the configuration was reloaded. Err is set when
// the new configuration was rejected and the previous gateway kept serving.
type Reload struct {
	Path string
	Err  error
}
