package pipeline

import "errors"

var (
	// ErrMissingComponent is returned by NewOrchestrator when a required
	// component is nil.
	ErrMissingComponent = errors.New("missing orchestrator component")

	// ErrOutput wraps sink and checkpoint failures. They end the run
	// regardless of the continue-on-error setting.
	ErrOutput = errors.New("output failure")
)
