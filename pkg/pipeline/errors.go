package pipeline

import "fmt"

// Stage names a pipeline phase, used in logs and fatal errors.
type Stage string

// Pipeline stages in execution order.
const (
	StageLoading    Stage = "loading"
	StageAnalyzing  Stage = "analyzing"
	StageRendering  Stage = "rendering"
	StageGoverning  Stage = "governing"
	StageComposing  Stage = "composing"
	StageAssembling Stage = "assembling"
)

// FatalError is the single failure type a pipeline run surfaces for
// internal errors. Load failures and plan denials pass through
// unwrapped so callers can match their concrete types.
type FatalError struct {
	Stage Stage
	Err   error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("pipeline failed at %s: %v", e.Stage, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }
