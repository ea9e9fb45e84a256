package jobs

import (
	"fmt"
)

// Stage names a step of the per-job state machine.
type Stage string

const (
	StageReceived        Stage = "received"
	StageInputPersisted  Stage = "input_persisted"
	StageConverted       Stage = "converted"
	StageTranscribed     Stage = "transcribed"
	StageSerialized      Stage = "serialized"
	StageOutputPersisted Stage = "output_persisted"
	StageComplete        Stage = "complete"
)

// StageError reports the stage at which a job failed.
type StageError struct {
	Stage Stage
	Err   error
}

// Error formats the failure with its stage.
func (e *StageError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("job failed at %s: %v", e.Stage, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *StageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func stageFailure(stage Stage, err error) error {
	return &StageError{Stage: stage, Err: err}
}
