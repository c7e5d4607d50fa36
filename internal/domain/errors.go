package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	ErrorPermissionDenied ErrorKind = "permission_denied"
	ErrorRecording        ErrorKind = "recording_failure"
	ErrorNetwork          ErrorKind = "network_failure"
	ErrorSynthesis        ErrorKind = "synthesis_failure"
	ErrorUnknown          ErrorKind = "unknown"
)

var (
	ErrPermissionDenied  = errors.New("microphone permission denied")
	ErrAlreadyRecording  = errors.New("recording already in progress")
	ErrNotRecording      = errors.New("no recording in progress")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrEmptyTranscript   = errors.New("transcription returned no text")
	ErrStaleSession      = errors.New("session was abandoned")
)

// PipelineError tags a failure with the pipeline stage that raised it.
type PipelineError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first PipelineError in err's chain.
func KindOf(err error) ErrorKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ErrorUnknown
}
