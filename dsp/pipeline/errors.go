package pipeline

import "errors"

var (
	// ErrMissingWindow indicates a moving-mode stage configured without a
	// window size or duration.
	ErrMissingWindow = errors.New("pipeline: moving mode requires a window size or duration")
	// ErrInvalidWindow indicates a non-positive window size or duration.
	ErrInvalidWindow = errors.New("pipeline: window size and duration must be > 0")
	// ErrRateRequired indicates a stage that needs a sample rate the call
	// did not provide.
	ErrRateRequired = errors.New("pipeline: sample rate required")
	// ErrChannels indicates an invalid or unsupported channel count.
	ErrChannels = errors.New("pipeline: invalid channel count")
	// ErrTimestampLength indicates explicit timestamps whose length does
	// not match the sample buffer.
	ErrTimestampLength = errors.New("pipeline: timestamps must match sample count")
	// ErrClosed indicates a process call on a closed pipeline.
	ErrClosed = errors.New("pipeline: closed")
	// ErrStateMismatch indicates a state snapshot that does not fit the
	// configured stage list.
	ErrStateMismatch = errors.New("pipeline: state snapshot does not match stages")
	// ErrRegressionOutput indicates an unknown regression output selector.
	ErrRegressionOutput = errors.New("pipeline: unknown regression output")
	// ErrBufferShape indicates a sample buffer whose length is not a
	// multiple of the channel count.
	ErrBufferShape = errors.New("pipeline: buffer length must be a multiple of channels")
)
