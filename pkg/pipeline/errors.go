package pipeline

import "errors"

var (
	// ErrInvalidInputFile is returned when the selected file is not a video.
	ErrInvalidInputFile = errors.New("pipeline: invalid input file")

	// ErrUnseekableSource is returned when video metadata cannot be loaded.
	ErrUnseekableSource = errors.New("pipeline: unseekable source")

	// ErrSampleTimeout is returned when a single seek does not settle in time.
	ErrSampleTimeout = errors.New("pipeline: sample timeout")

	// ErrInvalidDuration is returned for a zero, negative or non-finite duration.
	ErrInvalidDuration = errors.New("pipeline: invalid duration")

	// ErrInvalidFrameCount is returned when the requested frame count is not positive.
	ErrInvalidFrameCount = errors.New("pipeline: invalid frame count")

	// ErrFrameCountMismatch is returned when a frame collection does not hold exactly N frames.
	ErrFrameCountMismatch = errors.New("pipeline: frame count mismatch")

	// ErrDispatchFailure marks a failed call to the inference endpoint.
	// It never escapes the dispatch stage; it is recorded in the placeholder notice.
	ErrDispatchFailure = errors.New("pipeline: dispatch failure")

	// ErrExtractionInProgress is returned when extraction is requested while one is running.
	ErrExtractionInProgress = errors.New("pipeline: extraction already in progress")
)

var (
	// ErrNoVideo is returned when an operation needs a selected video and none is.
	ErrNoVideo = errors.New("pipeline: no video selected")

	// ErrAlreadyExtracted is returned when extraction is requested for a video whose frames exist.
	ErrAlreadyExtracted = errors.New("pipeline: frames already extracted")

	// ErrNotExtracted is returned when frames are needed before extraction completed.
	ErrNotExtracted = errors.New("pipeline: frames not extracted")

	// ErrPredictionInProgress is returned when prediction is requested while one is running.
	ErrPredictionInProgress = errors.New("pipeline: prediction already in progress")

	// ErrStaleGeneration is returned when a result arrives for a superseded video selection.
	ErrStaleGeneration = errors.New("pipeline: stale generation")
)
