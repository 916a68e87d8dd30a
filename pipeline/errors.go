package pipeline

import "golang.org/x/xerrors"

// Error kinds raised by the monitor and bounded queue (§4.1, §4.2).
var (
	ErrMonitorInitFailed = xerrors.New("pipeline: monitor init failed")
	ErrMonitorWaitFailed = xerrors.New("pipeline: monitor wait failed")

	ErrQueueBadCapacity   = xerrors.New("pipeline: queue capacity must be >= 1")
	ErrQueueOutOfMemory   = xerrors.New("pipeline: queue out of memory")
	ErrQueueUninitialized = xerrors.New("pipeline: queue is uninitialized")
	ErrQueueFinished      = xerrors.New("pipeline: queue already finished")
	ErrQueueInternal      = xerrors.New("pipeline: queue internal error")
	ErrEndOfStream        = xerrors.New("pipeline: end of stream")
)

// Error kinds raised by the stage façade (§4.4).
var (
	ErrInvalidTransform   = xerrors.New("pipeline: invalid transform")
	ErrInvalidName        = xerrors.New("pipeline: invalid stage name")
	ErrInvalidCapacity    = xerrors.New("pipeline: invalid queue capacity")
	ErrAlreadyInitialized = xerrors.New("pipeline: stage already initialized")
	ErrOutOfMemory        = xerrors.New("pipeline: out of memory")
	ErrThreadStartFailed  = xerrors.New("pipeline: worker start failed")
	ErrNotInitialized     = xerrors.New("pipeline: stage not initialized")
	ErrNullInput          = xerrors.New("pipeline: nil input")
	ErrQueueWaitFailed    = xerrors.New("pipeline: queue wait failed")
	ErrCannotJoinSelf     = xerrors.New("pipeline: stage cannot join its own worker")
	ErrAlreadyAttached    = xerrors.New("pipeline: stage already attached")

	// ErrUnknownStage is returned by Resolve when a requested stage name
	// has no registered constructor (spec §6 ResolveError).
	ErrUnknownStage = xerrors.New("pipeline: unknown stage")
)
