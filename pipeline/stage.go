package pipeline

import (
	"sync"

	"github.com/google/uuid"

	"github.com/corelane/strpipe/internal/gid"
)

// TransformFunc processes one Item and returns the Item to forward
// (possibly the same one, possibly a freshly built one) or an error.
// Returning a nil error with the zero Item is not a valid "drop"
// signal on its own; transforms that want to drop an item simply
// don't exist in this spec — every non-sentinel input that reaches a
// non-terminal stage is forwarded or fails.
type TransformFunc func(Item) (Item, error)

type stageState int32

const (
	stateUninit stageState = iota
	stateReady
	stateWired
	stateFinished
)

// downstreamFunc is the narrow "place this item on the next stage's
// queue" hook a Stage attaches to. Returning an error means the
// downstream refused the item (e.g. it has already finished); the
// caller does not escalate the error past logging it.
type downstreamFunc func(Item) error

// Stage is an instantiable façade over one pipeline step (spec's C3
// worker loop plus C4 façade contract, generalized per §9's Design
// Notes away from the source's process-wide singleton). Each Stage
// owns exactly one Queue and one worker goroutine.
type Stage struct {
	mu sync.Mutex

	name      string
	id        uuid.UUID
	transform TransformFunc
	logger    Logger

	queue *Queue

	state      stageState
	downstream downstreamFunc

	workerGID  uint64
	workerDone chan struct{}

	placed   uint64 // items successfully placed (diagnostics/metrics)
	released uint64 // items released by this stage's worker
}

// NewStage allocates a stage façade. Init must still be called before
// the stage accepts work; NewStage only validates the static
// arguments a caller controls (name, transform).
func NewStage(name string, transform TransformFunc, logger Logger) (*Stage, error) {
	if name == "" {
		return nil, ErrInvalidName
	}
	if transform == nil {
		return nil, ErrInvalidTransform
	}
	if logger == nil {
		logger = nopLogger{}
	}
	return &Stage{
		name:      name,
		id:        uuid.New(),
		transform: transform,
		logger:    logger,
		state:     stateUninit,
	}, nil
}

// Name returns the stage's name.
func (s *Stage) Name() string { return s.name }

// ID returns the stage instance's correlation id (reported by the debug
// HTTP surface; log lines carry only the stage name).
func (s *Stage) ID() uuid.UUID { return s.id }

// QueueLen reports the stage's current input-queue occupancy, for
// diagnostics only.
func (s *Stage) QueueLen() int {
	s.mu.Lock()
	q := s.queue
	s.mu.Unlock()
	if q == nil {
		return 0
	}
	return q.Len()
}

// Init constructs the stage's queue and starts its worker goroutine.
func (s *Stage) Init(queueCapacity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != stateUninit {
		return ErrAlreadyInitialized
	}
	if queueCapacity < 1 {
		return ErrInvalidCapacity
	}

	q, err := NewQueue(queueCapacity)
	if err != nil {
		if err == ErrQueueBadCapacity {
			return ErrInvalidCapacity
		}
		return ErrOutOfMemory
	}

	s.queue = q
	s.state = stateReady
	s.workerDone = make(chan struct{})

	started := make(chan uint64, 1)
	go s.runWorker(started)
	s.workerGID = <-started

	return nil
}

// PlaceWork offers item to the stage: it is enqueued on the stage's
// input queue for the worker to pick up.
func (s *Stage) PlaceWork(item Item) error {
	s.mu.Lock()
	state := s.state
	q := s.queue
	s.mu.Unlock()

	if state == stateUninit {
		return ErrNotInitialized
	}

	if err := q.Put(item); err != nil {
		return err
	}

	s.mu.Lock()
	s.placed++
	s.mu.Unlock()
	return nil
}

// Attach wires this stage's downstream hook to next's PlaceWork. A nil
// next is a legal value meaning "this is the terminal stage." Attach
// may be called at most once, and only between Init and the stage
// observing the sentinel.
func (s *Stage) Attach(next *Stage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == stateUninit {
		s.logger.Error(s.name, "attach called before init")
		return ErrNotInitialized
	}
	if s.state == stateFinished {
		s.logger.Error(s.name, "attach called after finish")
		return ErrNotInitialized
	}
	if s.state == stateWired {
		s.logger.Error(s.name, "attach called more than once")
		return ErrAlreadyAttached
	}

	if next != nil {
		s.downstream = next.PlaceWork
	}
	s.state = stateWired
	return nil
}

// WaitFinished blocks until the stage's queue has been finished and
// drained. Idempotent.
func (s *Stage) WaitFinished() error {
	s.mu.Lock()
	state := s.state
	q := s.queue
	s.mu.Unlock()

	if state == stateUninit {
		return ErrNotInitialized
	}
	if err := q.WaitFinished(); err != nil {
		return ErrQueueWaitFailed
	}
	return nil
}

// Fini drains the stage (via WaitFinished), joins its worker exactly
// once, destroys its queue and resets the façade to uninitialized. A
// second call returns ErrNotInitialized. Calling Fini from inside the
// stage's own worker goroutine would deadlock on the join, so it is
// rejected up front instead.
func (s *Stage) Fini() error {
	s.mu.Lock()
	if s.state == stateUninit {
		s.mu.Unlock()
		return ErrNotInitialized
	}
	if s.workerGID == gid.Current() {
		s.mu.Unlock()
		return ErrCannotJoinSelf
	}
	q := s.queue
	done := s.workerDone
	s.mu.Unlock()

	if err := q.WaitFinished(); err != nil {
		return ErrQueueWaitFailed
	}
	<-done
	q.Destroy()

	s.mu.Lock()
	s.queue = nil
	s.downstream = nil
	s.state = stateUninit
	s.workerDone = nil
	s.mu.Unlock()
	return nil
}

// runWorker implements the C3 worker loop: pop, check for the
// sentinel, transform, forward-or-finalize.
func (s *Stage) runWorker(started chan<- uint64) {
	started <- gid.Current()

	s.mu.Lock()
	q := s.queue
	s.mu.Unlock()

	defer close(s.workerDone)

	for {
		item, err := q.Get()
		if err != nil {
			// Only reachable if the queue was finished externally
			// without the sentinel ever passing through; the normal
			// shutdown path exits via the sentinel branch below.
			return
		}

		if item.IsEnd() {
			s.forwardSentinel(item)
			s.markFinished(q)
			return
		}

		s.processItem(item)
	}
}

func (s *Stage) forwardSentinel(item Item) {
	s.mu.Lock()
	downstream := s.downstream
	s.mu.Unlock()

	if downstream == nil {
		s.release()
		return
	}
	if err := downstream(item); err != nil {
		s.logger.Error(s.name, "failed to forward sentinel downstream: "+err.Error())
		s.release()
		return
	}
	// downstream accepted the sentinel: ownership passed to it, so this
	// stage does not also count a release.
}

func (s *Stage) markFinished(q *Queue) {
	s.mu.Lock()
	s.state = stateFinished
	s.mu.Unlock()
	q.SignalFinished()
}

func (s *Stage) processItem(item Item) {
	result, err := s.transform(item)
	if err != nil {
		s.logger.Error(s.name, "transform failed: "+err.Error())
		s.release()
		return
	}

	s.mu.Lock()
	downstream := s.downstream
	s.mu.Unlock()

	distinct := !sameBuffer(item, result)

	if downstream == nil {
		s.release()
		if distinct {
			s.release()
		}
		return
	}

	if err := downstream(result); err != nil {
		s.logger.Error(s.name, "downstream rejected item: "+err.Error())
		s.release()
		if distinct {
			s.release()
		}
		return
	}

	// result now belongs downstream; the input is only ours to
	// release when transform built a distinct buffer.
	if distinct {
		s.release()
	}
}

func (s *Stage) release() {
	s.mu.Lock()
	s.released++
	s.mu.Unlock()
}

// sameBuffer reports whether result is the identical buffer as input
// (the in-place transform case), as opposed to a freshly built Item.
func sameBuffer(input, result Item) bool {
	if len(input.data) == 0 && len(result.data) == 0 {
		return true
	}
	if len(input.data) == 0 || len(result.data) == 0 {
		return false
	}
	return &input.data[0] == &result.data[0]
}

// Stats returns the number of items this stage has placed and
// released so far, for the /stages debug endpoint and for the §8
// no-leak property tests.
func (s *Stage) Stats() (placed, released uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.placed, s.released
}
