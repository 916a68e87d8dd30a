package pipeline

import (
	"bufio"
	"io"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/xerrors"
)

// StageFactory resolves a stage name to a constructed, not-yet-Init'd
// Stage. It stands in for spec's "external loader" (out of scope as a
// mechanism); the orchestrator only ever calls through this narrow
// seam.
type StageFactory func(name string, logger Logger) (*Stage, error)

// Pipeline composes a chain of Stage façades: resolve, initialize,
// attach neighbours, feed input, wait for quiescence, tear down.
type Pipeline struct {
	stages []*Stage
	logger Logger
}

// Resolve builds the ordered chain of stages for names, using factory
// to construct each one. It does not call Init; that happens in
// Initialize. Resolution failures are reported as ErrUnknownStage,
// wrapped with the offending name.
func Resolve(names []string, factory StageFactory, logger Logger) (*Pipeline, error) {
	if len(names) == 0 {
		return nil, xerrors.Errorf("pipeline: at least one stage is required")
	}
	if logger == nil {
		logger = nopLogger{}
	}

	stages := make([]*Stage, 0, len(names))
	for _, name := range names {
		st, err := factory(name, logger)
		if err != nil {
			return nil, xerrors.Errorf("pipeline: resolving stage %q: %w", name, err)
		}
		stages = append(stages, st)
	}

	return &Pipeline{stages: stages, logger: logger}, nil
}

// Initialize calls Init on every stage in order. On any failure it
// tears down (Fini) every previously-initialized stage in reverse
// order before returning, so a partially-built pipeline never leaks a
// live worker.
func (p *Pipeline) Initialize(queueCapacity int) error {
	for i, st := range p.stages {
		if err := st.Init(queueCapacity); err != nil {
			// No input has been fed yet, so hand every started stage a
			// sentinel: Fini drains via WaitFinished and would otherwise
			// block forever.
			for j := i - 1; j >= 0; j-- {
				_ = p.stages[j].PlaceWork(EndItem())
			}
			p.teardownRange(i-1, 0)
			return xerrors.Errorf("pipeline: init stage %q: %w", st.Name(), err)
		}
	}
	return nil
}

// teardownRange calls Fini on stages[from..to] inclusive, descending,
// aggregating any failures with multierror rather than stopping at
// the first one.
func (p *Pipeline) teardownRange(from, to int) error {
	var result error
	for i := from; i >= to; i-- {
		if err := p.stages[i].Fini(); err != nil {
			result = multierror.Append(result, xerrors.Errorf("pipeline: fini stage %q: %w", p.stages[i].Name(), err))
		}
	}
	return result
}

// Attach wires stages[i] to stages[i+1] for every i but the last,
// which is left terminal.
func (p *Pipeline) Attach() error {
	for i := 0; i < len(p.stages)-1; i++ {
		if err := p.stages[i].Attach(p.stages[i+1]); err != nil {
			return xerrors.Errorf("pipeline: attach stage %q -> %q: %w", p.stages[i].Name(), p.stages[i+1].Name(), err)
		}
	}
	if len(p.stages) > 0 {
		if err := p.stages[len(p.stages)-1].Attach(nil); err != nil {
			return xerrors.Errorf("pipeline: attach terminal stage %q: %w", p.stages[len(p.stages)-1].Name(), err)
		}
	}
	return nil
}

// Feed reads newline-delimited input from r, stripping a trailing "\n"
// and an optional preceding "\r", and places each line on the first
// stage. The sentinel line is forwarded at most once; no bytes read
// after it are consumed. PlaceWork errors are logged and do not stop
// the feed.
func (p *Pipeline) Feed(r io.Reader) error {
	if len(p.stages) == 0 {
		return nil
	}
	head := p.stages[0]

	scanner := bufio.NewScanner(r)
	// spec.md §6 mandates a 1024-byte payload guideline but leaves
	// over-length handling implementation-defined; size the scan
	// buffer generously so a line that exceeds it is still consumed
	// whole rather than split across reads or the sentinel mis-parsed.
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for scanner.Scan() {
		// bufio.ScanLines already drops the "\n" and one preceding "\r".
		line := scanner.Text()
		item := NewItem(line)

		if err := head.PlaceWork(item); err != nil {
			p.logger.Error(head.Name(), "place_work failed: "+err.Error())
		}

		if item.IsEnd() {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return xerrors.Errorf("pipeline: reading input: %w", err)
	}
	return nil
}

// Quiesce waits for every stage to finish and drain, in ascending
// order: a later stage cannot finish before its predecessor has
// forwarded the sentinel to it.
func (p *Pipeline) Quiesce() error {
	for _, st := range p.stages {
		if err := st.WaitFinished(); err != nil {
			return xerrors.Errorf("pipeline: wait_finished stage %q: %w", st.Name(), err)
		}
	}
	return nil
}

// Teardown calls Fini on every stage, aggregating any failures. A
// FiniError here never changes the process exit code (spec §7).
func (p *Pipeline) Teardown() error {
	return p.teardownRange(len(p.stages)-1, 0)
}

// Stages exposes the resolved stage façades, e.g. for a debug HTTP
// surface to report per-stage status.
func (p *Pipeline) Stages() []*Stage {
	return p.stages
}
