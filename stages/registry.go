// Package stages supplies the concrete string transforms used by the
// end-to-end scenarios in spec.md §8, and the name->constructor
// registry that stands in for the dynamic-loading mechanism spec.md
// treats as an external collaborator out of scope.
package stages

import (
	"io"

	"github.com/juju/clock"

	"github.com/corelane/strpipe/pipeline"
)

// Factory builds a pipeline.StageFactory backed by this package's
// registry. Unknown names surface as pipeline.ErrUnknownStage so the
// orchestrator's Resolve phase reports ResolveError the way spec.md §7
// requires. Stages that print (logger, printer, animatedprinter) write
// to out, so a caller can capture their output the same way it
// captures everything else the process writes to stdout.
func Factory(clk clock.Clock, out io.Writer) pipeline.StageFactory {
	if clk == nil {
		clk = clock.WallClock
	}
	lw := newLockedWriter(out)
	registry := map[string]pipeline.TransformFunc{
		"uppercaser":      Uppercaser,
		"rotator":         Rotator,
		"flipper":         Flipper,
		"expander":        Expander,
		"logger":          LoggerTo(lw),
		"printer":         PrinterTo(lw),
		"animatedprinter": AnimatedPrinterTo(clk, lw),
	}

	return func(name string, logger pipeline.Logger) (*pipeline.Stage, error) {
		transform, ok := registry[name]
		if !ok {
			return nil, pipeline.ErrUnknownStage
		}
		return pipeline.NewStage(name, transform, logger)
	}
}

// Names lists every stage name this package knows how to construct,
// for usage text.
func Names() []string {
	return []string{"uppercaser", "rotator", "flipper", "expander", "logger", "printer", "animatedprinter"}
}
