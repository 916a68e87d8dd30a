package stages

import (
	"fmt"
	"io"
	"time"

	"github.com/juju/clock"

	"github.com/corelane/strpipe/pipeline"
)

// interByteDelay paces AnimatedPrinter's output the same way
// RetryingDialer paces its retries: by waiting on a channel the
// injected clock.Clock controls, rather than calling time.Sleep
// directly, so production uses clock.WallClock and tests can swap in
// a fake clock for determinism.
const interByteDelay = 40 * time.Millisecond

// AnimatedPrinterTo returns a terminal stage transform that prints the
// line one byte at a time to out, pausing interByteDelay between
// bytes, the way the source's typewriter-effect printer does. clk
// controls the pacing; pass clock.WallClock in production.
func AnimatedPrinterTo(clk clock.Clock, out io.Writer) pipeline.TransformFunc {
	lw, ok := out.(*lockedWriter)
	if !ok {
		lw = newLockedWriter(out)
	}
	return func(it pipeline.Item) (pipeline.Item, error) {
		b := it.Bytes()
		lw.withLine(func(w io.Writer) {
			for i, c := range b {
				if i > 0 {
					<-clk.After(interByteDelay)
				}
				fmt.Fprintf(w, "%c", c)
			}
			fmt.Fprintln(w)
		})
		return it, nil
	}
}
