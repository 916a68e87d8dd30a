// Command strpipe runs a multi-stage, in-process string-processing
// pipeline driven by line-oriented standard input, the way the
// teacher's linksrus binaries wire a urfave/cli app around a long-
// running process.
package main

import (
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/juju/clock"
	"github.com/urfave/cli"

	"github.com/corelane/strpipe/internal/debugserver"
	"github.com/corelane/strpipe/internal/diag"
	"github.com/corelane/strpipe/internal/metrics"
	"github.com/corelane/strpipe/pipeline"
	"github.com/corelane/strpipe/stages"
)

var usage = `Usage: strpipe queue_size stage1 [stage2 ...]

  queue_size   positive integer; the bounded capacity applied to every
               stage's input queue
  stageN       names of stages to chain, in processing order (one of:
               ` + stageNameList + `)

Standard input is read line by line and fed to the first stage. A
line containing exactly "<END>" drains the pipeline and ends the run.
`

var stageNameList = joinNames(stages.Names())

func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}

// exitArgError / exitInitError are the two non-zero exit codes
// spec.md §6/§7 distinguishes: bad arguments or an unresolvable stage
// (1, usage printed) versus a stage init/internal failure (2, no
// usage).
const (
	exitOK        = 0
	exitArgError  = 1
	exitInitError = 2
)

func main() {
	os.Exit(run(os.Args, os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin *os.File, stdout, stderr *os.File) int {
	logger := diag.New(stderr)

	app := cli.NewApp()
	app.Name = "strpipe"
	app.Usage = "run a multi-stage string-processing pipeline over stdin"
	app.UsageText = "strpipe queue_size stage1 [stage2 ...]"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "debug-addr",
			EnvVar: "DEBUG_ADDR",
			Usage:  "optional host:port to serve /healthz, /stages and /metrics on",
		},
	}
	app.HideHelp = false
	app.HideVersion = true

	exitCode := exitOK
	app.Action = func(ctx *cli.Context) error {
		code, err := runPipeline(ctx, stdin, stdout, logger)
		exitCode = code
		return err
	}

	if err := app.Run(args); err != nil {
		if exitCode == exitOK {
			exitCode = exitArgError
		}
		if exitCode == exitArgError {
			fmt.Fprintln(stderr, err)
			fmt.Fprint(stdout, usage)
		} else {
			fmt.Fprintln(stderr, err)
		}
	}
	return exitCode
}

func runPipeline(ctx *cli.Context, stdin *os.File, stdout *os.File, logger *diag.Logger) (int, error) {
	args := ctx.Args()
	if len(args) < 2 {
		return exitArgError, fmt.Errorf("strpipe: need a queue size and at least one stage name")
	}

	queueSize, err := strconv.Atoi(args[0])
	if err != nil || queueSize < 1 {
		return exitArgError, fmt.Errorf("strpipe: queue_size must be a positive integer, got %q", args[0])
	}

	names := []string(args[1:])
	for _, n := range names {
		if hasSharedObjectSuffix(n) {
			return exitArgError, fmt.Errorf("strpipe: stage name %q must not end in .so", n)
		}
	}

	factory := stages.Factory(clock.WallClock, stdout)
	p, err := pipeline.Resolve(names, factory, logger)
	if err != nil {
		return exitArgError, fmt.Errorf("strpipe: %w", err)
	}

	if err := p.Initialize(queueSize); err != nil {
		return exitInitError, fmt.Errorf("strpipe: %w", err)
	}

	if err := p.Attach(); err != nil {
		_ = p.Teardown()
		return exitInitError, fmt.Errorf("strpipe: %w", err)
	}

	if addr := ctx.String("debug-addr"); addr != "" {
		collectors := metrics.NewCollectors()
		go func() {
			_ = http.ListenAndServe(addr, debugserver.New(p, collectors))
		}()
	}

	if err := p.Feed(stdin); err != nil {
		logger.Error("strpipe", "feed: "+err.Error())
	}

	if err := p.Quiesce(); err != nil {
		_ = p.Teardown()
		return exitInitError, fmt.Errorf("strpipe: %w", err)
	}

	if err := p.Teardown(); err != nil {
		logger.Error("strpipe", "teardown: "+err.Error())
	}

	fmt.Fprintln(stdout, "Pipeline shutdown complete")
	return exitOK, nil
}

func hasSharedObjectSuffix(name string) bool {
	const suffix = ".so"
	if len(name) < len(suffix) {
		return false
	}
	return name[len(name)-len(suffix):] == suffix
}
