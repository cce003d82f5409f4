package optimizer

import (
	"log"
	"time"

	"github.com/pkg/errors"

	"github.com/datafuel/ramjet/ram"
)

// Pass is a single rewrite over the whole program. The name is what shows up
// in diagnostics; the flag reports whether anything was rewritten.
type Pass struct {
	Name      string
	Transform func(ram.Program) (ram.Program, bool)
}

// DefaultPasses is the fixed pipeline order. Hoisting runs first so that
// equalities sit directly under the scans make-index inspects; if-conversion
// and choice-conversion consume the index operations make-index produced.
var DefaultPasses = []Pass{
	{Name: "hoist-conditions", Transform: HoistConditions},
	{Name: "make-index", Transform: MakeIndex},
	{Name: "if-conversion", Transform: IfConversion},
	{Name: "choice-conversion", Transform: ChoiceConversion},
}

type Options struct {
	// Passes to run, in order. Nil means DefaultPasses.
	Passes []Pass
	// Fixpoint re-runs the whole pipeline until no pass reports a change.
	Fixpoint bool
	// MaxIterations bounds the fixpoint loop. Zero picks a safety-net
	// default; the passes are idempotent, so the bound should never be
	// what stops the loop.
	MaxIterations int
	// Verbose logs each pass with its timing and changed flag.
	Verbose bool
}

const defaultMaxIterations = 16

// Optimize validates the program and runs the pass pipeline over it,
// returning the rewritten program and whether anything changed at all. A
// validation failure means the translator handed over a malformed tree;
// there is nothing to recover from, so the pipeline aborts immediately.
func Optimize(program ram.Program, options Options) (ram.Program, bool, error) {
	if err := program.Validate(); err != nil {
		return ram.Program{}, false, errors.Wrap(err, "invariant violation in input program")
	}

	passes := options.Passes
	if passes == nil {
		passes = DefaultPasses
	}
	maxIterations := options.MaxIterations
	if maxIterations <= 0 {
		maxIterations = defaultMaxIterations
	}

	changedOverall := false
	for iteration := 0; iteration < maxIterations; iteration++ {
		changedThisRound := false
		for _, pass := range passes {
			start := time.Now()
			out, changed := pass.Transform(program)
			if options.Verbose {
				log.Printf("pass %s: changed=%v (%s)", pass.Name, changed, time.Since(start))
			}
			if changed {
				program = out
				changedThisRound = true
				changedOverall = true
			}
		}
		if !options.Fixpoint || !changedThisRound {
			break
		}
	}
	return program, changedOverall, nil
}
