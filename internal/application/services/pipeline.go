package services

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	domainconfig "github.com/weftfmt/weft/internal/domain/config"
	domainerrors "github.com/weftfmt/weft/internal/domain/errors"
	"github.com/weftfmt/weft/internal/domain/plugin"
	"github.com/weftfmt/weft/internal/domain/work"
)

// Mode selects whether the Pipeline Driver verifies or rewrites files.
type Mode int

const (
	Check Mode = iota
	Write
)

// FileIO is the subset of ports.Environment the Pipeline Driver needs to
// read and, in Write mode, rewrite files.
type FileIO interface {
	ReadFile(path string) (string, error)
	WriteFile(path string, text string) error
	LogInfo(text string)
	LogError(text string)
}

// Counters are the shared atomic counters aggregated across all workers,
// per spec §4.H/§5.
type Counters struct {
	formatted int64
	mismatch  int64
	errors    int64
}

func (c *Counters) Formatted() int64 { return atomic.LoadInt64(&c.formatted) }
func (c *Counters) Mismatch() int64  { return atomic.LoadInt64(&c.mismatch) }
func (c *Counters) Errors() int64    { return atomic.LoadInt64(&c.errors) }

// Finding is one mismatched or errored file, reported to an optional
// Reporter for structured output (e.g. SARIF) beyond the plain counters.
type Finding struct {
	Path       string
	PluginName string
	Message    string
	IsError    bool
}

// Reporter receives one Finding per mismatch or per-file error, in
// addition to the aggregated Counters. A DOMAIN STACK addition beyond
// spec §4.H's base algorithm: additive only, nil by default.
type Reporter interface {
	Report(Finding)
}

// Pipeline is the Pipeline Driver (spec §4.H): parallel-per-WorkUnit
// execution, verify vs write modes, error aggregation.
type Pipeline struct {
	env      FileIO
	global   domainconfig.GlobalConfiguration
	Reporter Reporter
}

// NewPipeline constructs a Pipeline Driver bound to global configuration
// applied to every handle's Initialize call.
func NewPipeline(env FileIO, global domainconfig.GlobalConfiguration) *Pipeline {
	return &Pipeline{env: env, global: global}
}

func (p *Pipeline) report(f Finding) {
	if p.Reporter != nil {
		p.Reporter.Report(f)
	}
}

// Run spawns one worker per WorkUnit, runs to completion, and returns the
// aggregated counters plus the first fatal error (if any). Per spec §4.H,
// all per-file and per-WorkUnit errors are caught, logged, and counted
// rather than propagated; Run only returns a non-nil error for genuinely
// unrecoverable conditions (context cancellation).
func (p *Pipeline) Run(ctx context.Context, units []work.Unit, mode Mode) (*Counters, error) {
	counters := &Counters{}

	g, ctx := errgroup.WithContext(ctx)
	for _, unit := range units {
		unit := unit
		g.Go(func() error {
			p.runWorker(ctx, unit, mode, counters)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return counters, err
	}
	return counters, nil
}

// runWorker drives one WorkUnit to completion. A panic anywhere in the
// guest call is recovered at this boundary and converted into the same
// logged-error/counter-increment outcome as a plugin-reported format
// error, per spec §5: "a panic inside a guest must be caught at the
// worker boundary ... it does not abort the run."
func (p *Pipeline) runWorker(ctx context.Context, unit work.Unit, mode Mode, counters *Counters) {
	defer func() {
		if r := recover(); r != nil {
			atomic.AddInt64(&counters.errors, 1)
			p.env.LogError(fmt.Sprintf("[%s]: panic during formatting: %v", unit.Handle.Info().Name.String(), r))
		}
	}()

	if err := unit.Handle.Initialize(p.global, unit.PluginConfig); err != nil {
		atomic.AddInt64(&counters.errors, 1)
		p.env.LogError(fmt.Sprintf("[%s]: %s", unit.Handle.Info().Name.String(), err))
		return
	}
	defer unit.Handle.Close()

	for _, path := range unit.FilePaths {
		select {
		case <-ctx.Done():
			return
		default:
		}
		p.runFile(unit, path, mode, counters)
	}
}

func (p *Pipeline) runFile(unit work.Unit, path string, mode Mode, counters *Counters) {
	text, err := p.env.ReadFile(path)
	if err != nil {
		atomic.AddInt64(&counters.errors, 1)
		p.env.LogError(fmt.Sprintf("[%s]: error formatting %s: %s", unit.Handle.Info().Name.String(), path, err))
		return
	}

	outcome, err := unit.Handle.Format(path, text)
	if err != nil {
		atomic.AddInt64(&counters.errors, 1)
		p.env.LogError(fmt.Sprintf("[%s]: %s", unit.Handle.Info().Name.String(),
			domainerrors.NewPluginRuntimeError(path, err)))
		return
	}

	switch outcome.Kind {
	case plugin.Unchanged:
		// no-op
	case plugin.Formatted:
		if outcome.Text == text {
			return
		}
		if mode == Write {
			if err := p.env.WriteFile(path, outcome.Text); err != nil {
				atomic.AddInt64(&counters.errors, 1)
				p.env.LogError(fmt.Sprintf("[%s]: error writing %s: %s", unit.Handle.Info().Name.String(), path, err))
				return
			}
			atomic.AddInt64(&counters.formatted, 1)
		} else {
			atomic.AddInt64(&counters.mismatch, 1)
			p.report(Finding{Path: path, PluginName: unit.Handle.Info().Name.String(), Message: "not formatted"})
		}
	case plugin.Error:
		atomic.AddInt64(&counters.errors, 1)
		p.env.LogError(fmt.Sprintf("[%s]: error formatting %s: %s", unit.Handle.Info().Name.String(), path, outcome.Error))
		p.report(Finding{Path: path, PluginName: unit.Handle.Info().Name.String(), Message: outcome.Error, IsError: true})
	}
}

// Conclude converts the final counters into spec §4.H/§7's success/failure
// outcome, logging "Formatted N file(s)." on a successful write run with
// formatted_count > 0.
func (p *Pipeline) Conclude(mode Mode, counters *Counters) error {
	if mode == Check && counters.Mismatch() > 0 {
		return domainerrors.NewCheckMismatchError(int(counters.Mismatch()))
	}
	if counters.Errors() > 0 {
		return domainerrors.NewAggregateErrorsError(int(counters.Errors()))
	}
	if mode == Write && counters.Formatted() > 0 {
		p.env.LogInfo(fmt.Sprintf("Formatted %d file(s).", counters.Formatted()))
	}
	return nil
}
