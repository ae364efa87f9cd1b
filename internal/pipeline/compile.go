// Package pipeline compiles one or more packages, each in its own session,
// and reports progress to a sink.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"ledgerc/internal/artifact"
	"ledgerc/internal/config"
	"ledgerc/internal/corelib"
	"ledgerc/internal/diag"
	"ledgerc/internal/observ"
	"ledgerc/internal/parsed"
	"ledgerc/internal/program"
	"ledgerc/internal/source"
	"ledgerc/internal/ty"
)

// Unit is one package to compile.
type Unit struct {
	Name   string
	Config config.BuildConfig
}

// Request configures a pipeline run.
type Request struct {
	Units []Unit
	// Jobs bounds how many units compile at once; 0 means GOMAXPROCS.
	Jobs     int
	Progress ProgressSink
	// Emit writes an artifact for every unit that configures one.
	Emit bool
}

// UnitResult is everything one unit produced, even when it failed.
type UnitResult struct {
	Unit     Unit
	FileSet  *source.FileSet
	Engines  ty.Engines
	Handler  *diag.Handler
	Program  *program.TypedProgram
	Artifact *artifact.Artifact
	Report   observ.Report
	Timings  Timings
	Err      error
}

// Resolve finds the manifest above every dir and builds its unit.
func Resolve(dirs []string, o config.Overrides) ([]Unit, error) {
	if len(dirs) == 0 {
		dirs = []string{"."}
	}
	units := make([]Unit, 0, len(dirs))
	for _, dir := range dirs {
		m, ok, err := config.Find(dir)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("no ledger.toml found above %s", dir)
		}
		bc, err := m.BuildConfig(o)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", m.Path, err)
		}
		units = append(units, Unit{Name: bc.Package, Config: bc})
	}
	return units, nil
}

// Compile runs every unit. Units are independent: one failing does not
// stop the others. The returned error joins the failures.
func Compile(ctx context.Context, req *Request) ([]UnitResult, error) {
	if req == nil {
		return nil, fmt.Errorf("missing compile request")
	}
	jobs := req.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	for _, u := range req.Units {
		emit(req.Progress, Event{Unit: u.Name, Stage: StageLoad, Status: StatusQueued})
	}

	results := make([]UnitResult, len(req.Units))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(req.Units))))
	for i, u := range req.Units {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = compileUnit(gctx, u, req)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Unit.Name, r.Err))
		}
	}
	emit(req.Progress, Event{Stage: StageEmit, Status: StatusDone})
	return results, errors.Join(errs...)
}

func compileUnit(ctx context.Context, u Unit, req *Request) (res UnitResult) {
	res.Unit = u
	sink := req.Progress
	stage := StageLoad
	started := time.Now()

	enter := func(next Stage) {
		if next == stage {
			return
		}
		now := time.Now()
		res.Timings.Add(stage, now.Sub(started))
		stage, started = next, now
		emit(sink, Event{Unit: u.Name, Stage: next, Status: StatusWorking})
	}
	defer func() {
		res.Timings.Add(stage, time.Since(started))
		status := StatusDone
		if res.Err != nil {
			status = StatusError
		}
		emit(sink, Event{Unit: u.Name, Stage: stage, Status: status, Err: res.Err, Elapsed: res.Timings.Sum(StageLoad, StageCheck, StageEntry, StageAnalyze, StageStorage, StageEmit)})
	}()
	emit(sink, Event{Unit: u.Name, Stage: StageLoad, Status: StatusWorking})

	res.FileSet = source.NewFileSet()
	prog, err := parsed.LoadFile(res.FileSet, u.Config.Program)
	if err != nil {
		res.Err = err
		return res
	}
	res.Engines = ty.NewEngines()
	prelude, err := corelib.Namespace(res.Engines)
	if err != nil {
		res.Err = fmt.Errorf("core library: %w", err)
		return res
	}
	res.Handler = diag.NewHandler(u.Config.MaxDiagnostics)

	timer := observ.NewTimer()
	s := program.NewSession(res.Handler, res.Engines, prog, prelude, program.Options{
		NewEncoding: u.Config.Experimental.NewEncoding,
		Jobs:        u.Config.Jobs,
		Timer:       timer,
		OnStage:     func(st program.Stage) { enter(StageOf(st)) },
	})
	enter(StageCheck)
	res.Program, res.Err = s.Run(ctx)
	res.Report = timer.Report()
	if res.Err != nil {
		return res
	}

	if req.Emit && u.Config.Artifact != "" {
		a := artifact.FromProgram(res.FileSet, res.Engines, u.Name, res.Program)
		a.Timings = &res.Report
		if err := artifact.Write(u.Config.Artifact, a); err != nil {
			res.Err = fmt.Errorf("write artifact: %w", err)
			return res
		}
		res.Artifact = a
	}
	return res
}

func emit(sink ProgressSink, ev Event) {
	if sink != nil {
		sink.OnEvent(ev)
	}
}
