package site

import (
	"context"
	"errors"
	"time"

	herrors "git.home.luguber.info/inful/handbook/internal/errors"
	"git.home.luguber.info/inful/handbook/internal/logfields"
	"git.home.luguber.info/inful/handbook/internal/metrics"
)

// StageName identifies a build stage.
type StageName string

// Build stages in execution order.
const (
	StageLoad     StageName = "load"
	StageValidate StageName = "validate"
	StageRender   StageName = "render"
	StageLinks    StageName = "links"
	StageWrite    StageName = "write"
)

type stage func(ctx context.Context, bs *buildState) error

type stageDef struct {
	name StageName
	fn   stage
}

func (b *Builder) stages() []stageDef {
	return []stageDef{
		{StageLoad, b.stageLoad},
		{StageValidate, b.stageValidate},
		{StageRender, b.stageRender},
		{StageLinks, b.stageLinks},
		{StageWrite, b.stageWrite},
	}
}

// runStages executes stages in order, recording timing and stopping on the
// first error.
func (b *Builder) runStages(ctx context.Context, bs *buildState, defs []stageDef) error {
	for _, st := range defs {
		if err := ctx.Err(); err != nil {
			b.recorder.IncStageResult(string(st.name), metrics.ResultCanceled)
			return canceled(st.name, err)
		}

		warningsBefore := bs.report.Warnings
		t0 := time.Now()
		err := st.fn(ctx, bs)
		dur := time.Since(t0)
		bs.report.StageDurations[st.name] = dur
		b.recorder.ObserveStageDuration(string(st.name), dur)
		bs.logger.Debug("Stage complete",
			logfields.Stage(string(st.name)),
			logfields.DurationMS(float64(dur.Microseconds())/1000))

		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				b.recorder.IncStageResult(string(st.name), metrics.ResultCanceled)
				return canceled(st.name, err)
			}
			b.recorder.IncStageResult(string(st.name), metrics.ResultFatal)
			if _, ok := herrors.As(err); !ok {
				err = herrors.StageFailed(string(st.name), err)
			}
			return err
		}
		if bs.report.Warnings > warningsBefore {
			b.recorder.IncStageResult(string(st.name), metrics.ResultWarning)
		} else {
			b.recorder.IncStageResult(string(st.name), metrics.ResultSuccess)
		}
	}
	return nil
}

func canceled(stage StageName, cause error) error {
	return herrors.Wrap(cause, herrors.CategoryRuntime, herrors.SeverityFatal, "build canceled").
		WithContext("stage", string(stage))
}
