package orchestrator

import (
	"github.com/poiesic/talentmatch/progress"
	"github.com/poiesic/talentmatch/stream"
)

type updateKind int

const (
	updateStart updateKind = iota
	updateProgress
	updateComplete
	updateError
	updateStatus
	updateResult
	updateFinish
)

// update is one message from a run to its session.
type update struct {
	kind    updateKind
	stage   progress.Stage
	current int
	total   int
	message string
	details map[string]any
	payload any
	err     error
}

func (u update) apply(t *progress.Tracker, b *stream.Bus) {
	switch u.kind {
	case updateStart:
		info := t.StartStage(u.stage, u.total, u.message)
		b.Progress(info.Current, info.Total, info.Message, string(u.stage))
	case updateProgress:
		info := t.UpdateProgress(u.stage, u.current, u.message)
		b.Progress(info.Current, info.Total, info.Message, string(u.stage))
	case updateComplete:
		if info, ok := t.CompleteStage(u.stage, u.message); ok {
			b.Progress(info.Current, info.Total, info.Message, string(u.stage))
		}
	case updateError:
		t.SetError(u.stage, u.err)
		b.Error(u.err.Error(), "run_failed", string(u.stage))
	case updateStatus:
		b.Status(u.message, u.details)
	case updateResult:
		b.Result(u.payload, u.message)
	case updateFinish:
		t.CompleteSession(u.err)
		b.Complete(u.payload, u.err)
	}
}

// reporter sends updates for one run and remembers the current stage.
type reporter struct {
	updates chan<- update
	stage   progress.Stage
}

func (r *reporter) start(stage progress.Stage, total int, msg string) {
	r.stage = stage
	r.updates <- update{kind: updateStart, stage: stage, total: total, message: msg}
}

func (r *reporter) progress(stage progress.Stage, current int, msg string) {
	r.updates <- update{kind: updateProgress, stage: stage, current: current, message: msg}
}

func (r *reporter) complete(stage progress.Stage, msg string) {
	r.updates <- update{kind: updateComplete, stage: stage, message: msg}
}

func (r *reporter) status(status string, details map[string]any) {
	r.updates <- update{kind: updateStatus, message: status, details: details}
}

func (r *reporter) result(payload any, resultType string) {
	r.updates <- update{kind: updateResult, payload: payload, message: resultType}
}

func (r *reporter) fail(err error) {
	stage := r.stage
	if stage == "" {
		stage = progress.StageInitialization
	}
	r.updates <- update{kind: updateError, stage: stage, err: err}
}

func (r *reporter) finish(payload any, err error) {
	r.updates <- update{kind: updateFinish, payload: payload, err: err}
}
