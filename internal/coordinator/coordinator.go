// Package coordinator wraps a long-running generation call in a per-client
// state machine: sequence-guarded, duplicate-proof, cancellable, with staged
// progress reporting and minimum-display smoothing.
package coordinator

import (
	"context"
	"errors"
	"sync"
	"time"

	"notequiz/internal/domain"
	"notequiz/internal/dto"
	"notequiz/internal/logger"
	"notequiz/internal/validation"

	"go.uber.org/zap"
)

// Stage is the externally visible progress of a submission.
type Stage string

const (
	StageIdle       Stage = "idle"
	StageSending    Stage = "sending"
	StageGenerating Stage = "generating"
	StageValidating Stage = "validating"
	StageFinalizing Stage = "finalizing"
	StageDone       Stage = "done"
	StageError      Stage = "error"
)

const (
	// defaultHonestyBudget caps the total artificial delay added across one
	// submission so fast responses do not look like instantaneous skips.
	defaultHonestyBudget = 350 * time.Millisecond

	// defaultStageMinDisplay is how long each intermediate stage is held
	// open at minimum, while budget remains.
	defaultStageMinDisplay = 150 * time.Millisecond

	// defaultReassuranceDelay is how long the generating stage may persist
	// before the one-shot reassurance signal fires.
	defaultReassuranceDelay = 15 * time.Second
)

// GenerationInvoker is the slice of the generation service the coordinator
// drives.
type GenerationInvoker interface {
	GenerateQuiz(ctx context.Context, userID string, req *dto.GenerateQuizRequest, debug bool) (*dto.GenerateQuizResponse, error)
}

// Hooks receive stage transitions and the reassurance signal. All hooks are
// optional and are invoked with the coordinator's lock held, so they must
// not call back into it.
type Hooks struct {
	OnStage       func(Stage)
	OnReassurance func()
}

// Option tunes a coordinator, mainly for tests.
type Option func(*Coordinator)

func WithHonestyBudget(d time.Duration) Option    { return func(c *Coordinator) { c.honestyBudget = d } }
func WithStageMinDisplay(d time.Duration) Option  { return func(c *Coordinator) { c.stageMinDisplay = d } }
func WithReassuranceDelay(d time.Duration) Option { return func(c *Coordinator) { c.reassuranceDelay = d } }

// WithClock replaces the time sources. sleep must honor ctx cancellation.
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration)) Option {
	return func(c *Coordinator) {
		c.now = now
		c.sleep = sleep
	}
}

// Coordinator serializes submissions for one client. Concurrency is modeled
// through a sequence counter and cooperative cancellation; stale
// continuations compare their captured sequence against the current one and
// discard themselves without mutating shared state.
type Coordinator struct {
	gen       GenerationInvoker
	hooks     Hooks
	validator *validation.Validator

	honestyBudget    time.Duration
	stageMinDisplay  time.Duration
	reassuranceDelay time.Duration
	now              func() time.Time
	sleep            func(ctx context.Context, d time.Duration)

	mu             sync.Mutex
	seq            uint64
	locked         bool
	stage          Stage
	stageEnteredAt time.Time
	budgetLeft     time.Duration
	cancel         context.CancelFunc
	reassure       *time.Timer

	lastUserID string
	lastReq    *dto.GenerateQuizRequest
	lastDebug  bool
	lastErr    error
}

// NewCoordinator creates a coordinator around the generation service.
func NewCoordinator(gen GenerationInvoker, hooks Hooks, opts ...Option) *Coordinator {
	c := &Coordinator{
		gen:              gen,
		hooks:            hooks,
		validator:        validation.NewValidator(),
		honestyBudget:    defaultHonestyBudget,
		stageMinDisplay:  defaultStageMinDisplay,
		reassuranceDelay: defaultReassuranceDelay,
		now:              time.Now,
		stage:            StageIdle,
	}
	c.sleep = func(ctx context.Context, d time.Duration) {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
		}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Stage returns the current visible stage.
func (c *Coordinator) Stage() Stage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stage
}

// Submit runs one generation submission end to end. It blocks until the
// submission reaches a terminal outcome. A second Submit while one is in
// flight returns (nil, nil) without any effect; a cancelled submission also
// returns (nil, nil), never an error.
func (c *Coordinator) Submit(ctx context.Context, userID string, req *dto.GenerateQuizRequest, debug bool) (*dto.GenerateQuizResponse, error) {
	// Synchronous validation runs before the lock is taken, so invalid
	// input can never leave the lock stuck held.
	if errs := c.validator.ValidateGenerateRequest(req); len(errs) > 0 {
		details := make([]domain.ErrorDetail, 0, len(errs))
		for _, e := range errs {
			details = append(details, domain.ErrorDetail{Path: e.Field, Message: e.Message})
		}
		return nil, domain.NewError(domain.CodeSchemaInvalid, "request failed validation", nil).WithDetails(details)
	}

	c.mu.Lock()
	if c.locked {
		// Silent idempotent no-op on duplicate submission.
		c.mu.Unlock()
		return nil, nil
	}
	c.seq++
	mySeq := c.seq
	c.locked = true
	c.budgetLeft = c.honestyBudget
	c.lastUserID = userID
	c.lastReq = req
	c.lastDebug = debug
	c.lastErr = nil

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.setStageLocked(StageSending)
	c.mu.Unlock()
	defer cancel()

	if !c.advance(runCtx, mySeq, StageGenerating) {
		return nil, nil
	}
	c.armReassurance(mySeq)

	resp, err := c.gen.GenerateQuiz(runCtx, userID, req, debug)

	c.mu.Lock()
	c.stopReassuranceLocked()
	if mySeq != c.seq {
		// Superseded while in flight; drop the result untouched.
		c.mu.Unlock()
		return nil, nil
	}
	if runCtx.Err() != nil && (err == nil || errors.Is(err, context.Canceled)) {
		// Cooperative cancellation tears down to idle without error.
		c.finishLocked(StageIdle)
		c.mu.Unlock()
		return nil, nil
	}
	if err != nil {
		c.lastErr = err
		c.finishLocked(StageError)
		c.mu.Unlock()
		logger.Get().Warn("Quiz submission failed", zap.Error(err), zap.Uint64("seq", mySeq))
		return nil, err
	}
	c.mu.Unlock()

	if !c.advance(runCtx, mySeq, StageValidating) {
		return nil, nil
	}
	if !c.advance(runCtx, mySeq, StageFinalizing) {
		return nil, nil
	}

	c.mu.Lock()
	if mySeq != c.seq {
		c.mu.Unlock()
		return nil, nil
	}
	c.setStageLocked(StageDone)
	// Stage is cleared before any follow-on handoff by the caller.
	c.finishLocked(StageIdle)
	c.mu.Unlock()
	return resp, nil
}

// Cancel aborts the in-flight submission, if any. Not an error: the stage
// resets to idle immediately and the next Submit proceeds normally.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.locked {
		return
	}
	c.seq++ // supersede every outstanding continuation
	c.stopReassuranceLocked()
	if c.cancel != nil {
		c.cancel()
	}
	c.finishLocked(StageIdle)
}

// Retry re-invokes the full submission path after a failure, with a fresh
// sequence number and a freshly acquired lock.
func (c *Coordinator) Retry(ctx context.Context) (*dto.GenerateQuizResponse, error) {
	c.mu.Lock()
	if c.stage != StageError || c.lastReq == nil {
		c.mu.Unlock()
		return nil, domain.NewBadRequestError("nothing to retry")
	}
	userID, req, debug := c.lastUserID, c.lastReq, c.lastDebug
	c.stage = StageIdle
	c.mu.Unlock()
	return c.Submit(ctx, userID, req, debug)
}

// LastError returns the error of the most recent failed submission, if the
// machine is in the error stage.
func (c *Coordinator) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stage != StageError {
		return nil
	}
	return c.lastErr
}

// advance moves to the next stage, first holding the current stage open for
// its minimum display if honesty budget remains. Returns false if this
// submission has been superseded.
func (c *Coordinator) advance(ctx context.Context, mySeq uint64, next Stage) bool {
	c.mu.Lock()
	if mySeq != c.seq {
		c.mu.Unlock()
		return false
	}
	elapsed := c.now().Sub(c.stageEnteredAt)
	hold := c.stageMinDisplay - elapsed
	if hold > c.budgetLeft {
		hold = c.budgetLeft
	}
	if hold > 0 {
		c.budgetLeft -= hold
	}
	c.mu.Unlock()

	if hold > 0 {
		c.sleep(ctx, hold)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if mySeq != c.seq {
		return false
	}
	c.setStageLocked(next)
	return true
}

// armReassurance starts the one-shot timer that fires if the generating
// stage persists past the configured delay.
func (c *Coordinator) armReassurance(mySeq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if mySeq != c.seq {
		return
	}
	c.reassure = time.AfterFunc(c.reassuranceDelay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if mySeq != c.seq || c.stage != StageGenerating {
			return
		}
		if c.hooks.OnReassurance != nil {
			c.hooks.OnReassurance()
		}
	})
}

func (c *Coordinator) stopReassuranceLocked() {
	if c.reassure != nil {
		c.reassure.Stop()
		c.reassure = nil
	}
}

// finishLocked releases the single-submission lock on a terminal outcome.
func (c *Coordinator) finishLocked(terminal Stage) {
	c.stopReassuranceLocked()
	c.locked = false
	c.cancel = nil
	c.setStageLocked(terminal)
}

func (c *Coordinator) setStageLocked(stage Stage) {
	c.stage = stage
	c.stageEnteredAt = c.now()
	if c.hooks.OnStage != nil {
		c.hooks.OnStage(stage)
	}
}
