package tools

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/the-erin-collective/comrade-sub004/internal/agent/ports"
	"github.com/the-erin-collective/comrade-sub004/internal/async"
	comerrors "github.com/the-erin-collective/comrade-sub004/internal/errors"
	"github.com/the-erin-collective/comrade-sub004/internal/shared/logging"
)

// CancelToken carries cooperative cancellation for one batch. Each call to
// ExecuteToolCalls owns a fresh token, so concurrent batches on the same
// executor do not interfere; CancelAll signals every active token.
type CancelToken struct {
	ctx       context.Context
	cancel    context.CancelFunc
	cancelled atomic.Bool
}

// NewCancelToken derives a token from the given parent context.
func NewCancelToken(parent context.Context) *CancelToken {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	return &CancelToken{ctx: ctx, cancel: cancel}
}

// Cancel signals cancellation. Safe to call multiple times.
func (t *CancelToken) Cancel() {
	t.cancelled.Store(true)
	t.cancel()
}

// Cancelled reports whether cancellation was requested, either explicitly or
// through the parent context.
func (t *CancelToken) Cancelled() bool {
	if t.cancelled.Load() {
		return true
	}
	return t.ctx.Err() != nil
}

// Done exposes the cancellation channel for select loops.
func (t *CancelToken) Done() <-chan struct{} {
	return t.ctx.Done()
}

// Context returns the context governed by this token.
func (t *CancelToken) Context() context.Context {
	return t.ctx
}

// BatchOptions configures a BatchExecutor.
type BatchOptions struct {
	// MaxConcurrent is the hard ceiling on simultaneously in-flight tool
	// executions. Values <= 0 fall back to DefaultMaxConcurrent.
	MaxConcurrent int
	// AttemptTimeout bounds each individual attempt. Values <= 0 fall back
	// to DefaultAttemptTimeout.
	AttemptTimeout time.Duration
	// RetryAttempts is the number of retries after the initial attempt.
	// Zero disables retries; negative values fall back to DefaultMaxRetries.
	RetryAttempts int
	// Policy overrides the timeout/retry policy derived from the fields
	// above, enabling per-tool settings.
	Policy ToolPolicy
	// Logger receives scheduling diagnostics.
	Logger logging.Logger
}

// DefaultBatchOptions returns the stock batch configuration.
func DefaultBatchOptions() BatchOptions {
	return BatchOptions{
		MaxConcurrent:  DefaultMaxConcurrent,
		AttemptTimeout: DefaultAttemptTimeout,
		RetryAttempts:  DefaultMaxRetries,
	}
}

// BatchResult aggregates a batch's outcomes. Successful results land in
// Results; every failure mode (unknown tool, validation, timeout, tool error,
// cancellation) lands in Errors. Order follows completion, not submission.
type BatchResult struct {
	Results []*ports.ToolResult
	Errors  []error
}

// BatchExecutor runs batches of tool calls against a Registry under bounded
// concurrency with per-attempt timeout, retry with exponential backoff, and
// cooperative cancellation. Its public entry points never panic and never
// return a Go error; all failures are value-typed.
type BatchExecutor struct {
	registry      *Registry
	policy        ToolPolicy
	maxConcurrent int64
	logger        logging.Logger

	mu     sync.Mutex
	active map[*CancelToken]struct{}
}

// NewBatchExecutor creates an executor bound to the given registry.
func NewBatchExecutor(registry *Registry, opts BatchOptions) *BatchExecutor {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = DefaultMaxConcurrent
	}
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = DefaultAttemptTimeout
	}
	if opts.RetryAttempts < 0 {
		opts.RetryAttempts = DefaultMaxRetries
	}
	policy := opts.Policy
	if policy == nil {
		cfg := DefaultToolPolicyConfig()
		cfg.Timeout.Default = opts.AttemptTimeout
		cfg.Retry.MaxRetries = opts.RetryAttempts
		policy = NewToolPolicy(cfg)
	}
	return &BatchExecutor{
		registry:      registry,
		policy:        policy,
		maxConcurrent: int64(opts.MaxConcurrent),
		logger:        logging.OrNop(opts.Logger),
		active:        make(map[*CancelToken]struct{}),
	}
}

// ExecuteToolCalls runs all calls and blocks until every task has settled or
// been cancelled. Tasks start in submission order; completion order is
// unspecified.
func (e *BatchExecutor) ExecuteToolCalls(ctx context.Context, calls []ports.ToolCall) BatchResult {
	token := NewCancelToken(ctx)
	e.trackToken(token)
	defer e.untrackToken(token)

	sem := semaphore.NewWeighted(e.maxConcurrent)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var batch BatchResult

	record := func(call ports.ToolCall, result *ports.ToolResult) {
		mu.Lock()
		defer mu.Unlock()
		if result.Success() {
			batch.Results = append(batch.Results, result)
			return
		}
		err := result.Error
		if err == nil {
			err = errors.New("Unknown error")
		}
		batch.Errors = append(batch.Errors, fmt.Errorf("tool %s (call %s): %w", call.Name, call.ID, err))
	}

	for _, call := range calls {
		call := call
		wg.Add(1)
		async.Go(e.logger, "tool-call-"+call.ID, func() {
			defer wg.Done()
			// Acquire blocks while MaxConcurrent tasks are in flight and
			// aborts when the batch is cancelled.
			if err := sem.Acquire(token.Context(), 1); err != nil {
				record(call, cancelledResult(call))
				return
			}
			defer sem.Release(1)
			record(call, e.executeTask(token, call))
		})
	}

	wg.Wait()
	return batch
}

// CancelAll signals cancellation to every batch currently executing. It is
// best-effort and non-blocking: attempts already inside a tool body are not
// preempted, but their results are discarded in favor of a cancelled result.
func (e *BatchExecutor) CancelAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for token := range e.active {
		token.Cancel()
	}
}

func (e *BatchExecutor) trackToken(token *CancelToken) {
	e.mu.Lock()
	e.active[token] = struct{}{}
	e.mu.Unlock()
}

func (e *BatchExecutor) untrackToken(token *CancelToken) {
	e.mu.Lock()
	delete(e.active, token)
	e.mu.Unlock()
	token.cancel()
}

// executeTask drives one call through its attempt budget.
func (e *BatchExecutor) executeTask(token *CancelToken, call ports.ToolCall) *ports.ToolResult {
	dangerous := false
	if tool, err := e.registry.Get(call.Name); err == nil {
		dangerous = tool.Metadata().Dangerous
	}
	retryCfg := e.policy.RetryConfigFor(call.Name, dangerous)
	timeout := e.policy.TimeoutFor(call.Name)
	maxAttempts := retryCfg.MaxRetries + 1

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if token.Cancelled() {
			return cancelledResult(call)
		}

		result := e.executeAttempt(token, call, timeout)
		if result.Cancelled() {
			return result
		}
		if result.Success() {
			result.SetMeta(ports.MetaAttempts, attempt+1)
			return result
		}
		e.logger.Debug("tool %s attempt %d/%d failed: %v", call.Name, attempt+1, maxAttempts, result.Error)

		if attempt == maxAttempts-1 {
			if result.Error == nil {
				result.Error = errors.New("Unknown error")
			}
			result.SetMeta(ports.MetaAttempts, maxAttempts)
			return result
		}

		timer := time.NewTimer(backoffDelay(attempt, retryCfg))
		select {
		case <-timer.C:
		case <-token.Done():
			timer.Stop()
			return cancelledResult(call)
		}
	}

	return failedResult(call, errors.New("Unknown error"))
}

// executeAttempt races one registry execution against the attempt timeout and
// the batch token. On timeout or cancellation the in-flight tool body is left
// to finish on its own; its eventual result is dropped.
func (e *BatchExecutor) executeAttempt(token *CancelToken, call ports.ToolCall, timeout time.Duration) *ports.ToolResult {
	ctx, cancel := context.WithTimeout(token.Context(), timeout)
	defer cancel()

	done := make(chan *ports.ToolResult, 1)
	async.Go(e.logger, "tool-attempt-"+call.Name, func() {
		done <- e.registry.Execute(ctx, call)
	})

	select {
	case result := <-done:
		return result
	case <-token.Done():
		return cancelledResult(call)
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return failedResult(call, comerrors.NewTimeout("tool %s timed out after %s", call.Name, timeout))
		}
		return cancelledResult(call)
	}
}

func failedResult(call ports.ToolCall, err error) *ports.ToolResult {
	result := &ports.ToolResult{CallID: call.ID, Error: err}
	result.SetMeta(ports.MetaToolName, call.Name)
	result.SetMeta(ports.MetaArguments, call.Arguments)
	result.SetMeta(ports.MetaTimestamp, time.Now().UTC().Format(time.RFC3339Nano))
	return result
}

func cancelledResult(call ports.ToolCall) *ports.ToolResult {
	result := failedResult(call, comerrors.NewCancelled(""))
	result.SetMeta(ports.MetaCancelled, true)
	return result
}
