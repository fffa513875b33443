package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sysid/mcp-cli/internal/backoff"
)

// retryPolicy mirrors the session's exponential schedule: 50ms, 100ms, 200ms,
// capped at 1s.
var retryPolicy = backoff.BackoffPolicy{InitialMs: 50, MaxMs: 1000, Factor: 2, Jitter: 0}

// defaultListRetries bounds retries for idempotent catalog queries
// (list_tools, list_resources, list_prompts).
const defaultListRetries = 3

// defaultCallRetries bounds retries for tools/call; smaller than list
// operations since tool calls are not assumed idempotent.
const defaultCallRetries = 2

// RPCError is implemented by errors that carry a JSON-RPC error code, so
// retry classification can inspect it without a type assertion on a
// concrete transport error type.
type RPCError interface {
	error
	RPCCode() int
}

// jsonRPCCallError wraps a JSON-RPC error response returned by a peer.
type jsonRPCCallError struct {
	code    int
	message string
}

func (e *jsonRPCCallError) Error() string { return e.message }
func (e *jsonRPCCallError) RPCCode() int  { return e.code }

// newRPCCallError builds an RPCError from a raw JSON-RPC error object.
func newRPCCallError(rpcErr *JSONRPCError) error {
	return &jsonRPCCallError{code: rpcErr.Code, message: rpcErr.Message}
}

// isRetryable classifies an error from a single Call attempt per the
// session's retry policy: parse/invalid-request/invalid-params/method-not-found
// never retry; internal-error and the server-defined range (-32000..-32099)
// retry; a transport closing mid-request never retries either, since the
// session underneath the call is gone; anything else (timeouts and other
// unclassified errors) is treated as retryable.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	var rpcErr RPCError
	if errors.As(err, &rpcErr) {
		code := rpcErr.RPCCode()
		switch code {
		case ErrCodeParseError, ErrCodeInvalidRequest, ErrCodeInvalidParams, ErrCodeMethodNotFound:
			return false
		case ErrCodeInternalError:
			return true
		default:
			return code <= -32000 && code >= -32099
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return false
	}
	return true
}

// callWithRetry retries a single-attempt RPC call on retryable errors using
// the session's fixed backoff schedule. Each attempt is independent; the
// underlying transport assigns a fresh request ID per call.
func callWithRetry(ctx context.Context, maxRetries int, do func(ctx context.Context) (json.RawMessage, error)) (json.RawMessage, error) {
	var lastErr error
	attempts := maxRetries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := do(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if attempt == attempts || !isRetryable(err) {
			return nil, lastErr
		}
		delay := backoff.ComputeBackoff(retryPolicy, attempt)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, lastErr
}
