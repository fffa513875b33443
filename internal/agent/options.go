package agent

import (
	"log/slog"
	"time"
)

// LoopConfig configures the chat orchestrator's tool-use loop.
type LoopConfig struct {
	// MaxIterations limits tool-use round-trips per request.
	MaxIterations int

	// MaxToolCalls limits total tool calls across the whole request (0 = unlimited).
	MaxToolCalls int

	// ToolParallelism caps concurrent tool execution within one iteration.
	ToolParallelism int

	// ToolTimeout applies a default timeout to each tool call.
	ToolTimeout time.Duration

	// ToolMaxAttempts controls retry attempts for a single tool execution.
	ToolMaxAttempts int

	// ToolRetryBackoff is the initial backoff between tool retry attempts.
	ToolRetryBackoff time.Duration

	// Logger receives orchestrator diagnostics.
	Logger *slog.Logger
}

// DefaultLoopConfig returns the baseline orchestrator configuration.
func DefaultLoopConfig() LoopConfig {
	return LoopConfig{
		MaxIterations:    10,
		MaxToolCalls:     0,
		ToolParallelism:  4,
		ToolTimeout:      30 * time.Second,
		ToolMaxAttempts:  1,
		ToolRetryBackoff: 0,
		Logger:           slog.Default(),
	}
}

func sanitizeLoopConfig(cfg LoopConfig) LoopConfig {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 10
	}
	if cfg.ToolParallelism <= 0 {
		cfg.ToolParallelism = 4
	}
	if cfg.ToolTimeout <= 0 {
		cfg.ToolTimeout = 30 * time.Second
	}
	if cfg.ToolMaxAttempts <= 0 {
		cfg.ToolMaxAttempts = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return cfg
}
