package agent

import (
	"context"
	"fmt"
)

// AgenticLoop drives the phased tool-use conversation between an LLMProvider
// and a ToolRegistry: stream a completion, execute any requested tools, feed
// the results back, and repeat until the model stops asking for tools or a
// budget is exhausted.
//
//	Init -> Stream -> ExecuteTools -> Continue -> Stream -> ... -> Complete
//	                      \-> Complete (no tool calls requested)
type AgenticLoop struct {
	provider LLMProvider
	executor *Executor

	config LoopConfig

	defaultModel  string
	defaultSystem string
}

// NewAgenticLoop creates a chat orchestrator bound to the given provider and
// tool registry.
func NewAgenticLoop(provider LLMProvider, tools *ToolRegistry, config LoopConfig, defaultModel, defaultSystem string) *AgenticLoop {
	config = sanitizeLoopConfig(config)

	execConfig := DefaultExecutorConfig()
	execConfig.MaxConcurrency = config.ToolParallelism
	execConfig.DefaultTimeout = config.ToolTimeout
	execConfig.DefaultRetries = config.ToolMaxAttempts - 1
	if execConfig.DefaultRetries < 0 {
		execConfig.DefaultRetries = 0
	}
	if config.ToolRetryBackoff > 0 {
		execConfig.RetryBackoff = config.ToolRetryBackoff
	}

	return &AgenticLoop{
		provider:      provider,
		executor:      NewExecutor(tools, execConfig),
		config:        config,
		defaultModel:  defaultModel,
		defaultSystem: defaultSystem,
	}
}

// LoopState tracks the orchestrator's progress through one conversation run.
type LoopState struct {
	Phase           LoopPhase
	Iteration       int
	TotalToolCalls  int
	Messages        []CompletionMessage
	AccumulatedText string
}

// Run starts a conversation with the given user message and streams response
// chunks until the loop completes or an unrecoverable error occurs. The
// returned channel is always closed by the time the driving goroutine exits.
func (l *AgenticLoop) Run(ctx context.Context, userMessage string) (<-chan *ResponseChunk, error) {
	if l.provider == nil {
		return nil, ErrNoProvider
	}

	out := make(chan *ResponseChunk)
	state := &LoopState{
		Phase:    PhaseInit,
		Messages: []CompletionMessage{{Role: RoleUser, Content: userMessage}},
	}

	go func() {
		defer close(out)
		l.drive(ctx, state, out)
	}()

	return out, nil
}

func (l *AgenticLoop) drive(ctx context.Context, state *LoopState, out chan<- *ResponseChunk) {
	for {
		if ctx.Err() != nil {
			out <- &ResponseChunk{Error: ctx.Err(), Done: true}
			return
		}
		if state.Iteration >= l.config.MaxIterations {
			out <- &ResponseChunk{Error: &LoopError{Phase: PhaseStream, Iteration: state.Iteration, Cause: ErrMaxIterations}, Done: true}
			return
		}

		state.Phase = PhaseStream
		toolCalls, err := l.streamPhase(ctx, state, out)
		if err != nil {
			out <- &ResponseChunk{Error: &LoopError{Phase: PhaseStream, Iteration: state.Iteration, Cause: err}, Done: true}
			return
		}

		if len(toolCalls) == 0 {
			state.Phase = PhaseComplete
			out <- &ResponseChunk{Done: true}
			return
		}

		state.Phase = PhaseExecuteTools
		if l.config.MaxToolCalls > 0 && state.TotalToolCalls+len(toolCalls) > l.config.MaxToolCalls {
			out <- &ResponseChunk{Error: &LoopError{
				Phase:     PhaseExecuteTools,
				Iteration: state.Iteration,
				Message:   fmt.Sprintf("tool call budget exhausted (%d/%d)", state.TotalToolCalls, l.config.MaxToolCalls),
			}, Done: true}
			return
		}

		toolResults := l.executeToolsPhase(ctx, toolCalls, out)
		state.TotalToolCalls += len(toolCalls)

		state.Phase = PhaseContinue
		state.Messages = append(state.Messages, CompletionMessage{Role: RoleAssistant, Content: state.AccumulatedText, ToolCalls: toolCalls})
		state.Messages = append(state.Messages, CompletionMessage{Role: RoleTool, ToolResults: toolResults})
		state.AccumulatedText = ""
		state.Iteration++
	}
}

// streamPhase issues one completion request and forwards text chunks to out,
// returning the tool calls the model requested (if any).
func (l *AgenticLoop) streamPhase(ctx context.Context, state *LoopState, out chan<- *ResponseChunk) ([]ToolCall, error) {
	req := &CompletionRequest{
		Model:    l.defaultModel,
		System:   l.defaultSystem,
		Messages: state.Messages,
	}
	if l.executor.registry != nil {
		req.Tools = l.executor.registry.AsLLMTools()
	}

	chunks, err := l.provider.Complete(ctx, req)
	if err != nil {
		return nil, err
	}

	var toolCalls []ToolCall
	for chunk := range chunks {
		if chunk.Error != nil {
			return nil, chunk.Error
		}
		if chunk.Text != "" {
			state.AccumulatedText += chunk.Text
			out <- &ResponseChunk{Text: chunk.Text}
		}
		if chunk.ToolCall != nil {
			toolCalls = append(toolCalls, *chunk.ToolCall)
		}
		if chunk.Done {
			break
		}
	}
	return toolCalls, nil
}

// executeToolsPhase runs the requested tool calls concurrently and, once all
// of them have finished, streams their results in the order the calls were
// requested.
func (l *AgenticLoop) executeToolsPhase(ctx context.Context, calls []ToolCall, out chan<- *ResponseChunk) []ToolCallResult {
	execResults := l.executor.ExecuteAll(ctx, calls)
	results := ResultsToMessages(execResults)
	for i := range results {
		r := results[i]
		out <- &ResponseChunk{ToolResult: &r}
	}
	return results
}
