package agent

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

// stubProvider replays a fixed sequence of completions, one per call to
// Complete, so the loop's turn-taking behavior can be driven deterministically.
type stubProvider struct {
	turns [][]*CompletionChunk
	calls int
}

func (s *stubProvider) Complete(ctx context.Context, req *CompletionRequest) (<-chan *CompletionChunk, error) {
	turn := s.turns[s.calls]
	s.calls++

	out := make(chan *CompletionChunk, len(turn))
	for _, c := range turn {
		out <- c
	}
	close(out)
	return out, nil
}

func (s *stubProvider) Name() string        { return "stub" }
func (s *stubProvider) Models() []Model     { return nil }
func (s *stubProvider) SupportsTools() bool { return true }

func drainChunks(ch <-chan *ResponseChunk) []*ResponseChunk {
	var out []*ResponseChunk
	for c := range ch {
		out = append(out, c)
	}
	return out
}

func TestAgenticLoopTerminatesAfterToolCall(t *testing.T) {
	provider := &stubProvider{
		turns: [][]*CompletionChunk{
			{
				{ToolCall: &ToolCall{ID: "c1", Name: "ns_echo", Input: json.RawMessage(`{"x":1}`)}},
				{Done: true},
			},
			{
				{Text: "done"},
				{Done: true},
			},
		},
	}

	registry := NewToolRegistry()
	registry.Register(&stubTool{name: "ns_echo", result: &ToolResult{Content: `{"x":1}`}})

	loop := NewAgenticLoop(provider, registry, DefaultLoopConfig(), "test-model", "system prompt")

	chunks, err := loop.Run(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	results := drainChunks(chunks)
	if provider.calls != 2 {
		t.Fatalf("expected the provider to be called exactly twice, got %d", provider.calls)
	}

	var sawToolResult bool
	var sawFinalText bool
	for _, r := range results {
		if r.Error != nil {
			t.Fatalf("unexpected chunk error: %v", r.Error)
		}
		if r.ToolResult != nil {
			sawToolResult = true
			if r.ToolResult.ToolCallID != "c1" {
				t.Fatalf("tool result tool_call_id = %q, want c1", r.ToolResult.ToolCallID)
			}
			if r.ToolResult.Content != `{"x":1}` {
				t.Fatalf("tool result content = %q", r.ToolResult.Content)
			}
		}
		if r.Text == "done" {
			sawFinalText = true
		}
	}

	if !sawToolResult {
		t.Fatal("expected a tool result chunk")
	}
	if !sawFinalText {
		t.Fatal("expected the final assistant text chunk")
	}
}

func TestAgenticLoopNoProviderReturnsError(t *testing.T) {
	loop := NewAgenticLoop(nil, NewToolRegistry(), DefaultLoopConfig(), "", "")
	if _, err := loop.Run(context.Background(), "hi"); err != ErrNoProvider {
		t.Fatalf("expected ErrNoProvider, got %v", err)
	}
}

func TestAgenticLoopRespectsMaxIterations(t *testing.T) {
	// Every turn requests another tool call, so the loop should hit its
	// iteration cap rather than looping forever.
	loopingTurn := []*CompletionChunk{
		{ToolCall: &ToolCall{ID: "c", Name: "spin", Input: json.RawMessage(`{}`)}},
		{Done: true},
	}
	turns := make([][]*CompletionChunk, 0, 11)
	for i := 0; i < 11; i++ {
		turns = append(turns, loopingTurn)
	}
	provider := &stubProvider{turns: turns}

	registry := NewToolRegistry()
	registry.Register(&stubTool{name: "spin", result: &ToolResult{Content: "spinning"}})

	cfg := DefaultLoopConfig()
	cfg.MaxIterations = 3

	loop := NewAgenticLoop(provider, registry, cfg, "model", "system")
	chunks, err := loop.Run(context.Background(), "go")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	results := drainChunks(chunks)
	last := results[len(results)-1]
	if last.Error == nil {
		t.Fatal("expected the final chunk to carry the max-iterations error")
	}
	if !last.Done {
		t.Fatal("expected the final chunk to be marked Done")
	}
}

func TestAgenticLoopHonorsCancellation(t *testing.T) {
	provider := &stubProvider{turns: [][]*CompletionChunk{{{Text: "hi"}, {Done: true}}}}
	loop := NewAgenticLoop(provider, NewToolRegistry(), DefaultLoopConfig(), "model", "system")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	chunks, err := loop.Run(ctx, "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	results := drainChunks(chunks)
	if len(results) != 1 || results[0].Error == nil {
		t.Fatalf("expected a single error chunk for a pre-cancelled context, got %+v", results)
	}
}

func TestAgenticLoopTimesOutQuickly(t *testing.T) {
	// Sanity check that a loop whose provider ends its turn at once closes
	// its channel promptly, so draining it does not hang the test suite.
	done := make(chan struct{})
	go func() {
		provider := &stubProvider{turns: [][]*CompletionChunk{{{Done: true}}}}
		loop := NewAgenticLoop(provider, NewToolRegistry(), DefaultLoopConfig(), "model", "system")
		chunks, _ := loop.Run(context.Background(), "hi")
		drainChunks(chunks)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not complete in time")
	}
}
