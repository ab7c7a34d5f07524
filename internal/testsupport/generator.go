package testsupport

import (
	"context"
	"fmt"
	"sync"

	"storycodex/internal/services/llm"
)

// FakeGenerator replays scripted replies in order and records every request.
type FakeGenerator struct {
	mu       sync.Mutex
	replies  []string
	errs     map[int]error
	requests []llm.Request
}

// NewFakeGenerator scripts the replies returned by successive Generate calls.
func NewFakeGenerator(replies ...string) *FakeGenerator {
	return &FakeGenerator{replies: replies, errs: map[int]error{}}
}

// FailOn makes the call with the given zero-based index return err.
func (g *FakeGenerator) FailOn(call int, err error) *FakeGenerator {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.errs[call] = err
	return g
}

// Push appends more scripted replies.
func (g *FakeGenerator) Push(replies ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.replies = append(g.replies, replies...)
}

// Generate returns the next scripted reply.
func (g *FakeGenerator) Generate(ctx context.Context, req llm.Request) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	call := len(g.requests)
	g.requests = append(g.requests, req)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err, ok := g.errs[call]; ok {
		return "", err
	}
	if call >= len(g.replies) {
		return "", fmt.Errorf("fake generator: no reply scripted for call %d", call)
	}
	return g.replies[call], nil
}

// Backend reports a fixed backend name for meta sidecars.
func (g *FakeGenerator) Backend(context.Context) (string, error) { return "fake", nil }

// Requests returns a copy of the recorded requests.
func (g *FakeGenerator) Requests() []llm.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]llm.Request, len(g.requests))
	copy(out, g.requests)
	return out
}

// Calls returns the number of Generate calls made.
func (g *FakeGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}
