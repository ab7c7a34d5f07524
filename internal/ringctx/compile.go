package ringctx

import (
	"context"

	"storycodex/internal/artifact"
	"storycodex/internal/services"
	"storycodex/internal/story"
	"storycodex/internal/tree"
)

// Result is a compiled packet plus the artifacts it was built from.
type Result struct {
	Packet story.ContextPacket
	Inputs []artifact.Ref
}

// Compile builds the context packet for sceneID from the artifacts in store.
// The budget bounds the whole packet, build block included. Ring A is always
// kept whole; ContextBudgetExceeded is returned when Ring A, or the smallest
// packet that carries it, exceeds the budget.
func Compile(ctx context.Context, store artifact.Store, sceneID int, opts Options) (Result, error) {
	opts, err := opts.normalized()
	if err != nil {
		return Result{}, err
	}
	in, err := load(ctx, store, sceneID)
	if err != nil {
		return Result{}, err
	}

	r := rings{A: buildRingA(in)}
	ringA, err := tree.EstimateTokens(r.A)
	if err != nil {
		return Result{}, err
	}
	if ringA > opts.Budget {
		return Result{}, &services.ContextBudgetExceeded{SceneID: sceneID, Budget: opts.Budget, Required: ringA, RingA: ringA}
	}

	blocks := ringCBlocks(in, opts, ringAWords(r.A))
	ringB, err := ringBBlocks(ctx, store, in)
	if err != nil {
		return Result{}, err
	}
	blocks = append(blocks, ringB...)

	measure := func(r rings, used []source, dropped []string) (int, error) {
		return tree.EstimateTokens(assemble(sceneID, opts, r, in.sourcesWith(used), dropped))
	}
	minimal, err := measure(r, nil, blockKeys(blocks))
	if err != nil {
		return Result{}, err
	}
	if minimal > opts.Budget {
		return Result{}, &services.ContextBudgetExceeded{SceneID: sceneID, Budget: opts.Budget, Required: minimal, RingA: ringA}
	}

	placed, err := consume(&r, opts.Budget, blocks, measure)
	if err != nil {
		return Result{}, err
	}
	for _, s := range placed.used {
		in.use(s.ref, s.detail)
	}

	switch opts.Include {
	case story.IncludeRingA:
		r.B, r.C = story.RingB{}, story.RingC{}
	case story.IncludeRingB:
		r.A, r.C = story.RingA{}, story.RingC{}
	case story.IncludeRingC:
		r.A, r.B = story.RingA{}, story.RingB{}
	}

	sources := in.sources()
	packet := assemble(sceneID, opts, r, sources, placed.dropped)
	used, err := tree.EstimateTokens(packet)
	if err != nil {
		return Result{}, err
	}
	packet.Build.UsedTokens = used
	if err := packet.Validate(); err != nil {
		return Result{}, err
	}

	refs := make([]artifact.Ref, 0, len(sources))
	seen := map[string]bool{}
	for _, s := range sources {
		if path := s.ref.Path(); !seen[path] {
			seen[path] = true
			refs = append(refs, s.ref)
		}
	}
	return Result{Packet: packet, Inputs: refs}, nil
}

// assemble builds the packet. used_tokens is left at the budget, which is at
// least as wide as any figure it is later replaced with, so measuring the
// result bounds the final packet.
func assemble(sceneID int, opts Options, r rings, sources []source, dropped []string) story.ContextPacket {
	build := story.BuildInfo{
		BudgetTokens: opts.Budget,
		UsedTokens:   opts.Budget,
		Resolution:   opts.Resolution,
		Include:      opts.Include,
		Sources:      make([]story.Source, 0, len(sources)),
		Dropped:      append([]string{}, dropped...),
	}
	for _, s := range sources {
		build.Sources = append(build.Sources, story.Source{Artifact: s.ref.Path(), Detail: s.detail})
	}
	return story.ContextPacket{SceneID: sceneID, Build: build, RingA: r.A, RingB: r.B, RingC: r.C}
}
