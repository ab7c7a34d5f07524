package ringctx

import (
	"slices"

	"storycodex/internal/story"
)

// rings is the content part of a packet.
type rings struct {
	A story.RingA
	B story.RingB
	C story.RingC
}

// measureFunc estimates the whole packet that would be written for r, with
// used as the optional sources placed so far and dropped as the block keys
// listed under build.dropped.
type measureFunc func(r rings, used []source, dropped []string) (int, error)

// variant is one rendering of a block. apply adds it to the rings; sources
// lists the artifacts it draws on.
type variant struct {
	apply   func(*rings)
	sources []source
}

// block is a ranked unit of optional content. Variants are tried in order and
// the first that fits is kept. Once a block of a chain is dropped, the rest
// of that chain is dropped with it.
type block struct {
	key      string
	chain    string
	variants []variant
}

// placement is the outcome of consuming blocks against a budget.
type placement struct {
	used    []source
	dropped []string
}

func blockKeys(blocks []block) []string {
	keys := make([]string, len(blocks))
	for i, b := range blocks {
		keys[i] = b.key
	}
	return keys
}

// consume adds blocks to r in rank order while the whole packet stays within
// budget. Blocks not yet reached are measured as dropped, so a later drop
// never pushes an accepted packet over the budget.
func consume(r *rings, budget int, blocks []block, measure measureFunc) (placement, error) {
	var out placement
	keys := blockKeys(blocks)
	brokenChains := map[string]bool{}
	for i, b := range blocks {
		if b.chain != "" && brokenChains[b.chain] {
			out.dropped = append(out.dropped, b.key)
			continue
		}
		pending := keys[i+1:]
		placed := false
		for _, v := range b.variants {
			snapshot := *r
			v.apply(r)
			cost, err := measure(*r, slices.Concat(out.used, v.sources), slices.Concat(out.dropped, pending))
			if err != nil {
				return out, err
			}
			if cost <= budget {
				out.used = append(out.used, v.sources...)
				placed = true
				break
			}
			*r = snapshot
		}
		if !placed {
			out.dropped = append(out.dropped, b.key)
			if b.chain != "" {
				brokenChains[b.chain] = true
			}
		}
	}
	return out, nil
}
