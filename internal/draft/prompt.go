package draft

import (
	"fmt"
	"strings"

	"storycodex/internal/services/llm"
	"storycodex/internal/story"
	"storycodex/internal/tree"
)

const writerSystem = "You are a professional fiction writer executing a constrained writing task."

const hardRules = `Hard rules:
- Use ONLY the provided context packet.
- Follow POV and tense from ring_a exactly.
- Follow all ring_a.style_rules.
- Obey all ring_c.locks (severity 'must' is absolute).
- Hit EVERY beat in ring_a.beats in order.
- Use one paragraph per beat, in order.
- Do NOT invent new plot events, characters, locations, or lore.
- Do NOT contradict ring_a.global_constraints.
- If cast size > 1, include dialogue.
- If cast size == 1, interiority is allowed.
- End naturally unless a 'hook' beat is present; then emphasize it.
- No summaries of future scenes, no meta commentary, no exposition ungrounded in setting.
- Output prose only (markdown text), no JSON, no headings unless in the prose.
`

const checklist = `Checklist:
- POV?
- Tense?
- Final beat reached?
- Locks obeyed?
`

func packetJSON(packet story.ContextPacket) (string, error) {
	data, err := tree.Pretty(packet)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(data), "\n"), nil
}

func writePrompt(packet string, target int, length string) []llm.Message {
	user := hardRules + "\n" +
		fmt.Sprintf("Target length: %s (~%d words). Stay within +/-30%% of the target.\n", length, target) +
		"\nContext packet JSON:\n" + packet + "\n\n" + checklist
	return []llm.Message{llm.System(writerSystem), llm.User(user)}
}

func retryPrompt(packet string, target int, length string, issues []string) []llm.Message {
	lines := make([]string, len(issues))
	for i, issue := range issues {
		lines[i] = "- " + issue
	}
	user := "The previous draft failed validation. Fix the issues and rewrite.\n" +
		"Issues:\n" + strings.Join(lines, "\n") + "\n\n" +
		fmt.Sprintf("Target length: %s (~%d words), stay within +/-30%%.\n", length, target) +
		"Output prose only, no JSON, no commentary.\n\n" +
		"Context packet JSON:\n" + packet
	return []llm.Message{llm.System(writerSystem), llm.User(user)}
}

func expandPrompt(packet string, target int, draft string) []llm.Message {
	lower, upper := expandBounds(target)
	user := "Expand the draft to fit the target length without changing events. " +
		"Keep POV and tense, preserve beat order, add detail and dialogue where appropriate. " +
		fmt.Sprintf("Target length: %d-%d words. ", lower, upper) +
		"Return the FULL expanded scene, no commentary.\n\n" +
		"Context packet JSON:\n" + packet + "\n\n" +
		"Draft to expand:\n" + draft
	return []llm.Message{llm.System(writerSystem), llm.User(user)}
}
