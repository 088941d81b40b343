package prompt

import (
	"fmt"
	"strings"
)

// Action identifies one of the fixed rewrite operations offered by the
// toolbar, plus chat.
type Action string

const (
	Improve    Action = "improve"
	Summarize  Action = "summarize"
	Expand     Action = "expand"
	Paraphrase Action = "paraphrase"
	MoreFormal Action = "more-formal"
	MoreCasual Action = "more-casual"
	Chat       Action = "chat"
)

var instructions = map[Action]string{
	Improve:    "Improve the following text. Fix grammar, clarity and flow while preserving its meaning and language.",
	Summarize:  "Summarize the following text into its essential points, in the same language as the original.",
	Expand:     "Expand the following text with more detail and supporting points, keeping the original tone and language.",
	Paraphrase: "Rewrite the following text with different wording but identical meaning, in the same language.",
	MoreFormal: "Rewrite the following text in a more formal, professional register, in the same language.",
	MoreCasual: "Rewrite the following text in a more casual, conversational register, in the same language.",
}

// ToolActions lists the rewrite operations in toolbar order.
func ToolActions() []Action {
	return []Action{Improve, Summarize, Expand, Paraphrase, MoreFormal, MoreCasual}
}

// IsTool reports whether a is one of the rewrite operations (as opposed to
// chat).
func IsTool(a Action) bool {
	_, ok := instructions[a]
	return ok
}

// Instruction returns the system instruction for a rewrite action.
func Instruction(a Action) (string, error) {
	instr, ok := instructions[a]
	if !ok {
		return "", fmt.Errorf("unknown action %q", a)
	}
	return instr, nil
}

// Build assembles the full user prompt for a rewrite action: the templated
// instruction, the text to rewrite, and the optional product/context text.
func Build(a Action, text, contextText string) (string, error) {
	instr, err := Instruction(a)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(instr)
	if contextText != "" {
		b.WriteString("\n\nContext about the product or page:\n")
		b.WriteString(contextText)
	}
	b.WriteString("\n\nText:\n")
	b.WriteString(text)
	return b.String(), nil
}
