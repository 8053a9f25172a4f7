package parser

import (
	"strconv"
	"strings"
)

// fallbackRule pairs a keyword predicate with an action template. Rules are
// evaluated top to bottom, first match wins.
type fallbackRule struct {
	keywords []string
	build    func(input string) (Action, string)
}

const fallbackGreeting = "Hello! I'm a bot ready to help."

var fallbackRules = []fallbackRule{
	{
		// Collecting before movement: "pick up" phrasing also contains
		// direction-looking substrings.
		keywords: []string{"collect", "gather", "pick up", "拾", "集め"},
		build: func(input string) (Action, string) {
			amount := leadingInt(input)
			if amount <= 0 {
				amount = 1
			}
			return Action{
				Kind:   KindCollect,
				Params: map[string]any{"item": "any", "amount": amount},
			}, "interpreted as collecting nearby items"
		},
	},
	{
		keywords: []string{"mine", "dig", "掘", "採掘"},
		build: func(input string) (Action, string) {
			return Action{
				Kind:   KindMine,
				Params: map[string]any{"block": "any"},
			}, "interpreted as mining the nearest block"
		},
	},
	{
		keywords: []string{"walk", "move", "step", "歩", "進", "移動"},
		build: func(input string) (Action, string) {
			dist := float64(leadingInt(input))
			if dist <= 0 {
				dist = 1
			}
			delta := DirectionVector(input).Scale(dist)
			return Action{
				Kind:   KindMoveRelative,
				Params: map[string]any{"x": delta.X, "y": delta.Y, "z": delta.Z},
			}, "interpreted as a relative move"
		},
	},
	{
		keywords: []string{"hello", "greet", "chat", "挨拶", "こんにちは"},
		build: func(input string) (Action, string) {
			return Action{
				Kind:   KindChat,
				Params: map[string]any{"message": fallbackGreeting},
			}, "interpreted as a greeting"
		},
	},
}

// FallbackPlan is the local substitute used when the language model is
// unreachable or returns garbage. Total: always yields a structurally valid
// plan, possibly with zero actions and an explanatory reasoning string.
func FallbackPlan(instruction string) *Plan {
	lower := strings.ToLower(instruction)
	for _, rule := range fallbackRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				action, note := rule.build(lower)
				return &Plan{
					Actions:   []Action{action},
					Reasoning: "fallback parser: " + note,
				}
			}
		}
	}
	return &Plan{
		Reasoning: "fallback parser: could not understand the instruction",
	}
}

// leadingInt extracts the first run of ASCII digits, or 0 when none exists.
func leadingInt(s string) int {
	start := -1
	for i, r := range s {
		if r >= '0' && r <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			n, _ := strconv.Atoi(s[start:i])
			return n
		}
	}
	if start >= 0 {
		n, _ := strconv.Atoi(s[start:])
		return n
	}
	return 0
}
