package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"blockmate/internal/llm"
	"blockmate/internal/logger"
	"blockmate/internal/world"
)

const defaultParseTimeout = 20 * time.Second

// Planner turns free text into a Plan via a strict-JSON language-model call.
// Any remote failure degrades to the local fallback parser, so Parse never
// reports an error and never returns nil.
type Planner struct {
	provider llm.Provider
	timeout  time.Duration
}

func NewPlanner(provider llm.Provider, timeout time.Duration) *Planner {
	if timeout <= 0 {
		timeout = defaultParseTimeout
	}
	return &Planner{provider: provider, timeout: timeout}
}

// Main prompt for turning one instruction into a task list.
func buildPlanPrompt(instruction string, state *world.GameState) string {
	var sb strings.Builder

	sb.WriteString("You are a Minecraft bot controller. Convert the player's instruction into a STRICT JSON task list.\n")
	sb.WriteString("Respond ONLY with JSON. No extra text.\n\n")

	sb.WriteString("OUTPUT JSON SCHEMA:\n")
	sb.WriteString("{\"reasoning\": \"<short explanation>\", \"tasks\": [{\"type\": \"<string>\", \"target\": \"<string>\", \"message\": \"<string>\", \"details\": \"<string>\", \"amount\": <int>, \"x\": <number>, \"y\": <number>, \"z\": <number>}]}\n\n")

	sb.WriteString("AVAILABLE TASK TYPES:\n")
	sb.WriteString("- `move`: walk to absolute coordinates. Needs `x`, `z` (and `y` if known).\n")
	sb.WriteString("- `move_relative`: walk relative to the current position. Needs `amount` (distance in blocks) and `details` (direction words like forward/back/left/right/up/down).\n")
	sb.WriteString("- `mine`: break the nearest block of a kind. Needs `target` (block name).\n")
	sb.WriteString("- `collect`: pick up dropped items. Needs `target` (item name) and `amount`.\n")
	sb.WriteString("- `chat`: say something in game chat. Needs `message`.\n")
	sb.WriteString("- `place`: place a block. Needs `target` (block name).\n")
	sb.WriteString("- `craft`: craft an item. Needs `target` (item name).\n\n")

	sb.WriteString("RULES:\n")
	sb.WriteString("1) Tasks run SEQUENTIALLY, in order.\n")
	sb.WriteString("2) Keep the list SHORT: only what the instruction asks for.\n")
	sb.WriteString("3) Omit unknown numeric fields instead of inventing them.\n")
	sb.WriteString("4) The instruction may be English or Japanese.\n\n")

	if state != nil {
		sb.WriteString("CURRENT GAME STATE:\n")
		sb.WriteString(formatStateDigest(state))
		sb.WriteString("\n")
	}

	sb.WriteString("Generate the task list now for this instruction:\n")
	sb.WriteString(fmt.Sprintf("Player: \"%s\"\n", instruction))
	sb.WriteString("Assistant: ")
	return sb.String()
}

// formatStateDigest summarizes the snapshot compactly enough for a prompt.
func formatStateDigest(state *world.GameState) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("- position: (%.0f, %.0f, %.0f)\n",
		state.Position.X, state.Position.Y, state.Position.Z))
	sb.WriteString(fmt.Sprintf("- health: %d/20, food: %d/20\n", state.Health, state.Food))
	sb.WriteString(fmt.Sprintf("- time: %d, weather: %s\n", state.TimeOfDay, state.Weather))

	if len(state.Inventory) > 0 {
		items := make([]string, 0, len(state.Inventory))
		for _, it := range state.Inventory {
			items = append(items, fmt.Sprintf("%s x%d", it.Item, it.Count))
		}
		sb.WriteString("- inventory: " + strings.Join(items, ", ") + "\n")
	}
	if len(state.NearbyBlocks) > 0 {
		names := make([]string, 0, len(state.NearbyBlocks))
		for _, b := range state.NearbyBlocks {
			names = append(names, b.Name)
		}
		sb.WriteString("- nearby blocks: " + strings.Join(dedupe(names), ", ") + "\n")
	}
	if len(state.NearbyEntities) > 0 {
		names := make([]string, 0, len(state.NearbyEntities))
		for _, e := range state.NearbyEntities {
			names = append(names, e.Name)
		}
		sb.WriteString("- nearby entities: " + strings.Join(dedupe(names), ", ") + "\n")
	}
	return sb.String()
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := names[:0]
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

// Parse produces the plan for one instruction. The model's raw output is
// normalized by the validator; a remote failure or malformed response falls
// back to the local heuristic parser.
func (p *Planner) Parse(ctx context.Context, instruction string, state *world.GameState) *Plan {
	prompt := buildPlanPrompt(instruction, state)

	parseCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cleanJSON, err := p.provider.GenerateJSON(parseCtx, prompt)
	if err != nil {
		logger.Log.Printf("[parser] LLM call failed, using fallback: %v", err)
		return FallbackPlan(instruction)
	}

	var raw rawPlan
	if err := json.Unmarshal([]byte(cleanJSON), &raw); err != nil {
		logger.Log.Printf("[parser] malformed plan JSON, using fallback: %v\nRaw Response: %s", err, cleanJSON)
		return FallbackPlan(instruction)
	}

	return Normalize(&raw)
}

// Suggest asks the model for a single free-text next-step suggestion toward
// a goal. Advisory only; nothing is executed.
func (p *Planner) Suggest(ctx context.Context, goal string, state *world.GameState) (string, error) {
	var sb strings.Builder
	sb.WriteString("You are a Minecraft bot advisor. In ONE short sentence, suggest the single best next action toward the goal.\n\n")
	if state != nil {
		sb.WriteString("CURRENT GAME STATE:\n")
		sb.WriteString(formatStateDigest(state))
		sb.WriteString("\n")
	}
	sb.WriteString(fmt.Sprintf("Goal: \"%s\"\nSuggestion: ", goal))

	suggestCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	text, err := p.provider.Generate(suggestCtx, sb.String())
	if err != nil {
		return "", fmt.Errorf("suggestion failed: %w", err)
	}
	return strings.TrimSpace(text), nil
}
