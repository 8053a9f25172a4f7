package parser

import (
	"strings"

	"blockmate/internal/logger"
	"blockmate/internal/world"
)

// surfaceY is the default height when the model omits the Y coordinate.
const surfaceY = 64.0

// directionTable maps free-form movement phrasing to unit vectors. Matching
// is a case-insensitive substring check over a small bilingual vocabulary,
// evaluated top to bottom with forward as the default when nothing matches.
var directionTable = []struct {
	keywords []string
	vec      world.Vec3
}{
	{[]string{"back", "behind", "後ろ", "うしろ", "backward"}, world.Vec3{X: -1}},
	{[]string{"left", "左", "ひだり"}, world.Vec3{Z: -1}},
	{[]string{"right", "右", "みぎ"}, world.Vec3{Z: 1}},
	{[]string{"up", "上", "うえ"}, world.Vec3{Y: 1}},
	{[]string{"down", "下", "した"}, world.Vec3{Y: -1}},
	{[]string{"forward", "front", "前", "まえ"}, world.Vec3{X: 1}},
}

// DirectionVector resolves a phrase to a unit direction, defaulting forward.
func DirectionVector(details string) world.Vec3 {
	s := strings.ToLower(details)
	for _, d := range directionTable {
		for _, kw := range d.keywords {
			if strings.Contains(s, kw) {
				return d.vec
			}
		}
	}
	return world.Vec3{X: 1}
}

// Normalize maps the model's intermediate tasks onto canonical actions,
// applying defaults and dropping anything unrecognizable. Never fails: a
// malformed task costs one warning, not the whole plan.
func Normalize(raw *rawPlan) *Plan {
	plan := &Plan{Reasoning: raw.Reasoning}

	for _, task := range raw.Tasks {
		switch strings.ToLower(strings.TrimSpace(task.Type)) {
		case "move", "goto", "go_to":
			params := map[string]any{"y": surfaceY}
			if task.X != nil {
				params["x"] = *task.X
			}
			if task.Y != nil {
				params["y"] = *task.Y
			}
			if task.Z != nil {
				params["z"] = *task.Z
			}
			plan.Actions = append(plan.Actions, Action{Kind: KindMove, Params: params})

		case "move_relative", "walk", "step":
			dist := float64(task.Amount)
			if dist <= 0 {
				dist = 1
			}
			dir := DirectionVector(task.Details + " " + task.Target)
			delta := dir.Scale(dist)
			plan.Actions = append(plan.Actions, Action{
				Kind:   KindMoveRelative,
				Params: map[string]any{"x": delta.X, "y": delta.Y, "z": delta.Z},
			})

		case "mine", "dig", "break":
			plan.Actions = append(plan.Actions, Action{
				Kind:   KindMine,
				Params: map[string]any{"block": strings.TrimSpace(task.Target)},
			})

		case "collect", "gather", "pickup":
			amount := task.Amount
			if amount <= 0 {
				amount = 1
			}
			plan.Actions = append(plan.Actions, Action{
				Kind:   KindCollect,
				Params: map[string]any{"item": strings.TrimSpace(task.Target), "amount": amount},
			})

		case "chat", "say":
			msg := task.Message
			if msg == "" {
				msg = task.Details
			}
			plan.Actions = append(plan.Actions, Action{
				Kind:   KindChat,
				Params: map[string]any{"message": msg},
			})

		case "place":
			plan.Actions = append(plan.Actions, Action{
				Kind:   KindPlace,
				Params: map[string]any{"block": strings.TrimSpace(task.Target)},
			})

		case "craft":
			plan.Actions = append(plan.Actions, Action{
				Kind:   KindCraft,
				Params: map[string]any{"item": strings.TrimSpace(task.Target)},
			})

		default:
			logger.Log.Printf("[parser] dropping unrecognized task type %q", task.Type)
		}
	}
	return plan
}
