package parser

// Kind names one capability of the bot control layer.
type Kind string

const (
	KindMove         Kind = "move"
	KindMoveRelative Kind = "move_relative"
	KindMine         Kind = "mine"
	KindCollect      Kind = "collect"
	KindChat         Kind = "chat"
	KindPlace        Kind = "place"
	KindCraft        Kind = "craft"
)

// Action is one atomic instruction for the world agent. Immutable once
// constructed; parameters are kind-specific and validated at dispatch.
type Action struct {
	Kind   Kind           `json:"kind"`
	Params map[string]any `json:"params"`
}

// Plan is the ordered action sequence produced from one user instruction,
// plus the model's (or the fallback's) explanation. Consumed linearly.
type Plan struct {
	Actions   []Action `json:"actions"`
	Reasoning string   `json:"reasoning"`
}

// rawPlan mirrors the strict-JSON shape the model is asked for: a list of
// typed intermediate tasks that the validator maps to canonical actions.
type rawPlan struct {
	Tasks     []rawTask `json:"tasks"`
	Reasoning string    `json:"reasoning"`
}

type rawTask struct {
	Type    string   `json:"type"`
	Target  string   `json:"target,omitempty"`
	Message string   `json:"message,omitempty"`
	Details string   `json:"details,omitempty"`
	Amount  int      `json:"amount,omitempty"`
	X       *float64 `json:"x,omitempty"`
	Y       *float64 `json:"y,omitempty"`
	Z       *float64 `json:"z,omitempty"`
}
