package world

import jsoniter "github.com/json-iterator/go"

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// Bridge operations. The bridge owns pathfinding, block search and the game
// wire protocol; this side only names the capability it wants.
const (
	OpState      = "state"
	OpMoveTo     = "move_to"
	OpBreakBlock = "break_block"
	OpGather     = "gather"
	OpChat       = "chat"
	OpClearGoal  = "clear_goal"
)

// HelloMsg opens the session (client -> bridge).
type HelloMsg struct {
	Type            string `json:"type"` // "hello"
	Username        string `json:"username"`
	ProtocolVersion string `json:"protocol_version"`
}

// WelcomeMsg acknowledges the session (bridge -> client).
type WelcomeMsg struct {
	Type            string `json:"type"` // "welcome"
	ProtocolVersion string `json:"protocol_version"`
	AgentID         string `json:"agent_id"`
}

// RequestMsg is one capability invocation (client -> bridge).
type RequestMsg struct {
	Type   string         `json:"type"` // "request"
	ID     string         `json:"id"`
	Op     string         `json:"op"`
	Params map[string]any `json:"params,omitempty"`
}

// ResponseMsg answers one request (bridge -> client). Exactly one response
// per request ID; Ok reports whether the capability achieved its goal within
// the bridge's own internal timeout.
type ResponseMsg struct {
	Type    string     `json:"type"` // "response"
	ID      string     `json:"id"`
	Ok      bool       `json:"ok"`
	Error   string     `json:"error,omitempty"`
	State   *GameState `json:"state,omitempty"`
	Count   int        `json:"count,omitempty"`
	Message string     `json:"message,omitempty"`
}

// envelope is used to sniff the frame type before full decoding.
type envelope struct {
	Type string `json:"type"`
}
