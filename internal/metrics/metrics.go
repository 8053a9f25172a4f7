package metrics

import "time"

type ActionMetrics struct {
	Kind       string    `json:"kind"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	DurationMs int64     `json:"duration_ms"`
	Success    bool      `json:"success"`
	Err        string    `json:"err,omitempty"`
}

// CommandMetrics records one full pass through the pipeline: a single user
// instruction and the sequential dispatch of its plan.
type CommandMetrics struct {
	CommandID    string          `json:"command_id"`
	Input        string          `json:"input"`
	Start        time.Time       `json:"start"`
	End          time.Time       `json:"end"`
	DurationMs   int64           `json:"duration_ms"`
	Succeeded    bool            `json:"succeeded"`
	SuccessCount int             `json:"success_count"`
	Reason       string          `json:"reason,omitempty"`
	Actions      []ActionMetrics `json:"actions"`
}

// Finalize computes the derived fields once the command has finished.
func (c *CommandMetrics) Finalize() {
	c.End = time.Now()
	c.DurationMs = c.End.Sub(c.Start).Milliseconds()
	c.SuccessCount = 0
	for _, a := range c.Actions {
		if a.Success {
			c.SuccessCount++
		}
	}
	c.Succeeded = c.SuccessCount > 0
}
