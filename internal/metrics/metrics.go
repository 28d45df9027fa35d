package metrics

import "time"

type NodeMetrics struct {
	Node       string    `json:"node"`
	Worker     string    `json:"worker,omitempty"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	DurationMs int64     `json:"duration_ms"`
	Err        string    `json:"err,omitempty"`
}

type TurnMetrics struct {
	Turn       int           `json:"turn"`
	Start      time.Time     `json:"start"`
	End        time.Time     `json:"end"`
	DurationMs int64         `json:"duration_ms"`
	Nodes      []NodeMetrics `json:"nodes"`
}

type ConversationMetrics struct {
	ConversationID string        `json:"conversation_id"`
	Start          time.Time     `json:"start"`
	End            time.Time     `json:"end"`
	DurationMs     int64         `json:"duration_ms"`
	Succeeded      bool          `json:"succeeded"`
	Turns          []TurnMetrics `json:"turns"`
}

// Compute derived fields for a turn.
func (t *TurnMetrics) Finalize() {
	t.DurationMs = t.End.Sub(t.Start).Milliseconds()
}

func (c *ConversationMetrics) Finalize() {
	c.End = time.Now()
	c.DurationMs = c.End.Sub(c.Start).Milliseconds()
}
