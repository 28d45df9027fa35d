package scheduler

import "overseer/internal/metrics"

type Result struct {
	ConversationID string                       `json:"conversation_id"`
	Goal           string                       `json:"goal"`
	FinalAnswer    string                       `json:"final_answer,omitempty"`
	PlanJSON       string                       `json:"plan_json,omitempty"`
	Error          string                       `json:"error,omitempty"`
	Metrics        *metrics.ConversationMetrics `json:"metrics,omitempty"`
}
