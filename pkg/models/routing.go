package models

// RoutingDecision is the outcome of one routing call. It is never persisted
// by the router itself; recording usage is the caller's responsibility.
type RoutingDecision struct {
	Model         Model   `json:"model"`
	Tier          Tier    `json:"tier"`
	Score         float64 `json:"complexity_score"`
	InputTokens   int     `json:"input_tokens"`
	OutputTokens  int     `json:"output_tokens"`
	EstimatedCost float64 `json:"estimated_cost"`
	Reason        string  `json:"reason"`
}
