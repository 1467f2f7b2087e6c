package mqtt

import "time"

// VerdictMessage is the JSON payload published for each verdict.
type VerdictMessage struct {
	RequestID      string    `json:"request_id"`
	Status         string    `json:"status"`
	RiskLevel      string    `json:"risk_level"`
	Confidence     float64   `json:"confidence"`
	Classification string    `json:"classification"`
	Duration       float64   `json:"duration"`
	Language       string    `json:"language,omitempty"`
	Robustness     bool      `json:"robustness"`
	Explanation    []string  `json:"explanation"`
	Timestamp      time.Time `json:"timestamp"`
}
