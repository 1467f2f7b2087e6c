package datastore

import "time"

// Analysis is one persisted analysis outcome.
type Analysis struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
	AudioHash      string    `gorm:"size:80;index" json:"audio_hash"`
	Status         string    `gorm:"size:16;index" json:"status"`
	RiskLevel      string    `gorm:"size:16" json:"risk_level"`
	Confidence     float64   `json:"confidence"`
	Classification string    `gorm:"size:32" json:"classification"`
	Duration       float64   `json:"duration"`
	Robustness     bool      `json:"robustness"`
	Degraded       bool      `json:"degraded"`
	Language       string    `gorm:"size:32" json:"language"`
}
