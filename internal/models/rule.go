package models

import "time"

// CategorizationRule maps a case-insensitive merchant substring to a category
// for one user, weighted by a 0-100 confidence.
type CategorizationRule struct {
	ID         string    `json:"id" yaml:"id"`
	UserID     string    `json:"user_id" yaml:"user_id"`
	Pattern    string    `json:"merchant_pattern" yaml:"merchant_pattern"`
	CategoryID string    `json:"category_id" yaml:"category_id"`
	Confidence float64   `json:"confidence" yaml:"confidence"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" yaml:"updated_at"`
}
