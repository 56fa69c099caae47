// Package report renders budget status reports in machine readable formats.
package report

import (
	"encoding/json"
	"fmt"
	"time"

	"fjacquet/budget-csv/internal/dateutils"
	"fjacquet/budget-csv/internal/logging"
	"fjacquet/budget-csv/internal/models"

	"gopkg.in/yaml.v3"
)

// Supported report formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// BudgetReport is the serialized form of one month of budget statuses.
type BudgetReport struct {
	UserID      string       `json:"user_id" yaml:"user_id"`
	Month       string       `json:"month" yaml:"month"`
	GeneratedAt time.Time    `json:"generated_at" yaml:"generated_at"`
	Budgets     []BudgetLine `json:"budgets" yaml:"budgets"`
	TotalCents  int64        `json:"total_budget_cents" yaml:"total_budget_cents"`
	SpentCents  int64        `json:"total_spent_cents" yaml:"total_spent_cents"`
}

// BudgetLine is one category of a BudgetReport.
type BudgetLine struct {
	CategoryID     string  `json:"category_id" yaml:"category_id"`
	AmountCents    int64   `json:"amount_cents" yaml:"amount_cents"`
	SpentCents     int64   `json:"spent_cents" yaml:"spent_cents"`
	RemainingCents int64   `json:"remaining_cents" yaml:"remaining_cents"`
	PercentageUsed float64 `json:"percentage_used" yaml:"percentage_used"`
	OverBudget     bool    `json:"over_budget" yaml:"over_budget"`
	Degraded       bool    `json:"degraded,omitempty" yaml:"degraded,omitempty"`
}

// NewBudgetReport builds a report from aggregated statuses.
func NewBudgetReport(userID string, month time.Time, statuses []models.BudgetStatus, now time.Time) *BudgetReport {
	r := &BudgetReport{
		UserID:      userID,
		Month:       dateutils.MonthKey(month),
		GeneratedAt: now.UTC(),
		Budgets:     make([]BudgetLine, 0, len(statuses)),
	}
	for _, s := range statuses {
		r.Budgets = append(r.Budgets, BudgetLine{
			CategoryID:     s.CategoryID,
			AmountCents:    s.AmountCents,
			SpentCents:     s.SpentCents,
			RemainingCents: s.RemainingCents,
			PercentageUsed: s.PercentageUsed,
			OverBudget:     s.OverBudget(),
			Degraded:       s.Degraded != nil,
		})
		r.TotalCents += s.AmountCents
		r.SpentCents += s.SpentCents
	}
	return r
}

// ReportGenerator renders budget reports.
type ReportGenerator struct {
	logger logging.Logger
}

// NewReportGenerator creates a new instance of ReportGenerator.
func NewReportGenerator(logger logging.Logger) *ReportGenerator {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &ReportGenerator{logger: logger.WithField("component", "ReportGenerator")}
}

// GenerateReport renders report in the specified format (json or yaml).
func (g *ReportGenerator) GenerateReport(report *BudgetReport, format string) ([]byte, error) {
	switch format {
	case FormatJSON:
		return g.generateJSONReport(report)
	case FormatYAML:
		return g.generateYAMLReport(report)
	default:
		return nil, fmt.Errorf("unsupported report format: %s", format)
	}
}

func (g *ReportGenerator) generateJSONReport(report *BudgetReport) ([]byte, error) {
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		g.logger.WithError(err).Error("Failed to marshal JSON report")
		return nil, fmt.Errorf("failed to marshal JSON report: %w", err)
	}
	return append(out, '\n'), nil
}

func (g *ReportGenerator) generateYAMLReport(report *BudgetReport) ([]byte, error) {
	out, err := yaml.Marshal(report)
	if err != nil {
		g.logger.WithError(err).Error("Failed to marshal YAML report")
		return nil, fmt.Errorf("failed to marshal YAML report: %w", err)
	}
	return out, nil
}
