package logging

// Field names shared by all log output so entries can be filtered consistently.
const (
	FieldUserID        = "user_id"
	FieldFile          = "file_path"
	FieldProfile       = "profile"
	FieldRow           = "row"
	FieldColumn        = "column"
	FieldDelimiter     = "delimiter"
	FieldTransactionID = "transaction_id"
	FieldRuleID        = "rule_id"
	FieldPattern       = "pattern"
	FieldCategory      = "category"
	FieldConfidence    = "confidence"
	FieldBudgetID      = "budget_id"
	FieldMonth         = "month"
	FieldDegraded      = "degraded"
	FieldOperation     = "operation"
	FieldCount         = "count"
	FieldDuration      = "duration_ms"
)
