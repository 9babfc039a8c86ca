package logging

// Standardized field names for structured logging. Using the same keys
// everywhere keeps page-level diagnostics greppable across a job's output.
const (
	FieldPage     = "page"
	FieldProfile  = "profile"
	FieldRows     = "rows"
	FieldRule     = "rule"
	FieldReason   = "reason"
	FieldResult   = "result"
	FieldProvider = "provider"
	FieldModel    = "model"
	FieldPath     = "path"
	FieldCount    = "count"
	FieldDuration = "duration_ms"
	FieldError    = "error"
)
