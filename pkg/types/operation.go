// Operation history entities for the bulk-linking undo ledger.
package types

import "time"

// Operation kinds recorded in the history ledger.
const (
	OperationCreate = "create"
	OperationDelete = "delete"
	OperationUndo   = "undo"
)

// Operation statuses.
const (
	StatusPending = "pending"
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusUndone  = "undone"
)

// Operation is one completed bulk-linking operation as recorded in the
// history ledger. Entries are persisted newest first and capped; the only
// mutation after creation is flipping Status to "undone".
type Operation struct {
	ID        string           `json:"id"`
	Type      string           `json:"type"`
	Timestamp time.Time        `json:"timestamp"`
	Status    string           `json:"status"`
	Details   OperationDetails `json:"details"`

	// CanUndo is true while the operation may still be reversed. It turns
	// false once UndoExpiry has passed or the operation is undone.
	CanUndo    bool      `json:"can_undo"`
	UndoExpiry time.Time `json:"undo_expiry"`

	// ErrorInfo carries the first classified error of a failed operation.
	ErrorInfo *EnhancedError `json:"error_info,omitempty"`
}

// OperationDetails summarizes what an operation touched. LinksCreated is
// negative on undo entries to indicate removal.
type OperationDetails struct {
	PoiCount       int      `json:"poi_count"`
	ItemCount      int      `json:"item_count"`
	SchematicCount int      `json:"schematic_count"`
	LinksCreated   int      `json:"links_created"`
	LinkIDs        []string `json:"link_ids"`
	LinkType       string   `json:"link_type"`
}

// Error taxonomy for classified failures.
type ErrorType string

const (
	ErrorNetwork        ErrorType = "network"
	ErrorDatabase       ErrorType = "database"
	ErrorAuthentication ErrorType = "authentication"
	ErrorValidation     ErrorType = "validation"
	ErrorRateLimit      ErrorType = "rate_limit"
	ErrorUnknown        ErrorType = "unknown"
)

// ErrorSeverity grades a classified failure.
type ErrorSeverity string

const (
	SeverityLow      ErrorSeverity = "low"
	SeverityMedium   ErrorSeverity = "medium"
	SeverityHigh     ErrorSeverity = "high"
	SeverityCritical ErrorSeverity = "critical"
)

// EnhancedError is a classified failure: machine-readable type and severity
// plus user-facing guidance. Immutable once produced.
type EnhancedError struct {
	Type             ErrorType     `json:"type"`
	Severity         ErrorSeverity `json:"severity"`
	Message          string        `json:"message"`
	UserMessage      string        `json:"user_message"`
	SuggestedAction  string        `json:"suggested_action"`
	Retryable        bool          `json:"retryable"`
	TechnicalDetails string        `json:"technical_details,omitempty"`
	ErrorCode        string        `json:"error_code,omitempty"`
}

// Error implements the error interface.
func (e *EnhancedError) Error() string {
	return e.Message
}

// RetryAttempt records one automatic retry of a bulk operation: when it ran,
// what failure triggered it, and how long the orchestrator waited first.
type RetryAttempt struct {
	Attempt   int            `json:"attempt"`
	Timestamp time.Time      `json:"timestamp"`
	Success   bool           `json:"success"`
	Error     *EnhancedError `json:"error,omitempty"`
	Delay     time.Duration  `json:"delay"`
}
