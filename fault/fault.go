// Package fault defines the polymorphic error model for failed results and
// the discriminator catalog that maps wire tags to concrete fault types.
//
// Every fault carries a stable machine-readable code and an optional
// diagnostic message. Concrete fault types add their own fields; the codec
// layer writes a $type discriminator so the exact type survives a
// round-trip through JSON.
package fault

// Fault is the error supertype carried by failed results.
type Fault interface {
	// FaultCode returns the stable machine-readable code, e.g. "validation.failed".
	FaultCode() string
	// FaultMessage returns the optional human-readable message. Empty means absent.
	FaultMessage() string
}

// Base is the common code/message pair. Concrete fault types embed it first
// so code and message lead their JSON encoding.
type Base struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

func (b Base) FaultCode() string    { return b.Code }
func (b Base) FaultMessage() string { return b.Message }

// Severity classifies a validation issue.
type Severity int

const (
	SeverityError   Severity = 0
	SeverityWarning Severity = 1
	SeverityInfo    Severity = 2
)

// Issue is a single validation finding.
type Issue struct {
	Identifier string   `json:"identifier"`
	Message    string   `json:"message"`
	Severity   Severity `json:"severity"`
}

// ValidationFailure is the built-in fault for failed input validation.
// It is registered in every catalog under the tag "ValidationFailure".
type ValidationFailure struct {
	Base
	Issues []Issue `json:"issues"`
}

// NewValidationFailure builds a validation fault with the fixed code and
// message the wire contract requires.
func NewValidationFailure(issues ...Issue) *ValidationFailure {
	return &ValidationFailure{
		Base:   Base{Code: "validation.failed", Message: "Validation failed."},
		Issues: issues,
	}
}

// ValidationTag is the wire discriminator for ValidationFailure.
const ValidationTag = "ValidationFailure"
