package donation

import (
	"errors"
	"fmt"

	"github.com/doemais/marketplace/pkg/domain"
)

// ValidationError reports malformed or missing required input. No record is
// created when it is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid donation request: %s %s", e.Field, e.Reason)
}

// Is makes ValidationError match domain.ErrValidation with errors.Is.
func (e *ValidationError) Is(target error) bool {
	return errors.Is(target, domain.ErrValidation)
}

// PolicyViolation reports input that is well-formed but outside configured
// policy, such as an amount below the minimum or an unsupported frequency.
type PolicyViolation struct {
	Reason string
}

func (e *PolicyViolation) Error() string {
	return fmt.Sprintf("donation policy violation: %s", e.Reason)
}

// ErrInvalidTransition is returned when a status change is not permitted by
// the lifecycle state machine.
var ErrInvalidTransition = errors.New("invalid donation status transition")
