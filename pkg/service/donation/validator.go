package donation

import (
	"strings"

	"github.com/doemais/marketplace/pkg/config"
	donationdomain "github.com/doemais/marketplace/pkg/domain/donation"
	"github.com/doemais/marketplace/pkg/dto"
	"github.com/doemais/marketplace/pkg/money"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// Draft is a validated, normalized donation request ready for persistence.
type Draft struct {
	OrganizationID uuid.UUID
	Amount         money.Money
	Type           donationdomain.Type
	Frequency      donationdomain.Frequency
	DonorName      string
	DonorEmail     string
	DonorPhone     string
	DonorDocument  string
	Message        string
	IsAnonymous    bool
	Metadata       map[string]string
}

// RequestValidator checks raw donation-creation input against the configured
// policy bounds and produces a normalized draft. Pure over its input; no side
// effects.
type RequestValidator struct {
	min          money.Money
	max          money.Money
	recurringMin money.Money
}

// NewRequestValidator creates a validator with the configured amount bounds.
func NewRequestValidator(cfg *config.Donation) (*RequestValidator, error) {
	min, err := money.New(cfg.MinAmount)
	if err != nil {
		return nil, err
	}
	max, err := money.New(cfg.MaxAmount)
	if err != nil {
		return nil, err
	}
	recurringMin, err := money.New(cfg.RecurringMinAmount)
	if err != nil {
		return nil, err
	}
	return &RequestValidator{min: min, max: max, recurringMin: recurringMin}, nil
}

// ValidateRecurringAmount checks a raw recurring billing amount against the
// same policy bounds applied at creation.
func (v *RequestValidator) ValidateRecurringAmount(raw float64) (money.Money, error) {
	amount, err := money.New(raw)
	if err != nil {
		return money.Money{}, &donationdomain.ValidationError{Field: "amount", Reason: err.Error()}
	}
	if !amount.IsPositive() {
		return money.Money{}, &donationdomain.ValidationError{Field: "amount", Reason: "must be positive"}
	}
	if amount.LessThan(v.recurringMin) {
		return money.Money{}, &donationdomain.PolicyViolation{
			Reason: "recurring amount is below the minimum of " + v.recurringMin.String(),
		}
	}
	if amount.GreaterThan(v.max) {
		return money.Money{}, &donationdomain.PolicyViolation{
			Reason: "amount is above the maximum of " + v.max.String(),
		}
	}
	return amount, nil
}

// Validate checks the raw request for the given donation type and returns a
// normalized draft, a ValidationError, or a PolicyViolation.
func (v *RequestValidator) Validate(
	req *dto.DonationCreate,
	donationType donationdomain.Type,
) (*Draft, error) {
	orgRef := strings.TrimSpace(req.OrganizationID)
	if orgRef == "" {
		return nil, &donationdomain.ValidationError{Field: "organizationId", Reason: "is required"}
	}
	orgID, err := uuid.Parse(orgRef)
	if err != nil {
		return nil, &donationdomain.ValidationError{Field: "organizationId", Reason: "is not a valid id"}
	}

	donorName := strings.TrimSpace(req.DonorName)
	if donorName == "" {
		return nil, &donationdomain.ValidationError{Field: "donorName", Reason: "is required"}
	}

	donorEmail := strings.ToLower(strings.TrimSpace(req.DonorEmail))
	if donorEmail == "" {
		return nil, &donationdomain.ValidationError{Field: "donorEmail", Reason: "is required"}
	}
	if err := validate.Var(donorEmail, "email"); err != nil {
		return nil, &donationdomain.ValidationError{Field: "donorEmail", Reason: "is not a valid address"}
	}

	if req.Amount == 0 {
		return nil, &donationdomain.ValidationError{Field: "amount", Reason: "is required"}
	}
	amount, err := money.New(req.Amount)
	if err != nil {
		return nil, &donationdomain.ValidationError{Field: "amount", Reason: err.Error()}
	}
	if amount.LessThan(v.min) {
		return nil, &donationdomain.PolicyViolation{
			Reason: "amount is below the minimum of " + v.min.String(),
		}
	}
	if amount.GreaterThan(v.max) {
		return nil, &donationdomain.PolicyViolation{
			Reason: "amount is above the maximum of " + v.max.String(),
		}
	}

	draft := &Draft{
		OrganizationID: orgID,
		Amount:         amount,
		Type:           donationType,
		DonorName:      donorName,
		DonorEmail:     donorEmail,
		DonorPhone:     strings.TrimSpace(req.DonorPhone),
		DonorDocument:  strings.TrimSpace(req.DonorDocument),
		Message:        strings.TrimSpace(req.Message),
		IsAnonymous:    req.IsAnonymous,
		Metadata:       req.Metadata,
	}

	if donationType == donationdomain.TypeRecurring {
		frequency := donationdomain.Frequency(strings.ToLower(strings.TrimSpace(req.Frequency)))
		if frequency == "" {
			return nil, &donationdomain.PolicyViolation{
				Reason: "frequency is required for recurring donations",
			}
		}
		if !frequency.IsValid() {
			return nil, &donationdomain.PolicyViolation{
				Reason: "frequency must be weekly, monthly or yearly",
			}
		}
		if amount.LessThan(v.recurringMin) {
			return nil, &donationdomain.PolicyViolation{
				Reason: "recurring amount is below the minimum of " + v.recurringMin.String(),
			}
		}
		draft.Frequency = frequency
	}

	return draft, nil
}
