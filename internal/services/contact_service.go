package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

var errContactClockRequired = errors.New("contact service: clock is required")

// ErrContactInvalidInput indicates the submission is missing required fields.
var ErrContactInvalidInput = errors.New("contact service: invalid input")

const (
	maxContactNameLength    = 120
	maxContactMessageLength = 4000

	phonePrefix     = "+961 "
	phoneDigitCount = 8
)

// ContactServiceDeps configure the contact form handler.
type ContactServiceDeps struct {
	// SubmitDelay simulates the upstream round trip while no mail backend
	// is attached.
	SubmitDelay time.Duration
	Clock       func() time.Time
	Logger      func(context.Context, string, map[string]any)
	IDGenerator func() string
}

type contactService struct {
	delay     time.Duration
	now       func() time.Time
	logger    func(context.Context, string, map[string]any)
	newID     func() string
	sanitizer *bluemonday.Policy
}

// NewContactService constructs a ContactService enforcing dependency validation.
func NewContactService(deps ContactServiceDeps) (ContactService, error) {
	if deps.Clock == nil {
		return nil, errContactClockRequired
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	newID := deps.IDGenerator
	if newID == nil {
		newID = func() string { return uuid.NewString() }
	}

	return &contactService{
		delay:     deps.SubmitDelay,
		now:       func() time.Time { return deps.Clock().UTC() },
		logger:    logger,
		newID:     newID,
		sanitizer: bluemonday.StrictPolicy(),
	}, nil
}

// Submit validates and records the contact form submission. Delivery is a
// stub: the submission is logged and acknowledged after the configured delay.
func (s *contactService) Submit(ctx context.Context, submission ContactSubmission) (ContactReceipt, error) {
	name := s.sanitizer.Sanitize(strings.TrimSpace(submission.Name))
	email := strings.TrimSpace(submission.Email)
	message := s.sanitizer.Sanitize(strings.TrimSpace(submission.Message))

	if name == "" || len(name) > maxContactNameLength {
		return ContactReceipt{}, fmt.Errorf("%w: name is required", ErrContactInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return ContactReceipt{}, fmt.Errorf("%w: invalid email address", ErrContactInvalidInput)
	}
	if message == "" || len(message) > maxContactMessageLength {
		return ContactReceipt{}, fmt.Errorf("%w: message is required", ErrContactInvalidInput)
	}

	phone, err := FormatPhone(submission.Phone)
	if err != nil {
		return ContactReceipt{}, err
	}

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return ContactReceipt{}, ctx.Err()
		}
	}

	receipt := ContactReceipt{
		ID:         s.newID(),
		ReceivedAt: s.now(),
	}

	s.logger(ctx, "contact.submission_received", map[string]any{
		"receiptID":     receipt.ID,
		"name":          name,
		"email":         email,
		"phone":         phone,
		"messageLength": len(message),
	})

	return receipt, nil
}

// FormatPhone normalises a Lebanese phone number to "+961 XX XXX XXX".
// Non-digits are dropped and at most eight digits are kept; an empty input
// stays empty since the phone field is optional.
func FormatPhone(raw string) (string, error) {
	digits := make([]rune, 0, phoneDigitCount)
	for _, r := range strings.TrimPrefix(strings.TrimSpace(raw), phonePrefix) {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
			if len(digits) == phoneDigitCount {
				break
			}
		}
	}
	if len(digits) == 0 {
		return "", nil
	}
	if len(digits) < phoneDigitCount {
		return "", fmt.Errorf("%w: phone requires %d digits", ErrContactInvalidInput, phoneDigitCount)
	}

	value := string(digits)
	return phonePrefix + value[:2] + " " + value[2:5] + " " + value[5:8], nil
}
