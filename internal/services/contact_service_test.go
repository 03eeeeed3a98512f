package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestContactService(t *testing.T) ContactService {
	t.Helper()
	svc, err := NewContactService(ContactServiceDeps{
		Clock:       func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
		IDGenerator: func() string { return "receipt-1" },
	})
	if err != nil {
		t.Fatalf("NewContactService returned error: %v", err)
	}
	return svc
}

func TestContactSubmit(t *testing.T) {
	svc := newTestContactService(t)

	receipt, err := svc.Submit(context.Background(), ContactSubmission{
		Name:    "Rita",
		Email:   "rita@example.com",
		Phone:   "71 234 567",
		Message: "Do you take group reservations?",
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if receipt.ID != "receipt-1" {
		t.Errorf("unexpected receipt id %q", receipt.ID)
	}
	if receipt.ReceivedAt.IsZero() {
		t.Error("expected received timestamp")
	}
}

func TestContactSubmitValidation(t *testing.T) {
	svc := newTestContactService(t)
	ctx := context.Background()

	cases := []struct {
		name       string
		submission ContactSubmission
	}{
		{"missing name", ContactSubmission{Email: "a@example.com", Message: "hi"}},
		{"invalid email", ContactSubmission{Name: "A", Email: "not-an-email", Message: "hi"}},
		{"missing message", ContactSubmission{Name: "A", Email: "a@example.com"}},
		{"short phone", ContactSubmission{Name: "A", Email: "a@example.com", Phone: "71 23", Message: "hi"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Submit(ctx, tc.submission); !errors.Is(err, ErrContactInvalidInput) {
				t.Fatalf("expected ErrContactInvalidInput, got %v", err)
			}
		})
	}
}

func TestContactSubmitStripsMarkup(t *testing.T) {
	svc := newTestContactService(t)

	// Markup-only name sanitises to empty and fails validation.
	_, err := svc.Submit(context.Background(), ContactSubmission{
		Name:    "<script>alert(1)</script>",
		Email:   "a@example.com",
		Message: "hello",
	})
	if !errors.Is(err, ErrContactInvalidInput) {
		t.Fatalf("expected ErrContactInvalidInput, got %v", err)
	}
}

func TestContactSubmitHonoursContext(t *testing.T) {
	svc, err := NewContactService(ContactServiceDeps{
		SubmitDelay: time.Second,
		Clock:       time.Now,
	})
	if err != nil {
		t.Fatalf("NewContactService returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = svc.Submit(ctx, ContactSubmission{
		Name:    "Rita",
		Email:   "rita@example.com",
		Message: "hello",
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context deadline error, got %v", err)
	}
}

func TestFormatPhone(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"plain digits", "71234567", "+961 71 234 567", false},
		{"already spaced", "71 234 567", "+961 71 234 567", false},
		{"with prefix", "+961 71 234 567", "+961 71 234 567", false},
		{"punctuation stripped", "(71) 234-567", "+961 71 234 567", false},
		{"extra digits ignored", "712345678901", "+961 71 234 567", false},
		{"empty stays empty", "   ", "", false},
		{"too short", "7123", "", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := FormatPhone(tc.in)
			if tc.wantErr {
				if !errors.Is(err, ErrContactInvalidInput) {
					t.Fatalf("expected ErrContactInvalidInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("FormatPhone returned error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
