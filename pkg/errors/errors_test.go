package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"plain", New(ErrCodeValidation, "missing %s", "spread"), "VALIDATION: missing spread"},
		{"wrapped", Wrap(ErrCodeInternal, errors.New("disk full"), "save garden"), "INTERNAL_ERROR: save garden: disk full"},
		{"overlap", Overlap([]string{"a", "b"}), "OVERLAP: Overlap!: overlaps 2 plant(s)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrCodeInternal, cause, "load garden for %s", "u1")

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false")
	}
	if err.Message != "load garden for u1" {
		t.Errorf("Message = %q", err.Message)
	}
	if New(ErrCodeNotFound, "x").Unwrap() != nil {
		t.Error("New should have no cause")
	}
}

func TestCodeLookup(t *testing.T) {
	inner := New(ErrCodeNotFound, "no garden")
	tests := []struct {
		name    string
		err     error
		code    Code
		message string
	}{
		{"direct", New(ErrCodeMissingSelection, "nothing selected"), ErrCodeMissingSelection, "nothing selected"},
		{"fmt wrapped", fmt.Errorf("place: %w", Overlap(nil)), ErrCodeOverlap, "Overlap!"},
		{"outermost wins", Wrap(ErrCodeInternal, inner, "load"), ErrCodeInternal, "load"},
		{"uncoded", errors.New("plain"), "", "plain"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.code {
				t.Errorf("GetCode() = %q, want %q", got, tt.code)
			}
			if tt.code != "" && !Is(tt.err, tt.code) {
				t.Errorf("Is(err, %q) = false", tt.code)
			}
			if got := UserMessage(tt.err); got != tt.message {
				t.Errorf("UserMessage() = %q, want %q", got, tt.message)
			}
		})
	}

	if Is(nil, ErrCodeOverlap) || GetCode(nil) != "" {
		t.Error("nil error should have no code")
	}
}

func TestCodeClasses(t *testing.T) {
	tests := []struct {
		code        Code
		recoverable bool
		silent      bool
	}{
		{ErrCodeOverlap, true, false},
		{ErrCodeValidation, true, false},
		{ErrCodeMissingSelection, true, true},
		{ErrCodeNotFound, false, false},
		{ErrCodeInternal, false, false},
		{"", false, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := tt.code.Recoverable(); got != tt.recoverable {
				t.Errorf("Recoverable() = %v, want %v", got, tt.recoverable)
			}
			if got := tt.code.Silent(); got != tt.silent {
				t.Errorf("Silent() = %v, want %v", got, tt.silent)
			}
		})
	}

	if !Silent(fmt.Errorf("click: %w", New(ErrCodeMissingSelection, "idle"))) {
		t.Error("Silent should see through wrapping")
	}
}

func TestOverlapConflicts(t *testing.T) {
	err := error(Overlap([]string{"p1", "p2"}))

	var oe *OverlapError
	if !errors.As(err, &oe) {
		t.Fatal("Overlap should unwrap to *OverlapError")
	}
	if oe.Code() != ErrCodeOverlap {
		t.Errorf("Code() = %q", oe.Code())
	}
	if got := Conflicts(err); len(got) != 2 || got[0] != "p1" || got[1] != "p2" {
		t.Errorf("Conflicts() = %v, want [p1 p2]", got)
	}
	if Conflicts(errors.New("plain")) != nil {
		t.Error("Conflicts of a plain error should be nil")
	}
}
