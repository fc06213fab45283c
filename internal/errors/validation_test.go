package errors

import (
	"fmt"
	"testing"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("questions[0].options", "must not be empty", nil)

	if err.Field != "questions[0].options" {
		t.Errorf("Expected field to be 'questions[0].options', got '%s'", err.Field)
	}

	expected := "validation error on field 'questions[0].options': must not be empty"
	if err.Error() != expected {
		t.Errorf("Expected error message to be '%s', got '%s'", expected, err.Error())
	}
}

func TestValidationErrors(t *testing.T) {
	var errs ValidationErrors
	if errs.Error() != "validation failed" {
		t.Errorf("Expected 'validation failed' for empty errors, got '%s'", errs.Error())
	}
	if errs.OrNil() != nil {
		t.Errorf("Expected nil from OrNil on empty errors")
	}

	errs = errs.Add("keywords", "must not be empty", nil)
	expected := "validation failed: keywords must not be empty"
	if errs.Error() != expected {
		t.Errorf("Expected '%s' for single error, got '%s'", expected, errs.Error())
	}

	errs = errs.Add("open_at", "must be before close_at", nil)
	expected = "validation failed: 2 field errors"
	if errs.Error() != expected {
		t.Errorf("Expected '%s' for multiple errors, got '%s'", expected, errs.Error())
	}
}

func TestNewValidationErrorWithRule(t *testing.T) {
	err := NewValidationErrorWithRule("kind", "is required", "required", "")

	if err.Rule != "required" {
		t.Errorf("Expected rule to be 'required', got '%s'", err.Rule)
	}
}

func TestIsValidationError(t *testing.T) {
	wrapped := fmt.Errorf("open session: %w", ValidationErrors{}.Add("questions", "must not be empty", nil))
	if !IsValidationError(wrapped) {
		t.Errorf("Expected wrapped ValidationErrors to be detected")
	}
	if !IsValidationError(NewValidationError("x", "y", nil)) {
		t.Errorf("Expected *ValidationError to be detected")
	}
	if IsValidationError(fmt.Errorf("boom")) {
		t.Errorf("Expected plain error not to be a validation error")
	}
}
