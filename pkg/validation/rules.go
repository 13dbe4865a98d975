// Copyright (C) 2025 Joshua Goldstein

// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/SergeyMarcum/crm-app/pkg/api"
	"github.com/SergeyMarcum/crm-app/pkg/auth"
)

// DateLayout is the date format of every date field.
const DateLayout = "2006-01-02"

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validator provides validation methods
type Validator struct {
	errors []ValidationError
}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{
		errors: make([]ValidationError, 0),
	}
}

func (v *Validator) add(field, message string) *Validator {
	v.errors = append(v.errors, ValidationError{Field: field, Message: message})
	return v
}

// Required validates that a field is not empty
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.add(field, "is required")
	}
	return v
}

// MinLength validates minimum length in characters
func (v *Validator) MinLength(field, value string, min int) *Validator {
	if utf8.RuneCountInString(strings.TrimSpace(value)) < min {
		v.add(field, fmt.Sprintf("must be at least %d characters", min))
	}
	return v
}

// MaxLength validates maximum length in characters
func (v *Validator) MaxLength(field, value string, max int) *Validator {
	if utf8.RuneCountInString(value) > max {
		v.add(field, fmt.Sprintf("must be no more than %d characters", max))
	}
	return v
}

// Email validates an optional email address
func (v *Validator) Email(field, value string) *Validator {
	if value == "" {
		return v
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		v.add(field, "must be a valid email address")
	}
	return v
}

// Phone validates an optional phone number: digits with an optional leading
// plus and common separators.
func (v *Validator) Phone(field, value string) *Validator {
	if value == "" {
		return v
	}
	digits := 0
	for i, r := range value {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '(' || r == ')':
		default:
			v.add(field, "must be a phone number")
			return v
		}
	}
	if digits < 5 || digits > 15 {
		v.add(field, "must be a phone number")
	}
	return v
}

// Positive validates a required reference id
func (v *Validator) Positive(field string, value int) *Validator {
	if value <= 0 {
		v.add(field, "must be selected")
	}
	return v
}

// OneOf validates that value is one of options
func (v *Validator) OneOf(field, value string, options []string) *Validator {
	for _, o := range options {
		if value == o {
			return v
		}
	}
	v.add(field, "must be one of "+strings.Join(options, ", "))
	return v
}

// Date validates an optional YYYY-MM-DD date
func (v *Validator) Date(field, value string) *Validator {
	if value == "" {
		return v
	}
	if _, err := time.Parse(DateLayout, value); err != nil {
		v.add(field, "must be a date (YYYY-MM-DD)")
	}
	return v
}

// NotBefore validates that the optional date later is not before earlier.
// Unparseable dates are left to Date.
func (v *Validator) NotBefore(field, later, earlier string) *Validator {
	if later == "" || earlier == "" {
		return v
	}
	l, err1 := time.Parse(DateLayout, later)
	e, err2 := time.Parse(DateLayout, earlier)
	if err1 == nil && err2 == nil && l.Before(e) {
		v.add(field, "must not be before "+earlier)
	}
	return v
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors
func (v *Validator) Errors() []ValidationError {
	return v.errors
}

// ErrorMessages returns error messages as strings
func (v *Validator) ErrorMessages() []string {
	messages := make([]string, len(v.errors))
	for i, err := range v.errors {
		messages[i] = err.Error()
	}
	return messages
}

// FieldErrors returns the first message per field, for inline form errors
func (v *Validator) FieldErrors() map[string]string {
	out := make(map[string]string, len(v.errors))
	for _, err := range v.errors {
		if _, ok := out[err.Field]; !ok {
			out[err.Field] = err.Message
		}
	}
	return out
}

// FirstError returns the first error message or empty string if no errors
func (v *Validator) FirstError() string {
	if len(v.errors) > 0 {
		return v.errors[0].Error()
	}
	return ""
}

// ValidateUser validates a user form. The password is required only when
// creating.
func ValidateUser(u api.UserInput, creating bool) *Validator {
	v := NewValidator()

	v.Required("email", u.Email).
		Email("email", u.Email).
		MaxLength("email", u.Email, 255)

	v.Required("name", u.Name).
		MaxLength("name", u.Name, 255)

	v.Phone("phone", u.Phone)

	if !auth.Role(u.RoleID).Valid() {
		v.add("role_id", "must be Administrator, Master or Operator")
	}

	if creating || u.Password != "" {
		v.Required("password", u.Password).
			MinLength("password", u.Password, 8).
			MaxLength("password", u.Password, 1000)
	}
	return v
}

// ValidateObject validates an object form
func ValidateObject(o api.ObjectInput) *Validator {
	v := NewValidator()

	v.Required("name", o.Name).
		MaxLength("name", o.Name, 255)
	v.MaxLength("address", o.Address, 500)
	v.Positive("object_type_id", o.ObjectTypeID)
	v.OneOf("status", o.Status, api.ObjectStatuses)
	return v
}

// ValidateObjectType validates an object type form
func ValidateObjectType(t api.ObjectTypeInput) *Validator {
	v := NewValidator()

	v.Required("name", t.Name).
		MaxLength("name", t.Name, 100)
	v.MaxLength("description", t.Description, 1000)
	return v
}

// ValidateParameter validates a parameter form
func ValidateParameter(p api.ParameterInput) *Validator {
	v := NewValidator()

	v.Positive("object_type_id", p.ObjectTypeID)
	v.Required("name", p.Name).
		MaxLength("name", p.Name, 255)
	v.MaxLength("description", p.Description, 2000)
	return v
}

// ValidateTask validates a task form
func ValidateTask(t api.TaskInput) *Validator {
	v := NewValidator()

	v.Positive("object_id", t.ObjectID)
	v.Positive("user_id", t.UserID)
	v.OneOf("status", t.Status, api.TaskStatuses)
	v.Required("planned_at", t.PlannedAt).
		Date("planned_at", t.PlannedAt)
	v.Date("completed_at", t.CompletedAt).
		NotBefore("completed_at", t.CompletedAt, t.PlannedAt)
	if t.Status == "done" && t.CompletedAt == "" {
		v.add("completed_at", "is required for a completed task")
	}
	v.MaxLength("comment", t.Comment, 2000)
	return v
}

// ValidateCheck validates a calendar check form
func ValidateCheck(c api.CheckInput) *Validator {
	v := NewValidator()

	v.Positive("object_id", c.ObjectID)
	v.Required("title", c.Title).
		MaxLength("title", c.Title, 255)
	v.Required("date", c.Date).
		Date("date", c.Date)
	v.OneOf("status", c.Status, api.CheckStatuses)
	return v
}

// ValidateNonCompliance validates a non-compliance form
func ValidateNonCompliance(n api.NonComplianceInput) *Validator {
	v := NewValidator()

	v.Positive("parameter_id", n.ParameterID)
	v.Required("name", n.Name).
		MaxLength("name", n.Name, 255)
	v.MaxLength("description", n.Description, 2000)
	v.OneOf("severity", n.Severity, api.Severities)
	return v
}

// ValidateInstruction validates an instruction form
func ValidateInstruction(i api.InstructionInput) *Validator {
	v := NewValidator()

	v.Required("title", i.Title).
		MaxLength("title", i.Title, 255)
	v.Required("body", i.Body).
		MaxLength("body", i.Body, 20000)
	return v
}
