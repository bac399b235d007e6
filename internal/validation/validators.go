package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/benvon/pimtask/internal/models"
	"github.com/benvon/pimtask/internal/recurrence"
	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums
	// These should never fail in normal operation, but log if they do
	if err := Validate.RegisterValidation("task_status", validateTaskStatus); err != nil {
		panic(fmt.Sprintf("failed to register task_status validator: %v", err))
	}
	if err := Validate.RegisterValidation("task_priority", validateTaskPriority); err != nil {
		panic(fmt.Sprintf("failed to register task_priority validator: %v", err))
	}
	if err := Validate.RegisterValidation("rrule_freq", validateFrequency); err != nil {
		panic(fmt.Sprintf("failed to register rrule_freq validator: %v", err))
	}
}

// validateTaskStatus validates that a string is a valid TaskStatus enum value
func validateTaskStatus(fl validator.FieldLevel) bool {
	return models.TaskStatus(fl.Field().String()).Valid()
}

// validateTaskPriority validates that an int is one of the editor priorities
func validateTaskPriority(fl validator.FieldLevel) bool {
	return models.TaskPriority(fl.Field().Int()).Valid()
}

// validateFrequency validates a recurrence frequency
func validateFrequency(fl validator.FieldLevel) bool {
	return recurrence.Frequency(fl.Field().String()).Valid()
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	// Trim whitespace
	text = strings.TrimSpace(text)

	// Remove control characters except newline and tab
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateTaskStatus validates a TaskStatus string value
func ValidateTaskStatus(value string) error {
	if !models.TaskStatus(value).Valid() {
		return fmt.Errorf("invalid status: %s (must be 'NEEDS-ACTION', 'IN-PROCESS', 'COMPLETED', or 'CANCELLED')", value)
	}
	return nil
}

// ValidateTaskPriority validates a TaskPriority value
func ValidateTaskPriority(value int) error {
	if !models.TaskPriority(value).Valid() {
		return fmt.Errorf("invalid priority: %d (must be 0, 1, 5, or 9)", value)
	}
	return nil
}

// ValidateRule validates a recurrence rule's fields
func ValidateRule(rule recurrence.Rule) error {
	if err := Validate.Struct(rule); err != nil {
		return fmt.Errorf("invalid recurrence rule: %w", err)
	}
	if _, err := recurrence.Parse(rule.String(), nil); err != nil {
		return fmt.Errorf("invalid recurrence rule: %w", err)
	}
	return nil
}
