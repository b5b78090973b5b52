// Package validation provides custom validation rules for the application.
package validation

import (
	"regexp"

	validation "github.com/jellydator/validation"

	apperrors "github.com/zerotouch/envseal/internal/errors"
)

var (
	// environmentRegex constrains environment names to DNS-label-ish identifiers.
	environmentRegex = regexp.MustCompile(`^[a-z][a-z0-9-]{0,31}$`)

	// groupRegex constrains bundle group names.
	groupRegex = regexp.MustCompile(`^[a-z][a-z0-9_-]{0,63}$`)

	// secretKeyRegex is the one convention downstream consumers can rely on:
	// lower-case, underscore-separated, no hyphens.
	secretKeyRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput.
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// EnvironmentName validates an environment identifier. Environments are
// isolation domains; their names end up in blob prefixes, file paths and
// variable-name prefixes, so the rule is deliberately strict.
var EnvironmentName = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_environment_type", "must be a string")
	}
	if s == "" {
		return validation.NewError("validation_environment_required", "environment name is required")
	}
	if !environmentRegex.MatchString(s) {
		return validation.NewError(
			"validation_environment_format",
			"must start with a lower-case letter and contain only [a-z0-9-], max 32 chars",
		)
	}
	return nil
})

// GroupName validates a bundle group name (one file per group per environment).
var GroupName = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_group_type", "must be a string")
	}
	if s == "" {
		return validation.NewError("validation_group_required", "group name is required")
	}
	if !groupRegex.MatchString(s) {
		return validation.NewError(
			"validation_group_format",
			"must start with a lower-case letter and contain only [a-z0-9_-], max 64 chars",
		)
	}
	return nil
})

// SecretKeyName validates an already-normalized secret key name.
var SecretKeyName = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_secret_key_type", "must be a string")
	}
	if !secretKeyRegex.MatchString(s) {
		return validation.NewError(
			"validation_secret_key_format",
			"must match [a-z][a-z0-9_]*",
		)
	}
	return nil
})
