package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	app_errors "drafter/client/internal/errors"
)

// This file provides a centralized, singleton-based validation helper for API
// request bodies.

var (
	// validate holds the single instance of the validator.
	validate *validator.Validate
	// once ensures that the validator is initialized only one time.
	once sync.Once
)

// getInstance uses sync.Once to safely initialize and return the validator singleton.
func getInstance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// validateRequest checks a payload against the rules in its `validate` tags.
// Failures come back wrapped in app_errors.ErrValidation with one readable
// line per field.
func validateRequest(payload interface{}) error {
	err := getInstance().Struct(payload)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("%w: an unexpected error occurred during validation: %s", app_errors.ErrValidation, err.Error())
	}

	var errorMessages []string
	for _, fieldErr := range validationErrors {
		// Example output: "Field 'Title' failed on the 'required' tag"
		errorMessages = append(errorMessages, fmt.Sprintf("Field '%s' failed on the '%s' tag", fieldErr.Field(), fieldErr.Tag()))
	}

	return fmt.Errorf("%w: %s", app_errors.ErrValidation, strings.Join(errorMessages, "; "))
}

// decodeRequest reads a JSON body into payload and validates it.
func decodeRequest(r *http.Request, payload interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(payload); err != nil {
		return fmt.Errorf("%w: invalid request payload", app_errors.ErrValidation)
	}
	return validateRequest(payload)
}
