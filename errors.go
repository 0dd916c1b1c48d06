package racepub

import (
	"errors"
	"net/http"

	goerrors "github.com/goliatone/go-errors"

	"github.com/eringen/racepub/github"
)

const (
	textCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	textCodeInvalidJSON      = "INVALID_JSON"
	textCodeMissingFields    = "MISSING_FIELDS"
	textCodeInvalidSlug      = "INVALID_SLUG"
	textCodeUnauthorized     = "UNAUTHORIZED"
	textCodeTooManyAttempts  = "TOO_MANY_ATTEMPTS"
	textCodeConfigMissing    = "CONFIG_MISSING"
	textCodeStore            = "STORE_COMMUNICATION"
	textCodeUnexpected       = "UNEXPECTED"

	fallbackErrorMessage = "GitHub error"
)

func errMethodNotAllowed() error {
	return goerrors.New("method not allowed", goerrors.CategoryMethodNotAllowed).
		WithCode(http.StatusMethodNotAllowed).
		WithTextCode(textCodeMethodNotAllowed)
}

func errInvalidJSON(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid JSON").
		WithCode(http.StatusBadRequest).
		WithTextCode(textCodeInvalidJSON)
}

func errMissingFields(err error) error {
	return goerrors.FromOzzoValidation(err, "missing required fields").
		WithCode(http.StatusBadRequest).
		WithTextCode(textCodeMissingFields)
}

func errInvalidSlug() error {
	return goerrors.New("invalid slug", goerrors.CategoryValidation).
		WithCode(http.StatusBadRequest).
		WithTextCode(textCodeInvalidSlug)
}

func errUnauthorized() error {
	return goerrors.New("unauthorized", goerrors.CategoryAuth).
		WithCode(http.StatusUnauthorized).
		WithTextCode(textCodeUnauthorized)
}

func errTooManyAttempts() error {
	return goerrors.New("too many attempts, try again later", goerrors.CategoryRateLimit).
		WithCode(http.StatusTooManyRequests).
		WithTextCode(textCodeTooManyAttempts)
}

func errConfigMissing(what string) error {
	return goerrors.New(what+" configuration missing", goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(textCodeConfigMissing)
}

// wrapStoreError classifies an error returned by the contents store.
// Non-2xx answers become store-communication errors carrying status and
// body; anything else is unexpected and keeps its own message.
func wrapStoreError(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	var se *github.StatusError
	if errors.As(err, &se) {
		return goerrors.Wrap(err, goerrors.CategoryExternal, se.Error()).
			WithCode(http.StatusInternalServerError).
			WithTextCode(textCodeStore).
			WithMetadata(map[string]any{"status": se.StatusCode, "path": se.Path})
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, err.Error()).
		WithCode(http.StatusInternalServerError).
		WithTextCode(textCodeUnexpected)
}

// errorStatus maps err to the HTTP status of its response.
func errorStatus(err error) int {
	var e *goerrors.Error
	if errors.As(err, &e) && e.Code != 0 {
		return e.Code
	}
	return http.StatusInternalServerError
}

// errorMessage is the text sent to the caller in {"error": ...}.
func errorMessage(err error) string {
	var e *goerrors.Error
	if errors.As(err, &e) {
		if e.Message != "" {
			return e.Message
		}
		if e.Source != nil && e.Source.Error() != "" {
			return e.Source.Error()
		}
		return fallbackErrorMessage
	}
	if err != nil && err.Error() != "" {
		return err.Error()
	}
	return fallbackErrorMessage
}
