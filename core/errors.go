package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ErrNoCredentials is returned when an operation requires authentication
// and the client has no credentials for any of the schemes it accepts.
var ErrNoCredentials = errors.New("no credentials configured for any accepted auth scheme")

// ValidationError is raised locally, before any network activity, when the
// parameters of a call do not satisfy the operation descriptor.
type ValidationError struct {
	Operation string
	Param     string
	Reason    string
	Expected  string
	Actual    string
	Allowed   []any
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	if e.Operation != "" {
		fmt.Fprintf(&b, "%s: ", e.Operation)
	}
	if e.Param != "" {
		fmt.Fprintf(&b, "parameter %q: ", e.Param)
	}
	b.WriteString(e.Reason)
	if e.Expected != "" || e.Actual != "" {
		fmt.Fprintf(&b, " (expected %s, got %s)", e.Expected, e.Actual)
	}
	if len(e.Allowed) > 0 {
		fmt.Fprintf(&b, " (allowed values: %v)", e.Allowed)
	}
	return b.String()
}

// ApiError represents an error returned from an API request.
// StatusCode is 0 when the request never produced a response (transport failure, timeout).
type ApiError struct {
	Method     string
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
	// Message is the lakeFS error message extracted from the body, if any.
	Message string
	// Err is the underlying transport error for failures without a response.
	Err error
}

// Error implements the error interface.
func (e *ApiError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s request to %s failed: %v", e.Method, e.URL, e.Err)
	}
	detail := e.Message
	if detail == "" {
		detail = string(e.Body)
	}
	return fmt.Sprintf(
		"%s request to %s returned status code %d: %s", e.Method, e.URL, e.StatusCode, detail,
	)
}

func (e *ApiError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the request failed because a timeout expired.
func (e *ApiError) Timeout() bool {
	if e.Err == nil {
		return false
	}
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

func newStatusError(method, url string, resp *http.Response, body []byte) *ApiError {
	apiErr := &ApiError{
		Method:     method,
		URL:        url,
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       body,
	}
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil {
		apiErr.Message = payload.Message
	}
	return apiErr
}

// DecodeError is raised when a successful response body does not match the
// declared response type. The embedded ApiError carries the response context.
type DecodeError struct {
	Field    string
	Expected string
	Actual   string
	Err      error
	*ApiError
}

func (e *DecodeError) Error() string {
	field := e.Field
	if field == "" {
		field = "<root>"
	}
	msg := fmt.Sprintf("cannot decode response: field %s: expected %s, got %s", field, e.Expected, e.Actual)
	if e.ApiError != nil {
		msg = fmt.Sprintf("%s request to %s: %s", e.Method, e.URL, msg)
	}
	return msg
}

func (e *DecodeError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	if e.ApiError != nil {
		errs = append(errs, e.ApiError)
	}
	return errs
}

// UnsupportedVersionError is returned when the server is older than the
// version an operation first appeared in.
type UnsupportedVersionError struct {
	Operation string
	Required  string
	Actual    string
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("operation %s requires lakeFS >= %s, server version is %s", e.Operation, e.Required, e.Actual)
}

func IsApiError(err error) bool {
	var apiErr *ApiError
	return errors.As(err, &apiErr)
}

func IsValidationErr(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

func IsDecodeErr(err error) bool {
	var decodeErr *DecodeError
	return errors.As(err, &decodeErr)
}

func IsUnsupportedVersionErr(err error) bool {
	var versionErr *UnsupportedVersionError
	return errors.As(err, &versionErr)
}

// IgnoreStatusCodes returns nil if err is an ApiError with one of the given status codes.
func IgnoreStatusCodes(err error, codes ...int) error {
	if ExpectStatusCodes(err, codes...) {
		return nil
	}
	return err
}

// ExpectStatusCodes reports whether err is an ApiError with one of the given status codes.
func ExpectStatusCodes(err error, codes ...int) bool {
	var apiErr *ApiError
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, code := range codes {
		if apiErr.StatusCode == code {
			return true
		}
	}
	return false
}
