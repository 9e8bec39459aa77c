package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/charmbracelet/lipgloss"

	"github.com/linode/cloudmanager/engine/infra/transport"
	"github.com/linode/cloudmanager/engine/resource"
	"github.com/linode/cloudmanager/engine/thunk"
)

// CliError is a categorized command failure.
type CliError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	cause   error
}

func (e *CliError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CliError) Unwrap() error {
	return e.cause
}

func NewCliError(code, message string, details ...string) *CliError {
	err := &CliError{Code: code, Message: message}
	if len(details) > 0 {
		err.Details = details[0]
	}
	return err
}

func wrapCliError(code, message string, cause error) *CliError {
	e := NewCliError(code, message, cause.Error())
	e.cause = cause
	return e
}

// categorizeError maps known failures to CLI error codes; unknown errors pass through.
func categorizeError(err error) error {
	var cliErr *CliError
	if err == nil || errors.As(err, &cliErr) {
		return err
	}
	var apiErr *transport.APIError
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled):
		return wrapCliError("OPERATION_CANCELED", "Operation was canceled", err)
	case errors.Is(err, context.DeadlineExceeded):
		return wrapCliError("OPERATION_TIMEOUT", "Operation timed out", err)
	case errors.Is(err, resource.ErrUnknownResource):
		return wrapCliError("UNKNOWN_RESOURCE", "No such resource in the catalog", err)
	case errors.Is(err, thunk.ErrUnsupported):
		return wrapCliError("UNSUPPORTED", "Resource does not support this operation", err)
	case errors.Is(err, thunk.ErrPaginationDrift):
		return wrapCliError("PAGINATION_DRIFT", "Collection kept changing while it was fetched", err)
	case errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden):
		return wrapCliError("AUTH_ERROR", "Authentication failed", err)
	case errors.Is(err, transport.ErrNotFound):
		return wrapCliError("NOT_FOUND", "Resource not found", err)
	case errors.As(err, &apiErr):
		return wrapCliError("API_ERROR", "API request failed", err)
	case errors.As(err, &netErr):
		return wrapCliError("NETWORK_ERROR", "Network connection failed", err)
	}
	return err
}

// outputError writes err to w as JSON or as styled text.
func outputError(w io.Writer, err error, asJSON bool) {
	if err == nil {
		return
	}
	message, details := err.Error(), ""
	var cliErr *CliError
	if errors.As(err, &cliErr) {
		message, details = cliErr.Message, cliErr.Details
	}
	if asJSON {
		data, mErr := json.Marshal(map[string]string{"error": message, "details": details})
		if mErr != nil {
			data = []byte(`{"error":"JSON marshaling failed","details":""}`)
		}
		fmt.Fprintln(w, string(data))
		return
	}
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	fmt.Fprintln(w, style.Render("Error: "+message))
	if details != "" {
		fmt.Fprintln(w, lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Italic(true).Render("Details: "+details))
	}
}
