package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/mouadelabbassi/dashboard/pkg/errors"
)

// downstreamError accepts both the {"error":{"code","message"}} envelope
// written by pkg/httputil and the {"detail": "..."} body of Python sidecars.
type downstreamError struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Detail json.RawMessage `json:"detail"`
}

func (d downstreamError) message() (string, bool) {
	if d.Error != nil && d.Error.Message != "" {
		return d.Error.Message, true
	}
	if len(d.Detail) == 0 {
		return "", false
	}
	var s string
	if json.Unmarshal(d.Detail, &s) == nil {
		return s, s != ""
	}
	return string(d.Detail), true
}

// ParseResponseError reads a non-2xx response body and translates it into an
// error naming serviceName. The body is consumed and closed.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", serviceName, resp.StatusCode, err)
	}

	message := strings.TrimSpace(string(body))
	var downstream downstreamError
	if json.Unmarshal(body, &downstream) == nil {
		if m, ok := downstream.message(); ok {
			message = m
		}
	}
	return mapStatus(resp.StatusCode, serviceName, message)
}

func mapStatus(status int, serviceName, message string) error {
	qualified := fmt.Sprintf("%s: %s", serviceName, message)

	switch {
	case status == http.StatusNotFound:
		return apperrors.NotFound(serviceName+" resource", message)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return apperrors.InvalidInput(qualified)
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return apperrors.Timeout(serviceName)
	case status == http.StatusServiceUnavailable || status == http.StatusBadGateway:
		return apperrors.ServiceUnavailable(serviceName, fmt.Errorf("status %d: %s", status, message))
	case status >= 500:
		return fmt.Errorf("%s server error %d: %s", serviceName, status, message)
	default:
		return &apperrors.AppError{
			Code:    "DOWNSTREAM_ERROR",
			Message: qualified,
			Status:  status,
		}
	}
}
