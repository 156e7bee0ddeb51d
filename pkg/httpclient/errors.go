package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/utafrali/catalog-admin/pkg/errors"
)

// UpstreamErrorResponse covers the two error body shapes a catalog backend
// may return: the nested {"error":{"code","message"}} envelope written by
// httputil.WriteError, and a flat {"message"} object.
type UpstreamErrorResponse struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Message string `json:"message"`
}

// ParseResponseError reads the body of a non-2xx HTTP response and translates
// it into an AppError. Structured bodies keep their code and message; anything
// else yields a generic error with the status code and raw body.
//
// The response body is fully consumed and closed.
func ParseResponseError(resp *http.Response, upstream string) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB limit
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", upstream, resp.StatusCode, err)
	}

	var body UpstreamErrorResponse
	if json.Unmarshal(bodyBytes, &body) == nil {
		switch {
		case body.Error != nil:
			return mapUpstreamError(resp.StatusCode, body.Error.Code, body.Error.Message, upstream)
		case body.Message != "":
			return mapUpstreamError(resp.StatusCode, "", body.Message, upstream)
		}
	}

	return fmt.Errorf("%s returned status %d: %s", upstream, resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
}

func mapUpstreamError(status int, code, message, upstream string) error {
	qualifiedMsg := fmt.Sprintf("%s: %s", upstream, message)

	switch {
	case status == http.StatusNotFound:
		return apperrors.NotFound(upstream, message)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return apperrors.InvalidInput(qualifiedMsg)
	case status == http.StatusConflict:
		return apperrors.Conflict(qualifiedMsg)
	case status == http.StatusServiceUnavailable:
		appErr := apperrors.Unavailable(qualifiedMsg)
		if code != "" {
			appErr.Code = code
		}
		return appErr
	case status >= 500:
		return fmt.Errorf("%s server error (%d/%s): %s", upstream, status, code, message)
	default:
		if code == "" {
			code = http.StatusText(status)
		}
		return &apperrors.AppError{
			Code:    code,
			Message: qualifiedMsg,
			Status:  status,
		}
	}
}

// IsClientError reports whether the HTTP status code is a 4xx client error.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
