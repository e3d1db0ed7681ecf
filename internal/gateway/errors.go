// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
)

// Error variables for common backend API errors.
var (
	// ErrSessionExpired indicates the bearer token was rejected (HTTP 401).
	// The app shell handles this by clearing credentials and returning to
	// the login screen.
	ErrSessionExpired = errors.New("session expired")

	// ErrImageTooLarge indicates the uploaded image exceeded the server
	// limit (HTTP 413).
	ErrImageTooLarge = errors.New("image too large")

	// ErrUnsupportedImage indicates the server rejected the image type
	// (HTTP 415).
	ErrUnsupportedImage = errors.New("unsupported image type")

	// ErrHighDemand indicates the backend is overloaded (HTTP 502/504).
	ErrHighDemand = errors.New("service under high demand")

	// ErrTimeout indicates the request hit the client-side deadline.
	ErrTimeout = errors.New("request timed out")
)

// GatewayError represents an error response from the backend API.
type GatewayError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *GatewayError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("gateway error (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("gateway error (HTTP %d)", e.Status)
}

// apiErrorBody is the error shape some endpoints return outside the
// standard envelope.
type apiErrorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// classifyStatus converts HTTP error responses to sentinel errors where a
// specific status has specific user-facing meaning.
func classifyStatus(statusCode int, body []byte) error {
	message := ""
	var apiErr apiErrorBody
	if err := json.Unmarshal(body, &apiErr); err == nil {
		if apiErr.Message != "" {
			message = apiErr.Message
		} else if apiErr.Error != "" {
			message = apiErr.Error
		}
	}

	switch statusCode {
	case http.StatusUnauthorized:
		if message != "" {
			return fmt.Errorf("%w: %s", ErrSessionExpired, message)
		}
		return ErrSessionExpired
	case http.StatusRequestEntityTooLarge:
		if message != "" {
			return fmt.Errorf("%w: %s", ErrImageTooLarge, message)
		}
		return ErrImageTooLarge
	case http.StatusUnsupportedMediaType:
		if message != "" {
			return fmt.Errorf("%w: %s", ErrUnsupportedImage, message)
		}
		return ErrUnsupportedImage
	case http.StatusBadGateway, http.StatusGatewayTimeout:
		if message != "" {
			return fmt.Errorf("%w: %s", ErrHighDemand, message)
		}
		return ErrHighDemand
	default:
		return &GatewayError{Status: statusCode, Message: message}
	}
}

// classifyTransportError maps network-level failures to sentinels.
func classifyTransportError(err error) error {
	if isDeadline(err) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("request failed: %w", err)
}

func isDeadline(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

// IsTimeout reports whether the error is a client-side deadline expiry.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout) || isDeadline(err)
}
