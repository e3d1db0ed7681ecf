// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateway

import (
	"context"
	"errors"
	"regexp"
)

// =============================================================================
// AUTH ENDPOINTS
// =============================================================================

// ErrInvalidPhone indicates the phone number failed client-side validation.
var ErrInvalidPhone = errors.New("please enter a valid phone number")

var nonDigits = regexp.MustCompile(`\D`)

// CleanPhone strips everything but digits from a phone number.
func CleanPhone(phone string) string {
	return nonDigits.ReplaceAllString(phone, "")
}

// ValidatePhone checks a phone number has at least 10 digits after cleaning.
func ValidatePhone(phone string) error {
	if len(CleanPhone(phone)) < 10 {
		return ErrInvalidPhone
	}
	return nil
}

// User is the authenticated user's profile.
type User struct {
	ID          string   `json:"id"`
	PhoneNumber string   `json:"phoneNumber"`
	Name        string   `json:"name"`
	Topics      []string `json:"topics"`
}

// LoginResponse is the payload of a successful login.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type loginRequest struct {
	PhoneNumber string `json:"phoneNumber"`
}

// Login authenticates with a phone number and returns a bearer token.
// The number is cleaned and validated before the request goes out.
func (c *Client) Login(ctx context.Context, phone string) (*LoginResponse, error) {
	if err := ValidatePhone(phone); err != nil {
		return nil, err
	}

	var resp LoginResponse
	err := c.postJSON(ctx, "/auth/login", loginRequest{
		PhoneNumber: CleanPhone(phone),
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetProfile fetches the current user's profile.
func (c *Client) GetProfile(ctx context.Context) (*User, error) {
	var user User
	if err := c.get(ctx, "/auth/profile", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile updates the user's display name.
func (c *Client) UpdateProfile(ctx context.Context, name string) (*User, error) {
	var user User
	err := c.putJSON(ctx, "/auth/profile", map[string]string{"name": name}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Health checks backend availability.
func (c *Client) Health(ctx context.Context) error {
	return c.get(ctx, "/health", nil)
}
