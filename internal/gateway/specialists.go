// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateway

import (
	"context"
	"net/url"
)

// =============================================================================
// SPECIALIST ENDPOINTS
// =============================================================================

// Specialist describes a care provider returned by the recommendation
// service or the directory.
type Specialist struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Specialty  string  `json:"specialty"`
	Bio        string  `json:"bio"`
	Rating     float64 `json:"rating"`
	Experience int     `json:"experience"`
	Phone      string  `json:"phone"`
	Verified   bool    `json:"verified"`
}

// RecommendationResponse is the payload of a specialist recommendation.
type RecommendationResponse struct {
	Specialists []Specialist `json:"specialists"`

	// Analysis is the server's short explanation of why these specialists
	// match the conversation.
	Analysis string `json:"analysis"`

	VerificationImpact    string `json:"verificationImpact,omitempty"`
	TopSpecialistVerified bool   `json:"topSpecialistVerified,omitempty"`
	VerifiedCount         int    `json:"verifiedCount,omitempty"`
}

type recommendRequest struct {
	ConversationContext string `json:"conversationContext"`
}

// GetRecommendations requests specialist recommendations for the given
// conversation context.
func (c *Client) GetRecommendations(ctx context.Context, conversationContext string) (*RecommendationResponse, error) {
	var resp RecommendationResponse
	err := c.postJSON(ctx, "/specialists/recommend", recommendRequest{
		ConversationContext: conversationContext,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

type specialistListData struct {
	Specialists []Specialist `json:"specialists"`
}

// GetAllSpecialists fetches the full specialist directory.
func (c *Client) GetAllSpecialists(ctx context.Context) ([]Specialist, error) {
	var data specialistListData
	if err := c.get(ctx, "/specialists", &data); err != nil {
		return nil, err
	}
	return data.Specialists, nil
}

// GetSpecialist fetches a single specialist by id.
func (c *Client) GetSpecialist(ctx context.Context, id string) (*Specialist, error) {
	var specialist Specialist
	if err := c.get(ctx, "/specialists/"+url.PathEscape(id), &specialist); err != nil {
		return nil, err
	}
	return &specialist, nil
}
