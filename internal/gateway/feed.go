// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateway

import (
	"context"
	"net/url"
	"strings"
	"time"
)

// =============================================================================
// HEALTH FEED ENDPOINTS
// =============================================================================

// Article is one entry of the personalized health feed.
type Article struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	Content     string    `json:"content"`
	Source      string    `json:"source"`
	URL         string    `json:"url"`
	Topics      []string  `json:"topics"`
	PublishedAt time.Time `json:"publishedAt"`
	Saved       bool      `json:"saved"`
}

type feedData struct {
	Articles []Article `json:"articles"`
}

// GetPersonalizedFeed fetches articles matched to the user's topic history.
func (c *Client) GetPersonalizedFeed(ctx context.Context) ([]Article, error) {
	var data feedData
	if err := c.get(ctx, "/feed/personalized", &data); err != nil {
		return nil, err
	}
	return data.Articles, nil
}

// GetFeedByTopics fetches articles for an explicit topic list.
func (c *Client) GetFeedByTopics(ctx context.Context, topics []string) ([]Article, error) {
	query := url.Values{}
	query.Set("topics", strings.Join(topics, ","))

	var data feedData
	if err := c.get(ctx, "/feed/by-topics?"+query.Encode(), &data); err != nil {
		return nil, err
	}
	return data.Articles, nil
}

// SaveArticle bookmarks an article for the user.
func (c *Client) SaveArticle(ctx context.Context, id string) error {
	return c.postJSON(ctx, "/feed/articles/"+url.PathEscape(id)+"/save", struct{}{}, nil)
}

// ShareArticle records a share event for an article.
func (c *Client) ShareArticle(ctx context.Context, id string) error {
	return c.postJSON(ctx, "/feed/articles/"+url.PathEscape(id)+"/share", struct{}{}, nil)
}

type updateTopicsRequest struct {
	Topics []string `json:"topics"`
	Source string   `json:"source,omitempty"`
}

// UpdateUserTopics persists newly extracted health topics to the user's
// profile so future feeds reflect them. source labels where the topics came
// from (e.g. "chat").
func (c *Client) UpdateUserTopics(ctx context.Context, topics []string, source string) error {
	return c.postJSON(ctx, "/feed/topics", updateTopicsRequest{Topics: topics, Source: source}, nil)
}
