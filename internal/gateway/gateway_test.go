// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api", StaticToken("test-token"))
}

func writeEnvelope(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "ok",
		"data":    data,
	})
}

func TestSendMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chat/send", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "I have a headache", req["message"])
		assert.Empty(t, req["conversationId"])

		writeEnvelope(w, map[string]interface{}{
			"conversationId":  "conv-1",
			"aiMessage":       map[string]string{"text": "Tell me more."},
			"needsSpecialist": true,
			"extractedTopics": []string{"headache"},
		})
	})

	resp, err := client.SendMessage(context.Background(), "I have a headache", "")
	require.NoError(t, err)

	assert.Equal(t, "conv-1", resp.ConversationID)
	assert.Equal(t, "Tell me more.", resp.AIMessage.Text)
	assert.True(t, resp.NeedsSpecialist)
	assert.Equal(t, []string{"headache"}, resp.ExtractedTopics)
}

func TestSendMessageIncludesConversationID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "conv-7", req["conversationId"])
		writeEnvelope(w, map[string]interface{}{
			"conversationId": "conv-7",
			"aiMessage":      map[string]string{"text": "noted"},
		})
	})

	resp, err := client.SendMessage(context.Background(), "follow-up", "conv-7")
	require.NoError(t, err)
	assert.Equal(t, "conv-7", resp.ConversationID)
}

func TestSendMessageWithImage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat/send-image", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(10<<20))

		assert.Equal(t, "what is this rash", r.FormValue("message"))
		assert.Equal(t, "conv-2", r.FormValue("conversationId"))

		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "rash.jpg", header.Filename)
		assert.Equal(t, "image/jpeg", header.Header.Get("Content-Type"))

		writeEnvelope(w, map[string]interface{}{
			"conversationId": "conv-2",
			"aiMessage":      map[string]string{"text": "analysis"},
		})
	})

	resp, err := client.SendMessageWithImage(context.Background(),
		"what is this rash", "conv-2", "rash.jpg", "image/jpeg", []byte("jpeg-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "analysis", resp.AIMessage.Text)
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrSessionExpired},
		{"payload too large", http.StatusRequestEntityTooLarge, ErrImageTooLarge},
		{"unsupported media", http.StatusUnsupportedMediaType, ErrUnsupportedImage},
		{"bad gateway", http.StatusBadGateway, ErrHighDemand},
		{"gateway timeout", http.StatusGatewayTimeout, ErrHighDemand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(map[string]interface{}{
					"success": false,
					"message": "nope",
				})
			})

			_, err := client.SendMessage(context.Background(), "hello", "")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGenericErrorKeepsStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "boom",
		})
	})

	_, err := client.SendMessage(context.Background(), "hello", "")
	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, http.StatusInternalServerError, gwErr.Status)
	assert.Equal(t, "boom", gwErr.Message)
}

func TestEnvelopeSuccessFalse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// HTTP 200 but the envelope says no.
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "quota exceeded",
		})
	})

	_, err := client.SendMessage(context.Background(), "hello", "")
	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "quota exceeded", gwErr.Message)
}

func TestTimeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		writeEnvelope(w, nil)
	}).WithTimeout(50 * time.Millisecond)

	_, err := client.SendMessage(context.Background(), "hello", "")
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
}

func TestGetConversations(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat/conversations", r.URL.Path)
		writeEnvelope(w, map[string]interface{}{
			"conversations": []map[string]interface{}{
				{"id": "c1", "title": "Headache", "messageCount": 4},
			},
		})
	})

	list, err := client.GetConversations(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Headache", list[0].Title)
}

func TestGetConversation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat/conversations/c1", r.URL.Path)
		writeEnvelope(w, map[string]interface{}{
			"id": "c1",
			"messages": []map[string]interface{}{
				{"id": "m1", "sender": "user", "text": "hi"},
				{"id": "m2", "sender": "ai", "text": "hello"},
			},
		})
	})

	detail, err := client.GetConversation(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, detail.Messages, 2)
	assert.Equal(t, "user", detail.Messages[0].Sender)
}

func TestDeleteConversation(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/chat/conversations/c1", r.URL.Path)
		writeEnvelope(w, nil)
	})

	require.NoError(t, client.DeleteConversation(context.Background(), "c1"))
	assert.True(t, called)
}

func TestGetRecommendations(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "knee pain. rest and ice", req["conversationContext"])

		writeEnvelope(w, map[string]interface{}{
			"specialists": []map[string]interface{}{
				{"id": "s1", "name": "Dr. Reyes", "specialty": "Orthopedics", "rating": 4.8, "verified": true},
			},
			"analysis": "Joint pain pattern",
		})
	})

	rec, err := client.GetRecommendations(context.Background(), "knee pain. rest and ice")
	require.NoError(t, err)
	require.Len(t, rec.Specialists, 1)
	assert.Equal(t, "Orthopedics", rec.Specialists[0].Specialty)
	assert.Equal(t, "Joint pain pattern", rec.Analysis)
}

func TestUpdateUserTopics(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/feed/topics", r.URL.Path)
		var req struct {
			Topics []string `json:"topics"`
			Source string   `json:"source"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"headache", "hydration"}, req.Topics)
		assert.Equal(t, "chat", req.Source)
		writeEnvelope(w, nil)
	})

	err := client.UpdateUserTopics(context.Background(), []string{"headache", "hydration"}, "chat")
	assert.NoError(t, err)
}

func TestGetFeedByTopics(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/feed/by-topics", r.URL.Path)
		assert.Equal(t, "sleep,stress", r.URL.Query().Get("topics"))
		writeEnvelope(w, map[string]interface{}{
			"articles": []map[string]interface{}{
				{"id": "a1", "title": "Sleep hygiene"},
			},
		})
	})

	articles, err := client.GetFeedByTopics(context.Background(), []string{"sleep", "stress"})
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "Sleep hygiene", articles[0].Title)
}

func TestLogin(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		// Formatting stripped before the request goes out.
		assert.Equal(t, "5551234567", req["phoneNumber"])

		writeEnvelope(w, map[string]interface{}{
			"token": "jwt-token",
			"user":  map[string]string{"id": "u1", "phoneNumber": "5551234567"},
		})
	})

	resp, err := client.Login(context.Background(), "(555) 123-4567")
	require.NoError(t, err)
	assert.Equal(t, "jwt-token", resp.Token)
	assert.Equal(t, "u1", resp.User.ID)
}

func TestLoginRejectsShortPhone(t *testing.T) {
	client := NewClient("http://unreachable.invalid/api", nil)
	_, err := client.Login(context.Background(), "555-1234")
	assert.ErrorIs(t, err, ErrInvalidPhone)
}

func TestCleanPhone(t *testing.T) {
	assert.Equal(t, "15551234567", CleanPhone("+1 (555) 123-4567"))
	assert.Equal(t, "", CleanPhone("abc"))
}

func TestValidatePhone(t *testing.T) {
	assert.NoError(t, ValidatePhone("555-123-4567"))
	assert.ErrorIs(t, ValidatePhone("12345"), ErrInvalidPhone)
}
