// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/mediguide/mediguide-tui/internal/gateway"
	"github.com/mediguide/mediguide-tui/internal/model"
	"github.com/mediguide/mediguide-tui/internal/upload"
)

// =============================================================================
// ERRORS AND USER-FACING MESSAGES
// =============================================================================

var (
	// ErrEmptyMessage indicates the text was empty after trimming. The send
	// is a no-op: no state change, no network call.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrBusy indicates a send is already in flight. The caller should keep
	// the input gated rather than queueing.
	ErrBusy = errors.New("a message is already being sent")

	// ErrNoImage indicates an image send with no attachment.
	ErrNoImage = errors.New("no image attached")
)

// User-facing failure texts, chosen by failure class. Timeouts get "still
// working" wording distinct from plain connectivity failures, with separate
// phrasing for text and image flows.
const (
	textConnectionFailed = "I apologize, but I'm having trouble connecting to MediBot. Please check your internet connection and try again."
	textStillWorking     = "MediBot is still working on your message. This is taking longer than usual - please wait a moment and try again."
	textHighDemand       = "MediBot is experiencing high demand right now. Please wait a moment and try again."

	imageAnalysisFailed = "I apologize, but I'm having trouble analyzing this image. Please try again or describe the issue in text."
	imageStillWorking   = "Your image is still being processed. Please wait a moment and try again."
	imageTooLarge       = "The image is too large. Please upload an image smaller than 5MB."
	imageInvalidType    = "Please upload a valid image file (JPEG, PNG, etc.)."

	// imagePlaceholderText labels a user message that carries only an image.
	imagePlaceholderText = "Image uploaded"

	// topicSource labels chat-derived topics for the profile service.
	topicSource = "chat"
)

// =============================================================================
// GATEWAY DEPENDENCY
// =============================================================================

// Gateway is the subset of the backend client the session manager uses.
type Gateway interface {
	SendMessage(ctx context.Context, message, conversationID string) (*gateway.SendResponse, error)
	SendMessageWithImage(ctx context.Context, message, conversationID, fileName, fileMIME string, image []byte) (*gateway.SendResponse, error)
	GetRecommendations(ctx context.Context, conversationContext string) (*gateway.RecommendationResponse, error)
	UpdateUserTopics(ctx context.Context, topics []string, source string) error
}

// Recommendation is the specialist latch payload. Once set, the manager does
// not request recommendations again for this conversation until the latch is
// cleared or a new chat starts.
type Recommendation struct {
	Triggered   bool
	Specialists []gateway.Specialist
	Analysis    string
	FromImage   bool

	// ConversationContext is the synthesized context the lookup was made
	// with, kept for later re-requests and diagnostics.
	ConversationContext string
}

// =============================================================================
// MANAGER
// =============================================================================

// Manager owns one conversation's state. Safe for concurrent use.
type Manager struct {
	gw     Gateway
	logger *zap.Logger

	// Context-synthesis tuning.
	minContextChars    int
	contextReplyPrefix int

	mu     sync.Mutex
	conv   *model.Conversation
	busy   bool
	topics []string
	rec    *Recommendation

	// epoch increments on StartNewChat/LoadConversation so a completion
	// from a superseded send can be recognized and discarded.
	epoch uint64
}

// NewManager creates a session manager for a fresh conversation.
func NewManager(gw Gateway, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		gw:                 gw,
		logger:             logger,
		minContextChars:    20,
		contextReplyPrefix: 100,
		conv:               model.NewConversation(),
	}
}

// WithContextTuning overrides the conversation-context synthesis thresholds.
func (m *Manager) WithContextTuning(minChars, replyPrefix int) *Manager {
	if minChars > 0 {
		m.minContextChars = minChars
	}
	if replyPrefix > 0 {
		m.contextReplyPrefix = replyPrefix
	}
	return m
}

// =============================================================================
// SEND OPERATIONS
// =============================================================================

// SendText sends a text message.
//
// The user message is appended synchronously before any network traffic, so
// it appears regardless of the outcome. Transport and server failures do not
// return an error; they append a synthetic assistant message with IsError
// set and return that message. The only error returns are ErrEmptyMessage,
// ErrBusy, and gateway.ErrSessionExpired (which the app shell handles by
// forcing re-login).
func (m *Manager) SendText(ctx context.Context, text string) (*model.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	epoch, convID, err := m.beginSend(text, "")
	if err != nil {
		return nil, err
	}

	resp, sendErr := m.gw.SendMessage(ctx, text, convID)
	return m.completeSend(ctx, epoch, resp, sendErr, false)
}

// SendImage sends a message with an image attachment. The image must already
// have passed upload.Validate; this operation does not re-validate.
//
// A user message is appended even when text is empty, carrying the image's
// local preview reference. On success the preview is released; the server
// echo supersedes it.
func (m *Manager) SendImage(ctx context.Context, text string, img *upload.Image) (*model.Message, error) {
	if img == nil {
		return nil, ErrNoImage
	}

	text = strings.TrimSpace(text)
	userText := text
	if userText == "" {
		userText = imagePlaceholderText
	}

	epoch, convID, err := m.beginSend(userText, img.PreviewURL())
	if err != nil {
		return nil, err
	}

	resp, sendErr := m.gw.SendMessageWithImage(ctx, text, convID, img.Name, img.MIME, img.Data)
	msg, err := m.completeSend(ctx, epoch, resp, sendErr, true)
	if sendErr == nil && err == nil {
		img.ReleasePreview()
	}
	return msg, err
}

// beginSend claims the busy slot and appends the user message. Returns the
// epoch at claim time and the conversation id to send with.
func (m *Manager) beginSend(userText, previewURL string) (uint64, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.busy {
		return 0, "", ErrBusy
	}
	m.busy = true

	msg := model.NewUserMessage(userText)
	msg.ImageURL = previewURL
	m.conv.AddMessage(msg)

	return m.epoch, m.conv.ID, nil
}

// completeSend finishes a send: appends the reply or a synthetic error
// message, clears busy, and runs secondary effects. A completion whose epoch
// no longer matches (the conversation was reset mid-flight) is discarded.
func (m *Manager) completeSend(ctx context.Context, epoch uint64, resp *gateway.SendResponse, sendErr error, fromImage bool) (*model.Message, error) {
	m.mu.Lock()

	if epoch != m.epoch {
		// StartNewChat or LoadConversation superseded this send; its busy
		// flag was already cleared with the reset.
		m.mu.Unlock()
		return nil, nil
	}

	if sendErr != nil {
		m.busy = false
		if errors.Is(sendErr, gateway.ErrSessionExpired) {
			m.mu.Unlock()
			return nil, sendErr
		}
		msg := m.conv.AddErrorMessage(failureText(sendErr, fromImage))
		m.mu.Unlock()
		m.logger.Warn("send failed", zap.Bool("image", fromImage), zap.Error(sendErr))
		return msg, nil
	}

	// First successful send establishes the conversation id; later
	// responses never overwrite it.
	m.conv.AdoptID(resp.ConversationID)

	assistant := model.NewAssistantMessage(resp.AIMessage.Text)
	assistant.AdoptServerID(resp.AIMessage.ID)
	assistant.ImageURL = resp.AIMessage.ImageURL
	assistant.IsImageAnalysis = fromImage
	m.conv.AddMessage(assistant)

	var newTopics []string
	if len(resp.ExtractedTopics) > 0 {
		m.topics = append(m.topics, resp.ExtractedTopics...)
		newTopics = append([]string(nil), resp.ExtractedTopics...)
	}

	needRecommendation := resp.NeedsSpecialist && m.rec == nil
	var recContext string
	if needRecommendation {
		recContext = m.synthesizeContextLocked()
	}

	m.busy = false
	m.mu.Unlock()

	// Secondary effects. Failures are logged and swallowed; they never
	// surface as chat messages and never roll back the reply above.
	if len(newTopics) > 0 {
		if err := m.gw.UpdateUserTopics(ctx, newTopics, topicSource); err != nil {
			m.logger.Warn("topic persistence failed", zap.Error(err))
		}
	}
	if needRecommendation {
		m.fetchRecommendation(ctx, epoch, recContext, fromImage)
	}

	return assistant, nil
}

// fetchRecommendation requests specialist recommendations and sets the
// latch. On failure the latch stays untriggered so a later qualifying turn
// can retry.
func (m *Manager) fetchRecommendation(ctx context.Context, epoch uint64, recContext string, fromImage bool) {
	resp, err := m.gw.GetRecommendations(ctx, recContext)
	if err != nil {
		m.logger.Warn("specialist recommendation failed", zap.Error(err))
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if epoch != m.epoch || m.rec != nil {
		return
	}
	m.rec = &Recommendation{
		Triggered:           true,
		Specialists:         resp.Specialists,
		Analysis:            resp.Analysis,
		FromImage:           fromImage,
		ConversationContext: recContext,
	}
}

// failureText picks the user-facing wording for a failed send.
func failureText(err error, fromImage bool) string {
	if fromImage {
		switch {
		case errors.Is(err, gateway.ErrImageTooLarge):
			return imageTooLarge
		case errors.Is(err, gateway.ErrUnsupportedImage):
			return imageInvalidType
		case gateway.IsTimeout(err):
			return imageStillWorking
		default:
			return imageAnalysisFailed
		}
	}
	switch {
	case gateway.IsTimeout(err):
		return textStillWorking
	case errors.Is(err, gateway.ErrHighDemand):
		return textHighDemand
	default:
		return textConnectionFailed
	}
}

// =============================================================================
// SESSION OPERATIONS
// =============================================================================

// StartNewChat resets everything: message log, conversation id, specialist
// latch, topic accumulator, busy flag. No network call; cannot fail. An
// in-flight send's completion is discarded when it lands.
func (m *Manager) StartNewChat() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.epoch++
	m.conv = model.NewConversation()
	m.busy = false
	m.topics = nil
	m.rec = nil
}

// LoadConversation replaces the session wholesale with a persisted
// conversation. The conversation id is restored so follow-up sends continue
// the same server-side thread. Latch and topics reset; they belong to the
// live session, not the stored transcript.
func (m *Manager) LoadConversation(id string, messages []*model.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.epoch++
	m.conv = model.NewConversation()
	m.conv.Replace(id, messages)
	m.busy = false
	m.topics = nil
	m.rec = nil
}

// ClearRecommendation resets the specialist latch, making the session
// eligible for one more automatic recommendation.
func (m *Manager) ClearRecommendation() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = nil
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Messages returns a snapshot of the message log.
func (m *Manager) Messages() []*model.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Message, len(m.conv.Messages))
	copy(out, m.conv.Messages)
	return out
}

// ConversationID returns the server-assigned id, or empty before the first
// successful send.
func (m *Manager) ConversationID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conv.ID
}

// Busy reports whether a send is in flight.
func (m *Manager) Busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.busy
}

// Topics returns a snapshot of the accumulated topics, in arrival order,
// duplicates included.
func (m *Manager) Topics() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.topics...)
}

// Recommendation returns the specialist latch payload, or nil while
// untriggered.
func (m *Manager) Recommendation() *Recommendation {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rec == nil {
		return nil
	}
	rec := *m.rec
	return &rec
}

// MessageCount returns the current log length.
func (m *Manager) MessageCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conv.MessageCount()
}
