// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediguide/mediguide-tui/internal/gateway"
	"github.com/mediguide/mediguide-tui/internal/model"
	"github.com/mediguide/mediguide-tui/internal/upload"
)

// =============================================================================
// FAKE GATEWAY
// =============================================================================

type fakeGateway struct {
	mu sync.Mutex

	sendFunc  func(message, conversationID string) (*gateway.SendResponse, error)
	imageFunc func(message, conversationID, fileName, fileMIME string, image []byte) (*gateway.SendResponse, error)
	recFunc   func(conversationContext string) (*gateway.RecommendationResponse, error)
	topicErr  error

	sendCalls   int
	imageCalls  int
	recCalls    int
	recContexts []string
	topicCalls  [][]string
	topicSource string
}

func (f *fakeGateway) SendMessage(_ context.Context, message, conversationID string) (*gateway.SendResponse, error) {
	f.mu.Lock()
	f.sendCalls++
	fn := f.sendFunc
	f.mu.Unlock()
	if fn == nil {
		return okResponse("conv-1", "reply"), nil
	}
	return fn(message, conversationID)
}

func (f *fakeGateway) SendMessageWithImage(_ context.Context, message, conversationID, fileName, fileMIME string, image []byte) (*gateway.SendResponse, error) {
	f.mu.Lock()
	f.imageCalls++
	fn := f.imageFunc
	f.mu.Unlock()
	if fn == nil {
		return okResponse("conv-1", "analysis"), nil
	}
	return fn(message, conversationID, fileName, fileMIME, image)
}

func (f *fakeGateway) GetRecommendations(_ context.Context, conversationContext string) (*gateway.RecommendationResponse, error) {
	f.mu.Lock()
	f.recCalls++
	f.recContexts = append(f.recContexts, conversationContext)
	fn := f.recFunc
	f.mu.Unlock()
	if fn == nil {
		return &gateway.RecommendationResponse{
			Specialists: []gateway.Specialist{{ID: "s1", Name: "Dr. Reyes", Specialty: "Neurology"}},
			Analysis:    "persistent headache pattern",
		}, nil
	}
	return fn(conversationContext)
}

func (f *fakeGateway) UpdateUserTopics(_ context.Context, topics []string, source string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topicCalls = append(f.topicCalls, topics)
	f.topicSource = source
	return f.topicErr
}

func okResponse(convID, text string) *gateway.SendResponse {
	return &gateway.SendResponse{
		ConversationID: convID,
		AIMessage:      gateway.AIMessage{Text: text},
	}
}

func testImage(t *testing.T) *upload.Image {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scan.png")
	require.NoError(t, os.WriteFile(path, []byte("png-bytes"), 0644))
	img, err := upload.Open(path)
	require.NoError(t, err)
	t.Cleanup(img.ReleasePreview)
	return img
}

// =============================================================================
// TEXT SEND
// =============================================================================

func TestSendTextSuccess(t *testing.T) {
	gw := &fakeGateway{}
	mgr := NewManager(gw, nil)

	reply, err := mgr.SendText(context.Background(), "I have a headache")
	require.NoError(t, err)

	msgs := mgr.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, model.RoleUser, msgs[0].Role)
	assert.Equal(t, "I have a headache", msgs[0].Text)
	assert.Equal(t, model.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "reply", msgs[1].Text)
	assert.Same(t, msgs[1], reply)

	assert.Equal(t, "conv-1", mgr.ConversationID())
	assert.False(t, mgr.Busy())
	assert.Nil(t, mgr.Recommendation())
}

func TestSendTextEmptyIsNoOp(t *testing.T) {
	gw := &fakeGateway{}
	mgr := NewManager(gw, nil)

	_, err := mgr.SendText(context.Background(), "   \n\t ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Zero(t, mgr.MessageCount())
	assert.Zero(t, gw.sendCalls)
	assert.False(t, mgr.Busy())
}

func TestSendTextTrimsWhitespace(t *testing.T) {
	gw := &fakeGateway{
		sendFunc: func(message, _ string) (*gateway.SendResponse, error) {
			assert.Equal(t, "hello", message)
			return okResponse("c1", "hi"), nil
		},
	}
	mgr := NewManager(gw, nil)

	_, err := mgr.SendText(context.Background(), "  hello  ")
	require.NoError(t, err)
	assert.Equal(t, "hello", mgr.Messages()[0].Text)
}

func TestConversationIDFirstWins(t *testing.T) {
	ids := []string{"conv-a", "conv-b"}
	call := 0
	gw := &fakeGateway{
		sendFunc: func(_, conversationID string) (*gateway.SendResponse, error) {
			resp := okResponse(ids[call], "ok")
			call++
			return resp, nil
		},
	}
	mgr := NewManager(gw, nil)

	_, err := mgr.SendText(context.Background(), "first")
	require.NoError(t, err)
	assert.Equal(t, "conv-a", mgr.ConversationID())

	_, err = mgr.SendText(context.Background(), "second")
	require.NoError(t, err)
	// A divergent id on a later response never replaces the established one.
	assert.Equal(t, "conv-a", mgr.ConversationID())
}

func TestSecondSendCarriesConversationID(t *testing.T) {
	var gotIDs []string
	gw := &fakeGateway{
		sendFunc: func(_, conversationID string) (*gateway.SendResponse, error) {
			gotIDs = append(gotIDs, conversationID)
			return okResponse("conv-1", "ok"), nil
		},
	}
	mgr := NewManager(gw, nil)

	_, _ = mgr.SendText(context.Background(), "first")
	_, _ = mgr.SendText(context.Background(), "second")

	require.Len(t, gotIDs, 2)
	assert.Empty(t, gotIDs[0])
	assert.Equal(t, "conv-1", gotIDs[1])
}

// =============================================================================
// FAILURE CLASSIFICATION
// =============================================================================

func TestSendTextFailureWording(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantText string
	}{
		{"timeout", gateway.ErrTimeout, textStillWorking},
		{"high demand", gateway.ErrHighDemand, textHighDemand},
		{"generic", errors.New("connection refused"), textConnectionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{
				sendFunc: func(_, _ string) (*gateway.SendResponse, error) {
					return nil, tt.err
				},
			}
			mgr := NewManager(gw, nil)

			msg, err := mgr.SendText(context.Background(), "hello")
			require.NoError(t, err)

			msgs := mgr.Messages()
			require.Len(t, msgs, 2)
			assert.Equal(t, model.RoleUser, msgs[0].Role)
			assert.True(t, msgs[1].IsError)
			assert.Equal(t, tt.wantText, msgs[1].Text)
			assert.Same(t, msgs[1], msg)

			// Busy always returns to false.
			assert.False(t, mgr.Busy())
			// Failed sends never establish a conversation id.
			assert.Empty(t, mgr.ConversationID())
		})
	}
}

func TestSendImageFailureWording(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantText string
	}{
		{"too large", gateway.ErrImageTooLarge, imageTooLarge},
		{"unsupported", gateway.ErrUnsupportedImage, imageInvalidType},
		{"timeout", gateway.ErrTimeout, imageStillWorking},
		{"generic", errors.New("boom"), imageAnalysisFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{
				imageFunc: func(_, _, _, _ string, _ []byte) (*gateway.SendResponse, error) {
					return nil, tt.err
				},
			}
			mgr := NewManager(gw, nil)

			msg, err := mgr.SendImage(context.Background(), "", testImage(t))
			require.NoError(t, err)
			assert.True(t, msg.IsError)
			assert.Equal(t, tt.wantText, msg.Text)
			assert.False(t, mgr.Busy())
		})
	}
}

func TestSessionExpiredPropagates(t *testing.T) {
	gw := &fakeGateway{
		sendFunc: func(_, _ string) (*gateway.SendResponse, error) {
			return nil, gateway.ErrSessionExpired
		},
	}
	mgr := NewManager(gw, nil)

	_, err := mgr.SendText(context.Background(), "hello")
	assert.ErrorIs(t, err, gateway.ErrSessionExpired)

	// No synthetic error message; the app shell handles re-login. The
	// optimistic user message stays.
	assert.Equal(t, 1, mgr.MessageCount())
	assert.False(t, mgr.Busy())
}

// =============================================================================
// BUSY GATE
// =============================================================================

func TestBusyGateRejectsOverlappingSend(t *testing.T) {
	inFlight := make(chan struct{})
	release := make(chan struct{})
	gw := &fakeGateway{
		sendFunc: func(_, _ string) (*gateway.SendResponse, error) {
			close(inFlight)
			<-release
			return okResponse("conv-1", "slow reply"), nil
		},
	}
	mgr := NewManager(gw, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := mgr.SendText(context.Background(), "first")
		assert.NoError(t, err)
	}()

	<-inFlight
	assert.True(t, mgr.Busy())

	_, err := mgr.SendText(context.Background(), "second")
	assert.ErrorIs(t, err, ErrBusy)
	// The rejected send must not have appended anything.
	assert.Equal(t, 1, mgr.MessageCount())

	close(release)
	<-done
	assert.False(t, mgr.Busy())
	assert.Equal(t, 2, mgr.MessageCount())
}

func TestStartNewChatDiscardsInFlightCompletion(t *testing.T) {
	inFlight := make(chan struct{})
	release := make(chan struct{})
	gw := &fakeGateway{
		sendFunc: func(_, _ string) (*gateway.SendResponse, error) {
			close(inFlight)
			<-release
			return okResponse("conv-stale", "stale reply"), nil
		},
	}
	mgr := NewManager(gw, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		msg, err := mgr.SendText(context.Background(), "first")
		assert.NoError(t, err)
		assert.Nil(t, msg, "superseded completion returns nothing")
	}()

	<-inFlight
	mgr.StartNewChat()
	assert.False(t, mgr.Busy())

	close(release)
	<-done

	// The stale reply must not leak into the fresh conversation.
	assert.Zero(t, mgr.MessageCount())
	assert.Empty(t, mgr.ConversationID())
}

// =============================================================================
// SPECIALIST LATCH
// =============================================================================

func TestRecommendationLatchSingleShot(t *testing.T) {
	gw := &fakeGateway{
		sendFunc: func(_, _ string) (*gateway.SendResponse, error) {
			resp := okResponse("conv-1", "please see a doctor")
			resp.NeedsSpecialist = true
			return resp, nil
		},
	}
	mgr := NewManager(gw, nil)

	_, err := mgr.SendText(context.Background(), "chest pain and dizziness")
	require.NoError(t, err)

	rec := mgr.Recommendation()
	require.NotNil(t, rec)
	assert.True(t, rec.Triggered)
	require.Len(t, rec.Specialists, 1)
	assert.Equal(t, "Dr. Reyes", rec.Specialists[0].Name)
	assert.Equal(t, 1, gw.recCalls)

	// A later qualifying turn does not re-issue the request.
	_, err = mgr.SendText(context.Background(), "it is getting worse")
	require.NoError(t, err)
	assert.Equal(t, 1, gw.recCalls)
}

func TestRecommendationFailureLeavesLatchRetryable(t *testing.T) {
	recErr := errors.New("recommendation service down")
	gw := &fakeGateway{
		sendFunc: func(_, _ string) (*gateway.SendResponse, error) {
			resp := okResponse("conv-1", "see a doctor")
			resp.NeedsSpecialist = true
			return resp, nil
		},
	}
	gw.recFunc = func(string) (*gateway.RecommendationResponse, error) {
		return nil, recErr
	}
	mgr := NewManager(gw, nil)

	_, err := mgr.SendText(context.Background(), "chest pain for two days now")
	require.NoError(t, err)
	assert.Nil(t, mgr.Recommendation(), "failed fetch must not set the latch")

	// Next qualifying turn retries.
	gw.recFunc = nil
	_, err = mgr.SendText(context.Background(), "still hurting")
	require.NoError(t, err)
	assert.NotNil(t, mgr.Recommendation())
	assert.Equal(t, 2, gw.recCalls)
}

func TestClearRecommendationReenablesLatch(t *testing.T) {
	gw := &fakeGateway{
		sendFunc: func(_, _ string) (*gateway.SendResponse, error) {
			resp := okResponse("conv-1", "see a doctor")
			resp.NeedsSpecialist = true
			return resp, nil
		},
	}
	mgr := NewManager(gw, nil)

	_, _ = mgr.SendText(context.Background(), "severe migraine all week")
	require.NotNil(t, mgr.Recommendation())
	require.Equal(t, 1, gw.recCalls)

	mgr.ClearRecommendation()
	assert.Nil(t, mgr.Recommendation())

	_, _ = mgr.SendText(context.Background(), "now my vision blurs")
	assert.NotNil(t, mgr.Recommendation())
	assert.Equal(t, 2, gw.recCalls)
}

func TestRecommendationFromImage(t *testing.T) {
	gw := &fakeGateway{
		imageFunc: func(_, _, _, _ string, _ []byte) (*gateway.SendResponse, error) {
			resp := okResponse("conv-1", "this rash needs professional attention")
			resp.NeedsSpecialist = true
			return resp, nil
		},
	}
	mgr := NewManager(gw, nil)

	_, err := mgr.SendImage(context.Background(), "what is this rash", testImage(t))
	require.NoError(t, err)

	rec := mgr.Recommendation()
	require.NotNil(t, rec)
	assert.True(t, rec.FromImage)
}

func TestRecommendationCarriesContext(t *testing.T) {
	gw := &fakeGateway{
		sendFunc: func(_, _ string) (*gateway.SendResponse, error) {
			resp := okResponse("conv-1", "please see a doctor")
			resp.NeedsSpecialist = true
			return resp, nil
		},
	}
	mgr := NewManager(gw, nil)

	_, err := mgr.SendText(context.Background(), "chest pain and dizziness")
	require.NoError(t, err)

	rec := mgr.Recommendation()
	require.NotNil(t, rec)
	require.Len(t, gw.recContexts, 1)
	assert.NotEmpty(t, rec.ConversationContext)
	assert.Equal(t, gw.recContexts[0], rec.ConversationContext)
}

// =============================================================================
// TOPIC ACCUMULATOR
// =============================================================================

func TestTopicsAccumulateWithoutDedup(t *testing.T) {
	batches := [][]string{
		{"headache", "stress"},
		{"stress", "sleep"},
	}
	call := 0
	gw := &fakeGateway{
		sendFunc: func(_, _ string) (*gateway.SendResponse, error) {
			resp := okResponse("conv-1", "ok")
			resp.ExtractedTopics = batches[call]
			call++
			return resp, nil
		},
	}
	mgr := NewManager(gw, nil)

	_, _ = mgr.SendText(context.Background(), "headaches from stress")
	_, _ = mgr.SendText(context.Background(), "and poor sleep")

	// Append-only, arrival order, duplicates kept.
	assert.Equal(t, []string{"headache", "stress", "stress", "sleep"}, mgr.Topics())

	// Each batch persisted separately, labeled with its source.
	require.Len(t, gw.topicCalls, 2)
	assert.Equal(t, []string{"headache", "stress"}, gw.topicCalls[0])
	assert.Equal(t, []string{"stress", "sleep"}, gw.topicCalls[1])
	assert.Equal(t, "chat", gw.topicSource)
}

func TestTopicPersistenceFailureSwallowed(t *testing.T) {
	gw := &fakeGateway{
		sendFunc: func(_, _ string) (*gateway.SendResponse, error) {
			resp := okResponse("conv-1", "ok")
			resp.ExtractedTopics = []string{"hydration"}
			return resp, nil
		},
		topicErr: errors.New("profile service down"),
	}
	mgr := NewManager(gw, nil)

	msg, err := mgr.SendText(context.Background(), "how much water per day")
	require.NoError(t, err)
	assert.False(t, msg.IsError)

	// The reply stays, the accumulator stays, nothing surfaced.
	assert.Equal(t, 2, mgr.MessageCount())
	assert.Equal(t, []string{"hydration"}, mgr.Topics())
}

// =============================================================================
// SESSION OPERATIONS
// =============================================================================

func TestStartNewChatResetsEverything(t *testing.T) {
	gw := &fakeGateway{
		sendFunc: func(_, _ string) (*gateway.SendResponse, error) {
			resp := okResponse("conv-1", "see a doctor")
			resp.NeedsSpecialist = true
			resp.ExtractedTopics = []string{"back pain"}
			return resp, nil
		},
	}
	mgr := NewManager(gw, nil)

	_, _ = mgr.SendText(context.Background(), "my back hurts constantly")
	require.NotZero(t, mgr.MessageCount())
	require.NotEmpty(t, mgr.ConversationID())
	require.NotNil(t, mgr.Recommendation())
	require.NotEmpty(t, mgr.Topics())

	mgr.StartNewChat()

	assert.Zero(t, mgr.MessageCount())
	assert.Empty(t, mgr.ConversationID())
	assert.Nil(t, mgr.Recommendation())
	assert.Empty(t, mgr.Topics())
	assert.False(t, mgr.Busy())
}

func TestLoadConversation(t *testing.T) {
	gw := &fakeGateway{}
	mgr := NewManager(gw, nil)
	_, _ = mgr.SendText(context.Background(), "stale message")

	restored := []*model.Message{
		model.NewUserMessage("old question"),
		model.NewAssistantMessage("old answer"),
	}
	mgr.LoadConversation("conv-42", restored)

	msgs := mgr.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "old question", msgs[0].Text)
	assert.Equal(t, "conv-42", mgr.ConversationID())
	assert.Nil(t, mgr.Recommendation())
	assert.Empty(t, mgr.Topics())

	// Follow-up sends continue the restored thread.
	var gotID string
	gw.sendFunc = func(_, conversationID string) (*gateway.SendResponse, error) {
		gotID = conversationID
		return okResponse("conv-42", "continuing"), nil
	}
	_, err := mgr.SendText(context.Background(), "follow-up")
	require.NoError(t, err)
	assert.Equal(t, "conv-42", gotID)
}

// =============================================================================
// IMAGE SEND
// =============================================================================

func TestSendImagePlaceholderText(t *testing.T) {
	gw := &fakeGateway{}
	mgr := NewManager(gw, nil)

	_, err := mgr.SendImage(context.Background(), "", testImage(t))
	require.NoError(t, err)

	msgs := mgr.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "Image uploaded", msgs[0].Text)
	assert.True(t, msgs[1].IsImageAnalysis)
}

func TestSendImageAttachesPreviewAndReleasesOnSuccess(t *testing.T) {
	gw := &fakeGateway{}
	mgr := NewManager(gw, nil)

	img := testImage(t)
	preview := img.PreviewURL()
	require.NotEmpty(t, preview)

	_, err := mgr.SendImage(context.Background(), "check this", img)
	require.NoError(t, err)

	// The optimistic user message carried the local preview reference.
	assert.Equal(t, preview, mgr.Messages()[0].ImageURL)

	// Released exactly once after the server echo superseded it.
	assert.Empty(t, img.PreviewURL())
	_, statErr := os.Stat(preview)
	assert.True(t, os.IsNotExist(statErr))
}

func TestSendImageKeepsPreviewOnFailure(t *testing.T) {
	gw := &fakeGateway{
		imageFunc: func(_, _, _, _ string, _ []byte) (*gateway.SendResponse, error) {
			return nil, errors.New("boom")
		},
	}
	mgr := NewManager(gw, nil)

	img := testImage(t)
	_, err := mgr.SendImage(context.Background(), "check this", img)
	require.NoError(t, err)

	// Preview survives a failed send; the caller decides when to drop it.
	assert.NotEmpty(t, img.PreviewURL())
}

func TestSendImageNilImage(t *testing.T) {
	mgr := NewManager(&fakeGateway{}, nil)
	_, err := mgr.SendImage(context.Background(), "text", nil)
	assert.ErrorIs(t, err, ErrNoImage)
	assert.Zero(t, mgr.MessageCount())
}

func TestSendImageForwardsPayload(t *testing.T) {
	var gotName, gotMIME string
	var gotData []byte
	gw := &fakeGateway{
		imageFunc: func(_, _, fileName, fileMIME string, image []byte) (*gateway.SendResponse, error) {
			gotName, gotMIME, gotData = fileName, fileMIME, image
			return okResponse("c1", "ok"), nil
		},
	}
	mgr := NewManager(gw, nil)

	img := testImage(t)
	_, err := mgr.SendImage(context.Background(), "look", img)
	require.NoError(t, err)

	assert.Equal(t, "scan.png", gotName)
	assert.Equal(t, "image/png", gotMIME)
	assert.Equal(t, []byte("png-bytes"), gotData)
}

// =============================================================================
// CONTEXT SYNTHESIS
// =============================================================================

func TestContextSynthesisJoinsMessages(t *testing.T) {
	gw := &fakeGateway{
		sendFunc: func(_, _ string) (*gateway.SendResponse, error) {
			resp := okResponse("conv-1", "rest and fluids help with that")
			resp.NeedsSpecialist = true
			return resp, nil
		},
	}
	mgr := NewManager(gw, nil)

	_, err := mgr.SendText(context.Background(), "persistent migraine for a week")
	require.NoError(t, err)

	require.Len(t, gw.recContexts, 1)
	assert.Equal(t, "persistent migraine for a week. rest and fluids help with that", gw.recContexts[0])
}

func TestContextSynthesisShortFallback(t *testing.T) {
	longReply := strings.Repeat("x", 150)
	gw := &fakeGateway{
		sendFunc: func(_, _ string) (*gateway.SendResponse, error) {
			resp := okResponse("conv-1", longReply)
			resp.NeedsSpecialist = true
			return resp, nil
		},
	}
	// Threshold higher than the joined log so the fallback kicks in.
	mgr := NewManager(gw, nil).WithContextTuning(500, 100)

	_, err := mgr.SendText(context.Background(), "ow")
	require.NoError(t, err)

	require.Len(t, gw.recContexts, 1)
	want := "ow. " + strings.Repeat("x", 100)
	assert.Equal(t, want, gw.recContexts[0])
}
