package chat

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"glassfactory-chat/internal/dto"
	"glassfactory-chat/pkg/chat/storage"
	"glassfactory-chat/pkg/typing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu       sync.Mutex
	requests []*dto.ChatRequest
	reply    string
	err      error
	release  chan struct{}
}

func (f *fakeAPI) Send(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	release := f.release
	f.mu.Unlock()

	if release != nil {
		<-release
	}
	if f.err != nil {
		return nil, f.err
	}
	return &dto.ChatResponse{Response: f.reply, Timestamp: time.Now().Format(time.RFC3339)}, nil
}

func (f *fakeAPI) last() *dto.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return nil
	}
	return f.requests[len(f.requests)-1]
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestManager(t *testing.T, store storage.Store, api ChatAPI) *Manager {
	t.Helper()
	clock := &testClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	m := NewManager(Options{
		Store:    store,
		API:      api,
		Animator: typing.NewAnimator(time.Hour, nil),
		Now:      clock.Now,
		Rand:     rand.New(rand.NewPCG(1, 2)),
	})
	m.Init(context.Background())
	return m
}

func writePNG(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jacket.png")
	data := append([]byte("\x89PNG\r\n\x1a\n"), []byte("\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")...)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestInitFreshSession(t *testing.T) {
	store := storage.NewMemoryStore()
	m := newTestManager(t, store, &fakeAPI{})

	assert.Regexp(t, regexp.MustCompile(`^session-\d+-[0-9a-z]{9}$`), m.SessionID())
	assert.True(t, m.IsNewSession())

	msgs := m.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, GreetingText, msgs[0].Text)
	assert.False(t, msgs[0].IsUser)

	stored, ok, _ := store.Get(context.Background(), KeySessionID)
	assert.True(t, ok)
	assert.Equal(t, m.SessionID(), stored)
	assert.Len(t, m.SuggestedPrompts(), 4)
}

func TestInitStoredSessionMissingFromHistory(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), KeySessionID, "session-1-abc"))

	m := newTestManager(t, store, &fakeAPI{})
	assert.Equal(t, "session-1-abc", m.SessionID())
	assert.True(t, m.IsNewSession())
	assert.Len(t, m.Messages(), 1)
}

func TestInitCorruptHistory(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), KeyHistory, "[{broken"))

	m := newTestManager(t, store, &fakeAPI{})
	assert.Empty(t, m.History())
	assert.Len(t, m.Messages(), 1)
}

func TestSendAppendsAndPersists(t *testing.T) {
	store := storage.NewMemoryStore()
	api := &fakeAPI{reply: "Here are three factories."}
	m := newTestManager(t, store, api)

	m.SetInput("Hello there, I need help")
	require.NoError(t, m.Send(context.Background()))

	msgs := m.Messages()
	require.Len(t, msgs, 3)
	assert.True(t, msgs[1].IsUser)
	assert.Equal(t, "Here are three factories.", msgs[2].Text)
	assert.Equal(t, "", m.Input())
	assert.False(t, m.IsLoading())
	assert.False(t, m.IsNewSession())
	assert.Equal(t, "Hello there, I need help", m.Title())

	req := api.last()
	require.NotNil(t, req)
	assert.True(t, req.IsNewSession)
	assert.Equal(t, m.SessionID(), req.SessionId)

	m.SetInput("And in Portugal?")
	require.NoError(t, m.Send(context.Background()))
	assert.False(t, api.last().IsNewSession)

	history := m.History()
	require.Len(t, history, 1)
	assert.Equal(t, "Hello there, I need help", history[0].Title)
	assert.Len(t, history[0].Messages, 5)

	id, _, active := m.Typing()
	assert.True(t, active)
	assert.Equal(t, m.Messages()[4].ID, id)
}

func TestSendTitleTruncation(t *testing.T) {
	m := newTestManager(t, storage.NewMemoryStore(), &fakeAPI{reply: "ok"})

	msg := strings.Repeat("abcdefghij", 4)
	m.SetInput(msg)
	require.NoError(t, m.Send(context.Background()))
	assert.Equal(t, msg[:30]+"...", m.Title())
}

func TestSendRejections(t *testing.T) {
	api := &fakeAPI{reply: "ok"}
	m := newTestManager(t, storage.NewMemoryStore(), api)

	m.SetInput("   ")
	err := m.Send(context.Background())
	assert.ErrorIs(t, err, ErrNothingToSend)
	assert.True(t, IsSendRejection(err))
	assert.Len(t, m.Messages(), 1)
	assert.Nil(t, api.last())
}

func TestSendWhileLoadingIsRejected(t *testing.T) {
	api := &fakeAPI{reply: "ok", release: make(chan struct{})}
	m := newTestManager(t, storage.NewMemoryStore(), api)

	m.SetInput("first")
	done := make(chan error, 1)
	go func() { done <- m.Send(context.Background()) }()

	require.Eventually(t, func() bool { return len(m.Messages()) == 2 }, time.Second, time.Millisecond,
		"user message is appended before the reply arrives")
	assert.True(t, m.IsLoading())

	m.SetInput("second")
	assert.ErrorIs(t, m.Send(context.Background()), ErrSendInFlight)

	close(api.release)
	require.NoError(t, <-done)
	assert.Len(t, m.Messages(), 3)
}

func TestSendTransportFailure(t *testing.T) {
	m := newTestManager(t, storage.NewMemoryStore(), &fakeAPI{err: errors.New("connection refused")})

	m.SetInput("hi")
	require.NoError(t, m.Send(context.Background()))

	msgs := m.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, ConnectionErrorText, msgs[2].Text)
	assert.False(t, m.IsNewSession())

	_, _, active := m.Typing()
	assert.False(t, active)
}

func TestSendEmptyReply(t *testing.T) {
	m := newTestManager(t, storage.NewMemoryStore(), &fakeAPI{reply: ""})
	m.SetInput("hi")
	require.NoError(t, m.Send(context.Background()))
	assert.Equal(t, EmptyReplyText, m.Messages()[2].Text)
}

func TestSendImageOnly(t *testing.T) {
	api := &fakeAPI{reply: "I see a jacket"}
	m := newTestManager(t, storage.NewMemoryStore(), api)

	require.NoError(t, m.AttachImage(writePNG(t)))
	require.NoError(t, m.Send(context.Background()))

	req := api.last()
	require.NotNil(t, req)
	assert.True(t, strings.HasPrefix(req.Image, "data:image/png;base64,"))
	assert.Empty(t, req.Message)
	assert.Empty(t, m.AttachedImage())
	assert.Equal(t, NewChatTitle, m.Title())
	assert.Equal(t, ImagePreviewText, lastMessagePreview(m.Messages()[1]))
}

func TestAttachImageRejectsNonImages(t *testing.T) {
	m := newTestManager(t, storage.NewMemoryStore(), &fakeAPI{})
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o600))

	assert.ErrorIs(t, m.AttachImage(path), ErrNotAnImage)
	assert.Empty(t, m.AttachedImage())
}

func TestImageConversionFailureAbortsSend(t *testing.T) {
	api := &fakeAPI{reply: "ok"}
	m := newTestManager(t, storage.NewMemoryStore(), api)

	path := writePNG(t)
	require.NoError(t, m.AttachImage(path))
	require.NoError(t, os.Remove(path))

	m.SetInput("look at this")
	assert.ErrorIs(t, m.Send(context.Background()), ErrImageConversion)
	assert.Len(t, m.Messages(), 1)
	assert.Equal(t, "look at this", m.Input())
	assert.False(t, m.IsLoading())
	assert.Nil(t, api.last())
}

func TestReloadRestoresTranscript(t *testing.T) {
	store := storage.NewMemoryStore()
	first := newTestManager(t, store, &fakeAPI{reply: "Nice jacket"})

	require.NoError(t, first.AttachImage(writePNG(t)))
	first.SetInput("what is this?")
	require.NoError(t, first.Send(context.Background()))

	second := newTestManager(t, store, &fakeAPI{})
	assert.Equal(t, first.SessionID(), second.SessionID())
	assert.False(t, second.IsNewSession())
	assert.Equal(t, first.Title(), second.Title())

	want, err := json.Marshal(first.Messages())
	require.NoError(t, err)
	got, err := json.Marshal(second.Messages())
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(got))
	assert.NotEmpty(t, second.Messages()[1].Image)
}

func TestNewChatKeepsPreviousSession(t *testing.T) {
	m := newTestManager(t, storage.NewMemoryStore(), &fakeAPI{reply: "ok"})
	m.SetInput("first chat")
	require.NoError(t, m.Send(context.Background()))
	oldID := m.SessionID()

	m.NewChat(context.Background())

	assert.NotEqual(t, oldID, m.SessionID())
	assert.True(t, m.IsNewSession())
	assert.Len(t, m.Messages(), 1)
	assert.Empty(t, m.Title())

	history := m.History()
	require.Len(t, history, 1)
	assert.Equal(t, oldID, history[0].SessionID)

	blankID := m.SessionID()
	m.NewChat(context.Background())
	history = m.History()
	require.Len(t, history, 2)
	assert.Equal(t, blankID, history[0].SessionID)
	assert.Equal(t, NewChatTitle, history[0].Title)
	assert.Len(t, history[0].Messages, 1)
}

func TestLoadSessionKeepsGreetingOnlySession(t *testing.T) {
	store := storage.NewMemoryStore()
	m := newTestManager(t, store, &fakeAPI{reply: "ok"})
	m.SetInput("earlier chat")
	require.NoError(t, m.Send(context.Background()))
	earlierID := m.SessionID()

	m.NewChat(context.Background())
	blankID := m.SessionID()
	require.Len(t, m.History(), 1)

	require.NoError(t, m.LoadSession(context.Background(), earlierID))
	assert.Equal(t, earlierID, m.SessionID())

	history := m.History()
	require.Len(t, history, 2)
	var blank *ChatSession
	for i := range history {
		if history[i].SessionID == blankID {
			blank = &history[i]
		}
	}
	require.NotNil(t, blank, "greeting-only session is kept")
	assert.Equal(t, NewChatTitle, blank.Title)
	require.Len(t, blank.Messages, 1)
	assert.Equal(t, GreetingText, blank.Messages[0].Text)

	raw, ok, err := store.Get(context.Background(), KeyHistory)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, raw, blankID)
}

func TestHistoryIsNewestFirstAndUpdatedInPlace(t *testing.T) {
	m := newTestManager(t, storage.NewMemoryStore(), &fakeAPI{reply: "ok"})

	m.SetInput("one")
	require.NoError(t, m.Send(context.Background()))
	firstID := m.SessionID()

	m.NewChat(context.Background())
	m.SetInput("two")
	require.NoError(t, m.Send(context.Background()))
	secondID := m.SessionID()

	history := m.History()
	require.Len(t, history, 2)
	assert.Equal(t, secondID, history[0].SessionID)
	assert.Equal(t, firstID, history[1].SessionID)

	require.NoError(t, m.LoadSession(context.Background(), firstID))
	m.SetInput("one again")
	require.NoError(t, m.Send(context.Background()))

	history = m.History()
	require.Len(t, history, 2)
	assert.Equal(t, secondID, history[0].SessionID, "update keeps position")
	assert.Equal(t, firstID, history[1].SessionID)
	assert.Len(t, history[1].Messages, 5)
	assert.Equal(t, "ok", history[1].LastMessage)
}

func TestLoadSessionUnknown(t *testing.T) {
	m := newTestManager(t, storage.NewMemoryStore(), &fakeAPI{})
	assert.ErrorIs(t, m.LoadSession(context.Background(), "session-nope"), ErrSessionNotFound)
}

func TestDeleteActiveSessionStartsFresh(t *testing.T) {
	store := storage.NewMemoryStore()
	m := newTestManager(t, store, &fakeAPI{reply: "ok"})
	m.SetInput("to be deleted")
	require.NoError(t, m.Send(context.Background()))
	oldID := m.SessionID()
	m.SetInput("draft")

	m.DeleteSession(context.Background(), oldID)

	assert.NotEqual(t, oldID, m.SessionID())
	require.Len(t, m.Messages(), 1)
	assert.Equal(t, GreetingText, m.Messages()[0].Text)
	assert.Empty(t, m.Input())
	assert.Empty(t, m.History())

	raw, _, _ := store.Get(context.Background(), KeyHistory)
	assert.JSONEq(t, "[]", raw)
}

func TestDeleteOtherSessionKeepsActive(t *testing.T) {
	m := newTestManager(t, storage.NewMemoryStore(), &fakeAPI{reply: "ok"})
	m.SetInput("one")
	require.NoError(t, m.Send(context.Background()))
	firstID := m.SessionID()

	m.NewChat(context.Background())
	m.SetInput("two")
	require.NoError(t, m.Send(context.Background()))
	activeID := m.SessionID()

	m.DeleteSession(context.Background(), firstID)
	assert.Equal(t, activeID, m.SessionID())
	assert.Len(t, m.Messages(), 3)
	require.Len(t, m.History(), 1)
	assert.Equal(t, activeID, m.History()[0].SessionID)
}

func TestLateReplyLandsInItsOwnSession(t *testing.T) {
	api := &fakeAPI{reply: "late answer", release: make(chan struct{})}
	m := newTestManager(t, storage.NewMemoryStore(), api)

	m.SetInput("slow question")
	done := make(chan error, 1)
	go func() { done <- m.Send(context.Background()) }()
	require.Eventually(t, func() bool { return len(m.Messages()) == 2 }, time.Second, time.Millisecond)
	origin := m.SessionID()

	m.NewChat(context.Background())
	close(api.release)
	require.NoError(t, <-done)

	assert.Len(t, m.Messages(), 1, "new chat stays untouched")
	history := m.History()
	require.Len(t, history, 1)
	assert.Equal(t, origin, history[0].SessionID)
	require.Len(t, history[0].Messages, 3)
	assert.Equal(t, "late answer", history[0].Messages[2].Text)
}

func TestDarkModePreference(t *testing.T) {
	store := storage.NewMemoryStore()
	m := NewManager(Options{Store: store, API: &fakeAPI{}, PrefersDark: true})
	m.Init(context.Background())
	assert.True(t, m.IsDarkMode())

	assert.False(t, m.ToggleDarkMode(context.Background()))
	raw, _, _ := store.Get(context.Background(), KeyDarkMode)
	assert.Equal(t, "false", raw)

	again := NewManager(Options{Store: store, API: &fakeAPI{}, PrefersDark: true})
	again.Init(context.Background())
	assert.False(t, again.IsDarkMode())
}

func TestSendPrompt(t *testing.T) {
	api := &fakeAPI{reply: "ok"}
	m := newTestManager(t, storage.NewMemoryStore(), api)
	prompt := m.SuggestedPrompts()[0]

	require.NoError(t, m.SendPrompt(context.Background(), prompt))
	assert.Equal(t, prompt, api.last().Message)
	assert.Equal(t, GenerateTitle(prompt), m.Title())
}

func TestGenerateTitle(t *testing.T) {
	assert.Equal(t, "Hello there, I need help", GenerateTitle("Hello there, I need help"))
	assert.Equal(t, "line one line two", GenerateTitle("line one\nline two"))
	assert.Equal(t, strings.Repeat("x", 30)+"...", GenerateTitle(strings.Repeat("x", 40)))
	assert.Equal(t, strings.Repeat("x", 30), GenerateTitle(strings.Repeat("x", 30)))
	assert.Equal(t, NewChatTitle, GenerateTitle(""))
}
