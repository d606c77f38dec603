// Package chat owns the client side of a conversation: the active transcript,
// the session id and the persisted history list.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"glassfactory-chat/internal/dto"
	"glassfactory-chat/internal/pkg/logger"
	"glassfactory-chat/pkg/chat/storage"
	"glassfactory-chat/pkg/typing"

	"github.com/google/uuid"
)

const logModule = "ChatManager"

type Options struct {
	Store    storage.Store
	API      ChatAPI
	Logger   logger.ILogger
	Animator *typing.Animator
	Profile  Profile

	// PrefersDark is the host's theme preference, used until the user toggles.
	PrefersDark bool

	// OnChange is called after every state change, outside the manager lock.
	OnChange func()

	Now  func() time.Time
	Rand *rand.Rand
}

type Manager struct {
	store    storage.Store
	api      ChatAPI
	logger   logger.ILogger
	animator *typing.Animator
	profile  Profile
	onChange func()
	now      func() time.Time
	rnd      *rand.Rand

	prefersDark bool

	mu           sync.Mutex
	messages     []Message
	history      []ChatSession
	sessionID    string
	title        string
	isNewSession bool
	darkMode     bool
	loading      bool
	input        string
	imagePath    string
	prompts      []string
}

func NewManager(opts Options) *Manager {
	m := &Manager{
		store:        opts.Store,
		api:          opts.API,
		logger:       opts.Logger,
		animator:     opts.Animator,
		profile:      opts.Profile,
		onChange:     opts.OnChange,
		now:          opts.Now,
		rnd:          opts.Rand,
		prefersDark:  opts.PrefersDark,
		isNewSession: true,
	}
	if m.logger == nil {
		m.logger = logger.NewNopLogger()
	}
	if m.animator == nil {
		m.animator = typing.NewAnimator(typing.DefaultInterval, nil)
	}
	if m.onChange == nil {
		m.onChange = func() {}
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.rnd == nil {
		m.rnd = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64()))
	}
	m.prompts = pickPrompts(m.rnd)
	return m
}

// Init loads the theme, the history and resolves which session is active.
func (m *Manager) Init(ctx context.Context) {
	m.mu.Lock()

	m.darkMode = m.prefersDark
	if raw, ok := m.get(ctx, KeyDarkMode); ok {
		var dark bool
		if err := json.Unmarshal([]byte(raw), &dark); err != nil {
			m.logger.Warn(logModule, "Invalid dark mode preference", map[string]interface{}{"error": err.Error()})
		} else {
			m.darkMode = dark
		}
	}

	m.history = m.loadHistory(ctx)

	stored, _ := m.get(ctx, KeySessionID)
	switch {
	case stored == "":
		m.sessionID = NewSessionID(m.timestamp(), m.rnd)
		m.set(ctx, KeySessionID, m.sessionID)
		m.isNewSession = true
	default:
		m.sessionID = stored
		if idx := m.indexOf(stored); idx >= 0 {
			m.messages = cloneMessages(m.history[idx].Messages)
			m.title = m.history[idx].Title
			m.isNewSession = false
		} else {
			m.isNewSession = true
		}
	}

	if len(m.messages) == 0 {
		m.messages = []Message{m.greeting()}
	}

	m.logger.Info(logModule, "Session resolved", map[string]interface{}{
		"session_id":     m.sessionID,
		"is_new_session": m.isNewSession,
		"history_size":   len(m.history),
	})
	m.mu.Unlock()
	m.onChange()
}

// Send posts the compose box (text and attached image) as a new user turn.
func (m *Manager) Send(ctx context.Context) error {
	m.mu.Lock()
	text, imagePath := m.input, m.imagePath
	m.mu.Unlock()
	return m.send(ctx, text, imagePath, true)
}

// SendPrompt sends one of the suggested prompts directly.
func (m *Manager) SendPrompt(ctx context.Context, prompt string) error {
	return m.send(ctx, prompt, "", false)
}

func (m *Manager) send(ctx context.Context, text, imagePath string, fromCompose bool) error {
	m.mu.Lock()
	switch {
	case strings.TrimSpace(text) == "" && imagePath == "":
		m.mu.Unlock()
		return ErrNothingToSend
	case m.loading:
		m.mu.Unlock()
		return ErrSendInFlight
	case m.sessionID == "":
		m.mu.Unlock()
		return ErrNoSession
	}
	m.loading = true
	m.mu.Unlock()

	var image string
	if imagePath != "" {
		dataURL, err := ImageToDataURL(imagePath)
		if err != nil {
			m.logger.Error(logModule, "Error converting image", map[string]interface{}{"error": err, "path": imagePath})
			m.mu.Lock()
			m.loading = false
			m.mu.Unlock()
			return err
		}
		image = dataURL
	}

	m.mu.Lock()
	m.appendLocked(ctx, Message{
		ID:        uuid.NewString(),
		Text:      text,
		IsUser:    true,
		Timestamp: m.timestamp(),
		Image:     image,
		ImageFile: imagePath,
	})
	m.input = ""
	if fromCompose {
		m.imagePath = ""
	}
	sessionID := m.sessionID
	isNew := m.isNewSession
	m.isNewSession = false
	m.mu.Unlock()
	m.onChange()

	req := &dto.ChatRequest{
		Message:      text,
		SessionId:    sessionID,
		Image:        image,
		IsNewSession: isNew,
		UserProfile:  &dto.UserProfile{IsAuthenticated: m.profile.IsAuthenticated},
	}
	m.logger.Info(logModule, "Sending message", map[string]interface{}{
		"session_id":     sessionID,
		"is_new_session": isNew,
		"has_image":      image != "",
	})

	resp, err := m.api.Send(ctx, req)

	reply := Message{ID: uuid.NewString(), IsUser: false}
	if err != nil {
		m.logger.Error(logModule, "Error sending message", map[string]interface{}{"error": err, "session_id": sessionID})
		reply.Text = ConnectionErrorText
	} else {
		reply.Text = resp.Response
		if reply.Text == "" {
			reply.Text = EmptyReplyText
		}
	}

	m.mu.Lock()
	reply.Timestamp = m.timestamp()
	stillActive := m.sessionID == sessionID
	if stillActive {
		m.appendLocked(ctx, reply)
	} else {
		m.appendToHistoryLocked(ctx, sessionID, reply)
	}
	m.loading = false
	m.mu.Unlock()

	if err == nil && stillActive {
		m.animator.Start(reply.ID, reply.Text)
	}
	m.onChange()
	return nil
}

// NewChat stores the current conversation and starts a fresh session.
func (m *Manager) NewChat(ctx context.Context) {
	m.mu.Lock()
	if len(m.messages) > 0 {
		m.saveCurrentLocked(ctx)
	}
	m.resetLocked(ctx)
	m.mu.Unlock()
	m.onChange()
}

// LoadSession switches to a session from the history list.
func (m *Manager) LoadSession(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	if len(m.messages) > 0 && m.sessionID != sessionID {
		m.saveCurrentLocked(ctx)
	}

	idx := m.indexOf(sessionID)
	if idx < 0 {
		m.mu.Unlock()
		return ErrSessionNotFound
	}

	m.animator.Stop()
	entry := m.history[idx]
	m.sessionID = sessionID
	m.messages = cloneMessages(entry.Messages)
	m.title = entry.Title
	m.isNewSession = false
	m.set(ctx, KeySessionID, sessionID)
	if len(m.messages) > 1 {
		m.saveCurrentLocked(ctx)
	}
	m.mu.Unlock()
	m.onChange()
	return nil
}

// DeleteSession removes a session from history. Deleting the active session starts a new chat.
func (m *Manager) DeleteSession(ctx context.Context, sessionID string) {
	m.mu.Lock()
	kept := m.history[:0:0]
	for _, s := range m.history {
		if s.SessionID != sessionID {
			kept = append(kept, s)
		}
	}
	m.history = kept
	m.persistHistoryLocked(ctx)

	if m.sessionID == sessionID {
		m.resetLocked(ctx)
	}
	m.mu.Unlock()
	m.onChange()
}

func (m *Manager) ToggleDarkMode(ctx context.Context) bool {
	m.mu.Lock()
	m.darkMode = !m.darkMode
	dark := m.darkMode
	raw, _ := json.Marshal(dark)
	m.set(ctx, KeyDarkMode, string(raw))
	m.mu.Unlock()
	m.onChange()
	return dark
}

func (m *Manager) SetInput(text string) {
	m.mu.Lock()
	m.input = text
	m.mu.Unlock()
}

// AttachImage selects an image for the next Send. Non-image files are refused.
func (m *Manager) AttachImage(path string) error {
	if err := checkImageFile(path); err != nil {
		return err
	}
	m.mu.Lock()
	m.imagePath = path
	m.mu.Unlock()
	m.onChange()
	return nil
}

func (m *Manager) RemoveImage() {
	m.mu.Lock()
	m.imagePath = ""
	m.mu.Unlock()
	m.onChange()
}

func (m *Manager) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneMessages(m.messages)
}

func (m *Manager) History() []ChatSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ChatSession, len(m.history))
	copy(out, m.history)
	return out
}

func (m *Manager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

func (m *Manager) Title() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.title
}

func (m *Manager) Input() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.input
}

func (m *Manager) AttachedImage() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.imagePath
}

func (m *Manager) IsDarkMode() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.darkMode
}

func (m *Manager) IsLoading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

func (m *Manager) IsNewSession() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isNewSession
}

func (m *Manager) SuggestedPrompts() []string {
	return append([]string(nil), m.prompts...)
}

// Typing reports the assistant message currently being revealed.
func (m *Manager) Typing() (messageID, displayed string, active bool) {
	return m.animator.Current()
}

// --- internals, all called with m.mu held ---

func (m *Manager) appendLocked(ctx context.Context, msg Message) {
	m.messages = append(m.messages, msg)
	if len(m.messages) > 1 {
		m.saveCurrentLocked(ctx)
	}
}

// appendToHistoryLocked stores a late reply in the session it belongs to
// after the user already switched away.
func (m *Manager) appendToHistoryLocked(ctx context.Context, sessionID string, msg Message) {
	idx := m.indexOf(sessionID)
	if idx < 0 {
		m.logger.Warn(logModule, "Reply for unknown session dropped", map[string]interface{}{"session_id": sessionID})
		return
	}
	entry := m.history[idx]
	entry.Messages = append(cloneMessages(entry.Messages), msg)
	entry.LastMessage = lastMessagePreview(msg)
	entry.Timestamp = msg.Timestamp
	m.history[idx] = entry
	m.persistHistoryLocked(ctx)
}

func (m *Manager) saveCurrentLocked(ctx context.Context) {
	if len(m.messages) == 0 || m.sessionID == "" {
		return
	}

	title := m.title
	if title == "" {
		title = titleFromMessages(m.messages)
	}

	session := ChatSession{
		SessionID:   m.sessionID,
		Title:       title,
		LastMessage: lastMessagePreview(m.messages[len(m.messages)-1]),
		Timestamp:   m.timestamp(),
		Messages:    cloneMessages(m.messages),
	}

	if idx := m.indexOf(m.sessionID); idx >= 0 {
		m.history[idx] = session
	} else {
		m.history = append([]ChatSession{session}, m.history...)
	}

	m.persistHistoryLocked(ctx)
	m.set(ctx, KeySessionID, m.sessionID)

	if m.title == "" {
		m.title = title
	}
}

func (m *Manager) resetLocked(ctx context.Context) {
	m.animator.Stop()
	m.sessionID = NewSessionID(m.timestamp(), m.rnd)
	m.messages = []Message{m.greeting()}
	m.title = ""
	m.input = ""
	m.imagePath = ""
	m.isNewSession = true
	m.set(ctx, KeySessionID, m.sessionID)
}

func (m *Manager) indexOf(sessionID string) int {
	for i, s := range m.history {
		if s.SessionID == sessionID {
			return i
		}
	}
	return -1
}

func (m *Manager) greeting() Message {
	return Message{
		ID:        GreetingID,
		Text:      GreetingText,
		IsUser:    false,
		Timestamp: m.timestamp(),
	}
}

// timestamp drops the monotonic reading so values survive a JSON round trip unchanged.
func (m *Manager) timestamp() time.Time {
	return m.now().Round(0)
}

func (m *Manager) loadHistory(ctx context.Context) []ChatSession {
	raw, ok := m.get(ctx, KeyHistory)
	if !ok || raw == "" {
		return nil
	}
	var history []ChatSession
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		m.logger.Error(logModule, "Error parsing chat history", map[string]interface{}{"error": err})
		return nil
	}
	return history
}

func (m *Manager) persistHistoryLocked(ctx context.Context) {
	history := m.history
	if history == nil {
		history = []ChatSession{}
	}
	raw, err := json.Marshal(history)
	if err != nil {
		m.logger.Error(logModule, "Error encoding chat history", map[string]interface{}{"error": err})
		return
	}
	m.set(ctx, KeyHistory, string(raw))
}

func (m *Manager) get(ctx context.Context, key string) (string, bool) {
	v, ok, err := m.store.Get(ctx, key)
	if err != nil {
		m.logger.Error(logModule, "Storage read failed", map[string]interface{}{"error": err, "key": key})
		return "", false
	}
	return v, ok
}

func (m *Manager) set(ctx context.Context, key, value string) {
	if err := m.store.Set(ctx, key, value); err != nil {
		m.logger.Error(logModule, "Storage write failed", map[string]interface{}{"error": err, "key": key})
	}
}

func lastMessagePreview(msg Message) string {
	if msg.Text == "" {
		return ImagePreviewText
	}
	return msg.Text
}

func cloneMessages(in []Message) []Message {
	if in == nil {
		return nil
	}
	out := make([]Message, len(in))
	copy(out, in)
	return out
}

// IsSendRejection reports whether err is one of the silent no-op refusals of Send.
func IsSendRejection(err error) bool {
	return errors.Is(err, ErrNothingToSend) || errors.Is(err, ErrSendInFlight) || errors.Is(err, ErrNoSession)
}
