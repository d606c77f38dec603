package chat

import (
	"errors"
	"time"
)

// Storage keys shared with the web client so exported storage stays compatible.
const (
	KeySessionID = "n8n-chat-session"
	KeyHistory   = "glassfactory-chat-history"
	KeyDarkMode  = "glassfactory-dark-mode"
)

const (
	GreetingID          = "1"
	GreetingText        = "Hello! I'm your Glass Factory assistant. How can I help you with your manufacturing needs today?"
	ConnectionErrorText = "Sorry, I'm having trouble connecting right now. Please try again later."
	EmptyReplyText      = "Sorry, I couldn't process that request."
	NewChatTitle        = "New Chat"
	ImagePreviewText    = "[Image]"
)

var (
	ErrNothingToSend   = errors.New("nothing to send")
	ErrSendInFlight    = errors.New("a message is already being sent")
	ErrNoSession       = errors.New("no active session")
	ErrSessionNotFound = errors.New("session not found")
	ErrImageConversion = errors.New("image conversion failed")
	ErrNotAnImage      = errors.New("file is not an image")
)

type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	IsUser    bool      `json:"isUser"`
	Timestamp time.Time `json:"timestamp"`
	Image     string    `json:"image,omitempty"` // data URL
	ImageFile string    `json:"-"`               // local path, never persisted
}

type ChatSession struct {
	SessionID   string    `json:"sessionId"`
	Title       string    `json:"title"`
	LastMessage string    `json:"lastMessage"`
	Timestamp   time.Time `json:"timestamp"`
	Messages    []Message `json:"messages"`
}

// Profile replaces the shared user store; it is passed in explicitly.
type Profile struct {
	IsAuthenticated bool
}
