package typing

import (
	"strings"
	"sync"
	"time"
)

const DefaultInterval = 80 * time.Millisecond

// Frame is emitted on every reveal step. Done frames carry the full text.
type Frame struct {
	Token     uint64
	MessageID string
	Text      string
	Done      bool
}

// Animator reveals a message word by word. Only the animation started last
// is live: each Start bumps the token and ticks from older tokens are ignored.
type Animator struct {
	interval time.Duration
	onFrame  func(Frame)

	mu        sync.Mutex
	token     uint64
	stop      chan struct{}
	messageID string
	displayed string
	active    bool
}

func NewAnimator(interval time.Duration, onFrame func(Frame)) *Animator {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if onFrame == nil {
		onFrame = func(Frame) {}
	}
	return &Animator{interval: interval, onFrame: onFrame}
}

// Start cancels any running animation and begins revealing text.
func (a *Animator) Start(messageID, text string) uint64 {
	words := strings.Split(text, " ")

	a.mu.Lock()
	a.cancelLocked()
	a.token++
	token := a.token
	stop := make(chan struct{})
	a.stop = stop
	a.messageID = messageID
	a.displayed = ""
	a.active = true
	a.mu.Unlock()

	go a.run(token, stop, words)
	return token
}

func (a *Animator) run(token uint64, stop chan struct{}, words []string) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	shown := 0
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		a.mu.Lock()
		if a.token != token {
			a.mu.Unlock()
			return
		}

		var frame Frame
		if shown < len(words) {
			shown++
			a.displayed = strings.Join(words[:shown], " ")
			frame = Frame{Token: token, MessageID: a.messageID, Text: a.displayed}
		} else {
			frame = Frame{Token: token, MessageID: a.messageID, Text: strings.Join(words, " "), Done: true}
			a.active = false
			a.messageID = ""
			a.displayed = ""
			a.stop = nil
		}
		a.mu.Unlock()

		a.onFrame(frame)
		if frame.Done {
			return
		}
	}
}

// Stop cancels the running animation without emitting a final frame.
func (a *Animator) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cancelLocked()
	a.token++
	a.active = false
	a.messageID = ""
	a.displayed = ""
}

func (a *Animator) cancelLocked() {
	if a.stop != nil {
		close(a.stop)
		a.stop = nil
	}
}

// Current reports the message being typed and the text revealed so far.
func (a *Animator) Current() (messageID, displayed string, active bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.messageID, a.displayed, a.active
}

func (a *Animator) Token() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token
}
