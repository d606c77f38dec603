package dto

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message      string       `json:"message,omitempty" validate:"required_without=Image"`
	SessionId    string       `json:"sessionId" validate:"required"`
	Image        string       `json:"image,omitempty"` // data URL
	IsNewSession bool         `json:"isNewSession,omitempty"`
	UserProfile  *UserProfile `json:"userProfile,omitempty"`
}

type UserProfile struct {
	IsAuthenticated bool `json:"isAuthenticated"`
}

type ChatResponse struct {
	Response       string `json:"response"`
	Timestamp      string `json:"timestamp"`
	ImageProcessed bool   `json:"imageProcessed"`
}

type ChatErrorResponse struct {
	Error    string `json:"error"`
	Response string `json:"response,omitempty"`
}

// TurnCompletedMessage is published on the internal bus after every answered turn.
type TurnCompletedMessage struct {
	TurnId         string       `json:"turn_id"`
	SessionId      string       `json:"session_id"`
	ChatInput      string       `json:"chat_input"`
	Response       string       `json:"response"`
	HadImage       bool         `json:"had_image"`
	ImageProcessed bool         `json:"image_processed"`
	IsNewSession   bool         `json:"is_new_session"`
	UserProfile    *UserProfile `json:"user_profile,omitempty"`
	DroppedLines   int          `json:"dropped_lines"`
	OccurredAt     string       `json:"occurred_at"`
}

// ChatTurnResponse is one archived turn as returned by GET /api/sessions/:sessionId/turns.
type ChatTurnResponse struct {
	Id              string `json:"id"`
	SessionId       string `json:"sessionId"`
	ChatInput       string `json:"chatInput"`
	Response        string `json:"response"`
	HadImage        bool   `json:"hadImage"`
	ImageProcessed  bool   `json:"imageProcessed"`
	IsNewSession    bool   `json:"isNewSession"`
	IsAuthenticated bool   `json:"isAuthenticated"`
	OccurredAt      string `json:"occurredAt"`
}
