package events

import "time"

const TypeChatTurn = "chat.turn"

// ChatTurn announces an answered chat request. The image itself is never relayed.
type ChatTurn struct {
	TurnID          string
	SessionID       string
	ChatInput       string
	Response        string
	HadImage        bool
	ImageProcessed  bool
	IsNewSession    bool
	IsAuthenticated bool
	DroppedLines    int
	OccurredAt      time.Time
}

func (e ChatTurn) EventType() string {
	return TypeChatTurn
}

func (e ChatTurn) Payload() map[string]interface{} {
	return map[string]interface{}{
		"turn_id":          e.TurnID,
		"session_id":       e.SessionID,
		"chat_input":       e.ChatInput,
		"response":         e.Response,
		"had_image":        e.HadImage,
		"image_processed":  e.ImageProcessed,
		"is_new_session":   e.IsNewSession,
		"is_authenticated": e.IsAuthenticated,
		"dropped_lines":    e.DroppedLines,
		"occurred_at":      e.OccurredAt.Format(time.RFC3339Nano),
	}
}

func (e ChatTurn) Timestamp() time.Time {
	return e.OccurredAt
}

// ChatTurnFromPayload rebuilds a ChatTurn from a relayed payload. Missing fields stay zero.
func ChatTurnFromPayload(p map[string]interface{}) ChatTurn {
	str := func(k string) string { s, _ := p[k].(string); return s }
	flag := func(k string) bool { b, _ := p[k].(bool); return b }

	turn := ChatTurn{
		TurnID:          str("turn_id"),
		SessionID:       str("session_id"),
		ChatInput:       str("chat_input"),
		Response:        str("response"),
		HadImage:        flag("had_image"),
		ImageProcessed:  flag("image_processed"),
		IsNewSession:    flag("is_new_session"),
		IsAuthenticated: flag("is_authenticated"),
	}
	if n, ok := p["dropped_lines"].(float64); ok {
		turn.DroppedLines = int(n)
	}
	if t, err := time.Parse(time.RFC3339Nano, str("occurred_at")); err == nil {
		turn.OccurredAt = t
	}
	return turn
}
