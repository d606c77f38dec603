package chat

import (
	"strings"
	"unicode/utf8"
)

const maxTitleLength = 30

// GenerateTitle derives a session title from the first user message.
func GenerateTitle(firstMessage string) string {
	if firstMessage == "" {
		return NewChatTitle
	}
	flat := strings.ReplaceAll(firstMessage, "\n", " ")
	if utf8.RuneCountInString(flat) <= maxTitleLength {
		return flat
	}
	return string([]rune(flat)[:maxTitleLength]) + "..."
}

func titleFromMessages(messages []Message) string {
	for _, msg := range messages {
		if msg.IsUser && strings.TrimSpace(msg.Text) != "" {
			return GenerateTitle(msg.Text)
		}
	}
	return NewChatTitle
}
