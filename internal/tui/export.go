package tui

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"time"

	"glassfactory-chat/pkg/chat"
	"glassfactory-chat/pkg/render"
)

var exportTemplate = template.Must(template.New("transcript").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body class="{{if .Dark}}dark{{else}}light{{end}}">
<h1>{{.Title}}</h1>
<p class="session">{{.SessionID}}</p>
{{range .Messages}}<div class="message {{if .IsUser}}user{{else}}assistant{{end}}" data-id="{{.ID}}">
<time datetime="{{.Timestamp.Format "2006-01-02T15:04:05Z07:00"}}">{{.Timestamp.Format "15:04"}}</time>
{{if .ImageURL}}<img src="{{.ImageURL}}" alt="Uploaded image">{{end}}
{{if .Text}}{{if .IsUser}}<div class="text" style="white-space: pre-wrap">{{.Text}}</div>{{else}}<div class="text">{{.Markup}}</div>{{end}}{{end}}
</div>
{{end}}</body>
</html>
`))

type exportMessage struct {
	chat.Message
	Markup   template.HTML
	ImageURL template.URL
}

type exportPage struct {
	Title     string
	SessionID string
	Dark      bool
	Messages  []exportMessage
}

// WriteHTML renders a transcript as a standalone HTML page.
func WriteHTML(w io.Writer, title, sessionID string, dark bool, messages []chat.Message) error {
	if title == "" {
		title = chat.NewChatTitle
	}
	page := exportPage{Title: title, SessionID: sessionID, Dark: dark}
	for _, msg := range messages {
		em := exportMessage{
			Message: msg,
			// Only data URLs produced by the client are stored on messages.
			ImageURL: template.URL(msg.Image),
		}
		if !msg.IsUser {
			// render.Markup escapes the text itself.
			em.Markup = template.HTML(render.Markup(msg.Text))
		}
		page.Messages = append(page.Messages, em)
	}
	return exportTemplate.Execute(w, page)
}

func exportTranscript(path string, mgr *chat.Manager) (string, error) {
	if path == "" {
		path = fmt.Sprintf("glassfactory-%s.html", time.Now().Format("20060102-150405"))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := WriteHTML(f, mgr.Title(), mgr.SessionID(), mgr.IsDarkMode(), mgr.Messages()); err != nil {
		return "", err
	}
	return path, f.Close()
}
