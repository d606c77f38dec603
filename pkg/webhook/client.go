package webhook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"
)

const (
	FieldChatInput = "chatInput"
	FieldSessionID = "sessionId"
	FieldFiles     = "files"

	UploadFileName = "uploaded_image.jpg"
)

var ErrUpstreamStatus = errors.New("webhook responded with non-success status")

// Turn is one chat turn forwarded to the automation webhook.
type Turn struct {
	ChatInput string
	SessionID string
	Image     *DataURL
}

type Client struct {
	URL    string
	Client *http.Client
}

func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		URL: url,
		Client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Send posts the turn as multipart form data and parses the line-delimited reply.
func (c *Client) Send(ctx context.Context, turn Turn) (StreamResult, error) {
	body, contentType, err := encodeTurn(turn)
	if err != nil {
		return StreamResult{}, fmt.Errorf("encode multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, body)
	if err != nil {
		return StreamResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.Client.Do(req)
	if err != nil {
		return StreamResult{}, fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return StreamResult{}, fmt.Errorf("%w: %d", ErrUpstreamStatus, resp.StatusCode)
	}

	result, err := ParseStream(resp.Body)
	if err != nil {
		return result, fmt.Errorf("read webhook stream: %w", err)
	}
	return result, nil
}

func encodeTurn(turn Turn) (io.Reader, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	if err := w.WriteField(FieldChatInput, turn.ChatInput); err != nil {
		return nil, "", err
	}
	if err := w.WriteField(FieldSessionID, turn.SessionID); err != nil {
		return nil, "", err
	}

	if turn.Image != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, FieldFiles, UploadFileName))
		h.Set("Content-Type", turn.Image.MimeType)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(turn.Image.Data); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}
