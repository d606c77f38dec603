package webhook

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSendMultipart(t *testing.T) {
	var (
		gotInput, gotSession, gotMime, gotName string
		gotFile                                []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		gotInput = r.FormValue(FieldChatInput)
		gotSession = r.FormValue(FieldSessionID)

		file, header, err := r.FormFile(FieldFiles)
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		gotFile, _ = io.ReadAll(file)
		gotMime = header.Header.Get("Content-Type")
		gotName = header.Filename

		_, _ = io.WriteString(w, "{\"type\":\"item\",\"content\":\"I see \"}\n{\"type\":\"item\",\"content\":\"a jacket\"}\n")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	res, err := c.Send(context.Background(), Turn{
		ChatInput: "what is this",
		SessionID: "session-1",
		Image:     &DataURL{MimeType: "image/png", Data: []byte("png-bytes")},
	})
	require.NoError(t, err)

	assert.Equal(t, "I see a jacket", res.Text)
	assert.Equal(t, "what is this", gotInput)
	assert.Equal(t, "session-1", gotSession)
	assert.Equal(t, []byte("png-bytes"), gotFile)
	assert.Equal(t, "image/png", gotMime)
	assert.Equal(t, UploadFileName, gotName)
}

func TestClientSendUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, 5*time.Second).Send(context.Background(), Turn{ChatInput: "hi", SessionID: "s"})
	assert.ErrorIs(t, err, ErrUpstreamStatus)
}

func TestClientSendTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, 50*time.Millisecond).Send(context.Background(), Turn{ChatInput: "hi", SessionID: "s"})
	assert.Error(t, err)
}
