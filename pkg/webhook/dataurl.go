package webhook

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidDataURL = errors.New("invalid data url")

// DataURL is a decoded `data:<mime>;base64,<payload>` string.
type DataURL struct {
	MimeType string
	Data     []byte
}

// DecodeDataURL splits a base64 data URL into its MIME type and raw bytes.
func DecodeDataURL(raw string) (*DataURL, error) {
	header, payload, found := strings.Cut(raw, ",")
	if !found || !strings.HasPrefix(header, "data:") {
		return nil, ErrInvalidDataURL
	}

	meta := strings.TrimPrefix(header, "data:")
	mimeType, _, _ := strings.Cut(meta, ";")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}

	return &DataURL{MimeType: mimeType, Data: data}, nil
}

// EncodeDataURL is the inverse of DecodeDataURL.
func EncodeDataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
