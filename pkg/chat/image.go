package chat

import (
	"fmt"
	"os"
	"strings"

	"glassfactory-chat/pkg/webhook"

	"github.com/gabriel-vasile/mimetype"
)

// ImageToDataURL reads an image file and encodes it as a base64 data URL.
func ImageToDataURL(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrImageConversion, err)
	}
	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return "", fmt.Errorf("%w: %s is %s", ErrNotAnImage, path, mime.String())
	}
	return webhook.EncodeDataURL(mime.String(), data), nil
}

func checkImageFile(path string) error {
	mime, err := mimetype.DetectFile(path)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(mime.String(), "image/") {
		return fmt.Errorf("%w: %s", ErrNotAnImage, mime.String())
	}
	return nil
}
