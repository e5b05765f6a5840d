package compose

import (
	"errors"

	"chat-client/internal/gateway"
)

// MaxAttachmentSize is the upload size ceiling.
const MaxAttachmentSize = 10 << 20 // 10 MiB

var (
	ErrFileTooLarge      = errors.New("compose: attachment exceeds 10 MiB")
	ErrUnsupportedType   = errors.New("compose: attachment type not allowed")
	ErrMissingAttachment = errors.New("compose: attachment has no content")
)

var allowedMimeTypes = map[string]struct{}{
	"image/png":       {},
	"image/jpeg":      {},
	"image/gif":       {},
	"application/pdf": {},
}

// ValidateUpload runs the pre-flight attachment checks. It rejects before
// any I/O happens: no gateway call, no store mutation.
func ValidateUpload(upload gateway.Upload) error {
	if upload.Content == nil {
		return ErrMissingAttachment
	}
	if upload.Size > MaxAttachmentSize {
		return ErrFileTooLarge
	}
	if _, ok := allowedMimeTypes[upload.MimeType]; !ok {
		return ErrUnsupportedType
	}
	return nil
}
