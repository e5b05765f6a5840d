package compose_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"chat-client/internal/compose"
	"chat-client/internal/gateway"
)

func TestValidateUpload(t *testing.T) {
	tests := []struct {
		name   string
		upload gateway.Upload
		want   error
	}{
		{
			name:   "missing content",
			upload: gateway.Upload{Filename: "a.png", MimeType: "image/png", Size: 1},
			want:   compose.ErrMissingAttachment,
		},
		{
			name: "too large",
			upload: gateway.Upload{
				Filename: "a.png", MimeType: "image/png",
				Size: compose.MaxAttachmentSize + 1, Content: strings.NewReader("x"),
			},
			want: compose.ErrFileTooLarge,
		},
		{
			name: "at the limit",
			upload: gateway.Upload{
				Filename: "a.png", MimeType: "image/png",
				Size: compose.MaxAttachmentSize, Content: strings.NewReader("x"),
			},
		},
		{
			name: "unsupported type",
			upload: gateway.Upload{
				Filename: "a.exe", MimeType: "application/octet-stream",
				Size: 1, Content: strings.NewReader("x"),
			},
			want: compose.ErrUnsupportedType,
		},
		{
			name: "pdf allowed",
			upload: gateway.Upload{
				Filename: "a.pdf", MimeType: "application/pdf",
				Size: 1, Content: strings.NewReader("x"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := compose.ValidateUpload(tt.upload)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
