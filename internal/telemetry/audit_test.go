package telemetry_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chat-client/internal/mocks"
	"chat-client/internal/telemetry"
)

func TestEmitPublishesVersionedEnvelope(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	publisher.On("PublishJSON", mock.Anything, "audit.chat_proxy", mock.Anything, mock.Anything).
		Return(nil).Once()

	emitter := telemetry.NewAuditEmitter(publisher, "audit.chat_proxy", "chat-proxy", "test", zerolog.Nop())
	userID := 12
	emitter.Emit(context.Background(), "INFO", "login request proxied", "req-1", &userID)

	publisher.AssertExpectations(t)

	call := publisher.Calls[0]
	envelope, ok := call.Arguments.Get(2).(telemetry.AuditEnvelope)
	require.True(t, ok)
	assert.Equal(t, 1, envelope.SchemaVersion)
	assert.Equal(t, "audit_log", envelope.EventType)
	assert.Equal(t, "chat-proxy", envelope.Service)
	assert.Equal(t, "req-1", envelope.RequestID)
	require.NotNil(t, envelope.UserID)
	assert.Equal(t, 12, *envelope.UserID)
	assert.Equal(t, "INFO", envelope.Payload.Level)
	assert.NotEmpty(t, envelope.OccurredAt)

	headers, ok := call.Arguments.Get(3).(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "req-1", headers["x-request-id"])
}

func TestEmitToleratesPublishFailure(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	publisher.On("PublishJSON", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(assert.AnError).Once()

	emitter := telemetry.NewAuditEmitter(publisher, "audit.chat_proxy", "chat-proxy", "test", zerolog.Nop())
	emitter.Emit(context.Background(), "WARN", "something", "req-2", nil)

	publisher.AssertExpectations(t)
}

func TestEmitNilSafety(t *testing.T) {
	var emitter *telemetry.AuditEmitter
	emitter.Emit(context.Background(), "INFO", "ignored", "", nil)

	withNilPublisher := telemetry.NewAuditEmitter(nil, "k", "s", "e", zerolog.Nop())
	withNilPublisher.Emit(context.Background(), "INFO", "ignored", "", nil)
}
