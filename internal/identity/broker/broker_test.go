package broker_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/tenancy/internal/identity/broker"
	"github.com/aussiebroadwan/tenancy/pkg/slogx"
)

func TestLogPublisher_WritesEvent(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	ctx := slogx.WithContext(context.Background(), logger)

	msg := broker.Message{
		ID:          "01HZX3K9Q0A1B2C3D4E5F6G7J0",
		Name:        "workspace.created",
		AggregateID: "01HZX3K9Q0A1B2C3D4E5F6G7H9",
		OccurredAt:  time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC),
		Payload:     []byte(`{"name":"Analytical Engines"}`),
	}
	require.NoError(t, broker.LogPublisher{}.Publish(ctx, msg))
	require.NoError(t, broker.LogPublisher{}.Close())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "integration event", entry["msg"])
	require.Equal(t, "workspace.created", entry["event_name"])
	require.Equal(t, msg.ID, entry["event_id"])
}

func TestNewRedisPublisher_RequiresAddr(t *testing.T) {
	_, err := broker.NewRedisPublisher(context.Background(), broker.RedisConfig{})
	require.Error(t, err)
}
