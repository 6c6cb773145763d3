package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/tenancy/internal/identity/broker"
	"github.com/aussiebroadwan/tenancy/pkg/slogx"
)

type recordingPublisher struct {
	mu   sync.Mutex
	fail map[string]bool
	sent []broker.Message
}

func (p *recordingPublisher) Publish(_ context.Context, msg broker.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail[msg.Name] {
		return errors.New("broker unavailable")
	}
	p.sent = append(p.sent, msg)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.sent))
	for _, m := range p.sent {
		out = append(out, m.Name)
	}
	return out
}

func TestOutboxRelay_RelayOnce(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, "idp|ada", "Ada Lovelace", "ada@example.com")
	ws := e.createWorkspace(t, "idp|ada", "Analytical Engine", 5)

	pub := &recordingPublisher{fail: map[string]bool{"membership.added": true}}
	relay := NewOutboxRelay(e.store, pub, e.metrics, slogx.Discard(), time.Minute, 10)
	relay.Clock = e.clock.Now

	delivered, err := relay.RelayOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, delivered)
	require.Equal(t, []string{"workspace.created"}, pub.names())
	require.Equal(t, ws.ID().String(), pub.sent[0].AggregateID)
	require.Equal(t, "1", pub.sent[0].Attributes["attempt"])

	pending := e.pendingOutbox(t)
	require.Len(t, pending, 1)
	require.Equal(t, "membership.added", pending[0].EventName)
	require.Equal(t, 1, pending[0].Attempts)
	require.Equal(t, "broker unavailable", pending[0].LastError)

	expected := `
# HELP identity_outbox_failures_total Failed attempts to deliver an integration event.
# TYPE identity_outbox_failures_total counter
identity_outbox_failures_total{event="membership.added"} 1
# HELP identity_outbox_pending Outbox messages waiting to be published after the last relay pass.
# TYPE identity_outbox_pending gauge
identity_outbox_pending 1
`
	require.NoError(t, testutil.GatherAndCompare(e.metrics.Registry(), strings.NewReader(expected),
		"identity_outbox_failures_total", "identity_outbox_pending"))

	// The broker recovers; the retry carries the attempt number.
	pub.fail = nil
	delivered, err = relay.RelayOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, delivered)
	require.Equal(t, "2", pub.sent[1].Attributes["attempt"])
	require.Empty(t, e.pendingOutbox(t))

	expected = `
# HELP identity_outbox_pending Outbox messages waiting to be published after the last relay pass.
# TYPE identity_outbox_pending gauge
identity_outbox_pending 0
`
	require.NoError(t, testutil.GatherAndCompare(e.metrics.Registry(), strings.NewReader(expected), "identity_outbox_pending"))
}

func TestOutboxRelay_StartStop(t *testing.T) {
	e := newEnv(t)
	e.register(t, "idp|ada", "Ada Lovelace", "ada@example.com")
	e.createWorkspace(t, "idp|ada", "Analytical Engine", 5)

	pub := &recordingPublisher{}
	relay := NewOutboxRelay(e.store, pub, nil, slogx.Discard(), 10*time.Millisecond, 10)
	relay.Start()

	require.Eventually(t, func() bool {
		return len(pub.names()) == 2
	}, 2*time.Second, 10*time.Millisecond)
	relay.Stop()
}
