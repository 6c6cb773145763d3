package identity_test

import (
	"context"
	"fmt"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/aussiebroadwan/tenancy/internal/identity/app"
	"github.com/aussiebroadwan/tenancy/internal/identity/broker"
	"github.com/aussiebroadwan/tenancy/pkg/identitysdk"
	"github.com/aussiebroadwan/tenancy/pkg/jwtx"
)

/*
 * Helpers for the identity service end-to-end tests. Redis runs in a
 * container; the service runs in process against a temporary database so
 * the relay and the HTTP API share one outbox.
 */

const (
	redisImage = "redis:7-alpine"
	jwtSecret  = "e2e-secret-0123456789abcdef012345"
	jwtIssuer  = "https://idp.e2e.test"
)

// setupRedisContainer starts redis and returns its address.
func setupRedisContainer(t *testing.T) string {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        redisImage,
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	mappedPort, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	return fmt.Sprintf("%s:%s", host, mappedPort.Port())
}

// setupService starts the identity service publishing to redisAddr and
// returns an SDK client pointed at it.
func setupService(t *testing.T, redisAddr string) *identitysdk.SDKClient {
	t.Helper()

	cfg := app.Config{
		Env:                  "test",
		LogLevel:             "warn",
		LogFormat:            "json",
		Port:                 8080,
		ShutdownGracePeriod:  5 * time.Second,
		DatabaseFile:         filepath.Join(t.TempDir(), "identity.db"),
		JWTIssuer:            jwtIssuer,
		JWTSecret:            jwtSecret,
		RedisAddr:            redisAddr,
		RedisChannel:         broker.DefaultChannelPrefix,
		OutboxInterval:       100 * time.Millisecond,
		OutboxBatchSize:      50,
		OutboxRetention:      time.Hour,
		HousekeepingInterval: time.Hour,
	}
	require.NoError(t, cfg.Validate())

	application, err := app.New(t.Context(), cfg)
	require.NoError(t, err)
	application.StartWorkers()

	srv := httptest.NewServer(application.Handler())
	t.Cleanup(func() {
		srv.Close()
		require.NoError(t, application.Shutdown())
	})

	return identitysdk.NewSDKClient(srv.URL)
}

// sessionFor returns a session whose tokens carry the given identity.
func sessionFor(t *testing.T, client *identitysdk.SDKClient, subject, email, name string) *identitysdk.Session {
	t.Helper()

	raw, err := jwtx.SignHMAC([]byte(jwtSecret), jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    jwtIssuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Scopes: []string{identitysdk.ScopeRead, identitysdk.ScopeWrite},
		Email:  email,
		Name:   name,
	})
	require.NoError(t, err)

	return client.NewSession(identitysdk.StaticToken(raw))
}

// eventSink collects integration events received from redis.
type eventSink struct {
	mu   sync.Mutex
	msgs []broker.Message
}

func subscribe(t *testing.T, redisAddr string) *eventSink {
	t.Helper()

	sub, err := broker.NewRedisPublisher(t.Context(), broker.RedisConfig{Addr: redisAddr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Close() })

	sink := &eventSink{}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, sub.Subscribe(ctx, func(m broker.Message) {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		sink.msgs = append(sink.msgs, m)
	}))
	return sink
}

func (s *eventSink) named(name string) []broker.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []broker.Message
	for _, m := range s.msgs {
		if m.Name == name {
			out = append(out, m)
		}
	}
	return out
}

// awaitEvent waits for n events with the given name.
func (s *eventSink) awaitEvent(t *testing.T, name string, n int) []broker.Message {
	t.Helper()

	var got []broker.Message
	require.Eventually(t, func() bool {
		got = s.named(name)
		return len(got) >= n
	}, 10*time.Second, 50*time.Millisecond, "waiting for %d %s event(s)", n, name)
	return got
}
