package jwtx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/aussiebroadwan/tenancy/pkg/slogx"
)

var ErrNoKey = errors.New("jwtx: key not found")

// KeySet holds the identity provider's public verification keys by kid.
// It is safe for concurrent use and can be swapped wholesale on refresh.
type KeySet struct {
	mu  sync.RWMutex
	pub map[string]any // kid: *rsa.PublicKey | ed25519.PublicKey | *ecdsa.PublicKey
}

// NewKeySet returns an empty KeySet.
func NewKeySet() *KeySet {
	return &KeySet{pub: make(map[string]any)}
}

// Add parses j and stores it under its kid.
func (k *KeySet) Add(j JWK) error {
	if j.Kid == "" {
		return errors.New("jwtx: jwk without kid")
	}
	key, err := j.PublicKey()
	if err != nil {
		return err
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	k.pub[j.Kid] = key
	return nil
}

// Get returns the public key for kid.
func (k *KeySet) Get(kid string) (any, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if pk, ok := k.pub[kid]; ok {
		return pk, nil
	}
	return nil, ErrNoKey
}

// Len reports how many keys are loaded.
func (k *KeySet) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.pub)
}

// Replace swaps the whole set for the keys in jwks. Nothing changes if any
// key fails to parse.
func (k *KeySet) Replace(jwks JWKS) error {
	next := make(map[string]any, len(jwks.Keys))
	for _, j := range jwks.Keys {
		key, err := j.PublicKey()
		if err != nil {
			return fmt.Errorf("jwtx: kid %q: %w", j.Kid, err)
		}
		next[j.Kid] = key
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	k.pub = next
	return nil
}

// LoadJWKSFile reads a JWKS document from disk.
func LoadJWKSFile(path string) (JWKS, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return JWKS{}, fmt.Errorf("jwtx: read jwks: %w", err)
	}
	var jwks JWKS
	if err := json.Unmarshal(raw, &jwks); err != nil {
		return JWKS{}, fmt.Errorf("jwtx: decode jwks: %w", err)
	}
	return jwks, nil
}

// FetchJWKS downloads a JWKS document.
func FetchJWKS(ctx context.Context, client *http.Client, url string) (JWKS, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return JWKS{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return JWKS{}, fmt.Errorf("jwtx: fetch jwks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return JWKS{}, fmt.Errorf("jwtx: fetch jwks: unexpected status %d", resp.StatusCode)
	}

	var jwks JWKS
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&jwks); err != nil {
		return JWKS{}, fmt.Errorf("jwtx: decode jwks: %w", err)
	}
	return jwks, nil
}

// RemoteKeySet keeps a KeySet in sync with a JWKS endpoint.
type RemoteKeySet struct {
	URL    string
	Client *http.Client
	Keys   *KeySet

	stop chan struct{}
	done chan struct{}
}

// NewRemoteKeySet returns a RemoteKeySet with an empty KeySet. Call Refresh
// once before serving traffic.
func NewRemoteKeySet(url string, client *http.Client) *RemoteKeySet {
	return &RemoteKeySet{URL: url, Client: client, Keys: NewKeySet()}
}

// Refresh fetches the endpoint and replaces the key set.
func (r *RemoteKeySet) Refresh(ctx context.Context) error {
	jwks, err := FetchJWKS(ctx, r.Client, r.URL)
	if err != nil {
		return err
	}
	return r.Keys.Replace(jwks)
}

// Start refreshes every interval until Stop. Failures keep the previous keys.
func (r *RemoteKeySet) Start(interval time.Duration) {
	r.stop = make(chan struct{})
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				if err := r.Refresh(ctx); err != nil {
					slogx.FromContext(ctx).Warn("jwks refresh failed", slogx.Err(err))
				}
				cancel()
			case <-r.stop:
				return
			}
		}
	}()
}

// Stop ends the refresh loop and waits for it to exit.
func (r *RemoteKeySet) Stop() {
	if r.stop == nil {
		return
	}
	close(r.stop)
	<-r.done
}
