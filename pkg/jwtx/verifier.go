package jwtx

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// VerifyOptions captures common expectations used by verifiers.
type VerifyOptions struct {
	// Issuer the token must have (claims.iss). Empty means "don't care".
	Issuer string

	// Audience values the token must contain (claims.aud). Empty means "don't care".
	Audience []string

	// Leeway allows small clock skew when validating exp and nbf.
	Leeway time.Duration

	// Algorithms accepted by a KeySetVerifier. Empty means EdDSA, ES256 and
	// RS256.
	Algorithms []string

	// Now overrides the clock, for tests.
	Now func() time.Time
}

func (o VerifyOptions) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now().UTC()
}

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrAlgMismatch = errors.New("jwtx: algorithm mismatch")
	ErrUnknownKID  = errors.New("jwtx: unknown kid")

	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrAudience     = errors.New("jwtx: audience mismatch")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
)

var defaultAlgorithms = []string{
	jwt.SigningMethodEdDSA.Alg(),
	jwt.SigningMethodES256.Alg(),
	jwt.SigningMethodRS256.Alg(),
}

// KeySetVerifier checks asymmetric signatures against a KeySet, picking the
// key by the "kid" header.
type KeySetVerifier struct {
	keys *KeySet
	opts VerifyOptions
}

func NewKeySetVerifier(keys *KeySet, opts VerifyOptions) *KeySetVerifier {
	if len(opts.Algorithms) == 0 {
		opts.Algorithms = defaultAlgorithms
	}
	return &KeySetVerifier{keys: keys, opts: opts}
}

func (v *KeySetVerifier) Verify(raw string) (Claims, error) {
	return parse(raw, v.opts, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("%w: missing kid", ErrMalformed)
		}
		pub, err := v.keys.Get(kid)
		if err != nil {
			return nil, fmt.Errorf("%w %q", ErrUnknownKID, kid)
		}
		if !keyMatchesAlg(pub, t.Method.Alg()) {
			return nil, ErrAlgMismatch
		}
		return pub, nil
	})
}

func keyMatchesAlg(pub any, alg string) bool {
	switch pub.(type) {
	case ed25519.PublicKey:
		return alg == jwt.SigningMethodEdDSA.Alg()
	case *ecdsa.PublicKey:
		return alg == jwt.SigningMethodES256.Alg()
	case *rsa.PublicKey:
		return alg == jwt.SigningMethodRS256.Alg()
	default:
		return false
	}
}

// HMACVerifier checks HS256 tokens signed with a shared secret. It exists for
// local development and tests where no identity provider is running.
type HMACVerifier struct {
	secret []byte
	opts   VerifyOptions
}

func NewHMACVerifier(secret []byte, opts VerifyOptions) *HMACVerifier {
	opts.Algorithms = []string{jwt.SigningMethodHS256.Alg()}
	return &HMACVerifier{secret: slices.Clone(secret), opts: opts}
}

func (v *HMACVerifier) Verify(raw string) (Claims, error) {
	return parse(raw, v.opts, func(*jwt.Token) (any, error) { return v.secret, nil })
}

// SignHMAC mints an HS256 token for claims. Only the HMAC pair signs tokens;
// asymmetric keys live with the identity provider.
func SignHMAC(secret []byte, claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func parse(raw string, opts VerifyOptions, keyFunc jwt.Keyfunc) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods(opts.Algorithms),
		jwt.WithoutClaimsValidation(), // checked below with our own clock
	)

	var claims Claims
	token, err := parser.ParseWithClaims(raw, &claims, keyFunc)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownKID), errors.Is(err, ErrAlgMismatch):
			return Claims{}, err
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
			return Claims{}, fmt.Errorf("jwtx: parse or verify: %w", err)
		default:
			return Claims{}, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
	}
	if !token.Valid {
		return Claims{}, ErrInvalidClaim
	}

	if err := claims.Validate(opts, opts.now()); err != nil {
		return Claims{}, err
	}
	return claims, nil
}
