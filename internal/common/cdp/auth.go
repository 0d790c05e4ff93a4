// Package cdp authenticates against the Coinbase Developer Platform API.
package cdp

import (
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "agentkit-workers/internal/common/errors"
)

const (
	issuer   = "cdp"
	tokenTTL = 2 * time.Minute
)

// Claims are the claims of a per-request API token.
type Claims struct {
	URIs []string `json:"uris"`
	jwt.RegisteredClaims
}

// Signer issues short-lived ES256 tokens for an API key pair.
type Signer struct {
	keyName string
	key     *ecdsa.PrivateKey
	now     func() time.Time
}

// NewSigner parses the PEM private key of the API key named keyName. The key must
// already have real line breaks; see config.NormalizePrivateKey.
func NewSigner(keyName, privateKeyPEM string) (*Signer, error) {
	if strings.TrimSpace(keyName) == "" {
		return nil, apperrors.NewConfigurationMissingError("cdp.api_key_name", "CDP_API_KEY_NAME")
	}
	if strings.TrimSpace(privateKeyPEM) == "" {
		return nil, apperrors.NewConfigurationMissingError("cdp.private_key", "CDP_PRIVATE_KEY")
	}
	key, err := jwt.ParseECPrivateKeyFromPEM([]byte(privateKeyPEM))
	if err != nil {
		return nil, apperrors.NewConfigurationInvalidError(fmt.Sprintf("cdp.private_key: %v", err))
	}
	return &Signer{keyName: keyName, key: key, now: time.Now}, nil
}

// KeyName returns the API key name used as token subject.
func (s *Signer) KeyName() string {
	return s.keyName
}

// Token returns a token scoped to one request, method plus host and path.
func (s *Signer) Token(method, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse request url: %w", err)
	}

	nonce, err := newNonce()
	if err != nil {
		return "", err
	}

	now := s.now()
	claims := &Claims{
		URIs: []string{fmt.Sprintf("%s %s%s", strings.ToUpper(method), u.Host, u.Path)},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.keyName,
			Issuer:    issuer,
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = s.keyName
	token.Header["nonce"] = nonce
	return token.SignedString(s.key)
}

func newNonce() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	return hex.EncodeToString(b), nil
}
