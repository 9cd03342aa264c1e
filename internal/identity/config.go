package identity

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/articlehub/articlehub/internal/config"
	"github.com/articlehub/articlehub/pkg/logger"
)

// FromConfig builds the verifier described by cfg. The first configured
// source wins: Firebase project, OIDC issuer, Keycloak realm, HMAC secret,
// insecure decoding. It returns (nil, nil) when nothing is configured, which
// the auth gate reports as service unavailable. When rdb is non-nil and
// cfg.CacheTTL is positive the verifier is wrapped in a CachingVerifier.
func FromConfig(ctx context.Context, cfg config.IdentityConfig, rdb *redis.Client) (Verifier, error) {
	v, err := baseVerifier(ctx, cfg)
	if err != nil {
		if !cfg.AllowInsecure {
			return nil, err
		}
		logger.Warnf("identity provider unavailable (%v); falling back to insecure verifier", err)
		v = NewInsecureVerifier()
	}
	if v == nil {
		return nil, nil
	}
	if rdb != nil && cfg.CacheTTL > 0 {
		return NewCachingVerifier(v, rdb, cfg.CacheTTL), nil
	}
	return v, nil
}

func baseVerifier(ctx context.Context, cfg config.IdentityConfig) (Verifier, error) {
	switch {
	case cfg.FirebaseProjectID != "":
		v, err := NewOIDCVerifier(ctx, FirebaseIssuer(cfg.FirebaseProjectID), cfg.FirebaseProjectID)
		if err != nil {
			return nil, fmt.Errorf("firebase verifier: %w", err)
		}
		return v, nil
	case cfg.OIDCIssuer != "":
		v, err := NewOIDCVerifier(ctx, cfg.OIDCIssuer, cfg.OIDCClientID)
		if err != nil {
			return nil, fmt.Errorf("oidc verifier: %w", err)
		}
		return v, nil
	case cfg.KeycloakURL != "" && cfg.KeycloakRealm != "" && cfg.OIDCClientID != "":
		v, err := NewOIDCVerifier(ctx, KeycloakIssuer(cfg.KeycloakURL, cfg.KeycloakRealm), cfg.OIDCClientID)
		if err != nil {
			return nil, fmt.Errorf("keycloak verifier: %w", err)
		}
		return v, nil
	case cfg.HMACSecret != "":
		return NewHMACVerifier(cfg.HMACSecret)
	case cfg.AllowInsecure:
		logger.Warn("enabling insecure token verifier (integration mode)")
		return NewInsecureVerifier(), nil
	}
	return nil, nil
}
