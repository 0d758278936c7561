package app

import (
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/tickbox/pkg/jwtx"
)

// InitKeys generates the signing keys for this process.
//
// Keys are ephemeral: they live in memory only, so every restart invalidates
// outstanding access and identity tokens. Refresh tokens are opaque and
// survive.
//
// Supported algorithms: RS256, ES256, EdDSA
func InitKeys(cfg Config, logger *slog.Logger) (*jwtx.KeyManager, error) {
	logger.Info("initializing ephemeral key manager",
		"algorithm", cfg.Algorithm,
		"num_keys", cfg.NumKeys,
	)

	keyManager, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{
		Algorithm: cfg.Algorithm,
		Issuer:    cfg.Issuer,
		Audience:  []string{cfg.Audience},
		RSABits:   cfg.RSABits,
		NumKeys:   cfg.NumKeys,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize key manager: %w", err)
	}

	logger.Info("generated ephemeral signing keys",
		"algorithm", keyManager.Algorithm(),
		"num_keys", keyManager.NumSigners(),
		"issuer", cfg.Issuer,
	)
	logger.Warn("access tokens issued before this start are no longer valid")

	return keyManager, nil
}
