package jwtx

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	mrand "math/rand/v2"

	"github.com/aussiebroadwan/tickbox/pkg/cryptox"
)

// KeyManagerOptions configures NewEphemeralKeyManager.
type KeyManagerOptions struct {
	// Algorithm is one of AlgorithmEdDSA (default), AlgorithmES256, AlgorithmRS256.
	Algorithm string

	// Issuer and Audience are enforced by the manager's Verifier.
	Issuer   string
	Audience []string

	// RSABits is only used for RS256. Defaults to 2048.
	RSABits int

	// NumKeys is clamped to [1, 10]. Defaults to 1.
	NumKeys int
}

// KeyManager owns the in-memory signing keys of a running instance and the
// matching verifier and public key set. Keys die with the process, so every
// restart invalidates outstanding tokens.
type KeyManager struct {
	alg      string
	signers  []Signer
	keys     *KeySet
	verifier Verifier
}

// NewEphemeralKeyManager generates fresh signing keys.
func NewEphemeralKeyManager(opts KeyManagerOptions) (*KeyManager, error) {
	if opts.Issuer == "" {
		return nil, fmt.Errorf("jwtx: Issuer is required")
	}
	if opts.Algorithm == "" {
		opts.Algorithm = AlgorithmEdDSA
	}

	n := min(max(opts.NumKeys, 1), 10)

	km := &KeyManager{alg: opts.Algorithm, keys: NewKeySet()}
	for i := range n {
		key, err := generateKey(opts.Algorithm, opts.RSABits)
		if err != nil {
			return nil, fmt.Errorf("jwtx: generate key %d: %w", i+1, err)
		}

		kid, err := cryptox.GenerateToken(cryptox.TokenSize128)
		if err != nil {
			return nil, fmt.Errorf("jwtx: generate kid: %w", err)
		}

		signer, err := NewSigner("tickbox-"+kid, key)
		if err != nil {
			return nil, err
		}
		if err := km.keys.Add(signer.PublicJWK()); err != nil {
			return nil, err
		}
		km.signers = append(km.signers, signer)
	}

	km.verifier = NewVerifier(km.keys, opts.Algorithm, VerifyOptions{
		Issuer:   opts.Issuer,
		Audience: opts.Audience,
	})
	return km, nil
}

func generateKey(alg string, rsaBits int) (crypto.Signer, error) {
	switch alg {
	case AlgorithmEdDSA:
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		return priv, err
	case AlgorithmES256:
		return ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	case AlgorithmRS256:
		if rsaBits == 0 {
			rsaBits = 2048
		}
		return rsa.GenerateKey(rand.Reader, rsaBits)
	default:
		return nil, fmt.Errorf("unsupported algorithm %q (supported: RS256, ES256, EdDSA)", alg)
	}
}

// Signer returns one of the signing keys at random.
func (km *KeyManager) Signer() Signer {
	if len(km.signers) == 1 {
		return km.signers[0]
	}
	return km.signers[mrand.IntN(len(km.signers))]
}

func (km *KeyManager) Verifier() Verifier { return km.verifier }
func (km *KeyManager) KeySet() *KeySet    { return km.keys }
func (km *KeyManager) Algorithm() string  { return km.alg }
func (km *KeyManager) NumSigners() int    { return len(km.signers) }

// IsReady reports whether at least one key is loaded.
func (km *KeyManager) IsReady() bool { return km.keys.Len() > 0 }
