package jwtx

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
)

// JWK is a public key in JSON Web Key format (RFC 7517).
type JWK struct {
	Kty string `json:"kty"`
	Use string `json:"use,omitempty"`
	Alg string `json:"alg,omitempty"`
	Kid string `json:"kid,omitempty"`

	// RSA
	N string `json:"n,omitempty"`
	E string `json:"e,omitempty"`

	// OKP and EC
	Crv string `json:"crv,omitempty"`
	X   string `json:"x,omitempty"`
	Y   string `json:"y,omitempty"`
}

// JWKS is a JSON Web Key Set.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

var b64 = base64.RawURLEncoding

// NewJWK describes pub as a signing JWK.
func NewJWK(kid, alg string, pub any) (JWK, error) {
	j := JWK{Use: "sig", Alg: alg, Kid: kid}

	switch k := pub.(type) {
	case *rsa.PublicKey:
		j.Kty = "RSA"
		j.N = b64.EncodeToString(k.N.Bytes())
		j.E = b64.EncodeToString(big.NewInt(int64(k.E)).Bytes())
	case ed25519.PublicKey:
		j.Kty = "OKP"
		j.Crv = "Ed25519"
		j.X = b64.EncodeToString(k)
	case *ecdsa.PublicKey:
		if k.Curve.Params().Name != "P-256" {
			return JWK{}, errors.New("jwtx: only P-256 EC keys are supported")
		}
		// Coordinates are fixed width for P-256.
		x := make([]byte, 32)
		y := make([]byte, 32)
		k.X.FillBytes(x)
		k.Y.FillBytes(y)
		j.Kty = "EC"
		j.Crv = "P-256"
		j.X = b64.EncodeToString(x)
		j.Y = b64.EncodeToString(y)
	default:
		return JWK{}, fmt.Errorf("jwtx: unsupported public key type %T", pub)
	}

	return j, nil
}

// PublicKey decodes the JWK into an *rsa.PublicKey, ed25519.PublicKey or
// *ecdsa.PublicKey.
func (j JWK) PublicKey() (any, error) {
	switch j.Kty {
	case "RSA":
		nb, err := b64.DecodeString(j.N)
		if err != nil {
			return nil, fmt.Errorf("jwtx: decode n: %w", err)
		}
		eb, err := b64.DecodeString(j.E)
		if err != nil {
			return nil, fmt.Errorf("jwtx: decode e: %w", err)
		}
		return &rsa.PublicKey{N: new(big.Int).SetBytes(nb), E: int(new(big.Int).SetBytes(eb).Int64())}, nil

	case "OKP":
		if j.Crv != "Ed25519" {
			return nil, errors.New("jwtx: unsupported OKP curve " + j.Crv)
		}
		xb, err := b64.DecodeString(j.X)
		if err != nil {
			return nil, fmt.Errorf("jwtx: decode x: %w", err)
		}
		if len(xb) != ed25519.PublicKeySize {
			return nil, errors.New("jwtx: invalid Ed25519 public key size")
		}
		return ed25519.PublicKey(xb), nil

	case "EC":
		if j.Crv != "P-256" {
			return nil, errors.New("jwtx: unsupported EC curve " + j.Crv)
		}
		xb, err := b64.DecodeString(j.X)
		if err != nil {
			return nil, fmt.Errorf("jwtx: decode x: %w", err)
		}
		yb, err := b64.DecodeString(j.Y)
		if err != nil {
			return nil, fmt.Errorf("jwtx: decode y: %w", err)
		}
		return &ecdsa.PublicKey{
			Curve: elliptic.P256(),
			X:     new(big.Int).SetBytes(xb),
			Y:     new(big.Int).SetBytes(yb),
		}, nil

	default:
		return nil, errors.New("jwtx: unsupported kty " + j.Kty)
	}
}
