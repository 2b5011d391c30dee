// Package keys holds the signing primitives used for receipt and frame
// witness marks. Key custody is out of scope: callers supply key bytes,
// this package only signs and verifies over canonical content.
package keys

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
	"golang.org/x/crypto/sha3"
)

// Signature algorithm identifiers carried on signed artifacts.
const (
	AlgEd25519    = "ed25519"
	AlgDilithium3 = "dilithium3"
)

func digestFor(hashAlg string, message []byte) ([]byte, error) {
	switch hashAlg {
	case "sha256":
		s := sha256.Sum256(message)
		return s[:], nil
	case "sha512":
		s := sha512.Sum512(message)
		return s[:], nil
	case "sha3-256":
		s := sha3.Sum256(message)
		return s[:], nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm: %q", hashAlg)
	}
}

// GenerateEd25519 produces a fresh keypair.
func GenerateEd25519() (ed25519.PublicKey, ed25519.PrivateKey, error) {
	return ed25519.GenerateKey(rand.Reader)
}

// SignEd25519SHA256 returns a base64 signature over sha256(message).
func SignEd25519SHA256(message []byte, privateKey ed25519.PrivateKey) string {
	digest := sha256.Sum256(message)
	sig := ed25519.Sign(privateKey, digest[:])
	return base64.StdEncoding.EncodeToString(sig)
}

// VerifyEd25519SHA256 checks a base64 signature over sha256(message).
func VerifyEd25519SHA256(message []byte, sigB64 string, publicKey ed25519.PublicKey) (bool, error) {
	sig, err := base64.StdEncoding.DecodeString(sigB64)
	if err != nil {
		return false, fmt.Errorf("invalid signature encoding: %w", err)
	}
	if len(sig) != ed25519.SignatureSize {
		return false, fmt.Errorf("invalid signature length %d", len(sig))
	}
	digest := sha256.Sum256(message)
	return ed25519.Verify(publicKey, digest[:], sig), nil
}

// SignDilithium3 returns a base64 dilithium3 signature over
// hash(message). hashAlg must be one of: sha256, sha512, sha3-256.
func SignDilithium3(message []byte, hashAlg string, privateKey *mode3.PrivateKey) (string, error) {
	if privateKey == nil {
		return "", fmt.Errorf("missing private key")
	}
	digest, err := digestFor(hashAlg, message)
	if err != nil {
		return "", err
	}
	sig := make([]byte, mode3.SignatureSize)
	mode3.SignTo(privateKey, digest, sig)
	return base64.StdEncoding.EncodeToString(sig), nil
}

// VerifyDilithium3 checks a base64 dilithium3 signature over
// hash(message).
func VerifyDilithium3(message []byte, hashAlg, sigB64 string, publicKey *mode3.PublicKey) (bool, error) {
	if publicKey == nil {
		return false, fmt.Errorf("missing public key")
	}
	digest, err := digestFor(hashAlg, message)
	if err != nil {
		return false, err
	}
	sig, err := base64.StdEncoding.DecodeString(sigB64)
	if err != nil {
		return false, fmt.Errorf("invalid signature encoding: %w", err)
	}
	if len(sig) != mode3.SignatureSize {
		return false, fmt.Errorf("invalid signature length %d", len(sig))
	}
	return mode3.Verify(publicKey, digest, sig), nil
}

// ParseEd25519PublicKey decodes an "ed25519:<base64>" key string.
func ParseEd25519PublicKey(s string) (ed25519.PublicKey, error) {
	const prefix = "ed25519:"
	if !strings.HasPrefix(s, prefix) {
		return nil, fmt.Errorf("public key must start with %q", prefix)
	}
	b, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(s, prefix))
	if err != nil {
		return nil, fmt.Errorf("invalid public key encoding: %w", err)
	}
	if len(b) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("invalid public key length %d", len(b))
	}
	return ed25519.PublicKey(b), nil
}

// FormatEd25519PublicKey encodes a public key as "ed25519:<base64>".
func FormatEd25519PublicKey(pub ed25519.PublicKey) string {
	return "ed25519:" + base64.StdEncoding.EncodeToString(pub)
}

// ParseDilithium3PublicKey decodes a "dilithium3:<base64>" key string.
func ParseDilithium3PublicKey(s string) (*mode3.PublicKey, error) {
	const prefix = "dilithium3:"
	if !strings.HasPrefix(s, prefix) {
		return nil, fmt.Errorf("public key must start with %q", prefix)
	}
	b, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(s, prefix))
	if err != nil {
		return nil, fmt.Errorf("invalid public key encoding: %w", err)
	}
	var pk mode3.PublicKey
	if err := pk.UnmarshalBinary(b); err != nil {
		return nil, fmt.Errorf("invalid dilithium3 public key: %w", err)
	}
	return &pk, nil
}

// FormatDilithium3PublicKey encodes a public key as
// "dilithium3:<base64>".
func FormatDilithium3PublicKey(pub *mode3.PublicKey) (string, error) {
	b, err := pub.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("encode dilithium3 public key: %w", err)
	}
	return "dilithium3:" + base64.StdEncoding.EncodeToString(b), nil
}
