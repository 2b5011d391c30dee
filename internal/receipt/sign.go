package receipt

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/cloudflare/circl/sign/dilithium/mode3"

	"github.com/openline-proto/openline/internal/keys"
)

// Each signature algorithm hashes the signature scope with a fixed
// function; the pairing is part of the receipt format.
const dilithium3Hash = "sha3-256"

// SignatureError reports a verification failure on a signed receipt.
type SignatureError struct {
	ReceiptID string
	Detail    string
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("signature error on receipt %s: %s", e.ReceiptID, e.Detail)
}

// IsSignatureError reports whether err is (or wraps) a *SignatureError.
func IsSignatureError(err error) bool {
	var se *SignatureError
	return errors.As(err, &se)
}

// Signer attaches a signature over a receipt's signature scope.
type Signer interface {
	// Sign returns (signature, alg, signer key string) for the scope.
	Sign(scope []byte) (sig, alg, signerKey string, err error)
}

// Ed25519Signer signs with ed25519 over sha256 of the scope.
type Ed25519Signer struct {
	priv ed25519.PrivateKey
}

// NewEd25519Signer wraps a private key as a receipt signer.
func NewEd25519Signer(priv ed25519.PrivateKey) *Ed25519Signer {
	return &Ed25519Signer{priv: priv}
}

func (s *Ed25519Signer) Sign(scope []byte) (string, string, string, error) {
	sig := keys.SignEd25519SHA256(scope, s.priv)
	signerKey := keys.FormatEd25519PublicKey(s.priv.Public().(ed25519.PublicKey))
	return sig, keys.AlgEd25519, signerKey, nil
}

// Dilithium3Signer signs with dilithium3 over sha3-256 of the scope.
type Dilithium3Signer struct {
	pub  *mode3.PublicKey
	priv *mode3.PrivateKey
}

// NewDilithium3Signer wraps a keypair as a receipt signer.
func NewDilithium3Signer(pub *mode3.PublicKey, priv *mode3.PrivateKey) *Dilithium3Signer {
	return &Dilithium3Signer{pub: pub, priv: priv}
}

func (s *Dilithium3Signer) Sign(scope []byte) (string, string, string, error) {
	sig, err := keys.SignDilithium3(scope, dilithium3Hash, s.priv)
	if err != nil {
		return "", "", "", err
	}
	signerKey, err := keys.FormatDilithium3PublicKey(s.pub)
	if err != nil {
		return "", "", "", err
	}
	return sig, keys.AlgDilithium3, signerKey, nil
}

// SignWith computes a signature over the receipt's signature scope and
// attaches it.
func SignWith(r *Receipt, s Signer) error {
	scope, err := r.SignatureScope()
	if err != nil {
		return fmt.Errorf("sign receipt: %w", err)
	}
	sig, alg, signerKey, err := s.Sign(scope)
	if err != nil {
		return fmt.Errorf("sign receipt: %w", err)
	}
	r.Signature = sig
	r.SigAlg = alg
	r.SignerKey = signerKey
	return nil
}

// Sign attaches an ed25519-over-sha256 signature.
func Sign(r *Receipt, priv ed25519.PrivateKey) error {
	return SignWith(r, NewEd25519Signer(priv))
}

// Verify checks the receipt's signature against its embedded signer
// key. Unsigned receipts verify trivially (there is nothing to check);
// a present-but-invalid signature is a *SignatureError.
func Verify(r *Receipt) error {
	if r.Signature == "" {
		return nil
	}
	scope, err := r.SignatureScope()
	if err != nil {
		return &SignatureError{ReceiptID: r.ID, Detail: err.Error()}
	}
	var ok bool
	switch r.SigAlg {
	case keys.AlgEd25519:
		pub, err := keys.ParseEd25519PublicKey(r.SignerKey)
		if err != nil {
			return &SignatureError{ReceiptID: r.ID, Detail: err.Error()}
		}
		ok, err = keys.VerifyEd25519SHA256(scope, r.Signature, pub)
		if err != nil {
			return &SignatureError{ReceiptID: r.ID, Detail: err.Error()}
		}
	case keys.AlgDilithium3:
		pub, err := keys.ParseDilithium3PublicKey(r.SignerKey)
		if err != nil {
			return &SignatureError{ReceiptID: r.ID, Detail: err.Error()}
		}
		ok, err = keys.VerifyDilithium3(scope, dilithium3Hash, r.Signature, pub)
		if err != nil {
			return &SignatureError{ReceiptID: r.ID, Detail: err.Error()}
		}
	default:
		return &SignatureError{ReceiptID: r.ID, Detail: fmt.Sprintf("unsupported sig_alg %q", r.SigAlg)}
	}
	if !ok {
		return &SignatureError{ReceiptID: r.ID, Detail: "signature does not verify over canonical bytes"}
	}
	return nil
}
