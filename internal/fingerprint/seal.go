package fingerprint

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	sha256 "github.com/minio/sha256-simd"
)

// ErrInvalidSeal is returned when a seal does not verify or cannot be decoded.
var ErrInvalidSeal = errors.New("invalid seal")

// Seal binds a fingerprint to a one-off key pair.
type Seal struct {
	Signature []byte
	PublicKey []byte // PEM-encoded PKIX public key
}

// Sealer signs fingerprints with a fresh RSA key per document. The private key is
// discarded after signing, so a seal can only be verified, never re-issued.
type Sealer struct {
	bits int
}

// NewSealer returns a Sealer generating keys of the given size.
func NewSealer(bits int) *Sealer {
	return &Sealer{bits: bits}
}

// Seal signs the canonical artifact for fp.
func (s *Sealer) Seal(fp string) (Seal, error) {
	key, err := rsa.GenerateKey(rand.Reader, s.bits)
	if err != nil {
		return Seal{}, fmt.Errorf("generate key: %w", err)
	}
	digest := sha256.Sum256([]byte(Canonical(fp)))
	sig, err := rsa.SignPSS(rand.Reader, key, crypto.SHA256, digest[:], &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
	})
	if err != nil {
		return Seal{}, fmt.Errorf("sign: %w", err)
	}
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return Seal{}, fmt.Errorf("marshal public key: %w", err)
	}
	return Seal{
		Signature: sig,
		PublicKey: pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}),
	}, nil
}

// Verify checks that seal was issued for fp.
func Verify(fp string, seal Seal) error {
	block, _ := pem.Decode(seal.PublicKey)
	if block == nil || block.Type != "PUBLIC KEY" {
		return fmt.Errorf("%w: malformed public key", ErrInvalidSeal)
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSeal, err)
	}
	pub, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return fmt.Errorf("%w: unexpected key type %T", ErrInvalidSeal, parsed)
	}
	digest := sha256.Sum256([]byte(Canonical(fp)))
	if err := rsa.VerifyPSS(pub, crypto.SHA256, digest[:], seal.Signature, &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthAuto,
	}); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSeal, err)
	}
	return nil
}
