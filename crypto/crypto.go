// (c) 2025, Lux Collective Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package crypto is the cell core's external crypto interface (spec.md
// §6): sign/verify over opaque byte payloads using edwards-curve
// (ed25519-class) signatures. The core never implements a primitive
// itself; it only consumes this interface, mirroring the way the
// teacher's localsigner wraps key material behind a small interface.
package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"

	"github.com/luxfi/cellcore/ids"
)

// Signature is an opaque, fixed-size edwards-curve signature.
type Signature [ed25519.SignatureSize]byte

// ErrVerificationFailed is a sentinel for a signature that does not
// validate against the given public key and message. Verifier.Verify
// itself reports the outcome as a bool and does not return it.
var ErrVerificationFailed = errors.New("crypto: signature verification failed")

// Signer produces signatures over arbitrary byte payloads. Production
// callers hold a private key outside the engine (wallet, HSM, local
// keystore); the engine only ever calls Verifier.
type Signer interface {
	PublicKey() ids.PublicKey
	Sign(message []byte) (Signature, error)
}

// Verifier checks a signature against a public key and message. This is
// the only crypto capability the core engines depend on.
type Verifier interface {
	Verify(publicKey ids.PublicKey, message []byte, sig Signature) bool
}

// Ed25519Verifier is the reference Verifier implementation.
type Ed25519Verifier struct{}

var _ Verifier = Ed25519Verifier{}

// Verify implements Verifier using crypto/ed25519.
func (Ed25519Verifier) Verify(publicKey ids.PublicKey, message []byte, sig Signature) bool {
	return ed25519.Verify(ed25519.PublicKey(publicKey[:]), message, sig[:])
}

// LocalSigner is an in-process ed25519 keypair, suitable for tests and
// single-operator tooling. Production deployments wire an external
// Signer (HSM, wallet) and never construct one of these for real funds.
type LocalSigner struct {
	public  ed25519.PublicKey
	private ed25519.PrivateKey
}

var _ Signer = (*LocalSigner)(nil)

// NewLocalSigner generates a new random ed25519 keypair.
func NewLocalSigner() (*LocalSigner, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &LocalSigner{public: pub, private: priv}, nil
}

// PublicKey returns the signer's public key.
func (s *LocalSigner) PublicKey() ids.PublicKey {
	var pk ids.PublicKey
	copy(pk[:], s.public)
	return pk
}

// Sign signs message with the signer's private key.
func (s *LocalSigner) Sign(message []byte) (Signature, error) {
	var sig Signature
	copy(sig[:], ed25519.Sign(s.private, message))
	return sig, nil
}
