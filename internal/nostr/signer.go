package nostr

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
)

// ErrInvalidSignature is returned when an event's id or BIP-340 signature does not verify.
var ErrInvalidSignature = errors.New("nostr: invalid event signature")

// Signer produces authenticated events for one identity.
type Signer interface {
	PublicKey() string
	Sign(ev *Event) error
}

// KeySigner signs with an in-memory secp256k1 key.
type KeySigner struct {
	key    *btcec.PrivateKey
	pubHex string
	now    func() time.Time
}

// NewKeySigner builds a signer from a 64 character hex secret key.
func NewKeySigner(secretHex string) (*KeySigner, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(secretHex))
	if err != nil || len(raw) != 32 {
		return nil, fmt.Errorf("nostr: secret key must be 32 hex-encoded bytes")
	}
	key, _ := btcec.PrivKeyFromBytes(raw)
	return newKeySigner(key), nil
}

// GenerateKeySigner creates a signer with a fresh random key.
func GenerateKeySigner() (*KeySigner, error) {
	key, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("nostr: generate key: %w", err)
	}
	return newKeySigner(key), nil
}

func newKeySigner(key *btcec.PrivateKey) *KeySigner {
	return &KeySigner{
		key:    key,
		pubHex: hex.EncodeToString(schnorr.SerializePubKey(key.PubKey())),
		now:    time.Now,
	}
}

// PublicKey returns the x-only public key in hex.
func (s *KeySigner) PublicKey() string {
	return s.pubHex
}

// Sign fills PubKey, CreatedAt (when zero), ID and Sig.
func (s *KeySigner) Sign(ev *Event) error {
	ev.PubKey = s.pubHex
	if ev.CreatedAt == 0 {
		ev.CreatedAt = s.now().Unix()
	}
	if ev.Tags == nil {
		ev.Tags = Tags{}
	}
	ev.ID = ev.ComputeID()

	digest, err := hex.DecodeString(ev.ID)
	if err != nil {
		return fmt.Errorf("nostr: decode id: %w", err)
	}
	sig, err := schnorr.Sign(s.key, digest)
	if err != nil {
		return fmt.Errorf("nostr: sign: %w", err)
	}
	ev.Sig = hex.EncodeToString(sig.Serialize())
	return nil
}

// Verify checks the event id and its BIP-340 signature.
func Verify(ev *Event) error {
	if !ev.CheckID() {
		return fmt.Errorf("%w: id mismatch", ErrInvalidSignature)
	}

	pubBytes, err := hex.DecodeString(ev.PubKey)
	if err != nil {
		return fmt.Errorf("%w: pubkey: %v", ErrInvalidSignature, err)
	}
	pub, err := schnorr.ParsePubKey(pubBytes)
	if err != nil {
		return fmt.Errorf("%w: pubkey: %v", ErrInvalidSignature, err)
	}

	sigBytes, err := hex.DecodeString(ev.Sig)
	if err != nil {
		return fmt.Errorf("%w: sig: %v", ErrInvalidSignature, err)
	}
	sig, err := schnorr.ParseSignature(sigBytes)
	if err != nil {
		return fmt.Errorf("%w: sig: %v", ErrInvalidSignature, err)
	}

	digest, _ := hex.DecodeString(ev.ID)
	if !sig.Verify(digest, pub) {
		return ErrInvalidSignature
	}
	return nil
}
