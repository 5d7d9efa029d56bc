// Package keywrap implements biometric-gated storage of the password-derived
// local key. The platform factor never derives key material on its own; it
// either produces a deterministic PRF secret or it gates access to a stored
// random wrapping key. Which path applies is probed once at setup and
// recorded alongside the wrapped key so unlock always takes the matching
// path.
package keywrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/mateotomas2/ai-journaling-sub001/internal/common"
	"github.com/mateotomas2/ai-journaling-sub001/internal/cryptox"
)

// Variant records which wrapping strategy produced a Record.
type Variant string

const (
	// VariantPRF derives the wrapping key from the platform's PRF output.
	// Nothing secret is stored; the PRF input salt is kept in the record.
	VariantPRF Variant = "prf"

	// VariantStored keeps a random wrapping key in the platform keystore,
	// released only after a successful platform auth prompt.
	VariantStored Variant = "stored"
)

var (
	ErrUnsupportedVariant = errors.New("unsupported wrapping variant")
	ErrAuthDenied         = errors.New("platform authentication denied")
)

// Platform abstracts the device capabilities keywrap depends on. Desktop
// and mobile builds provide their own implementations; tests use fakes.
type Platform interface {
	// SupportsPRF reports whether the authenticator can evaluate a
	// deterministic PRF over a caller-supplied salt.
	SupportsPRF() bool

	// PRF evaluates the platform PRF. Must be deterministic for a given
	// salt on this device. Only called when SupportsPRF is true.
	PRF(ctx context.Context, salt []byte) ([]byte, error)

	// Authorize shows the platform auth prompt (biometric or device PIN)
	// and returns nil on success.
	Authorize(ctx context.Context) error

	// StoreSecret persists a secret under the handle, gated behind
	// platform auth on retrieval.
	StoreSecret(ctx context.Context, handle string, secret []byte) error

	// LoadSecret retrieves a stored secret. Implementations must require
	// a successful Authorize-equivalent before releasing it.
	LoadSecret(ctx context.Context, handle string) ([]byte, error)
}

// Record is the persisted wrapped-key document. It carries everything
// needed to unwrap on a later run: the variant, the AES-GCM ciphertext of
// the master key, and the PBKDF2 iteration count the master key was
// originally derived with (so a password fallback can re-derive it).
type Record struct {
	Variant       Variant `json:"variant"`
	WrappedKey    []byte  `json:"wrappedKey"`
	Nonce         []byte  `json:"nonce"`
	PRFSalt       []byte  `json:"prfSalt,omitempty"`
	KeystoreID    string  `json:"keystoreId,omitempty"`
	KeyIterations int     `json:"keyIterations"`
}

// Wrap encrypts masterKey for at-rest storage, choosing the variant by
// probing the platform. iterations is recorded for later password fallback.
func Wrap(ctx context.Context, p Platform, masterKey []byte, iterations int) (*Record, error) {
	if p.SupportsPRF() {
		return wrapPRF(ctx, p, masterKey, iterations)
	}
	return wrapStored(ctx, p, masterKey, iterations)
}

func wrapPRF(ctx context.Context, p Platform, masterKey []byte, iterations int) (*Record, error) {
	salt := cryptox.GenerateSalt()
	wrappingKey, err := p.PRF(ctx, salt)
	if err != nil {
		return nil, fmt.Errorf("prf evaluation: %w", err)
	}
	defer common.WipeByteArray(wrappingKey)

	ct, nonce, err := cryptox.SealRecord(masterKey, wrappingKey)
	if err != nil {
		return nil, fmt.Errorf("wrapping key material: %w", err)
	}
	return &Record{
		Variant:       VariantPRF,
		WrappedKey:    ct,
		Nonce:         nonce,
		PRFSalt:       salt,
		KeyIterations: iterations,
	}, nil
}

func wrapStored(ctx context.Context, p Platform, masterKey []byte, iterations int) (*Record, error) {
	wrappingKey := common.GenerateRandByteArray(cryptox.KeySize)
	defer common.WipeByteArray(wrappingKey)

	ct, nonce, err := cryptox.SealRecord(masterKey, wrappingKey)
	if err != nil {
		return nil, fmt.Errorf("wrapping key material: %w", err)
	}

	handle, err := common.MakeRandHexString(16)
	if err != nil {
		return nil, err
	}
	if err := p.StoreSecret(ctx, handle, wrappingKey); err != nil {
		return nil, fmt.Errorf("storing wrapping key: %w", err)
	}
	return &Record{
		Variant:       VariantStored,
		WrappedKey:    ct,
		Nonce:         nonce,
		KeystoreID:    handle,
		KeyIterations: iterations,
	}, nil
}

// Unwrap recovers the master key from a Record using the variant recorded
// at setup time. The caller owns the returned key and should wipe it when
// the session ends.
func Unwrap(ctx context.Context, p Platform, r *Record) ([]byte, error) {
	if err := p.Authorize(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthDenied, err)
	}

	var wrappingKey []byte
	var err error

	switch r.Variant {
	case VariantPRF:
		wrappingKey, err = p.PRF(ctx, r.PRFSalt)
		if err != nil {
			return nil, fmt.Errorf("prf evaluation: %w", err)
		}
	case VariantStored:
		wrappingKey, err = p.LoadSecret(ctx, r.KeystoreID)
		if err != nil {
			return nil, fmt.Errorf("loading wrapping key: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVariant, r.Variant)
	}
	defer common.WipeByteArray(wrappingKey)

	var masterKey []byte
	if err := cryptox.OpenRecord(r.WrappedKey, r.Nonce, wrappingKey, &masterKey); err != nil {
		return nil, fmt.Errorf("unwrapping key material: %w", err)
	}
	return masterKey, nil
}
