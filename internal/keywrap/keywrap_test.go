package keywrap

import (
	"context"
	"crypto/sha256"
	"errors"
	"testing"

	"github.com/mateotomas2/ai-journaling-sub001/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePlatform simulates a device. PRF is a keyed hash so it is
// deterministic per (device secret, salt) pair, matching authenticator
// behavior.
type fakePlatform struct {
	prf          bool
	deviceSecret []byte
	store        map[string][]byte
	denyAuth     bool
	authCalls    int
}

func newFakePlatform(prf bool) *fakePlatform {
	return &fakePlatform{
		prf:          prf,
		deviceSecret: []byte("device-unique-secret"),
		store:        map[string][]byte{},
	}
}

func (f *fakePlatform) SupportsPRF() bool { return f.prf }

func (f *fakePlatform) PRF(_ context.Context, salt []byte) ([]byte, error) {
	h := sha256.New()
	h.Write(f.deviceSecret)
	h.Write(salt)
	return h.Sum(nil), nil
}

func (f *fakePlatform) Authorize(context.Context) error {
	f.authCalls++
	if f.denyAuth {
		return errors.New("user cancelled")
	}
	return nil
}

func (f *fakePlatform) StoreSecret(_ context.Context, handle string, secret []byte) error {
	cp := make([]byte, len(secret))
	copy(cp, secret)
	f.store[handle] = cp
	return nil
}

func (f *fakePlatform) LoadSecret(_ context.Context, handle string) ([]byte, error) {
	s, ok := f.store[handle]
	if !ok {
		return nil, errors.New("no such secret")
	}
	return s, nil
}

func TestWrapUnwrap_PRFVariant(t *testing.T) {
	ctx := context.Background()
	p := newFakePlatform(true)
	masterKey := common.GenerateRandByteArray(32)

	rec, err := Wrap(ctx, p, masterKey, 1000)
	require.NoError(t, err)
	assert.Equal(t, VariantPRF, rec.Variant)
	assert.NotEmpty(t, rec.PRFSalt)
	assert.Empty(t, rec.KeystoreID)
	assert.Equal(t, 1000, rec.KeyIterations)

	got, err := Unwrap(ctx, p, rec)
	require.NoError(t, err)
	assert.Equal(t, masterKey, got)
	assert.Equal(t, 1, p.authCalls)
}

func TestWrapUnwrap_StoredVariant(t *testing.T) {
	ctx := context.Background()
	p := newFakePlatform(false)
	masterKey := common.GenerateRandByteArray(32)

	rec, err := Wrap(ctx, p, masterKey, 1000)
	require.NoError(t, err)
	assert.Equal(t, VariantStored, rec.Variant)
	assert.NotEmpty(t, rec.KeystoreID)
	assert.Empty(t, rec.PRFSalt)

	got, err := Unwrap(ctx, p, rec)
	require.NoError(t, err)
	assert.Equal(t, masterKey, got)
}

func TestUnwrap_AuthDenied(t *testing.T) {
	ctx := context.Background()
	p := newFakePlatform(false)
	masterKey := common.GenerateRandByteArray(32)

	rec, err := Wrap(ctx, p, masterKey, 1000)
	require.NoError(t, err)

	p.denyAuth = true
	_, err = Unwrap(ctx, p, rec)
	assert.ErrorIs(t, err, ErrAuthDenied)
}

func TestUnwrap_WrongDeviceFails(t *testing.T) {
	// A PRF record wrapped on one device cannot be unwrapped on another:
	// the PRF output differs, so GCM authentication fails.
	ctx := context.Background()
	deviceA := newFakePlatform(true)
	masterKey := common.GenerateRandByteArray(32)

	rec, err := Wrap(ctx, deviceA, masterKey, 1000)
	require.NoError(t, err)

	deviceB := newFakePlatform(true)
	deviceB.deviceSecret = []byte("another-device")

	_, err = Unwrap(ctx, deviceB, rec)
	require.Error(t, err)
}

func TestUnwrap_UnknownVariant(t *testing.T) {
	p := newFakePlatform(false)
	_, err := Unwrap(context.Background(), p, &Record{Variant: "signature"})
	assert.ErrorIs(t, err, ErrUnsupportedVariant)
}
