package cryptox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Low iteration counts keep key-derivation tests fast; determinism does not
// depend on the count.
const testIterations = 1000

func TestDeriveKey_Deterministic(t *testing.T) {
	password := []byte("correct horse battery staple")
	salt := []byte("0123456789abcdef")

	key1 := DeriveKey(password, salt, testIterations)
	key2 := DeriveKey(password, salt, testIterations)

	assert.Equal(t, key1, key2)
	assert.Len(t, key1, KeySize)
}

func TestDeriveKey_DifferentPasswordsDiffer(t *testing.T) {
	salt := []byte("0123456789abcdef")

	key1 := DeriveKey([]byte("password-one"), salt, testIterations)
	key2 := DeriveKey([]byte("password-two"), salt, testIterations)

	assert.NotEqual(t, key1, key2)
}

func TestDeriveKey_DifferentSaltsDiffer(t *testing.T) {
	password := []byte("same password")

	key1 := DeriveKey(password, []byte("salt-aaaaaaaaaaa"), testIterations)
	key2 := DeriveKey(password, []byte("salt-bbbbbbbbbbb"), testIterations)

	assert.NotEqual(t, key1, key2)
}

func TestDeriveKey_DifferentIterationsDiffer(t *testing.T) {
	password := []byte("same password")
	salt := []byte("0123456789abcdef")

	assert.NotEqual(t,
		DeriveKey(password, salt, testIterations),
		DeriveKey(password, salt, testIterations+1))
}

func TestDeriveSyncKey_SamePasswordSameKeyEverywhere(t *testing.T) {
	// Two "devices" with different installation salts still agree on the
	// sync key because it uses the fixed salt.
	password := []byte("shared password")

	deviceA := DeriveSyncKey(password, testIterations)
	deviceB := DeriveSyncKey(password, testIterations)

	assert.Equal(t, deviceA, deviceB)
	assert.NotEqual(t, deviceA, DeriveKey(password, GenerateSalt(), testIterations))
}

func TestGenerateSalt(t *testing.T) {
	s1 := GenerateSalt()
	s2 := GenerateSalt()

	assert.Len(t, s1, SaltSize)
	assert.NotEqual(t, s1, s2)
}

func TestSealOpenBlob_RoundTrip(t *testing.T) {
	key := DeriveKey([]byte("pw"), GenerateSalt(), testIterations)

	tests := []struct {
		name      string
		plaintext string
	}{
		{"simple", "hello"},
		{"empty", ""},
		{"unicode", "дневник 📓 ّ日記"},
		{"json", `{"version":"1.0.0","days":[]}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sealed, err := SealBlob([]byte(tc.plaintext), key)
			require.NoError(t, err)

			opened, err := OpenBlob(sealed, key)
			require.NoError(t, err)
			assert.Equal(t, tc.plaintext, string(opened))
		})
	}
}

func TestOpenBlob_WrongKeyFails(t *testing.T) {
	key1 := DeriveKey([]byte("pw-1"), GenerateSalt(), testIterations)
	key2 := DeriveKey([]byte("pw-2"), GenerateSalt(), testIterations)

	sealed, err := SealBlob([]byte("secret entry"), key1)
	require.NoError(t, err)

	_, err = OpenBlob(sealed, key2)
	require.Error(t, err)
}

func TestOpenBlob_GarbageInput(t *testing.T) {
	key := DeriveKey([]byte("pw"), GenerateSalt(), testIterations)

	_, err := OpenBlob("not base64 at all!!!", key)
	assert.ErrorIs(t, err, ErrMalformedBlob)

	_, err = OpenBlob("YWJj", key) // valid base64, too short for a nonce
	assert.ErrorIs(t, err, ErrMalformedBlob)
}

func TestSealOpenRecord_RoundTrip(t *testing.T) {
	key := DeriveKey([]byte("pw"), GenerateSalt(), testIterations)

	type payload struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	in := payload{Title: "morning pages", Content: "slept badly, vivid dreams"}

	ct, nonce, err := SealRecord(in, key)
	require.NoError(t, err)

	var out payload
	require.NoError(t, OpenRecord(ct, nonce, key, &out))
	assert.Equal(t, in, out)
}

func TestOpenRecord_WrongKeyFails(t *testing.T) {
	key1 := DeriveKey([]byte("pw-1"), GenerateSalt(), testIterations)
	key2 := DeriveKey([]byte("pw-2"), GenerateSalt(), testIterations)

	ct, nonce, err := SealRecord(map[string]string{"a": "b"}, key1)
	require.NoError(t, err)

	var out map[string]string
	require.Error(t, OpenRecord(ct, nonce, key2, &out))
}

func TestKeyID(t *testing.T) {
	key1 := DeriveKey([]byte("pw-1"), syncSalt, testIterations)
	key2 := DeriveKey([]byte("pw-2"), syncSalt, testIterations)

	assert.Len(t, KeyID(key1), 16)
	assert.Equal(t, KeyID(key1), KeyID(key1))
	assert.NotEqual(t, KeyID(key1), KeyID(key2))
}
