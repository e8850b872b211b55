package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Valid 32-byte key in hex (64 chars)
const testAESKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func TestAESEncryptionService_NewInvalidKey(t *testing.T) {
	_, err := NewAESEncryptionService("shortkey")
	assert.Error(t, err)

	_, err = NewAESEncryptionService("abcd")
	assert.Error(t, err, "valid hex of the wrong length")
}

func TestAESEncryptionService_RoundTrip(t *testing.T) {
	svc, err := NewAESEncryptionService(testAESKey)
	require.NoError(t, err)

	c1, err := svc.Encrypt("whsec_merchant")
	require.NoError(t, err)
	c2, err := svc.Encrypt("whsec_merchant")
	require.NoError(t, err)
	assert.NotEqual(t, c1, c2, "random nonce per encryption")

	d1, err := svc.Decrypt(c1)
	require.NoError(t, err)
	assert.Equal(t, "whsec_merchant", d1)
}

func TestAESEncryptionService_TamperedCiphertext(t *testing.T) {
	svc, err := NewAESEncryptionService(testAESKey)
	require.NoError(t, err)

	ciphertext, err := svc.Encrypt("secret")
	require.NoError(t, err)

	last := ciphertext[len(ciphertext)-1]
	flipped := byte('0')
	if last == '0' {
		flipped = '1'
	}
	_, err = svc.Decrypt(ciphertext[:len(ciphertext)-1] + string(flipped))
	assert.Error(t, err)
}

func TestAESEncryptionService_WrongKey(t *testing.T) {
	svc1, _ := NewAESEncryptionService(testAESKey)
	svc2, _ := NewAESEncryptionService("abcdef0123456789abcdef0123456789abcdef0123456789abcdef0123456789")

	ciphertext, err := svc1.Encrypt("whsec_other")
	require.NoError(t, err)

	_, err = svc2.Decrypt(ciphertext)
	assert.Error(t, err)
}

func TestAESEncryptionService_InvalidCiphertext(t *testing.T) {
	svc, _ := NewAESEncryptionService(testAESKey)

	_, err := svc.Decrypt("not-hex-at-all!!!")
	assert.Error(t, err)

	_, err = svc.Decrypt("abcdef")
	assert.Error(t, err)
}

func TestHMACSignatureService_SignAndVerify(t *testing.T) {
	svc := NewHMACSignatureService()
	payload := `POST|/api/v1/hooks/changes|1708092000|n-1|{"type":"INSERT"}`

	signature := svc.Sign("hook-secret", payload)

	assert.Regexp(t, `^[0-9a-f]{64}$`, signature)
	assert.True(t, svc.Verify("hook-secret", payload, signature))
	assert.Equal(t, signature, svc.Sign("hook-secret", payload))
	assert.False(t, svc.Verify("other-secret", payload, signature))
	assert.False(t, svc.Verify("hook-secret", payload+" ", signature))
	assert.False(t, svc.Verify("hook-secret", payload, "invalidsignature"))
}

func TestHMACSignatureService_BuildCanonicalString(t *testing.T) {
	svc := NewHMACSignatureService()

	assert.Equal(t,
		`POST|/api/v1/hooks/changes|1708092000|abc123|{"type":"DELETE"}`,
		svc.BuildCanonicalString("POST", "/api/v1/hooks/changes", 1708092000, "abc123", `{"type":"DELETE"}`),
	)
	assert.Equal(t,
		"GET|/api/v1/balances|1708092000|nonce1|",
		svc.BuildCanonicalString("GET", "/api/v1/balances", 1708092000, "nonce1", ""),
	)
}
