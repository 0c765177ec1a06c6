package payment

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAppID = "2021001234567890"

func newSigningKey(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	// Bare base64 body, the format the gateway console hands out.
	return key, base64.StdEncoding.EncodeToString(der)
}

func signValues(t *testing.T, key *rsa.PrivateKey, values url.Values, signType string) {
	t.Helper()
	values.Set("sign_type", signType)
	content := []byte(SignContent(values))

	var sig []byte
	var err error
	switch signType {
	case "RSA2":
		digest := sha256.Sum256(content)
		sig, err = rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	case "RSA":
		digest := sha1.Sum(content)
		sig, err = rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA1, digest[:])
	}
	require.NoError(t, err)
	values.Set("sign", base64.StdEncoding.EncodeToString(sig))
}

func notificationValues() url.Values {
	return url.Values{
		"app_id":       {testAppID},
		"out_trade_no": {"ORDER1234567890000001"},
		"trade_no":     {"2026030122001400001"},
		"trade_status": {"TRADE_SUCCESS"},
		"total_amount": {"18.00"},
		"gmt_payment":  {"2026-03-01 12:30:00"},
	}
}

func TestVerifyAcceptsValidRSA2Signature(t *testing.T) {
	key, pub := newSigningKey(t)
	strategy, err := NewRSAStrategy(pub)
	require.NoError(t, err)
	verifier := NewVerifier(testAppID, strategy)

	values := notificationValues()
	signValues(t, key, values, "RSA2")

	assert.True(t, verifier.Verify(values))
}

func TestVerifyAcceptsValidRSASignature(t *testing.T) {
	key, pub := newSigningKey(t)
	strategy, err := NewRSAStrategy(pub)
	require.NoError(t, err)
	verifier := NewVerifier(testAppID, strategy)

	values := notificationValues()
	signValues(t, key, values, "RSA")

	assert.True(t, verifier.Verify(values))
}

func TestVerifyRejectsTamperedAmount(t *testing.T) {
	key, pub := newSigningKey(t)
	strategy, err := NewRSAStrategy(pub)
	require.NoError(t, err)
	verifier := NewVerifier(testAppID, strategy)

	values := notificationValues()
	signValues(t, key, values, "RSA2")
	values.Set("total_amount", "9999.00")

	assert.False(t, verifier.Verify(values))
}

func TestVerifyRejectsWrongAppID(t *testing.T) {
	key, pub := newSigningKey(t)
	strategy, err := NewRSAStrategy(pub)
	require.NoError(t, err)
	verifier := NewVerifier(testAppID, strategy)

	values := notificationValues()
	values.Set("app_id", "2021009999999999")
	signValues(t, key, values, "RSA2")

	// Even a correctly signed notification for another application is forgery.
	assert.False(t, verifier.Verify(values))
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	key, _ := newSigningKey(t)
	_, otherPub := newSigningKey(t)
	strategy, err := NewRSAStrategy(otherPub)
	require.NoError(t, err)
	verifier := NewVerifier(testAppID, strategy)

	values := notificationValues()
	signValues(t, key, values, "RSA2")

	assert.False(t, verifier.Verify(values))
}

func TestVerifyRejectsMissingSignature(t *testing.T) {
	_, pub := newSigningKey(t)
	strategy, err := NewRSAStrategy(pub)
	require.NoError(t, err)
	verifier := NewVerifier(testAppID, strategy)

	assert.False(t, verifier.Verify(notificationValues()))
}

func TestVerifyFallsBackToSecondStrategy(t *testing.T) {
	key, pub := newSigningKey(t)
	_, wrongPub := newSigningKey(t)
	rejecting, err := NewRSAStrategy(wrongPub)
	require.NoError(t, err)
	accepting, err := NewRSAStrategy(pub)
	require.NoError(t, err)
	verifier := NewVerifier(testAppID, rejecting, accepting)

	values := notificationValues()
	signValues(t, key, values, "RSA2")

	assert.True(t, verifier.Verify(values))
}

func TestSignContentSkipsSignAndEmptyValues(t *testing.T) {
	values := url.Values{
		"b":         {"2"},
		"a":         {"1"},
		"sign":      {"xxx"},
		"sign_type": {"RSA2"},
		"empty":     {""},
	}
	assert.Equal(t, "a=1&b=2&sign_type=RSA2", SignContent(values))
}

func TestSignContentDecodesValues(t *testing.T) {
	values := url.Values{
		"subject": {"Deluxe%20Widget"},
	}
	assert.Equal(t, "subject=Deluxe Widget", SignContent(values))
}

func TestNewRSAStrategyAcceptsPEM(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pem := "-----BEGIN PUBLIC KEY-----\n" + base64.StdEncoding.EncodeToString(der) + "\n-----END PUBLIC KEY-----"

	_, err = NewRSAStrategy(pem)
	assert.NoError(t, err)
}

func TestNewRSAStrategyRejectsGarbage(t *testing.T) {
	_, err := NewRSAStrategy("not a key")
	assert.Error(t, err)

	_, err = NewRSAStrategy("")
	assert.Error(t, err)
}
