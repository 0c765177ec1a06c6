package payment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnconfiguredClient(t *testing.T) {
	client, err := NewClient(Config{})
	require.NoError(t, err)
	assert.False(t, client.Configured())

	_, err = client.CreateTradeRequest("ORDER1", 10.00, "Widget", Passback{})
	assert.ErrorIs(t, err, ErrMissingCredentials)

	_, err = client.QueryTrade(context.Background(), "ORDER1")
	assert.ErrorIs(t, err, ErrMissingCredentials)

	assert.False(t, client.SDKVerify(nil))
}

func TestPassbackRoundTrip(t *testing.T) {
	in := Passback{
		Username:  "alice",
		ProductID: "42",
		Quantity:  3,
		OrderNo:   "ORDER1234567890000001",
	}
	encoded := EncodePassback(in)
	require.NotEmpty(t, encoded)
	// Attached URL-encoded; no raw JSON punctuation survives.
	assert.NotContains(t, encoded, "{")
	assert.NotContains(t, encoded, "\"")

	out, ok := DecodePassback(encoded)
	require.True(t, ok)
	assert.Equal(t, in, out)
}

func TestDecodePassbackAcceptsPlainJSON(t *testing.T) {
	out, ok := DecodePassback(`{"username":"bob","productId":"9999","sumbuy":1,"charge":50,"outTradeNo":"ORDER9"}`)
	require.True(t, ok)
	assert.Equal(t, "bob", out.Username)
	assert.Equal(t, "9999", out.ProductID)
	assert.Equal(t, 50.0, out.Charge)
	assert.Equal(t, "ORDER9", out.OrderNo)
}

func TestDecodePassbackRejectsGarbage(t *testing.T) {
	_, ok := DecodePassback("")
	assert.False(t, ok)
	_, ok = DecodePassback("%%%not json")
	assert.False(t, ok)
}

func TestParseGatewayTime(t *testing.T) {
	got := ParseGatewayTime("2026-03-01 12:30:45")
	require.NotNil(t, got)
	want := time.Date(2026, 3, 1, 12, 30, 45, 0, time.Local)
	assert.True(t, got.Equal(want))

	assert.Nil(t, ParseGatewayTime(""))
	assert.Nil(t, ParseGatewayTime("01/03/2026"))
}
