package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)

	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	client := &Client{webhookSecret: "whsec_test"}
	body := []byte(`{"id":"evt_1"}`)

	assert.True(t, client.VerifySignature(body, sign("whsec_test", body)))
	assert.False(t, client.VerifySignature(body, sign("whsec_other", body)))
	assert.False(t, client.VerifySignature([]byte(`tampered`), sign("whsec_test", body)))
	assert.False(t, client.VerifySignature(body, ""))
}

func TestVerifySignatureNoSecret(t *testing.T) {
	client := &Client{}
	body := []byte(`{}`)

	assert.False(t, client.VerifySignature(body, sign("", body)))
}

func TestMetadataRoundTrip(t *testing.T) {
	meta := Metadata{
		CustomerID:      7,
		CustomerEmail:   "buyer@example.com",
		ShippingAddress: "1 Main St",
		Currency:        "USD",
		Items: []MetadataItem{
			{ProductID: 1, Name: "Keyboard", Quantity: 2, PriceCents: 2500},
		},
	}

	encoded, err := meta.Encode()
	require.NoError(t, err)

	decoded, err := DecodeMetadata(encoded)
	require.NoError(t, err)
	assert.Equal(t, meta, decoded)
}

func TestDecodeMetadataMalformed(t *testing.T) {
	_, err := DecodeMetadata(map[string]string{"customerId": "not a number"})
	assert.Error(t, err)

	_, err = DecodeMetadata(map[string]string{"customerId": "7", "items": "not json"})
	assert.Error(t, err)
}
