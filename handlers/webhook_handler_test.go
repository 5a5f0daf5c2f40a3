package handlers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebhookSecret = "whsec_dGVzdC1zZWNyZXQta2V5LWZvci1zaWduaW5n"

func signPayload(t *testing.T, secret, svixID, svixTimestamp string, body []byte) string {
	t.Helper()

	secretBytes, err := base64.StdEncoding.DecodeString(secret[len("whsec_"):])
	require.NoError(t, err)

	mac := hmac.New(sha256.New, secretBytes)
	fmt.Fprintf(mac, "%s.%s.%s", svixID, svixTimestamp, body)
	return "v1," + base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhookSignature(t *testing.T) {
	t.Setenv("CLERK_WEBHOOK_SECRET", testWebhookSecret)

	body := []byte(`{"type":"user.created","data":{"id":"user_123"}}`)

	t.Run("valid signature passes", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/webhooks/clerk", bytes.NewReader(body))
		r.Header.Set("svix-id", "msg_1")
		r.Header.Set("svix-timestamp", "1700000000")
		r.Header.Set("svix-signature", signPayload(t, testWebhookSecret, "msg_1", "1700000000", body))

		assert.NoError(t, verifyWebhookSignature(r, body))
	})

	t.Run("one valid candidate among several passes", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/webhooks/clerk", bytes.NewReader(body))
		r.Header.Set("svix-id", "msg_1")
		r.Header.Set("svix-timestamp", "1700000000")
		valid := signPayload(t, testWebhookSecret, "msg_1", "1700000000", body)
		r.Header.Set("svix-signature", "v1,Ym9ndXM= "+valid)

		assert.NoError(t, verifyWebhookSignature(r, body))
	})

	t.Run("tampered body fails", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/webhooks/clerk", bytes.NewReader(body))
		r.Header.Set("svix-id", "msg_1")
		r.Header.Set("svix-timestamp", "1700000000")
		r.Header.Set("svix-signature", signPayload(t, testWebhookSecret, "msg_1", "1700000000", body))

		tampered := []byte(`{"type":"user.deleted","data":{"id":"user_999"}}`)
		assert.Error(t, verifyWebhookSignature(r, tampered))
	})

	t.Run("missing headers fail", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/webhooks/clerk", bytes.NewReader(body))
		assert.Error(t, verifyWebhookSignature(r, body))
	})

	t.Run("unconfigured secret fails", func(t *testing.T) {
		t.Setenv("CLERK_WEBHOOK_SECRET", "")
		r := httptest.NewRequest("POST", "/webhooks/clerk", bytes.NewReader(body))
		r.Header.Set("svix-id", "msg_1")
		r.Header.Set("svix-timestamp", "1700000000")
		r.Header.Set("svix-signature", "v1,abc")

		assert.Error(t, verifyWebhookSignature(r, body))
	})
}
