package payments

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v82/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test_secret"

func signed(t *testing.T, payload string) (string, []byte) {
	t.Helper()
	sp := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    testSecret,
		Timestamp: time.Now(),
	})
	return sp.Header, sp.Payload
}

const succeeded = `{"id":"evt_1","object":"event","type":"payment_intent.succeeded",
"data":{"object":{"id":"pi_123","object":"payment_intent","status":"succeeded"}}}`

func TestVerifyWebhook(t *testing.T) {
	gw := NewStripe("", testSecret)
	header, body := signed(t, succeeded)

	ev, err := gw.VerifyWebhook(body, header)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", ev.ID)
	assert.Equal(t, EventIntentSucceeded, ev.Type)
	assert.Equal(t, "pi_123", ev.PaymentIntentID)
}

func TestVerifyWebhook_Rejects(t *testing.T) {
	gw := NewStripe("", testSecret)
	header, body := signed(t, succeeded)

	tests := map[string]struct {
		body   []byte
		header string
	}{
		"missing header":   {body, ""},
		"garbage header":   {body, "t=1,v1=deadbeef"},
		"tampered body":    {bytes.Replace(body, []byte("pi_123"), []byte("pi_999"), 1), header},
		"other secret sig": {body, otherSecretHeader(body)},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := gw.VerifyWebhook(tt.body, tt.header)
			assert.ErrorIs(t, err, ErrInvalidSignature)
		})
	}
}

func otherSecretHeader(body []byte) string {
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload: body,
		Secret:  "whsec_someone_else",
	}).Header
}

func TestVerifyWebhook_NotConfigured(t *testing.T) {
	_, err := NewStripe("", "").VerifyWebhook([]byte(`{}`), "t=1,v1=x")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestCreateIntent_NotConfigured(t *testing.T) {
	_, err := NewStripe("", testSecret).CreateIntent(context.Background(), 1000, "usd")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
