package mail

import (
	"context"
	"encoding/json"
	"testing"

	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsole_RecordsWithPrefix(t *testing.T) {
	c := NewConsole("QwikTest")

	err := c.Send(context.Background(), Message{ToAddress: "ana@example.com", Subject: "Welcome", Text: "hi"})
	require.NoError(t, err)

	sent := c.Messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "[QwikTest] Welcome", sent[0].Subject)
}

func TestSendGrid_Build(t *testing.T) {
	s := NewSendGrid("key", "QwikTest", "no-reply@qwiktest.io")

	m := s.build(Message{
		ToName:    "Ana",
		ToAddress: "ana@example.com",
		Subject:   "Payment received",
		Text:      "Thanks",
		HTML:      "<p>Thanks</p>",
	})

	var body struct {
		From struct {
			Email string `json:"email"`
		} `json:"from"`
		Personalizations []struct {
			Subject string `json:"subject"`
			To      []struct {
				Email string `json:"email"`
			} `json:"to"`
		} `json:"personalizations"`
		Content []struct {
			Type string `json:"type"`
		} `json:"content"`
	}
	require.NoError(t, json.Unmarshal(sgmail.GetRequestBody(m), &body))

	assert.Equal(t, "no-reply@qwiktest.io", body.From.Email)
	require.Len(t, body.Personalizations, 1)
	assert.Equal(t, "[QwikTest] Payment received", body.Personalizations[0].Subject)
	assert.Equal(t, "ana@example.com", body.Personalizations[0].To[0].Email)
	assert.Len(t, body.Content, 2)
}
