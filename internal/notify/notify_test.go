package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogMailer_RecordsMessages(t *testing.T) {
	m := NewLogMailer()
	require.Empty(t, m.Sent())

	msg := Message{ToEmail: "mech@club.test", Subject: "hello"}
	require.NoError(t, m.Send(context.Background(), msg))

	sent := m.Sent()
	require.Len(t, sent, 1)
	require.Equal(t, msg, sent[0])
}

func TestNewSendGridMailer(t *testing.T) {
	m := NewSendGridMailer("key", "noreply@club.test", "Motorsport Club")
	require.NotNil(t, m.client)
	require.Equal(t, "noreply@club.test", m.sender)

	var _ Mailer = m
	var _ Mailer = NewLogMailer()
}
