package handlers

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

type fakeSender struct {
	sent []*mail.Msg
	err  error
}

func (f *fakeSender) DialAndSendWithContext(_ context.Context, messages ...*mail.Msg) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, messages...)
	return nil
}

func newTestMailHandler(sender messageSender) *MailHandler {
	h := newMailHandler(SMTPConfig{User: "reports@example.com", Password: "secret"}, sender)
	h.now = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) }
	return h
}

func TestNewMailHandler_RequiresCredentials(t *testing.T) {
	_, err := NewMailHandler(SMTPConfig{Host: "smtp.example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMTP credentials not configured")

	h, err := NewMailHandler(SMTPConfig{Host: "smtp.example.com", User: "u@example.com", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, 587, h.cfg.Port)
	assert.Equal(t, "u@example.com", h.cfg.From)
}

func TestReportFilename(t *testing.T) {
	assert.Equal(t, "dream100_results_20260304_050607.csv", ReportFilename(time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)))
}

func TestMailHandler_BuildReportMessage(t *testing.T) {
	h := newTestMailHandler(&fakeSender{})

	msg, filename, err := h.BuildReportMessage(BatchReport{
		BatchID:   "abc123",
		Recipient: "owner@example.com",
		CSV:       []byte("Company\nAcme\n"),
		Rows:      1,
	})
	require.NoError(t, err)

	assert.Equal(t, "dream100_results_20260304_050607.csv", filename)
	assert.Equal(t, []string{"<owner@example.com>"}, msg.GetToString())
	assert.Equal(t, []string{"Dream 100 Batch Processing Results - 2026-03-04 05:06"}, msg.GetGenHeader(mail.HeaderSubject))

	attachments := msg.GetAttachments()
	require.Len(t, attachments, 1)
	assert.Equal(t, filename, attachments[0].Name)

	var raw bytes.Buffer
	_, err = msg.WriteTo(&raw)
	require.NoError(t, err)
	assert.Contains(t, raw.String(), "abc123")
}

func TestMailHandler_SendBatchReport(t *testing.T) {
	sender := &fakeSender{}
	h := newTestMailHandler(sender)

	require.NoError(t, h.SendBatchReport(context.Background(), BatchReport{BatchID: "b", Recipient: "owner@example.com", CSV: []byte("x")}))
	assert.Len(t, sender.sent, 1)
}

func TestMailHandler_SendBatchReportErrors(t *testing.T) {
	h := newTestMailHandler(&fakeSender{})
	err := h.SendBatchReport(context.Background(), BatchReport{BatchID: "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no report recipient")

	failing := newTestMailHandler(&fakeSender{err: errors.New("535 authentication failed")})
	err = failing.SendBatchReport(context.Background(), BatchReport{BatchID: "b", Recipient: "owner@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "535 authentication failed")
}
