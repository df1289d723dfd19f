package handlers

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/rotisserie/eris"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

const (
	DefaultReportSubject = "Dream 100 Batch Processing Results"
	defaultSMTPTimeout   = 30 * time.Second
)

// SMTPConfig configures the report mailer
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	// From defaults to User
	From    string
	Subject string
	Timeout time.Duration
}

// BatchReport is a finished batch's CSV ready for delivery
type BatchReport struct {
	BatchID   string
	Recipient string
	CSV       []byte
	Rows      int
	Failed    int
}

// messageSender is satisfied by *mail.Client
type messageSender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// MailHandler emails batch reports over SMTP
type MailHandler struct {
	cfg    SMTPConfig
	sender messageSender
	now    func() time.Time
	logger *zap.Logger
}

var reportBodyTemplate = template.Must(template.New("report").Parse(`<html>
<body>
<h2>Dream 100 Batch Processing Complete</h2>
<p>Your batch processing has finished.</p>
{{if .BatchID}}<p><strong>Batch ID:</strong> {{.BatchID}}</p>{{end}}
<p>{{.Rows}} prospects processed{{if .Failed}}, {{.Failed}} failed{{end}}.</p>
<p>The attached CSV file contains:</p>
<ul>
<li>Company information</li>
<li>Contact details (Name, Title, Email)</li>
<li>Website URLs</li>
<li><strong>Pre-Brief Document Links</strong></li>
<li><strong>Sales Snapshot Document Links</strong></li>
</ul>
<p><strong>File:</strong> {{.Filename}}</p>
<hr>
<p style="color: #666; font-size: 12px;">Generated by Dream 100 Advantage - Prospect Intelligence System</p>
</body>
</html>`))

// NewMailHandler creates a new MailHandler with an SMTP client using STARTTLS and PLAIN auth
func NewMailHandler(cfg SMTPConfig) (*MailHandler, error) {
	if cfg.User == "" || cfg.Password == "" {
		return nil, eris.New("SMTP credentials not configured")
	}
	if cfg.Host == "" {
		return nil, eris.New("SMTP host is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultSMTPTimeout
	}

	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.User),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithTimeout(cfg.Timeout),
	)
	if err != nil {
		return nil, eris.Wrap(err, "failed to create SMTP client")
	}

	return newMailHandler(cfg, client), nil
}

func newMailHandler(cfg SMTPConfig, sender messageSender) *MailHandler {
	if cfg.From == "" {
		cfg.From = cfg.User
	}
	if cfg.Subject == "" {
		cfg.Subject = DefaultReportSubject
	}
	return &MailHandler{
		cfg:    cfg,
		sender: sender,
		now:    time.Now,
		logger: zap.L().Named("MailHandler"),
	}
}

// ReportFilename names the CSV attachment for a report generated at t
func ReportFilename(t time.Time) string {
	return fmt.Sprintf("dream100_results_%s.csv", t.Format("20060102_150405"))
}

// BuildReportMessage composes the report email without sending it
func (h *MailHandler) BuildReportMessage(report BatchReport) (*mail.Msg, string, error) {
	if report.Recipient == "" {
		return nil, "", eris.New("no report recipient configured")
	}

	now := h.now()
	filename := ReportFilename(now)

	var body bytes.Buffer
	err := reportBodyTemplate.Execute(&body, struct {
		BatchReport
		Filename string
	}{report, filename})
	if err != nil {
		return nil, "", eris.Wrap(err, "failed to render report body")
	}

	msg := mail.NewMsg()
	if err := msg.From(h.cfg.From); err != nil {
		return nil, "", eris.Wrapf(err, "invalid sender %q", h.cfg.From)
	}
	if err := msg.To(report.Recipient); err != nil {
		return nil, "", eris.Wrapf(err, "invalid recipient %q", report.Recipient)
	}
	msg.Subject(fmt.Sprintf("%s - %s", h.cfg.Subject, now.Format("2006-01-02 15:04")))
	msg.SetDateWithValue(now)
	msg.SetBodyString(mail.TypeTextHTML, body.String())
	if err := msg.AttachReader(filename, bytes.NewReader(report.CSV), mail.WithFileContentType("text/csv")); err != nil {
		return nil, "", eris.Wrap(err, "failed to attach report")
	}

	return msg, filename, nil
}

// SendBatchReport emails the report CSV to report.Recipient
func (h *MailHandler) SendBatchReport(ctx context.Context, report BatchReport) error {
	msg, filename, err := h.BuildReportMessage(report)
	if err != nil {
		return err
	}

	h.logger.Info("sending report",
		zap.String("batch_id", report.BatchID),
		zap.String("recipient", report.Recipient),
		zap.String("filename", filename),
		zap.Int("rows", report.Rows))

	if err := h.sender.DialAndSendWithContext(ctx, msg); err != nil {
		return eris.Wrapf(err, "failed to send report for batch %s", report.BatchID)
	}

	h.logger.Info("report sent", zap.String("batch_id", report.BatchID))
	return nil
}
