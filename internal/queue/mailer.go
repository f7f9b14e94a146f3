package queue

import (
    "bytes"
    "context"
    "encoding/json"
    "fmt"
    "net/http"
    "net/smtp"
    "time"

    "github.com/mfarhadi/parkwise/internal/config"
)

// Mailer delivers notifications over SMTP and an optional chat webhook.
// Unconfigured channels are skipped without error so the jobs behave the
// same in development and production.
type Mailer struct {
    cfg  config.MailConfig
    http *http.Client
}

// NewMailer builds a mailer from the mail configuration.
func NewMailer(cfg config.MailConfig) *Mailer {
    return &Mailer{cfg: cfg, http: &http.Client{Timeout: 10 * time.Second}}
}

// MailEnabled reports whether SMTP delivery is configured.
func (m *Mailer) MailEnabled() bool {
    return m.cfg.SMTPHost != "" && m.cfg.FromAddress != ""
}

// ChatEnabled reports whether the chat webhook is configured.
func (m *Mailer) ChatEnabled() bool { return m.cfg.ChatWebhookURL != "" }

// Send delivers one message. html switches the content type so the
// monthly report can carry markup.
func (m *Mailer) Send(to, subject, body string, html bool) error {
    if !m.MailEnabled() {
        return nil
    }
    contentType := "text/plain; charset=UTF-8"
    if html {
        contentType = "text/html; charset=UTF-8"
    }
    var msg bytes.Buffer
    fmt.Fprintf(&msg, "From: %s\r\n", m.cfg.FromAddress)
    fmt.Fprintf(&msg, "To: %s\r\n", to)
    fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
    fmt.Fprintf(&msg, "MIME-Version: 1.0\r\nContent-Type: %s\r\n\r\n", contentType)
    msg.WriteString(body)

    addr := m.cfg.SMTPHost + ":" + m.cfg.SMTPPort
    var auth smtp.Auth
    if m.cfg.SMTPUsername != "" {
        auth = smtp.PlainAuth("", m.cfg.SMTPUsername, m.cfg.SMTPPassword, m.cfg.SMTPHost)
    }
    return smtp.SendMail(addr, auth, m.cfg.FromAddress, []string{to}, msg.Bytes())
}

// PostChat sends a plain text message to the chat webhook using the
// Google Chat payload shape.
func (m *Mailer) PostChat(ctx context.Context, text string) error {
    if !m.ChatEnabled() {
        return nil
    }
    payload, err := json.Marshal(map[string]string{"text": text})
    if err != nil {
        return err
    }
    req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.ChatWebhookURL, bytes.NewReader(payload))
    if err != nil {
        return err
    }
    req.Header.Set("Content-Type", "application/json")
    resp, err := m.http.Do(req)
    if err != nil {
        return err
    }
    defer resp.Body.Close()
    if resp.StatusCode >= 300 {
        return fmt.Errorf("chat webhook returned %s", resp.Status)
    }
    return nil
}
