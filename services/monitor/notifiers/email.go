package notifiers

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/practiq/skills-monitoring/services/monitor/alerting"
	"github.com/practiq/skills-monitoring/services/monitor/common"
)

// ArgsEmailNotifier holds the SMTP settings for NewEmailNotifier
type ArgsEmailNotifier struct {
	Host     string
	Port     int
	From     string
	To       []string
	Username string
	Password string
}

// emailNotifier sends plain-text digests over SMTP. It serves both as an alert channel
// and as the delivery mechanism for the daily summary report
type emailNotifier struct {
	addr string
	host string
	from string
	to   []string
	auth smtp.Auth
}

// NewEmailNotifier creates a new email channel
func NewEmailNotifier(args ArgsEmailNotifier) (*emailNotifier, error) {
	if len(args.Host) == 0 {
		return nil, fmt.Errorf("empty SMTP host")
	}
	if len(args.From) == 0 || len(args.To) == 0 {
		return nil, fmt.Errorf("missing from/to addresses")
	}

	var auth smtp.Auth
	if len(args.Username) > 0 {
		auth = smtp.PlainAuth("", args.Username, args.Password, args.Host)
	}

	return &emailNotifier{
		addr: fmt.Sprintf("%s:%d", args.Host, args.Port),
		host: args.Host,
		from: args.From,
		to:   args.To,
		auth: auth,
	}, nil
}

// Channel returns the routing name of this notifier
func (en *emailNotifier) Channel() string {
	return alerting.ChannelEmail
}

// Notify sends a plain-text digest of the lifecycle transition
func (en *emailNotifier) Notify(ctx context.Context, event common.AlertEvent) error {
	alert := event.Alert

	subject := fmt.Sprintf("[%s] %s", strings.ToUpper(string(alert.Severity)), alert.Name)
	if event.Transition == common.TransitionResolved {
		subject = "Resolved: " + alert.Name
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Alert:     %s (%s)\n", alert.Name, alert.ThresholdID))
	b.WriteString(fmt.Sprintf("Severity:  %s\n", alert.Severity))
	b.WriteString(fmt.Sprintf("Threshold: %s\n", event.Expression))
	b.WriteString(fmt.Sprintf("Triggered: %s\n", alert.TriggeredAt.Format("2006-01-02 15:04:05 MST")))
	if alert.ResolvedAt != nil {
		b.WriteString(fmt.Sprintf("Resolved:  %s\n", alert.ResolvedAt.Format("2006-01-02 15:04:05 MST")))
	}
	if len(alert.Runbook) > 0 {
		b.WriteString(fmt.Sprintf("Runbook:   %s\n", alert.Runbook))
	}
	snap := alert.Snapshot
	b.WriteString(fmt.Sprintf("\nSnapshot: errorRate=%.2f%% timeoutRate=%.2f%% p95=%.0fms cacheHit=%.2f%% health=%d\n",
		snap.ErrorRate, snap.TimeoutRate, snap.P95LatencyMs, snap.CacheHitRate, snap.ServiceHealth))

	return en.SendReport(ctx, subject, b.String())
}

// SendReport sends an arbitrary plain-text message, used by the daily summary job
func (en *emailNotifier) SendReport(ctx context.Context, subject string, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		en.from, strings.Join(en.to, ", "), subject, body)

	err := en.send(ctx, []byte(msg))
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	log.Debug("email delivered", "subject", subject, "recipients", len(en.to))

	return nil
}

// send speaks SMTP over a context-bound connection. net/smtp has no context support, so
// the dial honors the context and the connection deadline is set from it
func (en *emailNotifier) send(ctx context.Context, msg []byte) error {
	conn, err := (&net.Dialer{}).DialContext(ctx, "tcp", en.addr)
	if err != nil {
		return err
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, en.host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if en.auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			err = client.Auth(en.auth)
			if err != nil {
				return err
			}
		}
	}

	err = client.Mail(en.from)
	if err != nil {
		return err
	}
	for _, rcpt := range en.to {
		err = client.Rcpt(rcpt)
		if err != nil {
			return err
		}
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	_, err = w.Write(msg)
	if err != nil {
		return err
	}
	err = w.Close()
	if err != nil {
		return err
	}

	return client.Quit()
}

// IsInterfaceNil returns true if the value under the interface is nil
func (en *emailNotifier) IsInterfaceNil() bool {
	return en == nil
}
