package emailfinder

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/outreach-cli/internal/mx"
)

const (
	defaultSMTPProbeGap = 2 * time.Second
	defaultSMTPTimeout  = 10 * time.Second
	defaultHelloDomain  = "example.com"
	defaultSender       = "verify@example.com"

	// maxProbedHosts bounds how many mail exchangers one probe may touch.
	maxProbedHosts = 2

	// catchAllLocalPart is a fixed mailbox name no real domain assigns. If
	// a domain accepts it, per-candidate verification is uninformative.
	catchAllLocalPart = "xk9q2wvd7r3ztp5m"
)

// handshakeFunc performs one SMTP probe against a mail exchanger and returns
// the RCPT TO response code. A non-nil error means no definitive outcome was
// reached (dial failure, disconnect, timeout) and the next host should be
// tried.
type handshakeFunc func(ctx context.Context, host, sender, rcpt, hello string, timeout time.Duration) (int, error)

// SMTPOption configures the SMTP verifier.
type SMTPOption func(*SMTPVerifier)

// WithSMTPProbeGap overrides the minimum wall-clock gap between probes.
func WithSMTPProbeGap(d time.Duration) SMTPOption {
	return func(v *SMTPVerifier) {
		if d > 0 {
			v.limiter = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

// WithHelloDomain sets the domain announced in HELO.
func WithHelloDomain(domain string) SMTPOption {
	return func(v *SMTPVerifier) {
		v.hello = domain
	}
}

// WithSender sets the MAIL FROM identity.
func WithSender(sender string) SMTPOption {
	return func(v *SMTPVerifier) {
		v.sender = sender
	}
}

// WithSMTPTimeout sets the per-host dial and command timeout.
func WithSMTPTimeout(d time.Duration) SMTPOption {
	return func(v *SMTPVerifier) {
		v.timeout = d
	}
}

func withHandshake(fn handshakeFunc) SMTPOption {
	return func(v *SMTPVerifier) {
		v.handshake = fn
	}
}

// SMTPVerifier verifies addresses by speaking to the domain's mail
// exchangers directly on port 25. It owns its rate limiter; create one
// verifier per concurrent flow. Each probe opens and closes its own
// connection.
type SMTPVerifier struct {
	resolver  mx.Resolver
	limiter   *rate.Limiter
	handshake handshakeFunc
	hello     string
	sender    string
	timeout   time.Duration
}

// NewSMTPVerifier creates an SMTP-backed verifier.
func NewSMTPVerifier(resolver mx.Resolver, opts ...SMTPOption) *SMTPVerifier {
	v := &SMTPVerifier{
		resolver:  resolver,
		limiter:   rate.NewLimiter(rate.Every(defaultSMTPProbeGap), 1),
		handshake: smtpHandshake,
		hello:     defaultHelloDomain,
		sender:    defaultSender,
		timeout:   defaultSMTPTimeout,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify probes a single address: resolve the domain's mail exchangers, then
// attempt the handshake against at most the first two in priority order,
// stopping at the first definitive response code.
func (v *SMTPVerifier) Verify(ctx context.Context, email string) Verification {
	if err := v.limiter.Wait(ctx); err != nil {
		return Verification{
			Email:   email,
			Failure: FailureTransport,
			Message: fmt.Sprintf("rate limit wait: %v", err),
		}
	}

	_, domain, found := strings.Cut(email, "@")
	if !found || domain == "" {
		return Verification{
			Email:   email,
			Failure: FailureDNS,
			Message: "address has no domain part",
		}
	}

	hosts, err := v.resolver.LookupMX(ctx, domain)
	if err != nil {
		return dnsFailure(email, domain, err)
	}

	if len(hosts) > maxProbedHosts {
		hosts = hosts[:maxProbedHosts]
	}

	for _, host := range hosts {
		code, err := v.handshake(ctx, host.Name, v.sender, email, v.hello, v.timeout)
		if err != nil {
			zap.L().Debug("smtp handshake failed, trying next exchanger",
				zap.String("email", email),
				zap.String("host", host.Name),
				zap.Error(err),
			)
			continue
		}

		switch code {
		case 250:
			return Verification{
				Email:   email,
				Valid:   true,
				Message: fmt.Sprintf("accepted by %s (250)", host.Name),
			}
		case 550, 551, 552, 553:
			return Verification{
				Email:   email,
				Failure: FailureSMTPRejected,
				Message: fmt.Sprintf("rejected by %s (%d)", host.Name, code),
			}
		default:
			return Verification{
				Email:   email,
				Failure: FailureSMTPUnexpected,
				Message: fmt.Sprintf("unexpected response from %s (%d)", host.Name, code),
			}
		}
	}

	return Verification{
		Email:   email,
		Failure: FailureSMTPUnreachable,
		Message: "all mail exchangers unreachable",
	}
}

// ProbeCatchAll reports whether the domain accepts mail for a local part
// that certainly does not exist. Costs exactly one verification probe.
func (v *SMTPVerifier) ProbeCatchAll(ctx context.Context, domain string) bool {
	res := v.Verify(ctx, catchAllLocalPart+"@"+strings.ToLower(strings.TrimSpace(domain)))
	return res.Valid
}

func dnsFailure(email, domain string, err error) Verification {
	var msg string
	switch {
	case errors.Is(err, mx.ErrNoDomain):
		msg = fmt.Sprintf("domain %s does not exist", domain)
	case errors.Is(err, mx.ErrNoRecords):
		msg = fmt.Sprintf("no mail exchangers for %s", domain)
	default:
		msg = fmt.Sprintf("MX lookup for %s failed: %v", domain, err)
	}
	zap.L().Debug("mx resolution failed", zap.String("email", email), zap.Error(err))
	return Verification{
		Email:   email,
		Failure: FailureDNS,
		Message: msg,
	}
}

// smtpHandshake is the production handshake: connect, HELO, MAIL FROM,
// RCPT TO, QUIT. A protocol-level rejection of the recipient is a definitive
// outcome and comes back as its response code, not an error.
func smtpHandshake(ctx context.Context, host, sender, rcpt, hello string, timeout time.Duration) (int, error) {
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, "25"))
	if err != nil {
		return 0, stageErr("connect", host, err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return 0, stageErr("set deadline", host, err)
	}

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return 0, stageErr("greeting", host, err)
	}
	defer client.Close()

	if err := client.Hello(hello); err != nil {
		return 0, stageErr("HELO", host, err)
	}
	if err := client.Mail(sender); err != nil {
		return 0, stageErr("MAIL FROM", host, err)
	}

	err = client.Rcpt(rcpt)
	if err == nil {
		_ = client.Quit()
		return 250, nil
	}

	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		_ = client.Quit()
		return protoErr.Code, nil
	}
	return 0, stageErr("RCPT TO", host, err)
}

func stageErr(stage, host string, err error) error {
	return eris.Wrapf(err, "smtp %s %s", stage, host)
}
