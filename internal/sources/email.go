package sources

import (
	"context"
	"net"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/trusthire/backend/internal/storage/models"
)

var emailSyntax = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

var disposableDomains = map[string]bool{
	"10minutemail.com":      true,
	"tempmail.org":          true,
	"guerrillamail.com":     true,
	"guerrillamailblock.com": true,
	"mailinator.com":        true,
	"throwaway.email":       true,
	"temp-mail.org":         true,
	"yopmail.com":           true,
	"maildrop.cc":           true,
	"getnada.com":           true,
	"sharklasers.com":       true,
	"pokemail.net":          true,
	"spam4.me":              true,
	"dispostable.com":       true,
	"mailnesia.com":         true,
}

var rolePatterns = []string{
	"admin", "administrator", "info", "contact", "support",
	"sales", "marketing", "hr", "jobs", "noreply", "no-reply",
}

// MXResolver is the slice of DNS the email validator needs; *net.Resolver
// satisfies it.
type MXResolver interface {
	LookupMX(ctx context.Context, domain string) ([]*net.MX, error)
}

// Email validates a contact address: syntax, deliverability via MX
// records, disposable-domain membership and role-account patterns.
type Email struct {
	resolver MXResolver
	timeout  time.Duration
	logger   *zap.Logger
}

func NewEmail(resolver MXResolver, opts Options) *Email {
	opts.fill()
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	return &Email{
		resolver: resolver,
		timeout:  opts.Timeout,
		logger:   opts.Logger,
	}
}

func (e *Email) Source() models.SourceID   { return models.SourceEmailCheck }
func (e *Email) Category() models.Category { return models.CategoryContact }

func (e *Email) Verify(ctx context.Context, target Target) models.EvidenceItem {
	item := newItem(models.SourceEmailCheck, models.CategoryContact, target.Value)
	started := time.Now()

	ev := &models.EmailEvidence{Input: target.Value}
	item.Email = ev

	if !emailSyntax.MatchString(target.Value) {
		e.logger.Warn("email failed syntax check", zap.String("email", target.Value))
		finish(&item, started, nil)
		return item
	}
	ev.SyntaxValid = true
	ev.Normalized = strings.ToLower(strings.TrimSpace(target.Value))

	local, domain, _ := strings.Cut(ev.Normalized, "@")
	ev.Domain = domain
	ev.Disposable = disposableDomains[domain]
	for _, role := range rolePatterns {
		if strings.Contains(local, role) {
			ev.RoleAccount = true
			break
		}
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	mx, err := e.resolver.LookupMX(ctx, domain)
	if err != nil {
		// NXDOMAIN and friends mean undeliverable, not adapter failure;
		// only a timeout is surfaced as an error.
		if ctx.Err() != nil {
			finish(&item, started, ctx.Err())
			return item
		}
		e.logger.Debug("mx lookup failed", zap.String("domain", domain), zap.Error(err))
	}
	ev.MXFound = len(mx) > 0

	item.Found = ev.SyntaxValid && ev.MXFound && !ev.Disposable

	e.logger.Info("email verification completed",
		zap.String("domain", domain),
		zap.Bool("mx_found", ev.MXFound),
		zap.Bool("disposable", ev.Disposable),
		zap.Bool("role_account", ev.RoleAccount),
	)
	finish(&item, started, nil)
	return item
}
