package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// defaultBlockedDomains seeds the disposable-email deny-list when the
// operator has not configured one.
const defaultBlockedDomains = "mailinator.com\ntrashmail.com\nyopmail.com\nguerrillamail.com\nsharklasers.com\n10minutemail.com\ntemp-mail.org"

type Config struct {
	Env      string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`
	Port     string `env:"PORT" envDefault:"8080" validate:"required"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`

	DatabaseURL string `env:"DATABASE_URL,required" validate:"required"`
	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`

	// PublicBaseURL is the externally reachable origin used to build
	// /lead-confirm/ and /lead-download/ links.
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080" validate:"required,url"`

	CSRFSecret string `env:"CSRF_SECRET,required" validate:"required,min=32"`
	AdminToken string `env:"ADMIN_TOKEN,required" validate:"required,min=32"`

	// Intake behavior.
	AnonymizeIP    bool   `env:"ANONYMIZE_IP" envDefault:"true"`
	EnableDOI      bool   `env:"ENABLE_DOI" envDefault:"false"`
	AttachFile     bool   `env:"ATTACH_FILE" envDefault:"false"`
	BlockedDomains string `env:"BLOCKED_DOMAINS"`
	RedirectURL    string `env:"REDIRECT_URL" validate:"omitempty,url"`
	DOIRedirectURL string `env:"DOI_REDIRECT_URL" validate:"omitempty,url"`

	// Outbound email.
	MailDriver  string `env:"MAIL_DRIVER" envDefault:"log" validate:"oneof=log resend smtp"`
	SenderEmail string `env:"SENDER_EMAIL" envDefault:"noreply@yoursite.com" validate:"required,email"`

	ResendAPIKey string `env:"RESEND_API_KEY" validate:"required_if=MailDriver resend"`

	SMTPHost     string `env:"SMTP_HOST" validate:"required_if=MailDriver smtp"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPassword string `env:"SMTP_PASSWORD"`

	// Email templates. Bodies support a {link} placeholder.
	EmailSubject              string `env:"EMAIL_SUBJECT" envDefault:"Your Download is ready"`
	DownloadEmailBody         string `env:"DOWNLOAD_EMAIL_BODY" envDefault:"Click here to download: {link}"`
	DownloadEmailBodyAttached string `env:"DOWNLOAD_EMAIL_BODY_ATTACHED" envDefault:"Please find your requested file attached to this email."`
	ConfirmEmailSubject       string `env:"CONFIRM_EMAIL_SUBJECT" envDefault:"Please confirm your email address"`
	ConfirmEmailBody          string `env:"CONFIRM_EMAIL_BODY" envDefault:"Please click the following link to confirm your email address and receive your download:\n\n{link}"`

	// Magnet file storage.
	StorageDriver   string `env:"STORAGE_DRIVER" envDefault:"local" validate:"oneof=local s3"`
	LocalStorageDir string `env:"LOCAL_STORAGE_DIR" envDefault:"./data/files"`
	S3Bucket        string `env:"S3_BUCKET" validate:"required_if=StorageDriver s3"`
	S3Region        string `env:"S3_REGION" validate:"required_if=StorageDriver s3"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// BlockedDomainList splits the newline-separated deny-list into trimmed,
// lower-cased domains, falling back to the default list when unset.
func (c *Config) BlockedDomainList() []string {
	raw := c.BlockedDomains
	if strings.TrimSpace(raw) == "" {
		raw = defaultBlockedDomains
	}

	var domains []string
	for _, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		d := strings.ToLower(strings.TrimSpace(line))
		if d != "" {
			domains = append(domains, d)
		}
	}
	return domains
}

func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
