package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"pawn-settlement/internal/finance"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	TransportLine = "line"
	TransportSQS  = "sqs"
	TransportNoop = "noop"
)

type Config struct {
	AppPort string

	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	RedisAddr string
	RedisDB   int

	IdempTTLSecs int

	PenaltyDailyRate    decimal.Decimal
	Tiers               finance.TierTable
	PlatformFeeRate     decimal.Decimal
	PlatformDeliveryFee decimal.Decimal
	SupportPhone        string

	SlipVerifyURL     string
	SlipVerifyTimeout time.Duration

	LineChannelToken string
	LineAPIBase      string

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	NotifyTransport   string
	NotifySQSQueueURL string
	NotifyTimeout     time.Duration
}

func defaults(v *viper.Viper) {
	tiers := finance.DefaultTiers()

	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("MYSQL_HOST", "mysql")
	v.SetDefault("MYSQL_PORT", "3306")
	v.SetDefault("MYSQL_DB", "pawn")
	v.SetDefault("MYSQL_USER", "pawn")
	v.SetDefault("MYSQL_PASS", "pawn")
	v.SetDefault("REDIS_ADDR", "redis:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("IDEMPOTENCY_TTL_SECONDS", 300)

	v.SetDefault("PENALTY_DAILY_RATE", finance.DefaultDailyPenaltyRate.String())
	v.SetDefault("TIER_GOLD_THRESHOLD", tiers.GoldThreshold.String())
	v.SetDefault("TIER_PLATINUM_THRESHOLD", tiers.PlatinumThreshold.String())
	v.SetDefault("TIER_SILVER_RATE", tiers.SilverRate.String())
	v.SetDefault("TIER_GOLD_RATE", tiers.GoldRate.String())
	v.SetDefault("TIER_PLATINUM_RATE", tiers.PlatinumRate.String())
	v.SetDefault("PLATFORM_FEE_RATE", "")
	v.SetDefault("PLATFORM_DELIVERY_FEE", "0")
	v.SetDefault("SUPPORT_PHONE", "")

	v.SetDefault("SLIP_VERIFY_URL", "")
	v.SetDefault("SLIP_VERIFY_TIMEOUT_MS", 8000)
	v.SetDefault("LINE_CHANNEL_TOKEN", "")
	v.SetDefault("LINE_API_BASE", "https://api.line.me")
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USER", "")
	v.SetDefault("SMTP_PASS", "")
	v.SetDefault("SMTP_FROM", "")
	v.SetDefault("NOTIFY_TRANSPORT", TransportNoop)
	v.SetDefault("NOTIFY_SQS_QUEUE_URL", "")
	v.SetDefault("NOTIFY_TIMEOUT_MS", 5000)
}

// Load reads .env (when present) and the process environment. Amounts that fail to
// parse are reported by Load; cross-field rules are checked by Validate.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	defaults(v)
	v.AutomaticEnv()
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	c := &Config{
		AppPort:   v.GetString("APP_PORT"),
		MySQLHost: v.GetString("MYSQL_HOST"),
		MySQLPort: v.GetString("MYSQL_PORT"),
		MySQLDB:   v.GetString("MYSQL_DB"),
		MySQLUser: v.GetString("MYSQL_USER"),
		MySQLPass: v.GetString("MYSQL_PASS"),

		RedisAddr:    v.GetString("REDIS_ADDR"),
		RedisDB:      v.GetInt("REDIS_DB"),
		IdempTTLSecs: v.GetInt("IDEMPOTENCY_TTL_SECONDS"),

		SupportPhone:      v.GetString("SUPPORT_PHONE"),
		SlipVerifyURL:     v.GetString("SLIP_VERIFY_URL"),
		SlipVerifyTimeout: time.Duration(v.GetInt("SLIP_VERIFY_TIMEOUT_MS")) * time.Millisecond,
		LineChannelToken:  v.GetString("LINE_CHANNEL_TOKEN"),
		LineAPIBase:       v.GetString("LINE_API_BASE"),
		SMTPHost:          v.GetString("SMTP_HOST"),
		SMTPPort:          v.GetInt("SMTP_PORT"),
		SMTPUser:          v.GetString("SMTP_USER"),
		SMTPPass:          v.GetString("SMTP_PASS"),
		SMTPFrom:          v.GetString("SMTP_FROM"),
		NotifyTransport:   strings.ToLower(strings.TrimSpace(v.GetString("NOTIFY_TRANSPORT"))),
		NotifySQSQueueURL: v.GetString("NOTIFY_SQS_QUEUE_URL"),
		NotifyTimeout:     time.Duration(v.GetInt("NOTIFY_TIMEOUT_MS")) * time.Millisecond,
	}

	var errs []error
	amount := func(key string) decimal.Decimal {
		d, err := decimal.NewFromString(strings.TrimSpace(v.GetString(key)))
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s %q: %w", key, v.GetString(key), err))
		}
		return d
	}
	c.PenaltyDailyRate = amount("PENALTY_DAILY_RATE")
	c.Tiers = finance.TierTable{
		GoldThreshold:     amount("TIER_GOLD_THRESHOLD"),
		PlatinumThreshold: amount("TIER_PLATINUM_THRESHOLD"),
		SilverRate:        amount("TIER_SILVER_RATE"),
		GoldRate:          amount("TIER_GOLD_RATE"),
		PlatinumRate:      amount("TIER_PLATINUM_RATE"),
	}
	c.PlatformDeliveryFee = amount("PLATFORM_DELIVERY_FEE")
	// unset means zero; PlatformFeeUnset lets the caller warn about it
	if strings.TrimSpace(v.GetString("PLATFORM_FEE_RATE")) != "" {
		c.PlatformFeeRate = amount("PLATFORM_FEE_RATE")
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return c, nil
}

// PlatformFeeUnset reports whether no platform fee was configured, in which case
// contracts without their own rate pay investors the whole interest.
func (c *Config) PlatformFeeUnset() bool { return c.PlatformFeeRate.IsZero() }

func (c *Config) Validate() error {
	if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
		return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
	}
	// ensure port is valid
	if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
		return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if c.IdempTTLSecs <= 0 {
		return errors.New("IDEMPOTENCY_TTL_SECONDS must be positive")
	}
	if !c.PenaltyDailyRate.IsPositive() {
		return errors.New("PENALTY_DAILY_RATE must be positive")
	}
	if err := c.Tiers.Validate(); err != nil {
		return fmt.Errorf("tier config: %w", err)
	}
	if c.PlatformFeeRate.IsNegative() || c.PlatformFeeRate.GreaterThan(decimal.NewFromInt(1)) {
		return errors.New("PLATFORM_FEE_RATE must be within [0, 1]")
	}
	if c.PlatformDeliveryFee.IsNegative() {
		return errors.New("PLATFORM_DELIVERY_FEE must not be negative")
	}
	if c.SlipVerifyURL == "" {
		return errors.New("missing SLIP_VERIFY_URL")
	}
	switch c.NotifyTransport {
	case TransportLine:
		if c.LineChannelToken == "" {
			return errors.New("NOTIFY_TRANSPORT=line needs LINE_CHANNEL_TOKEN")
		}
	case TransportSQS:
		if c.NotifySQSQueueURL == "" {
			return errors.New("NOTIFY_TRANSPORT=sqs needs NOTIFY_SQS_QUEUE_URL")
		}
	case TransportNoop:
	default:
		return fmt.Errorf("unknown NOTIFY_TRANSPORT %q (line, sqs, noop)", c.NotifyTransport)
	}
	return nil
}

func (c *Config) IdempotencyTTL() time.Duration { return time.Duration(c.IdempTTLSecs) * time.Second }

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// multiStatements=true is handy for migrations; parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?multiStatements=true&parseTime=true&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}
