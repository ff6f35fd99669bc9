package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration for M37.
// It merges file defaults and environment overrides to support both local and deployed runs.
type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int

	DatabaseURL    string
	RedisURL       string
	ProfileGRPCURL string

	JWTPublicKeyPEM string

	KafkaBrokers              []string
	KafkaTopicUserFlagged     string
	KafkaTopicUserBanned      string
	KafkaTopicContentRejected string

	ClassifierBaseURL string
	ClassifierAPIKey  string
	ClassifierModel   string
	ClassifierTimeout time.Duration

	BannedTerms       []string
	PromoPatterns     []string
	SensitivePatterns []string

	ReportReviewThreshold int
	QueueDefaultLimit     int
	QueueMaxLimit         int
	RecentFlagWindow      time.Duration
	IdempotencyTTL        time.Duration

	MaxDBConns         int32
	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxClaimTTL     time.Duration
	OutboxMaxRetries   int
	BanRetryInterval   time.Duration
	BanRetryBatchSize  int
	BanRetryDelay      time.Duration
	BanMaxAttempts     int
}

// configFile mirrors the YAML schema used by configs/default.yaml.
// It is intentionally separate from Config so runtime-only fields stay internal.
type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL               string   `yaml:"postgres_url"`
		RedisURL                  string   `yaml:"redis_url"`
		ProfileGRPCURL            string   `yaml:"profile_grpc_url"`
		KafkaBrokers              []string `yaml:"kafka_brokers"`
		KafkaTopicUserFlagged     string   `yaml:"kafka_topic_user_flagged"`
		KafkaTopicUserBanned      string   `yaml:"kafka_topic_user_banned"`
		KafkaTopicContentRejected string   `yaml:"kafka_topic_content_rejected"`
	} `yaml:"dependencies"`
	Classifier struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
		Model   string `yaml:"model"`
	} `yaml:"classifier"`
	Moderation struct {
		BannedTerms       []string `yaml:"banned_terms"`
		PromoPatterns     []string `yaml:"promo_patterns"`
		SensitivePatterns []string `yaml:"sensitive_patterns"`
	} `yaml:"moderation"`
}

// defaultBannedTerms is the working out-of-the-box lexical list; real
// deployments replace it wholesale through config. Terms are matched as
// exact lowercase tokens.
func defaultBannedTerms() []string {
	return []string{"fuck", "shit", "bitch", "asshole", "bastard"}
}

// defaultPromoPatterns covers the bulk promotional/scam phrasing seen in
// live-shopping chat. Patterns are case-insensitive regular expressions.
func defaultPromoPatterns() []string {
	return []string{
		`\bbuy now\b`,
		`\blimited time offer\b`,
		`\bclick here\b`,
		`\bact now\b`,
		`\bearn money fast\b`,
		`\bwork from home\b`,
		`\bfree gift\b`,
		`\bguaranteed winner\b`,
		`\bdouble your (money|coins|earnings)\b`,
		`\b(crypto|bitcoin) giveaway\b`,
	}
}

// defaultSensitivePatterns matches solicitation of payment credentials and
// off-platform transfer requests.
func defaultSensitivePatterns() []string {
	return []string{
		`\b(credit|debit) card number\b`,
		`\bcvv\b`,
		`\bwire transfer\b`,
		`\bwestern union\b`,
		`\bbank account number\b`,
		`\brouting number\b`,
		`\bsend (me )?your password\b`,
		`\bsocial security number\b`,
		`\bseed phrase\b`,
		`\bgift card code\b`,
	}
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
// This order keeps local bootstrap simple while allowing environment-specific overrides.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:                 "M37-Moderation-Service",
		HTTPPort:                  8080,
		GRPCPort:                  9090,
		KafkaTopicUserFlagged:     "moderation.user.flagged",
		KafkaTopicUserBanned:      "moderation.user.banned",
		KafkaTopicContentRejected: "moderation.content.rejected",
		ClassifierModel:           "gpt-4o-mini",
		ClassifierTimeout:         2 * time.Second,
		BannedTerms:               defaultBannedTerms(),
		PromoPatterns:             defaultPromoPatterns(),
		SensitivePatterns:         defaultSensitivePatterns(),
		ReportReviewThreshold:     5,
		QueueDefaultLimit:         50,
		QueueMaxLimit:             200,
		RecentFlagWindow:          7 * 24 * time.Hour,
		IdempotencyTTL:            7 * 24 * time.Hour,
		MaxDBConns:                20,
		OutboxPollInterval:        2 * time.Second,
		OutboxBatchSize:           100,
		OutboxClaimTTL:            30 * time.Second,
		OutboxMaxRetries:          5,
		BanRetryInterval:          15 * time.Second,
		BanRetryBatchSize:         50,
		BanRetryDelay:             30 * time.Second,
		BanMaxAttempts:            5,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Service.GRPCPort > 0 {
			cfg.GRPCPort = f.Service.GRPCPort
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if f.Dependencies.ProfileGRPCURL != "" {
			cfg.ProfileGRPCURL = f.Dependencies.ProfileGRPCURL
		}
		if len(f.Dependencies.KafkaBrokers) > 0 {
			cfg.KafkaBrokers = trimNonEmpty(f.Dependencies.KafkaBrokers)
		}
		if f.Dependencies.KafkaTopicUserFlagged != "" {
			cfg.KafkaTopicUserFlagged = f.Dependencies.KafkaTopicUserFlagged
		}
		if f.Dependencies.KafkaTopicUserBanned != "" {
			cfg.KafkaTopicUserBanned = f.Dependencies.KafkaTopicUserBanned
		}
		if f.Dependencies.KafkaTopicContentRejected != "" {
			cfg.KafkaTopicContentRejected = f.Dependencies.KafkaTopicContentRejected
		}
		if f.Classifier.BaseURL != "" {
			cfg.ClassifierBaseURL = f.Classifier.BaseURL
		}
		if f.Classifier.APIKey != "" {
			cfg.ClassifierAPIKey = f.Classifier.APIKey
		}
		if f.Classifier.Model != "" {
			cfg.ClassifierModel = f.Classifier.Model
		}
		if len(f.Moderation.BannedTerms) > 0 {
			cfg.BannedTerms = trimNonEmpty(f.Moderation.BannedTerms)
		}
		if len(f.Moderation.PromoPatterns) > 0 {
			cfg.PromoPatterns = trimNonEmpty(f.Moderation.PromoPatterns)
		}
		if len(f.Moderation.SensitivePatterns) > 0 {
			cfg.SensitivePatterns = trimNonEmpty(f.Moderation.SensitivePatterns)
		}
	}

	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.ProfileGRPCURL = envOrDefault("PROFILE_GRPC_URL", cfg.ProfileGRPCURL)
	cfg.JWTPublicKeyPEM = envOrDefault("JWT_PUBLIC_KEY_PEM", cfg.JWTPublicKeyPEM)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaTopicUserFlagged = envOrDefault("KAFKA_TOPIC_USER_FLAGGED", cfg.KafkaTopicUserFlagged)
	cfg.KafkaTopicUserBanned = envOrDefault("KAFKA_TOPIC_USER_BANNED", cfg.KafkaTopicUserBanned)
	cfg.KafkaTopicContentRejected = envOrDefault("KAFKA_TOPIC_CONTENT_REJECTED", cfg.KafkaTopicContentRejected)
	cfg.ClassifierBaseURL = envOrDefault("CLASSIFIER_BASE_URL", cfg.ClassifierBaseURL)
	cfg.ClassifierAPIKey = envOrDefault("CLASSIFIER_API_KEY", envOrDefault("OPENAI_API_KEY", cfg.ClassifierAPIKey))
	cfg.ClassifierModel = envOrDefault("CLASSIFIER_MODEL", cfg.ClassifierModel)
	cfg.BannedTerms = envCSV("MODERATION_BANNED_TERMS", cfg.BannedTerms)
	cfg.PromoPatterns = envCSV("MODERATION_PROMO_PATTERNS", cfg.PromoPatterns)
	cfg.SensitivePatterns = envCSV("MODERATION_SENSITIVE_PATTERNS", cfg.SensitivePatterns)

	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))
	cfg.ReportReviewThreshold = envInt("REPORT_REVIEW_THRESHOLD", cfg.ReportReviewThreshold)
	cfg.QueueDefaultLimit = envInt("QUEUE_DEFAULT_LIMIT", cfg.QueueDefaultLimit)
	cfg.QueueMaxLimit = envInt("QUEUE_MAX_LIMIT", cfg.QueueMaxLimit)

	cfg.ClassifierTimeout = time.Duration(envInt("CLASSIFIER_TIMEOUT_MS", int(cfg.ClassifierTimeout.Milliseconds()))) * time.Millisecond
	cfg.RecentFlagWindow = time.Duration(envInt("RECENT_FLAG_WINDOW_DAYS", int(cfg.RecentFlagWindow.Hours()/24))) * 24 * time.Hour
	cfg.IdempotencyTTL = time.Duration(envInt("IDEMPOTENCY_TTL_HOURS", int(cfg.IdempotencyTTL.Hours()))) * time.Hour
	cfg.OutboxPollInterval = time.Duration(envInt("OUTBOX_POLL_SECONDS", int(cfg.OutboxPollInterval.Seconds()))) * time.Second
	cfg.OutboxBatchSize = envInt("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)
	cfg.OutboxClaimTTL = time.Duration(envInt("OUTBOX_CLAIM_TTL_SECONDS", int(cfg.OutboxClaimTTL.Seconds()))) * time.Second
	cfg.OutboxMaxRetries = envInt("OUTBOX_MAX_RETRIES", cfg.OutboxMaxRetries)
	cfg.BanRetryInterval = time.Duration(envInt("BAN_RETRY_INTERVAL_SECONDS", int(cfg.BanRetryInterval.Seconds()))) * time.Second
	cfg.BanRetryBatchSize = envInt("BAN_RETRY_BATCH_SIZE", cfg.BanRetryBatchSize)
	cfg.BanRetryDelay = time.Duration(envInt("BAN_RETRY_DELAY_SECONDS", int(cfg.BanRetryDelay.Seconds()))) * time.Second
	cfg.BanMaxAttempts = envInt("BAN_MAX_ATTEMPTS", cfg.BanMaxAttempts)

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DB_URL/POSTGRES_URL")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("missing REDIS_URL")
	}
	if cfg.ProfileGRPCURL == "" {
		return Config{}, fmt.Errorf("missing PROFILE_GRPC_URL")
	}
	if cfg.JWTPublicKeyPEM == "" {
		return Config{}, fmt.Errorf("missing JWT_PUBLIC_KEY_PEM")
	}

	return cfg, nil
}

// envOrDefault returns an env var when present, otherwise the provided fallback.
func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt parses integer env vars with safe fallback on empty/invalid values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// envCSV parses comma-separated env vars and removes empty segments.
func envCSV(name string, fallback []string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	parts := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		parts = append(parts, trimmed)
	}
	if len(parts) == 0 {
		return fallback
	}
	return parts
}

func trimNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}
