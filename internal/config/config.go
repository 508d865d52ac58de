package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config aggregates runtime configuration for the bot and supporting services.
// Reward and pricing knobs are validated once at startup and treated as
// read-only afterwards.
type Config struct {
	BotToken string
	MySQLDSN string
	LogLevel string

	// Optional; when set the session coordinator uses Redis instead of the
	// in-process store.
	RedisAddr     string
	RedisPassword string

	GenerationAPIKey  string
	GenerationBaseURL string
	TextModel         string
	SpeechVoice       string
	GenerationTimeout time.Duration

	Currency string

	AdRewardAmount      decimal.Decimal
	AdWatchSeconds      int
	MaxAdsPerDay        int
	AdCooldown          time.Duration
	DailyBonusAmount    decimal.Decimal
	DailyBonusThreshold int
	FreeTrialAmount     decimal.Decimal

	MinPaymentAmount decimal.Decimal
	MaxPaymentAmount decimal.Decimal

	PriceText          decimal.Decimal
	PriceImage         decimal.Decimal
	PriceAudioShort    decimal.Decimal
	PriceAudioLong     decimal.Decimal
	AudioShortMaxChars int

	AdminIDs        []int64
	ManagerUsername string

	AdminListenAddr string
	AdminUsername   string
	AdminPassword   string

	BroadcastPerSecond float64

	S3Endpoint      string
	S3Region        string
	S3AccessKey     string
	S3SecretKey     string
	S3Bucket        string
	S3PublicBaseURL string
	S3UsePathStyle  bool
	S3Prefix        string
}

// Load reads configuration from environment variables, applying sane defaults.
func Load() (Config, error) {
	if err := loadEnvFile(); err != nil {
		return Config{}, err
	}

	cfg := Config{
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		RedisAddr:           getEnv("REDIS_ADDR", ""),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		GenerationBaseURL:   strings.TrimRight(getEnv("GENERATION_BASE_URL", "https://api.openai.com"), "/"),
		TextModel:           getEnv("GENERATION_TEXT_MODEL", "gpt-4o-mini"),
		SpeechVoice:         getEnv("GENERATION_SPEECH_VOICE", "alloy"),
		GenerationTimeout:   time.Second * time.Duration(getInt("GENERATION_TIMEOUT_SECONDS", 240)),
		Currency:            getEnv("CURRENCY", "RUB"),
		AdRewardAmount:      getDecimal("AD_REWARD_AMOUNT", "50"),
		AdWatchSeconds:      getInt("AD_WATCH_SECONDS", 40),
		MaxAdsPerDay:        getInt("MAX_ADS_PER_DAY", 15),
		AdCooldown:          time.Minute * time.Duration(getInt("AD_COOLDOWN_MINUTES", 0)),
		DailyBonusAmount:    getDecimal("DAILY_BONUS_AMOUNT", "200"),
		DailyBonusThreshold: getInt("DAILY_BONUS_THRESHOLD", 15),
		FreeTrialAmount:     getDecimal("FREE_TRIAL_AMOUNT", "10"),
		MinPaymentAmount:    getDecimal("MIN_PAYMENT_AMOUNT", "100"),
		MaxPaymentAmount:    getDecimal("MAX_PAYMENT_AMOUNT", "50000"),
		PriceText:           getDecimal("PRICE_TEXT", "15"),
		PriceImage:          getDecimal("PRICE_IMAGE", "20"),
		PriceAudioShort:     getDecimal("PRICE_AUDIO_SHORT", "5"),
		PriceAudioLong:      getDecimal("PRICE_AUDIO_LONG", "10"),
		AudioShortMaxChars:  getInt("AUDIO_SHORT_MAX_CHARS", 500),
		ManagerUsername:     getEnv("MANAGER_USERNAME", ""),
		AdminListenAddr:     getEnv("ADMIN_LISTEN_ADDR", ":8080"),
		AdminUsername:       getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:       getEnv("ADMIN_PASSWORD", "change-me"),
		BroadcastPerSecond:  getFloat("BROADCAST_PER_SECOND", 20),
		S3Endpoint:          getEnv("S3_ENDPOINT", ""),
		S3Region:            os.Getenv("S3_REGION"),
		S3AccessKey:         os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:         os.Getenv("S3_SECRET_KEY"),
		S3Bucket:            os.Getenv("S3_BUCKET"),
		S3PublicBaseURL:     os.Getenv("S3_PUBLIC_BASE_URL"),
		S3UsePathStyle:      getBool("S3_USE_PATH_STYLE", false),
		S3Prefix:            getEnv("S3_PREFIX", "artifacts"),
	}

	cfg.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.MySQLDSN = os.Getenv("MYSQL_DSN")
	cfg.GenerationAPIKey = os.Getenv("GENERATION_API_KEY")

	ids, err := parseAdminIDs(os.Getenv("ADMIN_IDS"))
	if err != nil {
		return Config{}, err
	}
	cfg.AdminIDs = ids

	var missing []string
	if cfg.BotToken == "" {
		missing = append(missing, "TELEGRAM_BOT_TOKEN")
	}
	if cfg.MySQLDSN == "" {
		missing = append(missing, "MYSQL_DSN")
	}
	if cfg.GenerationAPIKey == "" {
		missing = append(missing, "GENERATION_API_KEY")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %v", missing)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.AdRewardAmount.IsNegative() {
		return fmt.Errorf("AD_REWARD_AMOUNT must not be negative")
	}
	if c.AdWatchSeconds <= 0 {
		return fmt.Errorf("AD_WATCH_SECONDS must be positive")
	}
	if c.MaxAdsPerDay < 0 {
		return fmt.Errorf("MAX_ADS_PER_DAY must not be negative")
	}
	if c.AdCooldown < 0 {
		return fmt.Errorf("AD_COOLDOWN_MINUTES must not be negative")
	}
	if c.DailyBonusAmount.IsNegative() {
		return fmt.Errorf("DAILY_BONUS_AMOUNT must not be negative")
	}
	if c.DailyBonusThreshold <= 0 {
		return fmt.Errorf("DAILY_BONUS_THRESHOLD must be positive")
	}
	if c.FreeTrialAmount.IsNegative() {
		return fmt.Errorf("FREE_TRIAL_AMOUNT must not be negative")
	}
	if c.MinPaymentAmount.GreaterThan(c.MaxPaymentAmount) {
		return fmt.Errorf("MIN_PAYMENT_AMOUNT exceeds MAX_PAYMENT_AMOUNT")
	}
	for name, price := range map[string]decimal.Decimal{
		"PRICE_TEXT":        c.PriceText,
		"PRICE_IMAGE":       c.PriceImage,
		"PRICE_AUDIO_SHORT": c.PriceAudioShort,
		"PRICE_AUDIO_LONG":  c.PriceAudioLong,
	} {
		if price.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if c.AudioShortMaxChars <= 0 {
		return fmt.Errorf("AUDIO_SHORT_MAX_CHARS must be positive")
	}
	if c.GenerationTimeout <= 0 {
		return fmt.Errorf("GENERATION_TIMEOUT_SECONDS must be positive")
	}
	if c.BroadcastPerSecond <= 0 {
		return fmt.Errorf("BROADCAST_PER_SECOND must be positive")
	}
	return nil
}

// IsAdminID reports whether the Telegram id is in the configured admin list.
func (c Config) IsAdminID(telegramID int64) bool {
	for _, id := range c.AdminIDs {
		if id == telegramID {
			return true
		}
	}
	return false
}

func parseAdminIDs(raw string) ([]int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse ADMIN_IDS entry %q: %w", p, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getDecimal(key, fallback string) decimal.Decimal {
	v := os.Getenv(key)
	if v == "" {
		v = fallback
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(v, ",", "."))
	if err != nil {
		d, _ = decimal.NewFromString(fallback)
	}
	return d
}

func loadEnvFile() error {
	candidates := []string{}
	if custom, ok := os.LookupEnv("CONFIG_ENV_PATH"); ok && custom != "" {
		candidates = append(candidates, custom)
	}
	candidates = append(candidates,
		filepath.Join("configs", ".env"),
		".env",
	)

	for _, path := range candidates {
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("access env file %s: %w", path, err)
		}
		if info.IsDir() {
			continue
		}
		if err := godotenv.Overload(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
		return nil
	}
	// Plain process environment is fine; the env file is a convenience.
	return nil
}
