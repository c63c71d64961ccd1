package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the API process.
// All values come from env (or a .env file loaded by the process runner).
// No business logic should depend on raw environment variables.
type Config struct {
	App        AppConfig
	DB         DBConfig
	Redis      RedisConfig
	Auth       AuthConfig
	Twilio     TwilioConfig
	OTP        OTPConfig
	Scheduling SchedulingConfig
	Audio      AudioConfig
}

type AppConfig struct {
	Env  string
	Port int

	// Timezone is the single IANA zone all tenants are scheduled in.
	Timezone string
	// PublicBaseURL is the externally reachable origin used in SMS links and webhook signatures.
	PublicBaseURL string
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string

	AutoMigrate bool
}

type RedisConfig struct {
	Host string
	Port int
}

type AuthConfig struct {
	JWTSecret      string
	JWTIssuer      string
	JWTAudience    string
	AccessTokenTTL time.Duration
}

// TwilioConfig is the platform sender. Tenants may carry their own account.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string

	ValidateSignatures  bool
	CredentialsCacheTTL time.Duration
}

type OTPConfig struct {
	TTL        time.Duration
	RateLimit  int
	RateWindow time.Duration
}

type SchedulingConfig struct {
	SlotIntervalMinutes int
	IVRGatherTimeout    time.Duration
}

// AudioConfig enables IVR greeting pre-generation when both TTS and S3 are set.
type AudioConfig struct {
	S3Bucket      string
	S3Region      string
	S3Endpoint    string
	PublicBaseURL string

	TTSEndpoint string
	TTSAPIKey   string
}

func (a AudioConfig) Enabled() bool {
	return a.S3Bucket != "" && a.TTSEndpoint != ""
}

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	c.App.Port, parseErrs = collect(parseErrs)(mustInt("APP_PORT"))
	c.App.Timezone = strings.TrimSpace(os.Getenv("APP_TIMEZONE"))
	c.App.PublicBaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("PUBLIC_BASE_URL")), "/")

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	c.DB.Port, parseErrs = collect(parseErrs)(mustInt("DB_PORT"))
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))
	c.DB.AutoMigrate, parseErrs = collectBool(parseErrs)(optionalBool("DB_AUTO_MIGRATE", false))

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	c.Redis.Port, parseErrs = collect(parseErrs)(mustInt("REDIS_PORT"))

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	c.Auth.JWTAudience = strings.TrimSpace(os.Getenv("JWT_AUDIENCE"))
	// Duration env vars are optional; defaults applied in Validate().
	c.Auth.AccessTokenTTL = mustDuration("JWT_ACCESS_TTL")

	c.Twilio.AccountSID = strings.TrimSpace(os.Getenv("TWILIO_ACCOUNT_SID"))
	c.Twilio.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	c.Twilio.FromNumber = strings.TrimSpace(os.Getenv("TWILIO_FROM_NUMBER"))
	c.Twilio.ValidateSignatures, parseErrs = collectBool(parseErrs)(optionalBool("TWILIO_VALIDATE_SIGNATURES", c.App.Env == "production"))
	c.Twilio.CredentialsCacheTTL = mustDuration("CREDENTIALS_CACHE_TTL")

	c.OTP.TTL = mustDuration("OTP_TTL")
	c.OTP.RateLimit, parseErrs = collect(parseErrs)(optionalInt("OTP_RATE_LIMIT"))
	c.OTP.RateWindow = mustDuration("OTP_RATE_WINDOW")

	c.Scheduling.SlotIntervalMinutes, parseErrs = collect(parseErrs)(optionalInt("SLOT_INTERVAL_MINUTES"))
	c.Scheduling.IVRGatherTimeout = mustDuration("IVR_GATHER_TIMEOUT")

	c.Audio.S3Bucket = strings.TrimSpace(os.Getenv("AUDIO_S3_BUCKET"))
	c.Audio.S3Region = strings.TrimSpace(os.Getenv("AUDIO_S3_REGION"))
	c.Audio.S3Endpoint = strings.TrimSpace(os.Getenv("AUDIO_S3_ENDPOINT"))
	c.Audio.PublicBaseURL = strings.TrimSpace(os.Getenv("AUDIO_PUBLIC_BASE_URL"))
	c.Audio.TTSEndpoint = strings.TrimSpace(os.Getenv("TTS_ENDPOINT"))
	c.Audio.TTSAPIKey = os.Getenv("TTS_API_KEY")

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate reports every problem at once and fills in defaults.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}
	if c.App.Timezone == "" {
		c.App.Timezone = "UTC"
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("APP_TIMEZONE must be an IANA zone, got %q", c.App.Timezone))
	}
	if c.App.PublicBaseURL == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("PUBLIC_BASE_URL is required in production"))
		} else {
			c.App.PublicBaseURL = fmt.Sprintf("http://localhost:%d", c.App.Port)
		}
	} else if u, err := url.Parse(c.App.PublicBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("PUBLIC_BASE_URL must be an absolute URL, got %q", c.App.PublicBaseURL))
	}

	if c.DB.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if c.DB.SSLMode == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else {
			c.DB.SSLMode = "disable"
		}
	}
	if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}

	if c.Redis.Host == "" {
		errs = append(errs, errors.New("REDIS_HOST is required"))
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.IsProduction() {
		if c.Auth.JWTIssuer == "" {
			errs = append(errs, errors.New("JWT_ISSUER is required in production"))
		}
		if c.Auth.JWTAudience == "" {
			errs = append(errs, errors.New("JWT_AUDIENCE is required in production"))
		}
	}
	if c.Auth.AccessTokenTTL <= 0 {
		c.Auth.AccessTokenTTL = 15 * time.Minute
	}

	if (c.Twilio.AccountSID == "") != (c.Twilio.AuthToken == "") {
		errs = append(errs, errors.New("TWILIO_ACCOUNT_SID and TWILIO_AUTH_TOKEN must be set together"))
	}
	if c.Twilio.ValidateSignatures && c.Twilio.AuthToken == "" {
		errs = append(errs, errors.New("TWILIO_VALIDATE_SIGNATURES requires TWILIO_AUTH_TOKEN"))
	}
	if c.Twilio.CredentialsCacheTTL <= 0 {
		c.Twilio.CredentialsCacheTTL = 60 * time.Second
	}

	if c.OTP.TTL <= 0 {
		c.OTP.TTL = 10 * time.Minute
	}
	if c.OTP.RateLimit <= 0 {
		c.OTP.RateLimit = 3
	}
	if c.OTP.RateWindow <= 0 {
		c.OTP.RateWindow = 10 * time.Minute
	}

	if c.Scheduling.SlotIntervalMinutes <= 0 {
		c.Scheduling.SlotIntervalMinutes = 30
	}
	if 24*60%c.Scheduling.SlotIntervalMinutes != 0 {
		errs = append(errs, fmt.Errorf("SLOT_INTERVAL_MINUTES must divide a day evenly, got %d", c.Scheduling.SlotIntervalMinutes))
	}
	if c.Scheduling.IVRGatherTimeout <= 0 {
		c.Scheduling.IVRGatherTimeout = 8 * time.Second
	}

	if (c.Audio.S3Bucket == "") != (c.Audio.TTSEndpoint == "") {
		errs = append(errs, errors.New("AUDIO_S3_BUCKET and TTS_ENDPOINT must be set together"))
	}
	if c.Audio.S3Bucket != "" && c.Audio.S3Region == "" {
		errs = append(errs, errors.New("AUDIO_S3_REGION is required with AUDIO_S3_BUCKET"))
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

// Location returns the scheduling time zone. Validate guarantees it loads.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

// MigrateURL is the postgres:// form golang-migrate expects.
func (c Config) MigrateURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DB.User, c.DB.Password),
		Host:     fmt.Sprintf("%s:%d", c.DB.Host, c.DB.Port),
		Path:     "/" + c.DB.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.DB.SSLMode),
	}
	return u.String()
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

// optionalInt returns 0 when key is unset.
func optionalInt(key string) (int, error) {
	if strings.TrimSpace(os.Getenv(key)) == "" {
		return 0, nil
	}
	return mustInt(key)
}

func optionalBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("%s must be a boolean, got %q", key, v)
	}
	return b, nil
}

func mustDuration(key string) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}

func collect(errs []error) func(int, error) (int, []error) {
	return func(n int, err error) (int, []error) {
		if err != nil {
			errs = append(errs, err)
		}
		return n, errs
	}
}

func collectBool(errs []error) func(bool, error) (bool, []error) {
	return func(b bool, err error) (bool, []error) {
		if err != nil {
			errs = append(errs, err)
		}
		return b, errs
	}
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
