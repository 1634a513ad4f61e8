package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       App       `mapstructure:"app"`
	HTTP      HTTP      `mapstructure:"http"`
	Database  Database  `mapstructure:"database"`
	Redis     Redis     `mapstructure:"redis"`
	RabbitMQ  RabbitMQ  `mapstructure:"rabbitmq"`
	Auth      Auth      `mapstructure:"auth"`
	Generate  Generate  `mapstructure:"generate"`
	Payment   Payment   `mapstructure:"payment"`
	Image     Image     `mapstructure:"image"`
	Telemetry Telemetry `mapstructure:"telemetry"`
}

type App struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	// BaseURL is the public URL of the application, used to build the
	// payment success/fail redirect targets.
	BaseURL string `mapstructure:"base_url"`
}

type HTTP struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type Database struct {
	DSN string `mapstructure:"dsn"`
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// PreviewTTL bounds the lifetime of ephemeral, non-billed previews.
	PreviewTTL time.Duration `mapstructure:"preview_ttl"`
}

type RabbitMQ struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
	Queue    string `mapstructure:"queue"`
	Prefetch int    `mapstructure:"prefetch"`
}

type Auth struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// Generate holds the fixed style configuration for the inference service.
// Prompt and tuning parameters are deployment constants, never user input.
type Generate struct {
	FalKey        string        `mapstructure:"fal_key"`
	BaseURL       string        `mapstructure:"base_url"`
	Model         string        `mapstructure:"model"`
	Prompt        string        `mapstructure:"prompt"`
	ImageStrength float64       `mapstructure:"image_strength"`
	GuidanceScale float64       `mapstructure:"guidance_scale"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
}

type Payment struct {
	// Processor selects the single payment processor live for this
	// deployment: "cryptocloud" or "nowpayments".
	Processor string  `mapstructure:"processor"`
	APIKey    string  `mapstructure:"api_key"`
	ShopID    string  `mapstructure:"shop_id"`
	IPNSecret string  `mapstructure:"ipn_secret"`
	BaseURL   string  `mapstructure:"base_url"`
	Price     float64 `mapstructure:"price"`
	Currency  string  `mapstructure:"currency"`
}

type Image struct {
	// AllowedSourcePrefix is the only host prefix sticker bytes may be
	// fetched from, checked on every read of stored data.
	AllowedSourcePrefix string        `mapstructure:"allowed_source_prefix"`
	BlurSigma           float64       `mapstructure:"blur_sigma"`
	FetchTimeout        time.Duration `mapstructure:"fetch_timeout"`
	RetentionAge        time.Duration `mapstructure:"retention_age"`
	RetentionInterval   time.Duration `mapstructure:"retention_interval"`
}

type Telemetry struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("app.name", "stickerpack-api")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.base_url", "https://www.customstickerpack.com")
	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	// Keys without a meaningful default still need registering so the
	// STICKERPACK_* environment overrides bind during Unmarshal.
	v.SetDefault("database.dsn", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.preview_ttl", 24*time.Hour)
	v.SetDefault("rabbitmq.url", "")
	v.SetDefault("rabbitmq.exchange", "stickerpack.events")
	v.SetDefault("rabbitmq.queue", "sticker.unlocked")
	v.SetDefault("rabbitmq.prefetch", 10)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("generate.fal_key", "")
	v.SetDefault("generate.base_url", "https://queue.fal.run")
	v.SetDefault("generate.model", "fal-ai/nano-banana-pro/edit")
	v.SetDefault("generate.prompt", defaultPrompt)
	v.SetDefault("generate.image_strength", 0.5)
	v.SetDefault("generate.guidance_scale", 10.0)
	v.SetDefault("generate.poll_interval", time.Second)
	v.SetDefault("payment.processor", "cryptocloud")
	v.SetDefault("payment.api_key", "")
	v.SetDefault("payment.shop_id", "")
	v.SetDefault("payment.ipn_secret", "")
	v.SetDefault("payment.base_url", "")
	v.SetDefault("payment.price", 3.00)
	v.SetDefault("payment.currency", "USD")
	v.SetDefault("image.allowed_source_prefix", "https://v3b.fal.media/")
	v.SetDefault("image.blur_sigma", 12.0)
	v.SetDefault("image.fetch_timeout", 15*time.Second)
	v.SetDefault("image.retention_age", 24*time.Hour)
	v.SetDefault("image.retention_interval", time.Hour)
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "")
}

// defaultPrompt is the fixed stylistic instruction sent with every
// generation. Keeping it out of the request path prevents prompt
// injection from the upload flow.
const defaultPrompt = "Professional high-quality vector sticker, modern 2D cartoon avatar style. " +
	"Subject: The person from the uploaded photo. Transformation rules: Redraw the person's face " +
	"in a clean, stylized digital art style with smooth shading and bold outlines. Keep key " +
	"identifying features (glasses, beard shape, hairstyle) but simplify them into artistic shapes. " +
	"Aesthetic: Vibrant flat colors, thick expressive lines, 3D-effect die-cut sticker with a thick " +
	"white border and subtle drop shadow. Background: Solid neutral light gray or transparent. " +
	"Quality: Masterpiece, clean vector lines, no photographic textures, 8k resolution"

// Load reads config.yaml (optional) and STICKERPACK_* environment
// overrides into a validated Config.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	defaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./configs"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("STICKERPACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot start with. Credentials
// for external collaborators are deliberately not required here; their
// absence surfaces as a distinct configuration error on the request path.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	switch c.Payment.Processor {
	case "cryptocloud", "nowpayments":
	default:
		return fmt.Errorf("payment.processor must be cryptocloud or nowpayments, got %q", c.Payment.Processor)
	}
	if c.Image.AllowedSourcePrefix == "" {
		return fmt.Errorf("image.allowed_source_prefix is required")
	}
	return nil
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.HTTP.Host, c.HTTP.Port)
}
