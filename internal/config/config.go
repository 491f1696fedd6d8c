package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bryanwahyu/skinlens/internal/domain/concerns"
)

type Config struct {
	Server struct {
		Port        int               `yaml:"port"`
		CORSOrigins []string          `yaml:"corsOrigins"`
		APIKeys     map[string]string `yaml:"apiKeys"` // tenant -> key; empty disables auth
		MaxUploadMB int               `yaml:"maxUploadMB"`
		RateLimit   RateLimit         `yaml:"rateLimit"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"` // mysql | postgres
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	Inference struct {
		BaseURL        string `yaml:"baseURL"`
		TimeoutSeconds int    `yaml:"timeoutSeconds"`
		APIKey         string `yaml:"apiKey"`
	} `yaml:"inference"`

	OpenAI struct {
		APIKey string `yaml:"apiKey"`
		Model  string `yaml:"model"`
	} `yaml:"openai"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // text | json
	} `yaml:"log"`

	Fusion Fusion `yaml:"fusion"`
}

// RateLimit configures the per-client token bucket. Zero capacity disables limiting.
type RateLimit struct {
	Capacity        int `yaml:"capacity"`
	RefillPerSecond int `yaml:"refillPerSecond"`
}

// Fusion holds engine settings. Unset pointer fields keep the defaults of the selected mode.
type Fusion struct {
	Mode               string            `yaml:"mode"`
	Combine            string            `yaml:"combine"`
	HighThreshold      *float64          `yaml:"highThreshold"`
	LowThreshold       *float64          `yaml:"lowThreshold"`
	LowInclusive       *bool             `yaml:"lowInclusive"`
	MinProb            *float64          `yaml:"minProb"` // pooled: high = minProb - epsilon
	Epsilon            *float64          `yaml:"epsilon"` // pooled: low = epsilon
	ConditionThreshold *float64          `yaml:"conditionThreshold"`
	TopKMain           *int              `yaml:"topKMain"`
	TopKLow            *int              `yaml:"topKLow"`
	SkinTypes          []string          `yaml:"skinTypes"`
	FallbackToTop      bool              `yaml:"fallbackToTop"`
	SkinAliases        map[string]string `yaml:"skinAliases"`
	Taxonomies         map[string]string `yaml:"taxonomies"` // conditions|lesions -> file
}

// Load baca file config.yaml
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML and fills defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.MaxUploadMB == 0 {
		c.Server.MaxUploadMB = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Inference.TimeoutSeconds == 0 {
		c.Inference.TimeoutSeconds = 30
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Fusion.Mode == "" {
		c.Fusion.Mode = string(concerns.ModeSectioned)
	}
}

// DSN builds the driver-specific connection string. Empty when no database host is configured.
func (c *Config) DSN() string {
	if c.Database.Host == "" {
		return ""
	}
	switch strings.ToLower(c.Database.Driver) {
	case "postgres", "postgresql":
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Database.Host,
			c.Database.Port,
			c.Database.User,
			c.Database.Password,
			c.Database.Name,
			c.Database.SSLMode,
		)
	default:
		return c.MySQLDSN()
	}
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// FusionConfig converts the fusion section to an engine config. The result is validated by
// concerns.NewEngine.
func (c *Config) FusionConfig() (concerns.Config, error) {
	f := c.Fusion
	var out concerns.Config
	switch concerns.Mode(f.Mode) {
	case concerns.ModePooled:
		out = concerns.PooledConfig()
		if f.MinProb != nil || f.Epsilon != nil {
			minProb, eps := 0.30, 0.05
			if f.MinProb != nil {
				minProb = *f.MinProb
			}
			if f.Epsilon != nil {
				eps = *f.Epsilon
			}
			out.Thresholds = concerns.BandedThresholds(minProb, eps)
		}
	case concerns.ModeSectioned:
		out = concerns.DefaultConfig()
	default:
		return concerns.Config{}, fmt.Errorf("%w: unknown mode %q", concerns.ErrInvalidConfig, f.Mode)
	}

	if f.Combine != "" {
		m, err := concerns.ParseCombineMethod(f.Combine)
		if err != nil {
			return concerns.Config{}, err
		}
		out.Combine = m
	}
	if f.HighThreshold != nil {
		out.Thresholds.High = *f.HighThreshold
	}
	if f.LowThreshold != nil {
		out.Thresholds.Low = *f.LowThreshold
	}
	if f.LowInclusive != nil {
		out.Thresholds.LowInclusive = *f.LowInclusive
	}
	if f.ConditionThreshold != nil {
		out.ConditionThreshold = *f.ConditionThreshold
	}
	if f.TopKMain != nil {
		out.TopKMain = *f.TopKMain
	}
	if f.TopKLow != nil {
		out.TopKLow = *f.TopKLow
	}
	if len(f.SkinTypes) > 0 {
		out.SkinTypes = append([]string(nil), f.SkinTypes...)
	}
	out.FallbackToTop = f.FallbackToTop
	return out, out.Validate()
}

// EngineOptions loads the configured taxonomy files and alias table.
func (c *Config) EngineOptions(baseDir string) ([]concerns.Option, error) {
	var opts []concerns.Option

	var conditions, lesions *concerns.Taxonomy
	for name, path := range c.Fusion.Taxonomies {
		t, err := LoadTaxonomy(name, resolve(baseDir, path))
		if err != nil {
			return nil, err
		}
		switch name {
		case concerns.SourceConditions:
			conditions = t
		case concerns.SourceLesions:
			lesions = t
		default:
			return nil, fmt.Errorf("%w: unknown taxonomy %q (want conditions or lesions)", concerns.ErrInvalidConfig, name)
		}
	}
	opts = append(opts, concerns.WithTaxonomies(conditions, lesions))

	if len(c.Fusion.SkinAliases) > 0 {
		aliases := make(map[string]concerns.SkinType, len(c.Fusion.SkinAliases))
		for alias, st := range c.Fusion.SkinAliases {
			aliases[alias] = concerns.SkinType(strings.ToLower(strings.TrimSpace(st)))
		}
		opts = append(opts, concerns.WithCanonicalizer(concerns.NewCanonicalizer(aliases)))
	}
	return opts, nil
}

// NewEngine builds the fusion engine described by the config.
func (c *Config) NewEngine(baseDir string) (*concerns.Engine, error) {
	fc, err := c.FusionConfig()
	if err != nil {
		return nil, err
	}
	opts, err := c.EngineOptions(baseDir)
	if err != nil {
		return nil, err
	}
	return concerns.NewEngine(fc, opts...)
}
