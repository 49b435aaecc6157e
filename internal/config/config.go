package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type LogConfig struct {
	Level    string `yaml:"level"`     // debug, info, warn, error
	Format   string `yaml:"format"`    // json, text
	Output   string `yaml:"output"`    // console, file, both
	FilePath string `yaml:"file_path"` // used when output is file or both
}

type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		Mode           string   `yaml:"mode"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"` // mysql, postgres, sqlite
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		DBName   string `yaml:"dbname"`
		DSN      string `yaml:"dsn"` // overrides the fields above when set
	} `yaml:"database"`

	JWT struct {
		Secret     string `yaml:"secret"`
		ExpireTime int    `yaml:"expire_time"` // seconds
	} `yaml:"jwt"`

	Log LogConfig `yaml:"log"`

	Redis struct {
		URL    string `yaml:"url"` // empty keeps the cache in memory
		Prefix string `yaml:"prefix"`
	} `yaml:"redis"`

	Storage struct {
		Driver    string `yaml:"driver"` // local, s3
		LocalDir  string `yaml:"local_dir"`
		PublicURL string `yaml:"public_url"`
		Bucket    string `yaml:"bucket"`
		Region    string `yaml:"region"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		Endpoint  string `yaml:"endpoint"`
	} `yaml:"storage"`

	Mail struct {
		Driver   string `yaml:"driver"` // console, sendgrid
		APIKey   string `yaml:"api_key"`
		FromName string `yaml:"from_name"`
		FromAddr string `yaml:"from_address"`
	} `yaml:"mail"`

	RateLimit struct {
		AuthPerSecond    float64 `yaml:"auth_per_second"`
		AuthBurst        int     `yaml:"auth_burst"`
		WebhookPerSecond float64 `yaml:"webhook_per_second"`
		WebhookBurst     int     `yaml:"webhook_burst"`
	} `yaml:"rate_limit"`

	Cron struct {
		Interval time.Duration `yaml:"interval"`
	} `yaml:"cron"`
}

var GlobalConfig *Config

// envOverrides maps environment variables onto secret fields of the config.
var envOverrides = map[string]func(c *Config, v string){
	"QWIKTEST_DB_PASSWORD":     func(c *Config, v string) { c.Database.Password = v },
	"QWIKTEST_DB_DSN":          func(c *Config, v string) { c.Database.DSN = v },
	"QWIKTEST_JWT_SECRET":      func(c *Config, v string) { c.JWT.Secret = v },
	"QWIKTEST_REDIS_URL":       func(c *Config, v string) { c.Redis.URL = v },
	"QWIKTEST_S3_ACCESS_KEY":   func(c *Config, v string) { c.Storage.AccessKey = v },
	"QWIKTEST_S3_SECRET_KEY":   func(c *Config, v string) { c.Storage.SecretKey = v },
	"QWIKTEST_SENDGRID_APIKEY": func(c *Config, v string) { c.Mail.APIKey = v },
	"QWIKTEST_PORT":            func(c *Config, v string) { c.Server.Port = v },
}

func Load() (*Config, error) {
	if GlobalConfig != nil {
		return GlobalConfig, nil
	}

	// .env is optional
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		workDir, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}

		configPath = filepath.Join(workDir, "config", "config.yaml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = filepath.Join(workDir, "config.yaml")
		}
	}

	configFile, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", configPath, err)
	}

	cfg, err := Parse(configFile)
	if err != nil {
		return nil, err
	}

	GlobalConfig = cfg
	return cfg, nil
}

// Parse decodes raw YAML, applies environment overrides and fills defaults.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	for key, apply := range envOverrides {
		if v := os.Getenv(key); v != "" {
			apply(cfg, v)
		}
	}

	cfg.setDefaults()

	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt.secret is required")
	}
	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "debug"
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}

	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}

	if c.JWT.ExpireTime == 0 {
		c.JWT.ExpireTime = 7 * 24 * 3600
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Log.Output == "" {
		c.Log.Output = "console"
	}
	if c.Log.FilePath == "" {
		c.Log.FilePath = "logs/app.log"
	}

	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "qwiktest:"
	}

	if c.Storage.Driver == "" {
		c.Storage.Driver = "local"
	}
	if c.Storage.LocalDir == "" {
		c.Storage.LocalDir = "storage/uploads"
	}
	if c.Storage.PublicURL == "" {
		c.Storage.PublicURL = "/uploads"
	}

	if c.Mail.Driver == "" {
		c.Mail.Driver = "console"
	}
	if c.Mail.FromName == "" {
		c.Mail.FromName = "QwikTest"
	}
	if c.Mail.FromAddr == "" {
		c.Mail.FromAddr = "no-reply@qwiktest.local"
	}

	if c.RateLimit.AuthPerSecond == 0 {
		c.RateLimit.AuthPerSecond = 5
	}
	if c.RateLimit.AuthBurst == 0 {
		c.RateLimit.AuthBurst = 10
	}
	if c.RateLimit.WebhookPerSecond == 0 {
		c.RateLimit.WebhookPerSecond = 20
	}
	if c.RateLimit.WebhookBurst == 0 {
		c.RateLimit.WebhookBurst = 50
	}

	if c.Cron.Interval == 0 {
		c.Cron.Interval = time.Minute
	}
}
