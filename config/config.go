package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Crawler   CrawlerConfig
	OpenAI    OpenAIConfig
	Redis     RedisConfig
	S3        S3Config
	Scheduler SchedulerConfig
	Proxy     ProxyConfig

	DatabaseURL string
	SQLitePath  string
	LogPath     string
}

type CrawlerConfig struct {
	Headless          bool
	EntryURL          string
	UserAgent         string
	CookieDomain      string
	Cookies           []Cookie
	SelectorFile      string
	MaxLaunchAttempts int
	LaunchRetryDelay  time.Duration
	SettleDelay       time.Duration
}

type Cookie struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

type SchedulerConfig struct {
	Cron     string
	Interval time.Duration
}

type ProxyConfig struct {
	URL string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Crawler: CrawlerConfig{
			Headless:          getEnv("CRAWLER_HEADLESS", "true") == "true",
			EntryURL:          getEnv("CRAWLER_ENTRY_URL", "https://fin.land.naver.com/search"),
			UserAgent:         getEnv("CRAWLER_USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/115.0"),
			CookieDomain:      getEnv("CRAWLER_COOKIE_DOMAIN", ".naver.com"),
			SelectorFile:      getEnv("CRAWLER_SELECTOR_FILE", "config/selectors.yaml"),
			MaxLaunchAttempts: getEnvInt("CRAWLER_LAUNCH_ATTEMPTS", 5),
			LaunchRetryDelay:  time.Duration(getEnvInt("CRAWLER_RETRY_DELAY_SEC", 20)) * time.Second,
			SettleDelay:       time.Duration(getEnvInt("CRAWLER_SETTLE_MS", 500)) * time.Millisecond,
		},
		OpenAI: OpenAIConfig{
			APIKey:      os.Getenv("OPENAI_API_KEY"),
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			MaxTokens:   getEnvInt("OPENAI_MAX_TOKENS", 500),
			Temperature: getEnvFloat("OPENAI_TEMPERATURE", 0.7),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		S3: S3Config{
			Bucket:          os.Getenv("S3_BUCKET"),
			Region:          getEnv("S3_REGION", "ap-northeast-2"),
			Endpoint:        os.Getenv("S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
		},
		Scheduler: SchedulerConfig{
			Cron: os.Getenv("REFRESH_CRON"),
		},
		Proxy: ProxyConfig{
			URL: os.Getenv("PROXY_URL"),
		},
		DatabaseURL: os.Getenv("DATABASE_URL"),
		SQLitePath:  getEnv("SQLITE_PATH", "landseek.db"),
		LogPath:     getEnv("LOG_PATH", "landseek.log"),
	}

	if interval := os.Getenv("REFRESH_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err == nil {
			cfg.Scheduler.Interval = d
		}
	}

	if err := cfg.loadCookies(getEnv("CRAWLER_COOKIE_FILE", "config/cookies.yaml")); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadCookies reads the pre-obtained authentication cookie set. The cookies
// are static configuration; the crawler never derives them at runtime.
func (c *Config) loadCookies(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read cookie file: %w", err)
	}

	var file struct {
		Cookies []Cookie `yaml:"cookies"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse cookie file: %w", err)
	}
	c.Crawler.Cookies = file.Cookies
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
