package config

import (
	"fmt"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

type Config struct {
	APIToken              string `env:"API_TOKEN,required=true"`
	OutputFile            string `env:"OUTPUT_FILE,default=ip_report.xlsx"`
	TelegramToken         string `env:"TELEGRAM_TOKEN"`
	TelegramChatID        string `env:"TELEGRAM_CHAT_ID"`
	MaxConcurrentRequests int    `env:"MAX_CONCURRENT_REQUESTS,default=10"`
	LookupBaseURL         string `env:"LOOKUP_BASE_URL,default=https://api.findip.net"`
	LookupTimeoutSeconds  int    `env:"LOOKUP_TIMEOUT_SECONDS,default=10"`
	FirewallChain         string `env:"FIREWALL_CHAIN,default=f2b-sshd"`
	DatabasePath          string `env:"DATABASE_PATH,default=banreport.db"`
	RedisURL              string `env:"REDIS_URL"`
	LookupRatePerSec      int    `env:"LOOKUP_RATE_PER_SEC,default=100"`
	APIPort               int    `env:"API_PORT,default=8080"`
	ReportCron            string `env:"REPORT_CRON,default=0 6 * * *"`
	LogLevel              string `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	// A local .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.MaxConcurrentRequests < 1 {
		return nil, fmt.Errorf("MAX_CONCURRENT_REQUESTS must be at least 1, got %d", cfg.MaxConcurrentRequests)
	}
	if cfg.LookupTimeoutSeconds < 1 {
		return nil, fmt.Errorf("LOOKUP_TIMEOUT_SECONDS must be at least 1, got %d", cfg.LookupTimeoutSeconds)
	}

	return &cfg, nil
}
