package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Service    Service    `envconfig:"SERVICE"`
	Store      Store      `envconfig:"STORE"`
	Classifier Classifier `envconfig:"CLASSIFIER"`
	ICS        ICS        `envconfig:"ICS"`
	SQS        SQS        `envconfig:"SQS"`
	ClickHouse ClickHouse `envconfig:"CLICKHOUSE"`
	Consumer   Consumer   `envconfig:"CONSUMER"`
}

type Service struct {
	Environment          string        `split_words:"true" required:"true"`
	APIPort              string        `split_words:"true" default:"8080"`
	DemoUsername         string        `split_words:"true" default:"demo@example.com"`
	SessionTTL           time.Duration `split_words:"true" default:"24h"`
	SessionPruneInterval time.Duration `split_words:"true" default:"10m"`
	SecureCookies        bool          `split_words:"true" default:"false"`
	Timezone             string        `split_words:"true" default:"Local"`
	AnalyticsWindow      time.Duration `split_words:"true" default:"168h"`
}

// Location resolves the configured timezone used for weekday grouping
func (s Service) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", s.Timezone, err)
	}
	return loc, nil
}

type Store struct {
	Driver     string `split_words:"true" default:"memory"`
	SqlitePath string `split_words:"true" default:"./var/calendar-analytics.db"`
}

// Classifier configures the external text-understanding service.
// An empty APIKey selects the keyword strategy.
type Classifier struct {
	APIKey  string        `split_words:"true"`
	BaseURL string        `split_words:"true" default:"https://api.openai.com/v1"`
	Model   string        `split_words:"true" default:"gpt-4o-mini"`
	Timeout time.Duration `split_words:"true" default:"10s"`
}

// ICS bounds feed imports. AllowPrivateHosts lets feeds be fetched from
// loopback and private networks, which is only meant for local setups.
type ICS struct {
	FetchTimeout           time.Duration `split_words:"true" default:"15s"`
	LookBehind             time.Duration `split_words:"true" default:"720h"`
	LookAhead              time.Duration `split_words:"true" default:"168h"`
	MaxFeedBytes           int           `split_words:"true" default:"5242880"`
	MaxOccurrencesPerEvent int           `split_words:"true" default:"1000"`
	MaxOccurrences         int           `split_words:"true" default:"5000"`
	AllowPrivateHosts      bool          `split_words:"true" default:"false"`
}

// SQS configures the event change feed. An empty QueueURL disables publishing.
type SQS struct {
	Endpoint string `split_words:"true"`
	QueueURL string `split_words:"true"`
	Region   string `split_words:"true" default:"eu-central-1"`
}

// ClickHouse configures the history store. An empty Host disables it.
type ClickHouse struct {
	Host               string `split_words:"true"`
	Port               string `split_words:"true" default:"9000"`
	DB                 string `split_words:"true" default:"default"`
	User               string `split_words:"true" default:""`
	Password           string `split_words:"true" default:""`
	UseTLS             bool   `split_words:"true" default:"false"`
	MaxOpenConns       int    `split_words:"true" default:"5"`
	MaxIdleConns       int    `split_words:"true" default:"2"`
	ConnMaxLifetimeSec int    `split_words:"true" default:"3600"`
}

type Consumer struct {
	BatchSizeMax    int    `split_words:"true" default:"500"`
	BatchTimeoutSec int    `split_words:"true" default:"10"`
	HealthCheckPort string `split_words:"true" default:"8081"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if cfg.Store.Driver != "memory" && cfg.Store.Driver != "sqlite" {
		return nil, fmt.Errorf("unsupported store driver: %s (supported: memory, sqlite)", cfg.Store.Driver)
	}

	return &cfg, nil
}
