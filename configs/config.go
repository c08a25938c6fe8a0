package config

import (
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type R2 struct {
	AccountID  string `envconfig:"ACCOUNT_ID"`
	AccessKey  string `envconfig:"ACCESS_KEY"`
	SecretKey  string `envconfig:"SECRET_KEY"`
	BucketName string `envconfig:"BUCKET_NAME"`
	PublicURL  string `envconfig:"PUBLIC_URL"`
}

type LinkedIn struct {
	ClientID       string `envconfig:"CLIENT_ID"`
	ClientSecret   string `envconfig:"CLIENT_SECRET"`
	RedirectURI    string `envconfig:"REDIRECT_URI" default:"http://localhost:3000/auth/linkedin/callback"`
	AuthURL        string `envconfig:"AUTH_URL" default:"https://www.linkedin.com/oauth/v2/authorization"`
	TokenURL       string `envconfig:"TOKEN_URL" default:"https://www.linkedin.com/oauth/v2/accessToken"`
	APIURL         string `envconfig:"API_URL" default:"https://api.linkedin.com"`
	PublishBatch   int    `envconfig:"PUBLISH_BATCH" default:"10"`
	PublishSpec    string `envconfig:"PUBLISH_SPEC" default:"@every 1m"`
	RefreshEnabled bool   `envconfig:"REFRESH_ENABLED" default:"false"`
}

type Gateway struct {
	URL          string `envconfig:"URL"`
	Token        string `envconfig:"TOKEN"`
	WebhookToken string `envconfig:"WEBHOOK_TOKEN"`
}

type Kafka struct {
	Brokers string `envconfig:"BROKERS"`
	Topic   string `envconfig:"TOPIC" default:"mission-control.events"`
}

type Config struct {
	Port           string   `envconfig:"PORT" default:"3000"`
	PostgresURI    string   `envconfig:"POSTGRES_URI"`
	RedisURI       string   `envconfig:"REDIS_URI" default:"localhost:6379"`
	FrontendURL    string   `envconfig:"FRONTEND_URL" default:"http://localhost:5173"`
	SecretKey      string   `envconfig:"SECRET_KEY"`
	DashboardToken string   `envconfig:"DASHBOARD_TOKEN"`
	WorkspaceRoot  string   `envconfig:"WORKSPACE_ROOT" default:"."`
	SlackWebhook   string   `envconfig:"SLACK_WEBHOOK_URL"`
	LinkedIn       LinkedIn `envconfig:"LINKEDIN"`
	Gateway        Gateway  `envconfig:"GATEWAY"`
	Kafka          Kafka    `envconfig:"KAFKA"`
	R2             R2       `envconfig:"R2"`
}

func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	cfg.FrontendURL = strings.TrimRight(cfg.FrontendURL, "/")
	cfg.Gateway.URL = strings.TrimRight(cfg.Gateway.URL, "/")
	cfg.LinkedIn.APIURL = strings.TrimRight(cfg.LinkedIn.APIURL, "/")
	return &cfg, nil
}

// BrokerList splits the comma separated broker list, dropping blanks.
func (k Kafka) BrokerList() []string {
	var out []string
	for _, b := range strings.Split(k.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
