package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port      string `envconfig:"PORT" default:"8080"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	AWSRegion string `envconfig:"AWS_REGION" default:"ap-northeast-2"`

	// DynamoDB tables. Endpoint is only set when running against DynamoDB Local.
	DynamoDBEndpoint string `envconfig:"DYNAMODB_ENDPOINT" default:""`
	OrderTableName   string `envconfig:"ORDER_TABLE_NAME" default:"orders"`
	ProductTableName string `envconfig:"PRODUCT_TABLE_NAME" default:"products"`
	PaymentTableName string `envconfig:"PAYMENT_TABLE_NAME" default:"payments"`
	ConfigTableName  string `envconfig:"CONFIG_TABLE_NAME" default:"configurations"`

	// Payment provider.
	ProviderBaseURL    string `envconfig:"PROVIDER_BASE_URL" default:"https://api.payhub.example.com/v1"`
	ProviderSecretKey  string `envconfig:"PROVIDER_SECRET_KEY" default:""`
	WebhookSecret      string `envconfig:"WEBHOOK_SECRET" default:""`
	Currency           string `envconfig:"CURRENCY" default:"usd"`
	CaptureMethod      string `envconfig:"CAPTURE_METHOD" default:"automatic"`
	CheckoutSuccessURL string `envconfig:"CHECKOUT_SUCCESS_URL" default:""`
	CheckoutCancelURL  string `envconfig:"CHECKOUT_CANCEL_URL" default:""`

	// Elapsed time in requires_payment_method after which a poller is told the
	// transaction will not succeed. Product tuning value, not correctness.
	PollStuckThreshold time.Duration `envconfig:"POLL_STUCK_THRESHOLD" default:"30s"`

	// Optional integrations; empty disables.
	KafkaBrokers string `envconfig:"KAFKA_BROKERS" default:""`
	RedisAddr    string `envconfig:"REDIS_ADDR" default:""`

	JWTSecret string `envconfig:"JWT_SECRET" default:""`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
