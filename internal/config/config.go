package config

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	Database   Database   `envPrefix:"DB_"`
	Braintree  Braintree  `envPrefix:"BRAINTREE_"`
	Paypal     Paypal     `envPrefix:"PAYPAL_"`
	SMTP       SMTP       `envPrefix:"SMTP_"`
	Settlement Settlement `envPrefix:"SETTLEMENT_"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Mode       string `env:"LOG_MODE" envDefault:"development"`
	FileEnable bool   `env:"LOG_FILE_ENABLE" envDefault:"false"`
	Filename   string `env:"LOG_FILENAME" envDefault:"marketplace.log"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}

type Database struct {
	// Driver is "sqlite" for local development and "mysql" for deployments.
	Driver string `env:"DRIVER" envDefault:"sqlite"`
	URL    string `env:"URL" envDefault:"marketplace.db"`
}

// Braintree is the card gateway account.
type Braintree struct {
	Environment string `env:"ENVIRONMENT" envDefault:"sandbox"`
	MerchantID  string `env:"MERCHANT_ID"`
	PublicKey   string `env:"PUBLIC_KEY"`
	PrivateKey  string `env:"PRIVATE_KEY"`
}

// Paypal is the wallet gateway account.
type Paypal struct {
	BaseApiURL   string `env:"BASE_API_URL" envDefault:"https://api-m.sandbox.paypal.com"`
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	WebhookID    string `env:"WEBHOOK_ID"`
}

type SMTP struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT" envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM" envDefault:"no-reply@marketplace.local"`
}

type Settlement struct {
	Currency string `env:"CURRENCY" envDefault:"USD"`
	// SnowflakeNode distinguishes ID generators across instances.
	SnowflakeNode int64 `env:"SNOWFLAKE_NODE" envDefault:"1"`
	// PendingOrderTTLHours is how long a wallet order may stay pending
	// before the sweeper marks it failed.
	PendingOrderTTLHours int    `env:"PENDING_ORDER_TTL_HOURS" envDefault:"24"`
	SweepSchedule        string `env:"SWEEP_SCHEDULE" envDefault:"@every 15m"`
	// PayoutMinimum is the smallest seller balance, in cents, that can
	// be paid out.
	PayoutMinimum int64 `env:"PAYOUT_MINIMUM" envDefault:"5000"`
}
