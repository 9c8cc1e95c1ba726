package config

import (
	"time"
)

type DB struct {
	Url string `envconfig:"URL"`
}

type Jwt struct {
	Secret string        `envconfig:"SECRET" required:"true"`
	Expiry time.Duration `envconfig:"EXPIRY" default:"24h"`
}

// Chapa configures the payment gateway. With Mock set, a deterministic
// in-process gateway is used instead.
type Chapa struct {
	SecretKey   string        `envconfig:"SECRET_KEY"`
	BaseURL     string        `envconfig:"BASE_URL" default:"https://api.chapa.co/v1"`
	Timeout     time.Duration `envconfig:"TIMEOUT" default:"30s"`
	Mock        bool          `envconfig:"MOCK" default:"false"`
	CallbackURL string        `envconfig:"CALLBACK_URL"`
	ReturnURL   string        `envconfig:"RETURN_URL" default:"http://localhost:3000/payment/success"`
}

// API is the optional remote dashboard API. Empty BaseURL means every read
// is served from the local store.
type API struct {
	BaseURL string        `envconfig:"BASE_URL"`
	Timeout time.Duration `envconfig:"TIMEOUT" default:"10s"`
}

// Store selects the local persistent store backend.
type Store struct {
	Driver    string        `envconfig:"DRIVER" default:"memory"`
	KeyPrefix string        `envconfig:"KEY_PREFIX" default:"paydesk:"`
	TTL       time.Duration `envconfig:"TTL" default:"0"`
}

type Redis struct {
	URL          string        `envconfig:"URL" default:"redis://localhost:6379/0"`
	PoolSize     int           `envconfig:"POOL_SIZE" default:"10"`
	DialTimeout  time.Duration `envconfig:"DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"3s"`
}

type RateLimit struct {
	MaxRequests int           `envconfig:"MAX_REQUESTS" default:"100"`
	Window      time.Duration `envconfig:"WINDOW" default:"1m"`
}

// Cache holds the stale time of each cached entity.
type Cache struct {
	Transactions time.Duration `envconfig:"TRANSACTIONS_STALE" default:"30s"`
	Transfers    time.Duration `envconfig:"TRANSFERS_STALE" default:"30s"`
	Users        time.Duration `envconfig:"USERS_STALE" default:"1m"`
	Admins       time.Duration `envconfig:"ADMINS_STALE" default:"1m"`
	Banks        time.Duration `envconfig:"BANKS_STALE" default:"1h"`
}

type Log struct {
	Level      int    `envconfig:"LEVEL" default:"0"`
	Format     string `envconfig:"FORMAT" default:"json"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"2006-01-02 15:04:05"`
	Prefix     string `envconfig:"PREFIX" default:"[paydesk]"`
}

type Server struct {
	Scheme string `envconfig:"SCHEME" default:"http"`
	Host   string `envconfig:"HOST" default:"localhost"`
	Port   int    `envconfig:"PORT" default:"3000"`
}

type App struct {
	Env       string     `envconfig:"APP_ENV" default:"development"`
	Server    *Server    `envconfig:"SERVER"`
	Log       *Log       `envconfig:"LOG"`
	Jwt       *Jwt       `envconfig:"JWT"`
	Chapa     *Chapa     `envconfig:"CHAPA"`
	API       *API       `envconfig:"API"`
	Store     *Store     `envconfig:"STORE"`
	Redis     *Redis     `envconfig:"REDIS"`
	DB        *DB        `envconfig:"DATABASE"`
	RateLimit *RateLimit `envconfig:"RATE_LIMIT"`
	Cache     *Cache     `envconfig:"CACHE"`
}
