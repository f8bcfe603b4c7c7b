package config

import "time"

type Config struct {
	Web     Web
	DB      DB
	Cors    Cors
	Rate    Rate
	Auction Auction
}

type Web struct {
	Address         string        `conf:"default:0.0.0.0:4000"`
	ReadTimeout     time.Duration `conf:"default:5s"`
	WriteTimeout    time.Duration `conf:"default:10s"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`
}

type DB struct {
	User         string `conf:"default:postgres"`
	Password     string `conf:"default:postgres,mask"`
	Host         string `conf:"default:localhost:5432"`
	Name         string `conf:"default:photomarket"`
	MaxOpenConns int    `conf:"default:25"`
	DisableTLS   bool   `conf:"default:true"`

	// Upper bounds on how long a single statement or lock wait may
	// run inside a transaction before the store gives up and the
	// caller sees a retryable contention error.
	StatementTimeout time.Duration `conf:"default:5s"`
	LockTimeout      time.Duration `conf:"default:2s"`
}

type Cors struct {
	Origin string `conf:"default:"`
}

type Rate struct {
	Burst       int           `conf:"default:20"`
	Expiry      time.Duration `conf:"default:10m"`
	RequestsPer float64       `conf:"default:50"`
}

type Auction struct {
	// How often the in-process sweeper settles expired auctions.
	SweepInterval time.Duration `conf:"default:1m"`

	// Lifetime of a limited photo from creation to close.
	Duration time.Duration `conf:"default:168h"`
}
