package config

import (
	"log"

	"github.com/caarlos0/env/v11"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          int    `env:"PORT" envDefault:"8080"`
	Dsn           string `env:"DSN"`
	JwtSecret     string `env:"JWT_SECRET"`
	JwtExpires    string `env:"JWT_EXPIRES"`
	RefreshSecret string `env:"REFRESH_SECRET"`
	RefreshExpiry string `env:"REFRESH_EXPIRY"`
	// FlagThreshold is the number of distinct user flags at which a review
	// auto-escalates to flagged.
	FlagThreshold int `env:"FLAG_THRESHOLD" envDefault:"3"`
}

func New() *Config {
	if loadErr := godotenv.Load(".env"); loadErr != nil {
		log.Printf("[Env]: unable to load .env file %v", loadErr)
	}

	var cfg Config

	if parseErr := env.Parse(&cfg); parseErr != nil {
		log.Printf("[Env]: failed to parse environment variables: %v", parseErr)
	}

	return &cfg
}
