package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string     `yaml:"env" env:"ENV" env-default:"local"`
	Database   Database   `yaml:"database"`
	HTTPServer HTTPServer `yaml:"http_server"`
	Services   Services   `yaml:"services"`
	Booking    Booking    `yaml:"booking"`
}

type Database struct {
	Host     string `yaml:"host" env-default:"localhost"`
	Port     int    `yaml:"port" env-default:"5432"`
	User     string `yaml:"user" env:"DB_USER" env-default:"postgres"`
	Password string `yaml:"password" env:"DB_PASSWORD" env-default:"postgres"`
	DBName   string `yaml:"dbname" env-default:"bookingflow"`
	SSLMode  string `yaml:"sslmode" env-default:"disable"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env-default:"localhost:8003"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// Services holds base URLs of the collaborator services, including the
// /api/v1 prefix.
type Services struct {
	AuthURL       string        `yaml:"auth_url" env-default:"http://localhost:8001/api/v1"`
	EventsURL     string        `yaml:"events_url" env-default:"http://localhost:8002/api/v1"`
	TicketingURL  string        `yaml:"ticketing_url" env-default:"http://localhost:8004/api/v1"`
	Timeout       time.Duration `yaml:"timeout" env-default:"5s"`
	RetryAttempts int           `yaml:"retry_attempts" env-default:"3"`
}

type Booking struct {
	PaymentDeadline time.Duration `yaml:"payment_deadline" env-default:"15m"`
	SweepInterval   time.Duration `yaml:"sweep_interval" env-default:"1m"`
}

func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/local.yaml"
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist: %s", configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}

	return &cfg
}
