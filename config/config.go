package config

import (
	"github.com/namsral/flag"
)

type Config struct {
	BindAddr         string
	DBConnUri        string
	DBMigrationsPath string
	SecretKey        string
	AllowedOrigin    string

	MaxCardsPerSet int
	MaxCardsAdd    int

	LogLevel string
}

// Load loads the configs from the given arguments
func (c *Config) Load(args []string) error {
	fs := flag.NewFlagSet("studyserver", flag.ContinueOnError)

	fs.StringVar(&c.BindAddr, "bind-addr", ":8180", "address the HTTP server listens on")
	fs.StringVar(&c.DBConnUri, "db-conn-uri", "", "postgres connection URI for the card state store")
	fs.StringVar(&c.DBMigrationsPath, "db-migrations-path", "file://db/migrations", "path to the DB migrations")
	fs.StringVar(&c.SecretKey, "secret-key", "", "HMAC secret used to validate JWTs")
	fs.StringVar(&c.AllowedOrigin, "allowed-origin", "http://localhost:3000", "origin allowed to call this API from a browser")

	fs.IntVar(&c.MaxCardsPerSet, "max-cards-per-set", 500, "maximum number of flashcards in a single set")
	fs.IntVar(&c.MaxCardsAdd, "max-cards-add", 100, "maximum number of flashcards to add in one request")

	fs.StringVar(&c.LogLevel, "log-level", "info", "log level")
	err := fs.Parse(args)
	return err
}
