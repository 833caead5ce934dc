// Package config parses the server's CLI flags and environment
// variables into a single bound struct, loading a local .env file first
// when one is present.
package config

import (
	"github.com/alecthomas/kong"
	dotenv "github.com/titusjaka/kong-dotenv-go"
)

// CLI is the full flag/env surface for the server binary.
type CLI struct {
	DBPath   string `name:"db" default:"data/firemap.db" help:"Path to the SQLite database file."`
	Port     string `name:"port" default:"8080" help:"HTTP listen port."`
	Once     bool   `name:"once" help:"Run every feed pipeline once and exit, for testing."`
	NoPoll   bool   `name:"no-poll" help:"Disable the scheduler (server only, for local dev)."`

	CctvKey string `name:"cctv-key" env:"CCTV_KEY" help:"API key for the national CCTV feed."`

	AdminID  string `name:"admin-id" env:"ADMIN_ID" help:"Admin login id for shelter/report moderation."`
	AdminPwd string `name:"admin-pwd" env:"ADMIN_PWD" help:"Admin login password."`

	DatabaseURL string `name:"database-url" env:"DATABASE_URL" help:"Optional override for the database connection string."`

	FTPSeedHost string `name:"ftp-seed-host" env:"FTP_SEED_HOST" help:"Fallback FTP host mirroring seed CSVs when local copies are missing."`

	OpenAIAPIKey string `name:"openai-api-key" env:"OPENAI_API_KEY" help:"Optional key enabling report-photo moderation/captioning. The moderator reads its key from the OPENAI_API_KEY process environment variable, not from this flag."`

	Env string `name:"env" env:"ROCKET_ENV" default:"production" help:"Deployment environment name (development/staging/production)."`
}

// Debug reports whether the configured environment name selects
// development mode. In development mode the static file handler also
// serves paths under test/; no CORS headers or extra endpoints are added.
func (c CLI) Debug() bool {
	switch c.Env {
	case "dev", "development", "staging", "stage":
		return true
	default:
		return false
	}
}

// Parse reads CLI flags, falling back to .env-provided environment
// variables for anything not passed explicitly on the command line.
func Parse(args []string) (*CLI, error) {
	var cli CLI

	resolver, err := dotenv.LoadDotEnvFile(".env")
	if err != nil {
		resolver = nil // .env is optional; absence is not fatal
	}

	opts := []kong.Option{kong.Name("firemapserver")}
	if resolver != nil {
		opts = append(opts, kong.Resolvers(resolver))
	}

	parser, err := kong.New(&cli, opts...)
	if err != nil {
		return nil, err
	}
	if _, err := parser.Parse(args); err != nil {
		return nil, err
	}
	return &cli, nil
}
