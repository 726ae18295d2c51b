// Package config loads runtime settings from defaults, an optional YAML
// file and command-line flags, in that order of precedence.
package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// Config holds runtime settings.
type Config struct {
	DBPath     string        `yaml:"db"`
	Addr       string        `yaml:"addr"`
	LogPath    string        `yaml:"log"`
	TimeZone   string        `yaml:"timezone"`
	DateLayout string        `yaml:"date_layout"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
	S3         S3            `yaml:"s3"`
}

// S3 configures report archiving. Archiving is disabled without a bucket.
type S3 struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Prefix    string `yaml:"prefix"`
}

// Enabled reports whether archiving is configured.
func (s S3) Enabled() bool {
	return s.Bucket != ""
}

// LoadDefaults populates c with the built-in defaults.
func (c *Config) LoadDefaults() {
	*c = Config{
		DBPath:     "renova.sqlite3",
		Addr:       ":8080",
		TimeZone:   "Local",
		DateLayout: "02/01/2006, 15:04:05",
		TokenTTL:   7 * 24 * time.Hour,
		S3: S3{
			Region: "us-east-1",
			Prefix: "reports/",
		},
	}
}

// LoadFile overlays the YAML file at path onto c. Unknown keys are errors.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.UnmarshalStrict(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// Location returns the time zone used to render report dates.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("loading time zone %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

// Validate checks settings that cannot be caught while parsing.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("database path required")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token lifetime must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// RegisterFlags binds the config fields to fs. Each flag has a short and a
// long form; the current field values are the flag defaults.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.DBPath, "db", c.DBPath, "")
	fs.StringVar(&c.DBPath, "d", c.DBPath, "")

	fs.StringVar(&c.Addr, "addr", c.Addr, "")
	fs.StringVar(&c.Addr, "a", c.Addr, "")

	fs.StringVar(&c.LogPath, "log", c.LogPath, "")
	fs.StringVar(&c.LogPath, "l", c.LogPath, "")

	fs.StringVar(&c.TimeZone, "tz", c.TimeZone, "")
	fs.StringVar(&c.DateLayout, "date-layout", c.DateLayout, "")
	fs.DurationVar(&c.TokenTTL, "token-ttl", c.TokenTTL, "")

	fs.StringVar(&c.S3.Bucket, "s3-bucket", c.S3.Bucket, "")
	fs.StringVar(&c.S3.Region, "s3-region", c.S3.Region, "")
	fs.StringVar(&c.S3.Endpoint, "s3-endpoint", c.S3.Endpoint, "")
	fs.StringVar(&c.S3.AccessKey, "s3-access-key", c.S3.AccessKey, "")
	fs.StringVar(&c.S3.SecretKey, "s3-secret-key", c.S3.SecretKey, "")
	fs.StringVar(&c.S3.Prefix, "s3-prefix", c.S3.Prefix, "")
}

// FlagUsage describes the flags added by RegisterFlags.
const FlagUsage = `  -c, -config <path>      YAML config file
  -d, -db <path>          SQLite database path (default: renova.sqlite3)
  -a, -addr <host:port>   listen address (default: :8080)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -tz <zone>              time zone for report dates (default: Local)
  -date-layout <layout>   Go time layout for report dates
  -token-ttl <duration>   session lifetime (default: 168h)
  -s3-bucket <name>       archive bucket (archiving disabled when empty)
  -s3-region <region>     archive region (default: us-east-1)
  -s3-endpoint <url>      S3-compatible endpoint, e.g. MinIO
  -s3-access-key <key>    archive access key
  -s3-secret-key <key>    archive secret key
  -s3-prefix <prefix>     object key prefix (default: reports/)
`

// Load builds a Config from defaults, the file named by -c/-config in args
// (if any) and the flags in args. Extra flags may already be registered on
// fs by the caller; fs is parsed with args.
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	path := configPath(args)
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}

	// Registered so the parser accepts them; the value was read above.
	var ignored string
	fs.StringVar(&ignored, "config", path, "")
	fs.StringVar(&ignored, "c", path, "")
	cfg.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// configPath finds the value of -c or -config in args without parsing the
// rest of the command line.
func configPath(args []string) string {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}
		name := strings.TrimLeft(arg, "-")
		if len(name) == len(arg) || len(arg)-len(name) > 2 {
			continue
		}
		name, value, hasValue := strings.Cut(name, "=")
		if name != "c" && name != "config" {
			continue
		}
		if hasValue {
			return value
		}
		if i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}
