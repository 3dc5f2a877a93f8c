// internal/config/model.go
//
// Typed configuration model for the uuid daemon.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                         – dotenv values,
//   • `conf/global.yaml`                      – primary static file,
//   • `UUIDD_`-prefixed environment overrides – highest precedence.
//
// Any secret whose string begins with `vault:` is resolved through the
// Vault client by ResolveSecrets, after validation and before the value
// is used, so the rest of the program only ever sees plain strings.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

import (
	"fmt"

	"github.com/go-sql-driver/mysql"
)

//
// HTTP section
//

// HTTP holds web-server tunables.  GeoIPDB is optional; when empty the
// request info middleware skips country lookups.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
	GeoIPDB    string `koanf:"geoip_db"    validate:"omitempty,file"`
}

//
// Database section
//

// Database holds the DSN and its secret.
//
// The DSN stays in YAML so operators can tweak host, port, or flags without
// touching Vault.  It is a go-sql-driver/mysql DSN *without* a password.
// The secret (`Password`) is either plain text or a
// `vault:<mount/path>#<key>` reference.
type Database struct {
	DSN      string `koanf:"dsn"      validate:"required,mysql_dsn"`
	Password string `koanf:"password" validate:"required"`
	MaxOpen  int    `koanf:"max_open" validate:"gte=0"`
	MaxIdle  int    `koanf:"max_idle" validate:"gte=0"`
}

// DataSource returns the DSN with the password set.  The DSN is parsed and
// re-formatted by the driver, so escaped parameters survive untouched.
func (d Database) DataSource() (string, error) {
	cfg, err := mysql.ParseDSN(d.DSN)
	if err != nil {
		return "", fmt.Errorf("database dsn: %w", err)
	}
	cfg.Passwd = d.Password
	return cfg.FormatDSN(), nil
}

//
// Resolver section
//

// Resolver tunes the uuid engine.  Zero values pick the engine defaults
// (pooled consistency, depth 32).
type Resolver struct {
	Consistency string `koanf:"consistency" validate:"omitempty,oneof=pooled snapshot"`
	MaxDepth    int    `koanf:"max_depth"   validate:"gte=0,lte=1024"`
}

//
// Log section
//

// Log controls the file logger.  Debug lowers the level so failed
// resolutions show up.
type Log struct {
	Debug bool `koanf:"debug"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.  The loader
// discovers `Root` (repo root or UUIDD_ROOT override) so later code can
// build absolute file paths.
type Paths struct {
	Root string
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Database Database `koanf:"database"`
	Resolver Resolver `koanf:"resolver"`
	Log      Log      `koanf:"log"`
	Paths    Paths    `koanf:"-"`
}
