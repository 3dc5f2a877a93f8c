// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `internal/config/loader.go` calls `validateStruct` immediately after it
// unmarshals the merged Koanf tree into a `Config` instance.  Any tag
// mismatch or validation error aborts startup, ensuring the binary never
// runs with partial, malformed, or missing configuration.
//
// Besides the built-ins (`required`, `hostname_port`, `oneof`, `file`) one
// custom rule is registered:
//
//   • mysql_dsn – the string parses as a go-sql-driver/mysql DSN and carries
//     no password; Database.DataSource adds the resolved secret.
//
// Notes
// -----
//   • Oxford commas, two spaces after periods.

package config

import (
	"github.com/go-playground/validator/v10"
	"github.com/go-sql-driver/mysql"
)

//
// validator instance (package-level singleton)
//

var v = func() *validator.Validate {
	val := validator.New()
	_ = val.RegisterValidation("mysql_dsn", func(fl validator.FieldLevel) bool {
		cfg, err := mysql.ParseDSN(fl.Field().String())
		return err == nil && cfg.Passwd == ""
	})
	return val
}()

//
// public API
//

// validateStruct returns the first validation error, or nil on success.
func validateStruct(c *Config) error {
	return v.Struct(c)
}
