// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `internal/config/loader.go` calls `validateStruct` immediately after it
// unmarshals the merged Koanf tree and applies defaults.  Any validation
// error aborts startup, so the binary never runs with partial, malformed,
// or missing configuration.
//
// Errors name fields by their koanf key (`webhook.secret`, not
// `Webhook.Secret`) so operators can map them straight to YAML or to the
// matching SITEWERK_ variable.  Cross-field rules that tags cannot express
// live in `crossCheck`.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

//
// validator instance (package-level singleton)
//

var v = func() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("koanf"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return val
}()

//
// public API
//

// validateStruct returns all tag violations joined, or nil on success.
func validateStruct(c *Config) error {
	if err := v.Struct(c); err != nil {
		var ves validator.ValidationErrors
		if !errors.As(err, &ves) {
			return err
		}
		msgs := make([]string, 0, len(ves))
		for _, fe := range ves {
			// Namespace is "Config.webhook.secret"; drop the root.
			ns := fe.Namespace()
			if i := strings.IndexByte(ns, '.'); i >= 0 {
				ns = ns[i+1:]
			}
			msgs = append(msgs, fmt.Sprintf("%s: failed %q", ns, fe.Tag()))
		}
		return fmt.Errorf("config invalid: %s", strings.Join(msgs, "; "))
	}
	return crossCheck(c)
}

func crossCheck(c *Config) error {
	if c.RateLimit.Store == "redis" && c.Redis.Addr == "" {
		return errors.New("config invalid: ratelimit.store is redis but redis.addr is empty")
	}
	return nil
}
