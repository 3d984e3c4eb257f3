// Package config loads provkit settings from defaults, an optional YAML
// file and PROVKIT_ environment variables.
//
// Loaded values pass two checks: struct tags (go-playground/validator) and
// the embedded CUE schema, which holds the constraints tags cannot express
// such as the prefix grammar and reserved prefixes. Both report errors with
// the dotted config path, e.g. "logging.level".
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

//go:embed schema.cue
var schemaCUE string

// EnvPrefix prefixes every environment override, e.g. PROVKIT_STORE_PATH.
const EnvPrefix = "PROVKIT"

// Config is the root configuration.
type Config struct {
	// Format is the CLI output format.
	Format  string        `mapstructure:"format" json:"format" validate:"required,oneof=text json"`
	Logging LoggingConfig `mapstructure:"logging" json:"logging"`
	Store   StoreConfig   `mapstructure:"store" json:"store"`
	Decode  DecodeConfig  `mapstructure:"decode" json:"decode"`
	Encode  EncodeConfig  `mapstructure:"encode" json:"encode"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `mapstructure:"level" json:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" json:"format" validate:"required,oneof=text json"`
}

// StoreConfig locates the document database.
type StoreConfig struct {
	Path string `mapstructure:"path" json:"path" validate:"required"`
}

// DecodeConfig controls reading RDF.
type DecodeConfig struct {
	// Strict turns decode diagnostics into errors.
	Strict bool `mapstructure:"strict" json:"strict"`

	// Namespaces are prefix bindings seeded into every decoded document.
	// A list rather than a map: viper lowercases map keys.
	Namespaces []NamespaceBinding `mapstructure:"namespaces" json:"namespaces" validate:"dive"`
}

// NamespaceBinding binds a prefix to a namespace URI.
type NamespaceBinding struct {
	Prefix string `mapstructure:"prefix" json:"prefix" validate:"required"`
	URI    string `mapstructure:"uri" json:"uri" validate:"required,url"`
}

// EncodeConfig controls writing RDF.
type EncodeConfig struct {
	Format string `mapstructure:"format" json:"format" validate:"required"`
}

// NamespaceMap returns the decode bindings as prefix to URI.
func (c *Config) NamespaceMap() map[string]string {
	out := make(map[string]string, len(c.Decode.Namespaces))
	for _, b := range c.Decode.Namespaces {
		out[b.Prefix] = b.URI
	}
	return out
}

// Error is a configuration error at a dotted field path.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Errors is every problem found in one load.
type Errors []*Error

func (es Errors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	cfg := &Config{}
	v := viper.New()
	setDefaults(v)
	// Defaults always decode.
	_ = v.Unmarshal(cfg)
	return cfg
}

// Load reads configuration from path. An empty path searches for
// provkit.yaml in the working directory and $HOME/.provkit; a missing file
// is not an error.
//
// Precedence (highest first): environment, file, defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("provkit")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.provkit")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("format", "text")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("store.path", "provkit.db")
	v.SetDefault("decode.strict", false)
	v.SetDefault("decode.namespaces", []map[string]string{})
	v.SetDefault("encode.format", "nquads")
}

var structValidator = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		return name
	})
	return v
}

// Validate checks cfg against struct tags, the CUE schema and the
// cross-entry rules. All problems are returned together as Errors.
func Validate(cfg *Config) error {
	var errs Errors

	if err := structValidator.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate config: %w", err)
		}
		for _, fe := range verrs {
			errs = append(errs, &Error{
				Field:   fieldPath(fe.Namespace()),
				Message: fmt.Sprintf("failed %q check (value %v)", fe.Tag(), fe.Value()),
			})
		}
	}

	errs = append(errs, validateSchema(cfg)...)

	seen := make(map[string]bool)
	for i, b := range cfg.Decode.Namespaces {
		if seen[b.Prefix] {
			errs = append(errs, &Error{
				Field:   fmt.Sprintf("decode.namespaces.%d.prefix", i),
				Message: fmt.Sprintf("prefix %q bound twice", b.Prefix),
			})
		}
		seen[b.Prefix] = true
	}

	if len(errs) == 0 {
		return nil
	}
	sort.SliceStable(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })
	return errs
}

// fieldPath turns "Config.decode.namespaces[0].uri" into
// "decode.namespaces.0.uri".
func fieldPath(ns string) string {
	_, rest, ok := strings.Cut(ns, ".")
	if !ok {
		return ns
	}
	rest = strings.NewReplacer("[", ".", "]", "").Replace(rest)
	return rest
}

func validateSchema(cfg *Config) Errors {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Errors{{Message: fmt.Sprintf("config schema: %v", err)}}
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	encoded := *cfg
	if encoded.Decode.Namespaces == nil {
		encoded.Decode.Namespaces = []NamespaceBinding{}
	}
	val := def.Unify(ctx.Encode(&encoded))

	err := val.Validate(cue.Concrete(true))
	if err == nil {
		return nil
	}
	var errs Errors
	seen := make(map[string]bool)
	for _, e := range cueerrors.Errors(err) {
		field := schemaField(e.Path())
		if seen[field] {
			continue
		}
		seen[field] = true
		format, args := e.Msg()
		errs = append(errs, &Error{Field: field, Message: fmt.Sprintf(format, args...)})
	}
	return errs
}

// schemaField renders a CUE error path relative to the #Config definition.
func schemaField(path []string) string {
	if len(path) > 0 && path[0] == "#Config" {
		path = path[1:]
	}
	return strings.Join(path, ".")
}
