package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var ErrConfigParse = errors.New("config: parse failed")

// Config is the central typed configuration struct.
type Config struct {
	App       AppConfig
	Log       LogConfig
	AutoProxy AutoProxyConfig
}

type AppConfig struct {
	Name  string
	Env   string // local | production | testing
	Debug bool
	Port  string
}

type LogConfig struct {
	Level  string // trace | debug | info | warn | error
	Pretty bool
}

// AutoProxyConfig selects which components are wrapped in proxies.
type AutoProxyConfig struct {
	ObjectNames      []string // "myObject", "tx*", "*Service", "&myFactory"
	InterceptorNames []string
	Matcher          string // simple | glob
	File             string // optional YAML file, overrides the env lists
	Watch            bool   // reload File on change
}

// Load reads .env (if present) and populates a Config from environment variables.
// When AUTOPROXY_FILE is set the file is read as well; a broken file is an error.
//
//	cfg, err := config.Load()
func Load(envFiles ...string) (*Config, error) {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist in production
	_ = godotenv.Load(files...)

	cfg := &Config{
		App: AppConfig{
			Name:  env("APP_NAME", "GoAutoProxy"),
			Env:   env("APP_ENV", "local"),
			Debug: envBool("APP_DEBUG", true),
			Port:  env("APP_PORT", "8000"),
		},
		Log: LogConfig{
			Level:  env("LOG_LEVEL", "info"),
			Pretty: envBool("LOG_PRETTY", false),
		},
		AutoProxy: AutoProxyConfig{
			ObjectNames:      envList("AUTOPROXY_OBJECT_NAMES"),
			InterceptorNames: envList("AUTOPROXY_INTERCEPTOR_NAMES"),
			Matcher:          env("AUTOPROXY_MATCHER", "simple"),
			File:             env("AUTOPROXY_FILE", ""),
			Watch:            envBool("AUTOPROXY_WATCH", false),
		},
	}

	if cfg.AutoProxy.File != "" {
		fs, err := LoadAutoProxyFile(cfg.AutoProxy.File)
		if err != nil {
			return nil, err
		}
		fs.Apply(&cfg.AutoProxy)
	}
	return cfg, nil
}

// ── autoproxy file ───────────────────────────────────────────────────────────

// FileSettings is the "autoproxy" section of a YAML settings file:
//
//	autoproxy:
//	  objectNames: ["*Service", "tx*", "&connectionFactory"]
//	  interceptorNames: ["txInterceptor"]
//	  matcher: simple
type FileSettings struct {
	ObjectNames      []string `yaml:"objectNames"`
	InterceptorNames []string `yaml:"interceptorNames"`
	Matcher          string   `yaml:"matcher"`
}

// UnmarshalYAML records a present list key as non-nil even when it has no
// value, so "objectNames:" and "objectNames: []" both clear the list.
func (fs *FileSettings) UnmarshalYAML(n *yaml.Node) error {
	type plain FileSettings
	if err := n.Decode((*plain)(fs)); err != nil {
		return err
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		switch n.Content[i].Value {
		case "objectNames":
			if fs.ObjectNames == nil {
				fs.ObjectNames = []string{}
			}
		case "interceptorNames":
			if fs.InterceptorNames == nil {
				fs.InterceptorNames = []string{}
			}
		}
	}
	return nil
}

type fileDocument struct {
	AutoProxy FileSettings `yaml:"autoproxy"`
}

// LoadAutoProxyFile reads and parses the YAML file at path.
func LoadAutoProxyFile(path string) (FileSettings, error) {
	// #nosec G304 -- path comes from configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return FileSettings{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	return ParseAutoProxyFile(data)
}

// ParseAutoProxyFile parses a YAML settings document.
func ParseAutoProxyFile(data []byte) (FileSettings, error) {
	var doc fileDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return FileSettings{}, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	return doc.AutoProxy, nil
}

// Apply overrides the fields of dst that the file sets. A list key is
// applied whenever it is present, so "objectNames:" with no value or an
// empty list disables proxying.
func (fs FileSettings) Apply(dst *AutoProxyConfig) {
	if fs.ObjectNames != nil {
		dst.ObjectNames = fs.ObjectNames
	}
	if fs.InterceptorNames != nil {
		dst.InterceptorNames = fs.InterceptorNames
	}
	if fs.Matcher != "" {
		dst.Matcher = fs.Matcher
	}
}

// Get returns a raw env value, falling back to defaultVal.
func Get(key, defaultVal string) string {
	return env(key, defaultVal)
}

// GetInt returns an int env value.
func GetInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

// GetBool returns a bool env value.
func GetBool(key string, defaultVal bool) bool {
	return envBool(key, defaultVal)
}

// ── helpers ─────────────────────────────────────────────────────────────────

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// envList splits a comma-separated value, dropping blanks.
func envList(key string) []string {
	var out []string
	for _, s := range strings.Split(os.Getenv(key), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
