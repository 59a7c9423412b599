package exitpass

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every environment variable read by [LoadConfig],
// e.g. EXITPASS_API_URL and EXITPASS_SESSION_TIMEOUT_MINS.
const EnvPrefix = "EXITPASS_"

var envRef = regexp.MustCompile(`\$\{([^}]+)\}`)

// LoadConfig layers configuration sources over [DefaultConfig]:
//
//  1. the TOML file at path, if path is not empty, with ${VAR} references
//     replaced from the environment;
//  2. envFiles loaded into the environment (".env" when none are given;
//     missing files are ignored and existing variables are never replaced);
//  3. EXITPASS_* environment variables.
//
// The result is validated before it is returned.
func LoadConfig(path string, envFiles ...string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if _, err := toml.Decode(expandEnvVars(string(data)), &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config: %w", err)
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("reading environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func expandEnvVars(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(match string) string {
		name := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		return os.Getenv(name)
	})
}
