package app

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"polychat/internal/domain"
)

// Secret backends.
const (
	SecretsFile   = "file"
	SecretsBolt   = "bolt"
	SecretsMemory = "memory"
)

// MemoryStoreURL selects an in-process document store instead of HTTP.
const MemoryStoreURL = "mem://"

// Config holds runtime wiring options for building the app.
type Config struct {
	Home            string        // local data directory, e.g. $HOME/.polychat
	User            domain.UserID // stable id handed out by the identity provider
	Passphrase      string        // seals private keys at rest
	Secrets         string        // file, bolt or memory
	StoreURL        string        // document store base URL, or MemoryStoreURL
	TranslateURL    string        // LibreTranslate-compatible base URL; empty disables translation
	TranslateAPIKey string
	StrictKeys      bool   // never create a private key implicitly while sending
	LogLevel        string // zerolog level name
	LogFormat       string // json or console
	Parallelism     int    // concurrent decryptions when reading history

	HTTP *http.Client // optional; defaults to http.DefaultClient
}

// LoadConfig reads configuration from the environment, after loading the
// file named by ENV_FILE (default .env) if it exists. Variables already set
// in the environment win over the file.
func LoadConfig() (Config, error) {
	envFile := getEnv("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	home := getEnv("POLYCHAT_HOME", "")
	if home == "" {
		dir, err := os.UserHomeDir()
		if err != nil {
			return Config{}, err
		}
		home = filepath.Join(dir, ".polychat")
	}

	strict, err := getBool("POLYCHAT_STRICT_KEYS", false)
	if err != nil {
		return Config{}, err
	}
	parallelism, err := getInt("POLYCHAT_PARALLELISM", 8)
	if err != nil {
		return Config{}, err
	}

	return Config{
		Home:            home,
		User:            domain.UserID(getEnv("POLYCHAT_USER", "")),
		Passphrase:      getEnv("POLYCHAT_PASSPHRASE", ""),
		Secrets:         strings.ToLower(getEnv("POLYCHAT_SECRETS", SecretsFile)),
		StoreURL:        getEnv("POLYCHAT_STORE_URL", "http://127.0.0.1:8080"),
		TranslateURL:    getEnv("POLYCHAT_TRANSLATE_URL", ""),
		TranslateAPIKey: getEnv("POLYCHAT_TRANSLATE_API_KEY", ""),
		StrictKeys:      strict,
		LogLevel:        getEnv("POLYCHAT_LOG_LEVEL", "warn"),
		LogFormat:       getEnv("POLYCHAT_LOG_FORMAT", "console"),
		Parallelism:     parallelism,
	}, nil
}

// Validate reports settings that cannot be wired.
func (c Config) Validate() error {
	switch c.Secrets {
	case SecretsFile, SecretsBolt:
		if c.Passphrase == "" {
			return fmt.Errorf("passphrase required for %s secrets (-p or POLYCHAT_PASSPHRASE)", c.Secrets)
		}
	case SecretsMemory:
	default:
		return fmt.Errorf("unknown secrets backend %q (want file, bolt or memory)", c.Secrets)
	}
	if c.StoreURL == "" {
		return fmt.Errorf("document store URL required (--store or POLYCHAT_STORE_URL)")
	}
	return nil
}

// Gets the env by key or fallbacks
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getBool(key string, fallback bool) (bool, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func getInt(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
