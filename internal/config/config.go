package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Ilia01/adoflow/internal/credential"
)

var (
	ErrConfigNotFound = errors.New("configuration not found")
	ErrIncomplete     = errors.New("configuration incomplete")
)

const (
	TokenStoreFile    = "file"
	TokenStoreKeyring = "keyring"

	envPrefix = "ADOFLOW"
)

type Settings struct {
	Azure       AzureConfig       `mapstructure:"azure"`
	Screenshots ScreenshotsConfig `mapstructure:"screenshots"`
}

type AzureConfig struct {
	OrganizationURL string `mapstructure:"organization_url"`
	Project         string `mapstructure:"project"`
	Token           string `mapstructure:"token"`
	// TokenStore is "file" (token kept in config.toml) or "keyring".
	TokenStore string `mapstructure:"token_store"`
}

type ScreenshotsConfig struct {
	Directory string `mapstructure:"directory"`
	Pattern   string `mapstructure:"pattern"`
}

var keys = []string{
	"azure.organization_url",
	"azure.project",
	"azure.token",
	"azure.token_store",
	"screenshots.directory",
	"screenshots.pattern",
}

// lookupToken reads the token when token_store is "keyring".
var lookupToken = credential.Get

// Load reads ~/.adoflow/config.toml. A .env file in the working directory and
// ADOFLOW_* variables (ADOFLOW_AZURE_TOKEN, ...) override file values. Without a
// config file, the environment alone is enough when it names an organization URL.
func Load() (*Settings, error) {
	_ = godotenv.Load()

	path, err := configPath()
	if err != nil {
		return nil, err
	}

	v := newViper()
	fileFound := true
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		fileFound = false
	}

	if fileFound {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if !fileFound && settings.Azure.OrganizationURL == "" {
		return nil, ErrConfigNotFound
	}

	if settings.Azure.Token == "" && settings.Azure.TokenStore == TokenStoreKeyring {
		token, err := lookupToken(credential.TokenKey)
		if err != nil {
			return nil, fmt.Errorf("load token: %w", err)
		}
		settings.Azure.Token = token
	}

	return settings, nil
}

// LoadFile reads only ~/.adoflow/config.toml: no .env, no ADOFLOW_* overrides
// and no keyring lookup. It is what edits of the file start from.
func LoadFile() (*Settings, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return settings, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("toml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range keys {
		_ = v.BindEnv(key)
	}
	v.SetDefault("azure.token_store", TokenStoreFile)
	return v
}

// Save writes the settings to the config file with 0600 permissions. The token is
// left out of the file when it lives in the keyring.
func (s *Settings) Save() error {
	path, err := configPath()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	token := s.Azure.Token
	if s.Azure.TokenStore == TokenStoreKeyring {
		token = ""
	}
	store := s.Azure.TokenStore
	if store == "" {
		store = TokenStoreFile
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("azure.organization_url", s.Azure.OrganizationURL)
	v.Set("azure.project", s.Azure.Project)
	v.Set("azure.token", token)
	v.Set("azure.token_store", store)
	v.Set("screenshots.directory", s.Screenshots.Directory)
	v.Set("screenshots.pattern", s.Screenshots.Pattern)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		return fmt.Errorf("chmod config: %w", err)
	}

	return nil
}

// Validate reports the settings every keyword needs before a request can be made.
func (s *Settings) Validate() error {
	var missing []string
	if strings.TrimSpace(s.Azure.OrganizationURL) == "" {
		missing = append(missing, "azure.organization_url")
	}
	if strings.TrimSpace(s.Azure.Token) == "" {
		missing = append(missing, "azure.token")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrIncomplete, strings.Join(missing, ", "))
	}
	return nil
}

// Set updates one section.field key.
func (s *Settings) Set(key, value string) error {
	parts := strings.Split(key, ".")
	if len(parts) != 2 {
		return errors.New("invalid key format. Use section.field (e.g., azure.project)")
	}

	section, field := parts[0], parts[1]
	switch section {
	case "azure":
		switch field {
		case "organization_url":
			s.Azure.OrganizationURL = value
		case "project":
			s.Azure.Project = value
		case "token":
			s.Azure.Token = value
		case "token_store":
			if value != TokenStoreFile && value != TokenStoreKeyring {
				return fmt.Errorf("token_store must be %q or %q", TokenStoreFile, TokenStoreKeyring)
			}
			s.Azure.TokenStore = value
		default:
			return fmt.Errorf("unknown azure field: %s", field)
		}
	case "screenshots":
		switch field {
		case "directory":
			s.Screenshots.Directory = value
		case "pattern":
			s.Screenshots.Pattern = value
		default:
			return fmt.Errorf("unknown screenshots field: %s", field)
		}
	default:
		return fmt.Errorf("unknown configuration section: %s", section)
	}

	return nil
}

func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".adoflow"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

func configPath() (string, error) {
	return ConfigPath()
}

func MaskToken(token string) string {
	if len(token) <= 4 {
		return strings.Repeat("*", len(token))
	}
	head := token[:min(4, len(token))]
	tail := token[max(0, len(token)-4):]
	return fmt.Sprintf("%s***%s", head, tail)
}
