package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/viper"
)

const (
	DefaultProfileName = "default"
	DefaultBaseURL     = "https://imaneeeabdel-atlas-vision-api.hf.space"
	DefaultTimeout     = 60 * time.Second
	DefaultOpenAIModel = "gpt-4o-mini"

	ProviderAtlas  = "atlas"
	ProviderOpenAI = "openai"

	envPrefix = "ATLAS"
)

var (
	json     = jsoniter.ConfigCompatibleWithStandardLibrary
	validate = validator.New(validator.WithRequiredStructEnabled())

	ErrUnknownProfile = errors.New("profile does not exist")
)

type Profile struct {
	APIBaseURL        string  `json:"api_base_url" mapstructure:"api_base_url" validate:"required,url"`
	TimeoutSeconds    int     `json:"timeout_seconds,omitempty" mapstructure:"timeout_seconds" validate:"gte=0"`
	RequestsPerSecond float64 `json:"requests_per_second,omitempty" mapstructure:"requests_per_second" validate:"gte=0"`
	Burst             int     `json:"burst,omitempty" mapstructure:"burst" validate:"gte=0"`
	ChatProvider      string  `json:"chat_provider,omitempty" mapstructure:"chat_provider" validate:"omitempty,oneof=atlas openai"`
	OpenAIAPIKey      string  `json:"openai_api_key,omitempty" mapstructure:"openai_api_key" validate:"required_if=ChatProvider openai"`
	OpenAIBaseURL     string  `json:"openai_base_url,omitempty" mapstructure:"openai_base_url" validate:"omitempty,url"`
	OpenAIModel       string  `json:"openai_model,omitempty" mapstructure:"openai_model"`
	DirectoryFile     string  `json:"directory_file,omitempty" mapstructure:"directory_file"`
}

// DefaultProfile points at the public recognition service.
func DefaultProfile() Profile {
	return Profile{
		APIBaseURL:     DefaultBaseURL,
		TimeoutSeconds: int(DefaultTimeout / time.Second),
		ChatProvider:   ProviderAtlas,
	}
}

func (p Profile) Validate() error {
	return validate.Struct(p)
}

func (p Profile) Timeout() time.Duration {
	if p.TimeoutSeconds <= 0 {
		return DefaultTimeout
	}
	return time.Duration(p.TimeoutSeconds) * time.Second
}

func (p Profile) Model() string {
	if p.OpenAIModel == "" {
		return DefaultOpenAIModel
	}
	return p.OpenAIModel
}

type Config struct {
	Profiles      map[string]Profile `json:"profiles" mapstructure:"profiles"`
	ActiveProfile string             `json:"active_profile" mapstructure:"active_profile"`

	path           string
	currentProfile *Profile
}

// LoadConfig reads ~/.atlas/config.json, creating it with the default
// profile on first run. ATLAS_* environment variables override the active
// profile's fields.
func LoadConfig() (*Config, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}
	return LoadFrom(configPath)
}

func LoadFrom(configPath string) (*Config, error) {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		if err := createDefaultConfig(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("json")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.path = configPath
	if cfg.Profiles == nil {
		cfg.Profiles = map[string]Profile{}
	}
	// viper lowercases map keys
	cfg.ActiveProfile = strings.ToLower(cfg.ActiveProfile)
	if name := v.GetString("profile"); name != "" {
		cfg.ActiveProfile = strings.ToLower(name)
	}

	if err := cfg.setCurrentProfile(v); err != nil {
		return nil, fmt.Errorf("failed to set current profile: %w", err)
	}
	return &cfg, nil
}

func (c *Config) setCurrentProfile(v *viper.Viper) error {
	if c.ActiveProfile == "" {
		c.ActiveProfile = DefaultProfileName
	}
	profile, ok := c.Profiles[c.ActiveProfile]
	if !ok {
		if c.ActiveProfile != DefaultProfileName {
			return fmt.Errorf("%w: %s", ErrUnknownProfile, c.ActiveProfile)
		}
		profile = DefaultProfile()
	}

	applyEnv(v, &profile)
	if profile.APIBaseURL == "" {
		profile.APIBaseURL = DefaultBaseURL
	}
	if err := profile.Validate(); err != nil {
		return fmt.Errorf("profile %s: %w", c.ActiveProfile, err)
	}
	c.currentProfile = &profile
	return nil
}

func applyEnv(v *viper.Viper, p *Profile) {
	if s := v.GetString("api_base_url"); s != "" {
		p.APIBaseURL = s
	}
	if n := v.GetInt("timeout_seconds"); n > 0 {
		p.TimeoutSeconds = n
	}
	if s := v.GetString("chat_provider"); s != "" {
		p.ChatProvider = s
	}
	if s := v.GetString("openai_api_key"); s != "" {
		p.OpenAIAPIKey = s
	}
	if s := v.GetString("openai_base_url"); s != "" {
		p.OpenAIBaseURL = s
	}
	if s := v.GetString("openai_model"); s != "" {
		p.OpenAIModel = s
	}
	if s := v.GetString("directory_file"); s != "" {
		p.DirectoryFile = s
	}
}

// Current returns the active profile with environment overrides applied.
func (c *Config) Current() Profile {
	if c.currentProfile == nil {
		return DefaultProfile()
	}
	return *c.currentProfile
}

func (c *Config) Path() string {
	return c.path
}

// Dir is the directory holding the config file; logs live beneath it.
func (c *Config) Dir() string {
	return filepath.Dir(c.path)
}

// Use makes name the active profile.
func (c *Config) Use(name string) error {
	name = strings.ToLower(name)
	if _, ok := c.Profiles[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProfile, name)
	}
	c.ActiveProfile = name
	return nil
}

func getConfigPath() (string, error) {
	var configDir string

	// Use ATLAS_HOME if set, otherwise use user's home directory
	if home := os.Getenv("ATLAS_HOME"); home != "" {
		configDir = home
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = homeDir
	}

	return filepath.Join(configDir, ".atlas", "config.json"), nil
}

func createDefaultConfig(configPath string) error {
	config := &Config{
		Profiles:      map[string]Profile{DefaultProfileName: DefaultProfile()},
		ActiveProfile: DefaultProfileName,
	}
	return saveConfig(config, configPath)
}

func saveConfig(config *Config, configPath string) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(configPath, data, 0o600)
}

func (c *Config) Save() error {
	if c.path == "" {
		configPath, err := getConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
		c.path = configPath
	}
	return saveConfig(c, c.path)
}
