package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the tool's persistent settings.
type Config struct {
	// ArtifactDir is where capture writes raw per-host results and where
	// generators place their output by default.
	ArtifactDir string `yaml:"artifact_dir"`

	// Skeletons maps a platform family to its rule catalog (CKLB
	// skeleton) file.
	Skeletons map[string]string `yaml:"skeletons"`

	// Playbook and Inventory configure the external execution engine for
	// break-glass remediation.
	Playbook  string `yaml:"playbook"`
	Inventory string `yaml:"inventory"`

	// IdleTimeoutSeconds bounds the wait for an operator decision during
	// remediation. Zero waits forever.
	IdleTimeoutSeconds int `yaml:"idle_timeout_seconds"`
}

func GetConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	configDir := filepath.Join(home, ".stigctl")
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

func LoadConfig() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		// Return default config
		return &Config{
			ArtifactDir: ".artifacts",
			Skeletons:   make(map[string]string),
			Playbook:    "site.yml",
			Inventory:   "inventory.yml",
		}, nil
	}
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if cfg.Skeletons == nil {
		cfg.Skeletons = make(map[string]string)
	}
	if cfg.ArtifactDir == "" {
		cfg.ArtifactDir = ".artifacts"
	}
	return &cfg, nil
}

func SaveConfig(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// SetSkeleton records the catalog path for a platform family.
func (c *Config) SetSkeleton(platform, path string) {
	c.Skeletons[platform] = path
}

// GetSkeleton returns the catalog path for a platform family.
func (c *Config) GetSkeleton(platform string) string {
	return c.Skeletons[platform]
}
