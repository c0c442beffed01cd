package scankit

import (
	"fmt"
	"os"

	"github.com/gobeaver/beaver-kit/config"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Root directory for per-run extraction directories.
	// Empty means the OS default temp directory.
	TempRoot string `env:"SCANKIT_TEMP_ROOT"`

	// Maximum number of point records parsed per point-cloud file.
	PointBudget int `env:"SCANKIT_POINT_BUDGET,default:100000"`

	// Preferred point-cloud file name looked up in the extraction root
	// before falling back to a recursive search.
	PointCloudName string `env:"SCANKIT_POINTCLOUD_NAME,default:scan.pcd"`

	// Explicit passphrase for encrypted archives.
	Passphrase string `env:"SCANKIT_PASSPHRASE"`

	// Path to a YAML file listing fallback passphrase candidates,
	// tried in order when the explicit passphrase is absent or rejected.
	PassphraseFile string `env:"SCANKIT_PASSPHRASE_FILE"`

	// Directory watched by the intake watcher for newly dropped archives.
	WatchDir string `env:"SCANKIT_WATCH_DIR"`

	// Logging settings
	LogLevel  string `env:"SCANKIT_LOG_LEVEL,default:info"`
	LogFormat string `env:"SCANKIT_LOG_FORMAT,default:text"`
}

// GetConfig returns config loaded from environment
func GetConfig() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// passphraseFile is the on-disk shape of the candidate list:
//
//	passphrases:
//	  - "scanner2024"
//	  - "field-unit-7"
type passphraseFile struct {
	Passphrases []string `yaml:"passphrases"`
}

// PassphraseCandidates loads the ordered fallback passphrase list from
// PassphraseFile. A missing setting yields an empty list, not an error.
func (c *Config) PassphraseCandidates() ([]string, error) {
	if c.PassphraseFile == "" {
		return nil, nil
	}
	data, err := os.ReadFile(c.PassphraseFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read passphrase file: %w", err)
	}
	var pf passphraseFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("failed to parse passphrase file: %w", err)
	}
	return pf.Passphrases, nil
}
