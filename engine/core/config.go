package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type LogConfig struct {
	Level string `toml:"level"`
	/** @brief Optional file the log is appended to instead of stderr. */
	File string `toml:"file"`
}

type JobsConfig struct {
	/** @brief Number of worker goroutines used for asynchronous loads. */
	Workers int `toml:"workers"`
	/** @brief Size of the buffered job queue. */
	QueueSize int `toml:"queue_size"`
}

type DecoderConfig struct {
	/** @brief Serialize every decode behind one mutex. Needed when the linked libheif is not safe for concurrent contexts. */
	Serialize bool `toml:"serialize"`
	/** @brief Clone the compressed input before handing it to libheif. */
	CopyInput bool `toml:"copy_input"`
}

type AssetsConfig struct {
	Dir   string `toml:"dir"`
	Watch bool   `toml:"watch"`
}

type TexturesConfig struct {
	/** @brief The maximum number of textures that can be registered at once. */
	MaxCount uint32 `toml:"max_count"`
	/** @brief Resampling kernel used for mip generation: "bilinear" or "catmullrom". */
	MipFilter string `toml:"mip_filter"`
}

type Config struct {
	Log      LogConfig      `toml:"log"`
	Jobs     JobsConfig     `toml:"jobs"`
	Decoder  DecoderConfig  `toml:"decoder"`
	Assets   AssetsConfig   `toml:"assets"`
	Textures TexturesConfig `toml:"textures"`
}

func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level: "info",
		},
		Jobs: JobsConfig{
			Workers:   4,
			QueueSize: 64,
		},
		Decoder: DecoderConfig{
			Serialize: false,
			CopyInput: true,
		},
		Assets: AssetsConfig{
			Dir:   "assets",
			Watch: false,
		},
		Textures: TexturesConfig{
			MaxCount:  1024,
			MipFilter: "bilinear",
		},
	}
}

// LoadConfig reads a TOML file on top of the defaults. A missing file is not
// an error and yields DefaultConfig().
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			LogDebug("config file %s not found, using defaults", path)
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Jobs.Workers <= 0 {
		return fmt.Errorf("jobs.workers must be > 0, got %d", c.Jobs.Workers)
	}
	if c.Jobs.QueueSize < 0 {
		return fmt.Errorf("jobs.queue_size must be >= 0, got %d", c.Jobs.QueueSize)
	}
	if c.Textures.MaxCount == 0 {
		return fmt.Errorf("textures.max_count must be > 0")
	}
	switch c.Textures.MipFilter {
	case "bilinear", "catmullrom":
	default:
		return fmt.Errorf("textures.mip_filter must be bilinear or catmullrom, got %q", c.Textures.MipFilter)
	}
	return nil
}
