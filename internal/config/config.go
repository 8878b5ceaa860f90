package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultConfigPath = "~/.config/startrails/config.json"
	defaultParallel   = 1
)

// Config holds user-editable settings. Command line flags override them per run.
type Config struct {
	Trails     Trails     `json:"trails" yaml:"trails"`
	Video      Video      `json:"video" yaml:"video"`
	Decoder    Decoder    `json:"decoder" yaml:"decoder"`
	Processing Processing `json:"processing" yaml:"processing"`
	Logging    Logging    `json:"logging" yaml:"logging"`
	Paths      Paths      `json:"paths" yaml:"paths"`
	Server     Server     `json:"server" yaml:"server"`
	Watch      Watch      `json:"watch" yaml:"watch"`
}

// Trails captures defaults for star-trail runs.
type Trails struct {
	OutputDir    string   `json:"output_dir" yaml:"output_dir"` // empty means the working directory
	OutputPrefix string   `json:"output_prefix" yaml:"output_prefix"`
	Extensions   []string `json:"extensions" yaml:"extensions"`
	Format       string   `json:"format" yaml:"format"` // jpg, png, tiff
	Quality      int      `json:"quality" yaml:"quality"`
}

// Video configures the external encoder.
type Video struct {
	Binary      string `json:"binary" yaml:"binary"`
	FPS         int    `json:"fps" yaml:"fps"`
	Size        string `json:"size" yaml:"size"`
	Codec       string `json:"codec" yaml:"codec"`
	PixelFormat string `json:"pixel_format" yaml:"pixel_format"`
}

// Decoder selects how source frames are read.
type Decoder struct {
	Mode string `json:"mode" yaml:"mode"` // auto, native, imagick
}

// Processing captures execution preferences.
type Processing struct {
	ParallelJobs int  `json:"parallel_jobs" yaml:"parallel_jobs"`
	MemoryCheck  bool `json:"memory_check" yaml:"memory_check"`
}

// Logging controls logging verbosity and destinations.
type Logging struct {
	Level      string `json:"level" yaml:"level"`             // debug, info, warn, error
	Format     string `json:"format" yaml:"format"`           // text, json
	FileOutput bool   `json:"file_output" yaml:"file_output"` // Enable file logging
	LogDir     string `json:"log_dir" yaml:"log_dir"`
}

// Paths configures persisted state.
type Paths struct {
	DatabasePath string `json:"database_path" yaml:"database_path"`
}

// Server configures the serve command.
type Server struct {
	HTTPAddr string `json:"http_addr" yaml:"http_addr"`
	GRPCAddr string `json:"grpc_addr" yaml:"grpc_addr"`
}

// Watch configures live stacking.
type Watch struct {
	DebounceMS int `json:"debounce_ms" yaml:"debounce_ms"`
}

// Path returns the config file location, honouring STARTRAILS_CONFIG.
func Path() string {
	if p := os.Getenv("STARTRAILS_CONFIG"); p != "" {
		return p
	}
	return defaultConfigPath
}

// Load reads configuration from disk, falling back to sensible defaults.
// Files ending in .yaml or .yml are parsed as YAML, everything else as JSON.
func Load() (*Config, error) {
	return LoadFile(Path())
}

// LoadFile reads the given file over the defaults. A missing file is not an error.
func LoadFile(configPath string) (*Config, error) {
	cfg := Default()

	expanded, err := expandUser(configPath)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(expanded)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(expanded)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Trails: Trails{
			OutputPrefix: "trails",
			Format:       "jpg",
			Quality:      95,
		},
		Video: Video{
			Binary:      "ffmpeg",
			FPS:         30,
			Size:        "hd1080",
			Codec:       "libx264",
			PixelFormat: "yuvj420p",
		},
		Decoder: Decoder{Mode: "auto"},
		Processing: Processing{
			ParallelJobs: defaultParallel,
			MemoryCheck:  true,
		},
		Logging: Logging{
			Level:      "info",
			Format:     "text",
			FileOutput: false,
			LogDir:     "./logs",
		},
		Paths: Paths{
			DatabasePath: filepath.Join(os.TempDir(), "startrails.db"),
		},
		Server: Server{
			HTTPAddr: ":8080",
			GRPCAddr: ":9090",
		},
		Watch: Watch{DebounceMS: 500},
	}
}

func expandUser(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	if path == "~" {
		return home, nil
	}

	return filepath.Join(home, path[2:]), nil
}
