package app

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/AbQaadir/RemoteWebCam/internal/cam"
	"github.com/AbQaadir/RemoteWebCam/pkg/mjpeg"
	"github.com/AbQaadir/RemoteWebCam/pkg/source"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Stream  StreamConfig  `yaml:"stream"`
	API     APIConfig     `yaml:"api"`
	Sources SourcesConfig `yaml:"sources"`
	Logging LoggingConfig `yaml:"logging"`
}

type StreamConfig struct {
	Port     int    `yaml:"port"`
	Boundary string `yaml:"boundary"`
	Quality  int    `yaml:"quality"`
}

type APIConfig struct {
	Port int `yaml:"port"`
}

type SourcesConfig struct {
	Pattern PatternConfig `yaml:"pattern"`
	Watch   WatchConfig   `yaml:"watch"`
	Ingest  IngestConfig  `yaml:"ingest"`
}

type PatternConfig struct {
	Enabled bool `yaml:"enabled"`
	Width   int  `yaml:"width"`
	Height  int  `yaml:"height"`
	FPS     int  `yaml:"fps"`
}

type WatchConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

type IngestConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// GetConfigWithDefaults returns default configuration values
func GetConfigWithDefaults() *Config {
	return &Config{
		Stream: StreamConfig{
			Port:     8080,
			Boundary: "frame",
			Quality:  80,
		},
		API: APIConfig{
			Port: 8081,
		},
		Sources: SourcesConfig{
			Pattern: PatternConfig{
				Enabled: true,
				Width:   640,
				Height:  480,
				FPS:     15,
			},
			Watch: WatchConfig{
				Enabled: false,
				Dir:     "./frames",
			},
			Ingest: IngestConfig{
				Enabled: true,
				Path:    "/ingest",
			},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from yaml file
func LoadConfig() (*Config, error) {
	// 기본 설정값으로 초기화
	config := GetConfigWithDefaults()

	// 설정 파일 경로 결정 (프로젝트 루트의 configs/default.yaml)
	configPath := filepath.Join("configs", "default.yaml")

	// 파일 존재 확인 - 없으면 기본값 사용
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		fmt.Printf("Config file not found (%s), using default values:\n", configPath)
		config.print()
		return config, nil
	}

	// 파일 읽기
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// YAML 파싱 - 기존 기본값 위에 덮어쓰기
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// 설정 검증
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	fmt.Printf("Config loaded from %s:\n", configPath)
	config.print()
	return config, nil
}

func (c *Config) print() {
	fmt.Printf("  Stream Port: %d\n", c.Stream.Port)
	fmt.Printf("  Stream Boundary: %s\n", c.Stream.Boundary)
	fmt.Printf("  JPEG Quality: %d\n", c.Stream.Quality)
	fmt.Printf("  API Port: %d\n", c.API.Port)
	fmt.Printf("  Pattern Source: %v (%dx%d @ %d fps)\n",
		c.Sources.Pattern.Enabled, c.Sources.Pattern.Width, c.Sources.Pattern.Height, c.Sources.Pattern.FPS)
	fmt.Printf("  Watch Source: %v (%s)\n", c.Sources.Watch.Enabled, c.Sources.Watch.Dir)
	fmt.Printf("  WS Ingest: %v (%s)\n", c.Sources.Ingest.Enabled, c.Sources.Ingest.Path)
	fmt.Printf("  Log Level: %s\n", c.Logging.Level)
}

// validate checks if the configuration is valid
func (c *Config) validate() error {
	// 스트림 포트 검증
	if c.Stream.Port <= 0 || c.Stream.Port > 65535 {
		return fmt.Errorf("invalid stream port: %d (must be between 1-65535)", c.Stream.Port)
	}

	// 바운더리 토큰 검증
	if c.Stream.Boundary == "" {
		return fmt.Errorf("stream boundary must not be empty")
	}
	for _, r := range c.Stream.Boundary {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_') {
			return fmt.Errorf("invalid stream boundary: %q (alphanumeric, '-' and '_' only)", c.Stream.Boundary)
		}
	}

	// JPEG 품질 검증
	if c.Stream.Quality < 1 || c.Stream.Quality > 100 {
		return fmt.Errorf("invalid jpeg quality: %d (must be between 1-100)", c.Stream.Quality)
	}

	// API 포트 검증
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("invalid api port: %d (must be between 1-65535)", c.API.Port)
	}
	if c.API.Port == c.Stream.Port {
		return fmt.Errorf("api port and stream port must differ: %d", c.API.Port)
	}

	// 패턴 소스 검증
	if c.Sources.Pattern.Enabled {
		if c.Sources.Pattern.Width <= 0 || c.Sources.Pattern.Height <= 0 {
			return fmt.Errorf("invalid pattern size: %dx%d", c.Sources.Pattern.Width, c.Sources.Pattern.Height)
		}
		if c.Sources.Pattern.FPS < 1 || c.Sources.Pattern.FPS > 120 {
			return fmt.Errorf("invalid pattern fps: %d (must be between 1-120)", c.Sources.Pattern.FPS)
		}
	}

	// 감시 디렉터리 검증
	if c.Sources.Watch.Enabled && c.Sources.Watch.Dir == "" {
		return fmt.Errorf("watch source enabled but no directory configured")
	}

	// 인제스트 경로 검증
	if c.Sources.Ingest.Enabled && !strings.HasPrefix(c.Sources.Ingest.Path, "/") {
		return fmt.Errorf("invalid ingest path: %q (must start with '/')", c.Sources.Ingest.Path)
	}

	// 로그 레벨 검증
	validLevels := []string{"debug", "info", "warn", "error"}
	levelValid := false
	for _, level := range validLevels {
		if strings.ToLower(c.Logging.Level) == level {
			levelValid = true
			break
		}
	}
	if !levelValid {
		return fmt.Errorf("invalid log level: %s (must be one of: %v)", c.Logging.Level, validLevels)
	}

	return nil
}

// ToCamConfig converts Config to cam.Config
func (c *Config) ToCamConfig() cam.Config {
	return cam.Config{
		MJPEG: mjpeg.MJPEGConfig{
			Port:     c.Stream.Port,
			Boundary: c.Stream.Boundary,
		},
		Pattern: cam.PatternSourceConfig{
			Enabled: c.Sources.Pattern.Enabled,
			PatternConfig: source.PatternConfig{
				Width:   c.Sources.Pattern.Width,
				Height:  c.Sources.Pattern.Height,
				FPS:     c.Sources.Pattern.FPS,
				Quality: c.Stream.Quality,
			},
		},
		Watch: cam.WatchSourceConfig{
			Enabled: c.Sources.Watch.Enabled,
			Dir:     c.Sources.Watch.Dir,
		},
		Ingest: cam.IngestSourceConfig{
			Enabled: c.Sources.Ingest.Enabled,
			Path:    c.Sources.Ingest.Path,
		},
	}
}

// GetSlogLevel returns slog.Level from config
func (c *Config) GetSlogLevel() slog.Level {
	switch strings.ToLower(c.Logging.Level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo // 기본값
	}
}
