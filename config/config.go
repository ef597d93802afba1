package config

import (
	"errors"
	"fmt"
	"io/fs"
	"runtime"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	SupportedSchema = "v1"
	EnvPrefix       = "COLMAP__"
)

const (
	RunnerSingleThreaded = "single"
	RunnerParallel       = "parallel"
	RunnerWholeColumn    = "whole-column"
)

const (
	ExpressionTypeDictionary = "dictionary"
	ExpressionTypeCallback   = "callback"
)

type LogConfig struct {
	Level string `koanf:"level"`
	JSON  bool   `koanf:"json"`
}

// LocationConfig points at a parquet file on disk and optionally at an
// object to upload it to or download it from.
type LocationConfig struct {
	Path   string `koanf:"path"`
	Bucket string `koanf:"bucket"`
	Key    string `koanf:"key"`
}

type DictionaryConfig struct {
	Mapping   map[string]string `koanf:"mapping"`
	File      string            `koanf:"file"`
	Bucket    string            `koanf:"bucket"`
	Key       string            `koanf:"key"`
	OnMissing string            `koanf:"on_missing"`
}

type CallbackConfig struct {
	Handle string `koanf:"handle"`
	Mode   string `koanf:"mode"`
}

type ExpressionConfig struct {
	Name       string           `koanf:"name"`
	Type       string           `koanf:"type"`
	Input      string           `koanf:"input"`
	Output     string           `koanf:"output"`
	Dictionary DictionaryConfig `koanf:"dictionary"`
	Callback   CallbackConfig   `koanf:"callback"`
}

// HandleConfig describes one host callback handle. Every expression that
// names the handle shares its dispatch queue.
type HandleConfig struct {
	Handle       string        `koanf:"handle"`
	Timeout      time.Duration `koanf:"timeout"`
	LockOSThread bool          `koanf:"lock_os_thread"`

	// served by a host process over redis instead of in-process
	Remote          bool          `koanf:"remote"`
	Exclusive       bool          `koanf:"exclusive"`
	ResponseTimeout time.Duration `koanf:"response_timeout"`
}

type ObjectStorageConfig struct {
	Endpoint     string `koanf:"endpoint"`
	Region       string `koanf:"region"`
	AuthKey      string `koanf:"auth_key"`
	AuthSecret   string `koanf:"auth_secret"`
	UsePathStyle bool   `koanf:"use_path_style"`
}

func (obj ObjectStorageConfig) Enabled() bool {
	return obj.Endpoint != "" || obj.AuthKey != ""
}

type RedisConfig struct {
	Address     string        `koanf:"address"`
	Password    string        `koanf:"password"`
	KeyPrefix   string        `koanf:"key_prefix"`
	ResponseTTL time.Duration `koanf:"response_ttl"`
	PollTimeout time.Duration `koanf:"poll_timeout"`
}

type ExecutionConfig struct {
	Runner  string `koanf:"runner"`
	Workers int    `koanf:"workers"`
}

type MetricsConfig struct {
	Port int    `koanf:"port"`
	Path string `koanf:"path"`
}

type Config struct {
	SchemaVersion string `koanf:"schema_version"`

	Log           LogConfig           `koanf:"log"`
	Input         LocationConfig      `koanf:"input"`
	Output        LocationConfig      `koanf:"output"`
	Handles       []HandleConfig      `koanf:"handles"`
	Expressions   []ExpressionConfig  `koanf:"expressions"`
	ObjectStorage ObjectStorageConfig `koanf:"object_storage"`
	Redis         RedisConfig         `koanf:"redis"`
	Execution     ExecutionConfig     `koanf:"execution"`
	Metrics       MetricsConfig       `koanf:"metrics"`
}

/*
* Load merges the YAML file (if present) with environment variables.
* Variables use the COLMAP__ prefix and __ between nested keys, for
* example COLMAP__REDIS__ADDRESS.
 */
func Load(path string) (Config, error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil &&
			!errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil)
	if err != nil {
		return Config{}, err
	}

	sv := k.String("schema_version")
	if sv != "" && sv != SupportedSchema {
		return Config{}, fmt.Errorf("%w| %q (want %s)", ErrUnsupportedSchemaVersion, sv, SupportedSchema)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, err
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

func applyDefaults(c *Config) {
	if c.SchemaVersion == "" {
		c.SchemaVersion = SupportedSchema
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Execution.Runner == "" {
		c.Execution.Runner = RunnerSingleThreaded
	}
	if c.Execution.Workers <= 0 {
		c.Execution.Workers = runtime.NumCPU()
	}
	if c.Redis.KeyPrefix == "" {
		c.Redis.KeyPrefix = "columnmap"
	}
	if c.Redis.ResponseTTL == 0 {
		c.Redis.ResponseTTL = time.Minute
	}
	if c.Redis.PollTimeout == 0 {
		c.Redis.PollTimeout = 5 * time.Second
	}
	if c.ObjectStorage.Region == "" {
		c.ObjectStorage.Region = "us-east-1"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	for i := range c.Expressions {
		if c.Expressions[i].Output == "" {
			c.Expressions[i].Output = c.Expressions[i].Input
		}
	}
}

func (obj Config) Validate() error {
	switch obj.Execution.Runner {
	case RunnerSingleThreaded, RunnerParallel, RunnerWholeColumn:
	default:
		return fmt.Errorf("%w| execution.runner %q", ErrInvalidConfig, obj.Execution.Runner)
	}

	// objects are staged through a local file
	if obj.Input.Key != "" && obj.Input.Path == "" {
		return fmt.Errorf("%w| input.key is set but input.path is empty", ErrInvalidConfig)
	}
	if obj.Output.Key != "" && obj.Output.Path == "" {
		return fmt.Errorf("%w| output.key is set but output.path is empty", ErrInvalidConfig)
	}

	handles := make(map[string]HandleConfig, len(obj.Handles))
	for _, h := range obj.Handles {
		if h.Handle == "" {
			return fmt.Errorf("%w| handle name is required", ErrInvalidConfig)
		}
		if _, exists := handles[h.Handle]; exists {
			return fmt.Errorf("%w| handle %s defined twice", ErrInvalidConfig, h.Handle)
		}
		if h.Timeout < 0 {
			return fmt.Errorf("%w| handle %s has a negative timeout", ErrInvalidConfig, h.Handle)
		}
		if h.Remote && obj.Redis.Address == "" {
			return fmt.Errorf("%w| handle %s is remote but redis.address is not set", ErrInvalidConfig, h.Handle)
		}
		handles[h.Handle] = h
	}

	names := make(map[string]struct{}, len(obj.Expressions))
	for idx, expr := range obj.Expressions {
		if expr.Name == "" {
			return fmt.Errorf("%w| expression %d has no name", ErrInvalidConfig, idx)
		}
		if _, exists := names[expr.Name]; exists {
			return fmt.Errorf("%w| expression name %s used twice", ErrInvalidConfig, expr.Name)
		}
		names[expr.Name] = struct{}{}

		if expr.Input == "" {
			return fmt.Errorf("%w| expression %s has no input column", ErrInvalidConfig, expr.Name)
		}

		switch expr.Type {
		case ExpressionTypeDictionary:
			sources := 0
			if len(expr.Dictionary.Mapping) > 0 {
				sources++
			}
			if expr.Dictionary.File != "" {
				sources++
			}
			if expr.Dictionary.Key != "" {
				sources++
			}
			if sources > 1 {
				return fmt.Errorf("%w| expression %s sets more than one mapping source", ErrInvalidConfig, expr.Name)
			}
		case ExpressionTypeCallback:
			if _, exists := handles[expr.Callback.Handle]; !exists {
				return fmt.Errorf("%w| expression %s uses unknown handle %q", ErrInvalidConfig, expr.Name, expr.Callback.Handle)
			}
		default:
			return fmt.Errorf("%w| expression %s has unknown type %q", ErrInvalidConfig, expr.Name, expr.Type)
		}
	}
	return nil
}
