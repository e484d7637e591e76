package config

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/RyanBlaney/sonido-band/calibration"
	"github.com/RyanBlaney/sonido-band/logging"
	"github.com/RyanBlaney/sonido-band/scoring"
)

// EnvPrefix prefixes environment overrides, e.g. SONIDO_BATCH_WORKERS.
const EnvPrefix = "SONIDO"

// Log selects the logger backend and level.
type Log struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // plain, text or json
}

// Audio configures decoding. Audio is downmixed to mono and resampled to
// SampleRate; MaxDuration of 0 keeps the whole file.
type Audio struct {
	SampleRate   int           `yaml:"sample_rate" mapstructure:"sample_rate"`
	FFmpegPath   string        `yaml:"ffmpeg_path" mapstructure:"ffmpeg_path"`
	PreferFFmpeg bool          `yaml:"prefer_ffmpeg" mapstructure:"prefer_ffmpeg"`
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxDuration  time.Duration `yaml:"max_duration" mapstructure:"max_duration"`
}

// Disfluency configures the filler and self-repair phrase set.
type Disfluency struct {
	// PhraseSet is a YAML phrase set file; empty uses the built-in English set.
	PhraseSet string `yaml:"phrase_set" mapstructure:"phrase_set"`
}

// Calibration holds the band calibration spec and where fitted curves are
// exported.
type Calibration struct {
	calibration.Spec `yaml:",inline" mapstructure:",squash"`
	CurveDir         string `yaml:"curve_dir" mapstructure:"curve_dir"`
}

// Content points at the HTTP content scorer. An empty URL disables content
// scoring.
type Content struct {
	URL     string        `yaml:"url" mapstructure:"url"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// Batch controls manifest scoring. Limit of 0 scores every row.
type Batch struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
	Limit   int `yaml:"limit" mapstructure:"limit"`
}

// Root is the full configuration.
type Root struct {
	Log         Log                       `yaml:"log" mapstructure:"log"`
	Audio       Audio                     `yaml:"audio" mapstructure:"audio"`
	Analysis    scoring.AnalysisConfig    `yaml:"analysis" mapstructure:"analysis"`
	Ranges      scoring.FeatureRanges     `yaml:"ranges" mapstructure:"ranges"`
	Subscores   scoring.SubscoreWeights   `yaml:"subscores" mapstructure:"subscores"`
	Uncertainty scoring.UncertaintyConfig `yaml:"uncertainty" mapstructure:"uncertainty"`
	Fusion      scoring.FusionWeights     `yaml:"fusion" mapstructure:"fusion"`
	Disfluency  Disfluency                `yaml:"disfluency" mapstructure:"disfluency"`
	Calibration Calibration               `yaml:"calibration" mapstructure:"calibration"`
	Content     Content                   `yaml:"content" mapstructure:"content"`
	Batch       Batch                     `yaml:"batch" mapstructure:"batch"`
}

// Default returns the built-in configuration.
func Default() *Root {
	return &Root{
		Log: Log{Level: "info", Format: "text"},
		Audio: Audio{
			SampleRate: 16000,
			FFmpegPath: "ffmpeg",
			Timeout:    30 * time.Second,
		},
		Analysis:    scoring.DefaultAnalysisConfig(),
		Ranges:      scoring.DefaultFeatureRanges(),
		Subscores:   scoring.DefaultSubscoreWeights(),
		Uncertainty: scoring.DefaultUncertaintyConfig(),
		Fusion:      scoring.DefaultFusionWeights(),
		Calibration: Calibration{
			Spec:     calibration.DefaultSpec(),
			CurveDir: "artifacts/calibration",
		},
		Content: Content{Timeout: 30 * time.Second},
		Batch:   Batch{Workers: 4},
	}
}

// NewViper prepares a viper instance with defaults, SONIDO_ environment
// overrides and the config file. An empty path searches ./sonido-band.yaml
// and ./config/sonido-band.yaml and tolerates neither existing. A .env file
// in the working directory is loaded first when present.
func NewViper(path string) (*viper.Viper, error) {
	_ = godotenv.Load()

	v := viper.New()
	if err := setDefaults(v, Default()); err != nil {
		return nil, err
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		return v, nil
	}

	v.SetConfigName("sonido-band")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	return v, nil
}

// FromViper decodes and validates the configuration.
func FromViper(v *viper.Viper) (*Root, error) {
	var cfg Root
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads the configuration from path (or the default locations) and
// the environment.
func Load(path string) (*Root, error) {
	v, err := NewViper(path)
	if err != nil {
		return nil, err
	}
	return FromViper(v)
}

// setDefaults registers every leaf of cfg so environment variables can
// override keys absent from the file.
func setDefaults(v *viper.Viper, cfg *Root) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode defaults: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("failed to decode defaults: %w", err)
	}
	var walk func(prefix string, node map[string]any)
	walk = func(prefix string, node map[string]any) {
		for k, val := range node {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			if child, ok := val.(map[string]any); ok {
				walk(key, child)
				continue
			}
			v.SetDefault(key, val)
		}
	}
	walk("", tree)
	return nil
}

// Validate checks ranges and cross-field constraints.
func (c *Root) Validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Format {
	case "", "plain", "text", "json":
	default:
		return fmt.Errorf("log.format: unknown format %q", c.Log.Format)
	}

	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio.sample_rate must be positive: %d", c.Audio.SampleRate)
	}

	a := c.Analysis
	if a.FrameLength <= 0 || a.HopLength <= 0 || a.PitchFrameLength <= 0 || a.PitchHopLength <= 0 {
		return fmt.Errorf("analysis: frame and hop lengths must be positive")
	}
	if a.TopDB <= 0 {
		return fmt.Errorf("analysis.top_db must be positive: %v", a.TopDB)
	}
	if a.PitchMinHz <= 0 || a.PitchMaxHz <= a.PitchMinHz {
		return fmt.Errorf("analysis: invalid pitch band [%v, %v]", a.PitchMinHz, a.PitchMaxHz)
	}

	u := c.Uncertainty
	if u.Trials < 0 {
		return fmt.Errorf("uncertainty.trials must not be negative: %d", u.Trials)
	}
	if u.DropFraction < 0 || u.DropFraction >= 1 {
		return fmt.Errorf("uncertainty.drop_fraction must be in [0, 1): %v", u.DropFraction)
	}
	if u.TopDBMin > u.TopDBMax {
		return fmt.Errorf("uncertainty: top_db_min %v above top_db_max %v", u.TopDBMin, u.TopDBMax)
	}

	f := c.Fusion
	if f.Content < 0 || f.Fluency < 0 || f.Pronunciation < 0 || f.Content+f.Fluency+f.Pronunciation <= 0 {
		return fmt.Errorf("fusion: weights must be non-negative with a positive sum")
	}

	if err := c.Calibration.Spec.Validate(); err != nil {
		return fmt.Errorf("calibration: %w", err)
	}

	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch.workers must be at least 1: %d", c.Batch.Workers)
	}
	if c.Batch.Limit < 0 {
		return fmt.Errorf("batch.limit must not be negative: %d", c.Batch.Limit)
	}
	return nil
}

// WriteYAML dumps the configuration.
func (c *Root) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}
