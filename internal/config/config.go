// Package config centralizes the continuum engine's configuration,
// following the teacher's env-first style (caarlos0/env struct tags) with
// an optional YAML overlay for the nested tuning knobs spec.md §6
// enumerates (scale half-lives, scorer weights, checkpoint triggers,
// living-equation coefficients) that don't fit comfortably as flat env
// vars.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

// Config is the full, resolved configuration for one engine instance.
type Config struct {
	StateDir   string `env:"STATE_DIR" envDefault:"./state" yaml:"-"`
	WatchDir   string `env:"WATCH_DIR" envDefault:"./logs" yaml:"-"`
	ConfigPath string `env:"CONFIG_PATH" yaml:"-"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info" yaml:"-"`

	Scales         ScalesConfig         `yaml:"scales"`
	Scoring        ScoringConfig        `yaml:"scoring"`
	Landmarks      LandmarksConfig      `yaml:"landmarks"`
	Checkpoint     CheckpointConfig     `yaml:"checkpoint"`
	Analyzer       AnalyzerConfig       `yaml:"analyzer"`
	LivingEquation LivingEquationConfig `yaml:"living_equation"`
	Projector      ProjectorConfig      `yaml:"projector"`
}

// ProjectorConfig holds projector.* from spec.md §6: the fixed identity
// block and the briefing's section sizing.
type ProjectorConfig struct {
	IdentityName    string `yaml:"identity_name"`
	IdentityDetail  string `yaml:"identity_detail"`
	ConversationSeedCount int `yaml:"conversation_seed_count"`
	RecentAccomplishmentCount int `yaml:"recent_accomplishment_count"`
}

// ScaleConfig is the per-scale tuning in spec.md §6
// (scales.{scale}.half_life_seconds / soft_capacity / top_k_migration).
type ScaleConfig struct {
	HalfLifeSeconds float64 `yaml:"half_life_seconds"`
	SoftCapacity    int     `yaml:"soft_capacity"`
	TopKMigration   int     `yaml:"top_k_migration"`
}

type ScalesConfig struct {
	Immediate ScaleConfig `yaml:"immediate"`
	ShortTerm ScaleConfig `yaml:"short_term"`
	LongTerm  ScaleConfig `yaml:"long_term"`
	Lifetime  ScaleConfig `yaml:"lifetime"`
}

// ScoringConfig holds the importance-formula weights from spec.md §6
// scoring.weights.*.
type ScoringConfig struct {
	WeightAffect   float64 `yaml:"weight_affect"`
	WeightLandmark float64 `yaml:"weight_landmark"`
	WeightRecency  float64 `yaml:"weight_recency"`
	WeightAccess   float64 `yaml:"weight_access"`
	WeightKeyword  float64 `yaml:"weight_keyword"`
	WeightRelation float64 `yaml:"weight_relation"`
}

// LandmarksConfig holds the landmark-detection thresholds and keyword
// lists from spec.md §6 landmarks.*.
type LandmarksConfig struct {
	IntensityThreshold    float64  `yaml:"intensity_threshold"`
	AccomplishmentMarkers []string `yaml:"accomplishment_markers"`
	RegretMarkers         []string `yaml:"regret_markers"`
	MilestonePhrases      []string `yaml:"milestone_phrases"`
}

// CheckpointConfig holds the trigger and rotation config from spec.md §6
// checkpoint.*.
type CheckpointConfig struct {
	MessageInterval     int      `yaml:"message_interval"`
	TimeIntervalSeconds float64  `yaml:"time_interval_seconds"`
	EmotionThreshold    float64  `yaml:"emotion_threshold"`
	MaxRetained         int      `yaml:"max_retained"`
	Targets             []string `yaml:"targets"`
}

func (c CheckpointConfig) TimeInterval() time.Duration {
	return time.Duration(c.TimeIntervalSeconds * float64(time.Second))
}

// AnalyzerBackend selects the pluggable C3/C6 backend implementation.
type AnalyzerBackend string

const (
	AnalyzerLocal  AnalyzerBackend = "local"
	AnalyzerRemote AnalyzerBackend = "remote"
	AnalyzerRules  AnalyzerBackend = "rules"
)

// AnalyzerConfig holds analyzer.* from spec.md §6.
type AnalyzerConfig struct {
	Backend     AnalyzerBackend `yaml:"backend"`
	BaseURL     string          `yaml:"base_url"`
	Model       string          `yaml:"model"`
	APIKeyEnv   string          `yaml:"api_key_env"`
	TimeoutSecs float64         `yaml:"timeout_seconds"`
	WorkerPool  int             `yaml:"worker_pool"`
}

func (c AnalyzerConfig) Timeout() time.Duration {
	if c.TimeoutSecs <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutSecs * float64(time.Second))
}

// WorkerPoolSize is the bounded analyzer concurrency from spec.md §4.9
// ("a worker task pool of bounded size, default 2").
func (c AnalyzerConfig) WorkerPoolSize() int {
	if c.WorkerPool <= 0 {
		return 2
	}
	return c.WorkerPool
}

// LivingEquationConfig holds living_equation.* from spec.md §6. The
// interaction matrix defaults below are the values shipped by the Python
// original (original_source phase_evolution.py), resolving the spec's
// Open Question about exact coefficients.
type LivingEquationConfig struct {
	LambdaDecay       float64       `yaml:"lambda_decay"`
	CouplingStrength  float64       `yaml:"coupling_strength"`
	GrowthThreshold   float64       `yaml:"growth_threshold"`
	PhaseVelocity     float64       `yaml:"phase_velocity"`
	InteractionMatrix [4][4]float64 `yaml:"interaction_matrix"`
}

// Default returns the configuration used when no YAML overlay is present,
// matching the spec.md §6 defaults and the original system's living
// equation coefficients.
func Default() Config {
	return Config{
		StateDir: "./state",
		WatchDir: "./logs",
		LogLevel: "info",
		Scales: ScalesConfig{
			Immediate: ScaleConfig{HalfLifeSeconds: 3600, SoftCapacity: 200, TopKMigration: 40},
			ShortTerm: ScaleConfig{HalfLifeSeconds: 3 * 24 * 3600, SoftCapacity: 500, TopKMigration: 80},
			LongTerm:  ScaleConfig{HalfLifeSeconds: 60 * 24 * 3600, SoftCapacity: 1000, TopKMigration: 150},
			Lifetime:  ScaleConfig{HalfLifeSeconds: 0, SoftCapacity: 0, TopKMigration: 0},
		},
		Scoring: ScoringConfig{
			WeightAffect: 0.35, WeightLandmark: 0.25, WeightRecency: 0.15,
			WeightAccess: 0.1, WeightKeyword: 0.1, WeightRelation: 0.05,
		},
		Landmarks: LandmarksConfig{
			IntensityThreshold: 0.8,
			AccomplishmentMarkers: []string{
				"finished", "shipped", "completed", "fixed", "solved", "launched",
			},
			RegretMarkers: []string{
				"i regret", "shouldn't have", "wish i hadn't", "my mistake", "i messed up",
			},
			MilestonePhrases: []string{
				"first time", "anniversary", "milestone",
			},
		},
		Checkpoint: CheckpointConfig{
			MessageInterval:     50,
			TimeIntervalSeconds: 1800,
			EmotionThreshold:    0.85,
			MaxRetained:         20,
			Targets:             []string{"checkpoints"},
		},
		Analyzer: AnalyzerConfig{
			Backend:     AnalyzerRules,
			Model:       "gpt-5.1",
			TimeoutSecs: 10,
			WorkerPool:  2,
		},
		Projector: ProjectorConfig{
			IdentityName:              "Continuum",
			IdentityDetail:            "persistent memory companion",
			ConversationSeedCount:     5,
			RecentAccomplishmentCount: 5,
		},
		LivingEquation: LivingEquationConfig{
			LambdaDecay:      0.1,
			CouplingStrength: 0.8,
			GrowthThreshold:  0.3,
			PhaseVelocity:    0.5,
			InteractionMatrix: [4][4]float64{
				{1.0, 0.5, 0.3, 0.7},
				{0.5, 1.0, 0.4, 0.3},
				{0.2, 0.4, 1.0, 0.5},
				{0.6, 0.3, 0.5, 1.0},
			},
		},
	}
}

// Load resolves configuration the way cmd/continuum's run subcommand does:
// start from Default(), overlay an optional YAML file, then overlay
// environment variables (env wins, matching spec.md §6's CLI/env surface).
func Load(configPath string) (Config, error) {
	cfg := Default()

	path := configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env config: %w", err)
	}
	return cfg, nil
}
