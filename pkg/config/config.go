package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Broker struct {
		APIKey         string        `yaml:"api_key"`
		WebSocketURL   string        `yaml:"websocket_url"`
		CandleURL      string        `yaml:"candle_url"`
		CandleTimeout  time.Duration `yaml:"candle_timeout"`
		CandleRPS      float64       `yaml:"candle_rps"`
		CandleBurst    int           `yaml:"candle_burst"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"broker"`
	Pipeline struct {
		MaxRPS     int `yaml:"max_rps"`
		BufferSize int `yaml:"buffer_size"`
	} `yaml:"pipeline"`
	Scanner struct {
		Interval        time.Duration `yaml:"interval"`
		ReducedInterval time.Duration `yaml:"reduced_interval"`
		CandleCount     int           `yaml:"candle_count"`
		BenchmarkToken  string        `yaml:"benchmark_token"`
		SessionOpen     string        `yaml:"session_open"`
		ExplosionKeep   int           `yaml:"explosion_keep"`
		HistorySize     int           `yaml:"history_size"`
		OptionSuffixes  []string      `yaml:"option_suffixes"`
	} `yaml:"scanner"`
	Detect struct {
		EarlyWindow     time.Duration `yaml:"early_window"`
		EarlyMovePct    float64       `yaml:"early_move_pct"`
		AccelBars       int           `yaml:"accel_bars"`
		AccelRatio      float64       `yaml:"accel_ratio"`
		VolumeRatio     float64       `yaml:"volume_ratio"`
		RecentVolRatio  float64       `yaml:"recent_vol_ratio"`
		RunnerMinBars   int           `yaml:"runner_min_bars"`
		RunnerMinMove   float64       `yaml:"runner_min_move_pct"`
		OIChangePct     float64       `yaml:"oi_change_pct"`
		OptionRangeMult float64       `yaml:"option_range_ratio"`
		MinTurnover     float64       `yaml:"min_turnover"`
	} `yaml:"detect"`
	Signals struct {
		LookbackBars     int     `yaml:"lookback_bars"`
		VolumeRatio      float64 `yaml:"volume_ratio"`
		RSILongMin       float64 `yaml:"rsi_long_min"`
		RSILongMax       float64 `yaml:"rsi_long_max"`
		RSIShortMin      float64 `yaml:"rsi_short_min"`
		RSIShortMax      float64 `yaml:"rsi_short_max"`
		ATRPctCeiling    float64 `yaml:"atr_pct_ceiling"`
		SwingBars        int     `yaml:"swing_bars"`
		StopATRMult      float64 `yaml:"stop_atr_mult"`
		MinRiskReward    float64 `yaml:"min_risk_reward"`
		StrongVolumeRatio float64 `yaml:"strong_volume_ratio"`
		StrongMinRR      float64 `yaml:"strong_min_rr"`
	} `yaml:"signals"`
	Guards struct {
		Safety struct {
			RSIExtremeHigh float64       `yaml:"rsi_extreme_high"`
			RSIExtremeLow  float64       `yaml:"rsi_extreme_low"`
			MinVolRatio    float64       `yaml:"min_vol_ratio"`
			MaxATRPct      float64       `yaml:"max_atr_pct"`
			MinRiskReward  float64       `yaml:"min_risk_reward"`
			MinTurnover    float64       `yaml:"min_turnover"`
			SessionOpen    string        `yaml:"session_open"`
			SessionClose   string        `yaml:"session_close"`
			EntryCutoff    time.Duration `yaml:"entry_cutoff"`
		} `yaml:"safety"`
		Adaptive struct {
			TriggerRate   float64 `yaml:"trigger_rate"`
			QuietCycles   int     `yaml:"quiet_cycles"`
			RevertRate    float64 `yaml:"revert_rate"`
			VolumeTighten float64 `yaml:"volume_tighten"`
			RSITighten    float64 `yaml:"rsi_tighten"`
			ATRTighten    float64 `yaml:"atr_tighten"`
		} `yaml:"adaptive"`
		Cooldown struct {
			MinInterval time.Duration `yaml:"min_interval"`
			HistorySize int           `yaml:"history_size"`
		} `yaml:"cooldown"`
		Execution struct {
			BaselineSize    int     `yaml:"baseline_size"`
			SpreadMult      float64 `yaml:"spread_mult"`
			DepthCollapse   float64 `yaml:"depth_collapse"`
			RangeSpikeMult  float64 `yaml:"range_spike_mult"`
			MinObservations int     `yaml:"min_observations"`
		} `yaml:"execution"`
		Master struct {
			MinConfidence float64 `yaml:"min_confidence"`
			StrongFloor   float64 `yaml:"strong_floor"`
		} `yaml:"master"`
	} `yaml:"guards"`
	Scheduler struct {
		Capacity        int      `yaml:"capacity"`
		Core            []string `yaml:"core"`
		ActiveSize      int      `yaml:"active_size"`
		Mode            string   `yaml:"mode"`
		Depth           int      `yaml:"depth"`
		ReducedFraction float64  `yaml:"reduced_fraction"`
		RecomputeEvery  time.Duration `yaml:"recompute_every"`
	} `yaml:"scheduler"`
	Rankings struct {
		Size            int     `yaml:"size"`
		MinAbsChangePct float64 `yaml:"min_abs_change_pct"`
		MinRangePct     float64 `yaml:"min_range_pct"`
	} `yaml:"rankings"`
	Market struct {
		RecencyWindow time.Duration `yaml:"recency_window"`
		Benchmark     string        `yaml:"benchmark"`
	} `yaml:"market"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		SignalsTopic string   `yaml:"signals_topic"`
		TicksTopic   string   `yaml:"ticks_topic"`
		LogsTopic    string   `yaml:"logs_topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Consumer     struct {
			Enabled    bool          `yaml:"enabled"`
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("BROKER_API_KEY"); v != "" {
		c.Broker.APIKey = v
	}
	if v := os.Getenv("BROKER_WS_URL"); v != "" {
		c.Broker.WebSocketURL = v
	}
	if v := os.Getenv("BROKER_CANDLE_URL"); v != "" {
		c.Broker.CandleURL = v
	}
	if v := os.Getenv("CORE_TOKENS"); v != "" {
		c.Scheduler.Core = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Broker.APIKey == "" {
		return fmt.Errorf("broker.api_key is required")
	}
	if c.Broker.WebSocketURL == "" {
		return fmt.Errorf("broker.websocket_url is required")
	}
	if c.Broker.CandleURL == "" {
		return fmt.Errorf("broker.candle_url is required")
	}
	if c.Scheduler.Capacity <= 0 {
		return fmt.Errorf("scheduler.capacity must be positive")
	}
	if len(c.Scheduler.Core) == 0 {
		return fmt.Errorf("scheduler.core cannot be empty")
	}
	switch c.Scheduler.Mode {
	case "", "ltp", "quote", "full":
	default:
		return fmt.Errorf("scheduler.mode must be 'ltp', 'quote' or 'full', got '%s'", c.Scheduler.Mode)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}
	return nil
}
