package main

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	HTTPPort            int             `json:"http_port"`
	LanPort             int             `json:"lan_port"`
	DataDir             string          `json:"data_dir"`
	LeaderboardBackend  string          `json:"leaderboard_backend"`
	AiTimeBudgetMs      int             `json:"ai_time_budget_ms"`
	AiMaxDepth          int             `json:"ai_max_depth"`
	AiMaxCandidatesRoot int             `json:"ai_max_candidates_root"`
	AiMaxCandidatesMid  int             `json:"ai_max_candidates_mid"`
	AiMaxCandidates     int             `json:"ai_max_candidates"`
	AiTtSize            int             `json:"ai_tt_size"`
	AiTtBuckets         int             `json:"ai_tt_buckets"`
	AiLogSearchStats    bool            `json:"ai_log_search_stats"`
	AiReportProgress    bool            `json:"ai_report_progress"`
	EasyBestProbability float64         `json:"easy_best_probability"`
	EasyTopK            int             `json:"easy_top_k"`
	LanCooldownSeconds  int             `json:"lan_cooldown_seconds"`
	ArenaMaxGames       int             `json:"arena_max_games"`
	ArenaWorkers        int             `json:"arena_workers"`
	Heuristics          HeuristicConfig `json:"heuristics"`
}

type HeuristicConfig struct {
	Five    float64 `json:"five"`
	Open4   float64 `json:"open_4"`
	Closed4 float64 `json:"closed_4"`
	Open3   float64 `json:"open_3"`
	Closed3 float64 `json:"closed_3"`
	Open2   float64 `json:"open_2"`
	Closed2 float64 `json:"closed_2"`
	Single  float64 `json:"single"`
}

// Upper bounds for values that size allocations. AiTtSize buckets times
// AiTtBuckets ways is the transposition table length per engine.
const (
	maxTTSize       = 1 << 16
	maxTTBuckets    = 8
	maxArenaGames   = 1000
	maxArenaWorkers = 16
)

type ConfigStore struct {
	mu     sync.RWMutex
	config Config
}

func DefaultConfig() Config {
	return Config{
		HTTPPort:           8080,
		LanPort:            5555,
		DataDir:            "./data",
		LeaderboardBackend: "json",

		AiTimeBudgetMs: 500,
		AiMaxDepth:     3,

		// Root beam is wider than interior nodes.
		AiMaxCandidatesRoot: 18,
		AiMaxCandidatesMid:  10,
		AiMaxCandidates:     18,

		AiTtSize:    1 << 14,
		AiTtBuckets: 4,

		AiLogSearchStats: false,
		AiReportProgress: true,

		EasyBestProbability: 0.7,
		EasyTopK:            6,

		LanCooldownSeconds: 60,
		ArenaMaxGames:      200,
		ArenaWorkers:       4,

		Heuristics: DefaultHeuristics(),
	}
}

func DefaultHeuristics() HeuristicConfig {
	return HeuristicConfig{
		Five:    100_000_000,
		Open4:   1_000_000,
		Closed4: 15_000,
		Open3:   10_000,
		Closed3: 10_000 / 3,
		Open2:   100,
		Closed2: 100 / 4,
		Single:  5,
	}
}

var configStore = &ConfigStore{config: DefaultConfig()}

func GetConfig() Config {
	return configStore.Get()
}

func (c *ConfigStore) Get() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

func (c *ConfigStore) Update(newConfig Config) {
	c.mu.Lock()
	c.config = newConfig.withDefaults()
	c.mu.Unlock()
}

// LoadConfigFromEnv reads an optional .env file and overlays the process
// environment on top of base.
func LoadConfigFromEnv(base Config) Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("component", "backend").Msg("could not read .env")
	}
	cfg := base
	cfg.HTTPPort = getEnvInt("PORT", cfg.HTTPPort)
	cfg.LanPort = getEnvInt("LAN_PORT", cfg.LanPort)
	cfg.DataDir = getEnv("DATA_DIR", cfg.DataDir)
	cfg.LeaderboardBackend = strings.ToLower(getEnv("LEADERBOARD_BACKEND", cfg.LeaderboardBackend))
	cfg.AiTimeBudgetMs = getEnvInt("AI_TIME_BUDGET_MS", cfg.AiTimeBudgetMs)
	cfg.AiMaxDepth = getEnvInt("AI_MAX_DEPTH", cfg.AiMaxDepth)
	cfg.AiLogSearchStats = getEnvBool("AI_LOG_SEARCH_STATS", cfg.AiLogSearchStats)
	cfg.LanCooldownSeconds = getEnvInt("LAN_COOLDOWN_SECONDS", cfg.LanCooldownSeconds)
	return cfg.withDefaults()
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.AiTimeBudgetMs <= 0 {
		c.AiTimeBudgetMs = defaults.AiTimeBudgetMs
	}
	if c.AiMaxDepth <= 0 {
		c.AiMaxDepth = defaults.AiMaxDepth
	}
	if c.AiMaxCandidatesRoot <= 0 {
		c.AiMaxCandidatesRoot = defaults.AiMaxCandidatesRoot
	}
	if c.AiMaxCandidatesMid <= 0 {
		c.AiMaxCandidatesMid = defaults.AiMaxCandidatesMid
	}
	if c.AiMaxCandidates <= 0 {
		c.AiMaxCandidates = defaults.AiMaxCandidates
	}
	if c.AiTtSize <= 0 {
		c.AiTtSize = defaults.AiTtSize
	}
	c.AiTtSize = min(c.AiTtSize, maxTTSize)
	if c.AiTtBuckets <= 0 {
		c.AiTtBuckets = defaults.AiTtBuckets
	}
	c.AiTtBuckets = min(c.AiTtBuckets, maxTTBuckets)
	if c.EasyBestProbability < 0 || c.EasyBestProbability > 1 {
		c.EasyBestProbability = defaults.EasyBestProbability
	}
	if c.LanCooldownSeconds < 0 {
		c.LanCooldownSeconds = defaults.LanCooldownSeconds
	}
	if c.EasyTopK <= 0 {
		c.EasyTopK = defaults.EasyTopK
	}
	if c.ArenaMaxGames <= 0 {
		c.ArenaMaxGames = defaults.ArenaMaxGames
	}
	c.ArenaMaxGames = min(c.ArenaMaxGames, maxArenaGames)
	if c.ArenaWorkers <= 0 {
		c.ArenaWorkers = defaults.ArenaWorkers
	}
	c.ArenaWorkers = min(c.ArenaWorkers, maxArenaWorkers)
	if c.Heuristics == (HeuristicConfig{}) {
		c.Heuristics = defaults.Heuristics
	}
	return c
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Warn().Str("component", "backend").Str("key", key).Str("value", raw).Msg("ignoring non-numeric env value")
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}
