package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port            int                  `json:"port"`
	LogConfig       logger.LogConfig     `json:"log_config"`
	Database        DatabaseConfig       `json:"database"`
	FileStore       FileStoreConfig      `json:"file_store"`
	Models          ModelsConfig         `json:"models"`
	Datasets        DatasetsConfig       `json:"datasets"`
	AI              AIConfig             `json:"ai"`
	EmbeddingCache  EmbeddingCacheConfig `json:"embedding_cache"`
	Schedule        ScheduleConfig       `json:"schedule"`
	CORS            []string             `json:"cors"`
	ChatRateLimitMs int                  `json:"chat_rate_limit_ms"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// ModelsConfig holds the file store keys of trained artifacts.
type ModelsConfig struct {
	RiskModelKey      string `json:"risk_model_key"`
	PremiumModelKey   string `json:"premium_model_key"`
	IndexVectorsKey   string `json:"index_vectors_key"`
	IndexResponsesKey string `json:"index_responses_key"`
}

// DatasetsConfig holds the file store keys of training and reference CSVs.
type DatasetsConfig struct {
	Vehicles      string `json:"vehicles"`
	AreaCrimes    string `json:"area_crimes"`
	Conversations string `json:"conversations"`
}

type AIConfig struct {
	Provider  string             `json:"provider"`
	Model     string             `json:"model"`
	Dimension int                `json:"dimension"`
	Timeout   int                `json:"timeout"`
	Data      interface{}        `json:"data"`
	Fallbacks []AIProviderConfig `json:"fallbacks"`
}

// AIProviderConfig describes a fallback embedder. It must produce vectors of
// the same dimension as the primary one.
type AIProviderConfig struct {
	Provider string      `json:"provider"`
	Model    string      `json:"model"`
	Data     interface{} `json:"data"`
}

type EmbeddingCacheConfig struct {
	LRUSize    int  `json:"lru_size"`
	TTLSeconds int  `json:"ttl_seconds"`
	DB         bool `json:"db"`
	MaxAgeDays int  `json:"max_age_days"`
}

// ScheduleConfig holds cron specs; an empty spec disables the job.
type ScheduleConfig struct {
	RiskTrain           string `json:"risk_train"`
	PremiumTrain        string `json:"premium_train"`
	IndexBuild          string `json:"index_build"`
	EmbeddingCacheClean string `json:"embedding_cache_clean"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() error {
	if cfg.Port == 0 {
		cfg.Port = 8000
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
	}
	if cfg.FileStore.Data == nil {
		return fmt.Errorf("file_store.data is required")
	}
	if cfg.Models.RiskModelKey == "" {
		cfg.Models.RiskModelKey = "models/risk_model.json"
	}
	if cfg.Models.PremiumModelKey == "" {
		cfg.Models.PremiumModelKey = "models/premium_model.json"
	}
	if cfg.Models.IndexVectorsKey == "" {
		cfg.Models.IndexVectorsKey = "models/chatbot_model/chatbot_index.vec"
	}
	if cfg.Models.IndexResponsesKey == "" {
		cfg.Models.IndexResponsesKey = "models/chatbot_model/chatbot_responses.json"
	}
	if cfg.Datasets.Vehicles == "" {
		cfg.Datasets.Vehicles = "raw/onchain_vehicles_blockdag.csv"
	}
	if cfg.Datasets.AreaCrimes == "" {
		cfg.Datasets.AreaCrimes = "raw/london_vehicle_crimes_sample.csv"
	}
	if cfg.Datasets.Conversations == "" {
		cfg.Datasets.Conversations = "raw/chatbot_training_data.csv"
	}
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = "local"
	}
	if cfg.AI.Dimension <= 0 {
		cfg.AI.Dimension = 384
	}
	if cfg.AI.Timeout <= 0 {
		cfg.AI.Timeout = 30
	}
	for i, fb := range cfg.AI.Fallbacks {
		if fb.Provider == "" {
			return fmt.Errorf("ai.fallbacks[%d].provider is required", i)
		}
	}
	if cfg.EmbeddingCache.LRUSize == 0 {
		cfg.EmbeddingCache.LRUSize = 10000
	}
	if cfg.EmbeddingCache.TTLSeconds == 0 {
		cfg.EmbeddingCache.TTLSeconds = 7200
	}
	if cfg.EmbeddingCache.MaxAgeDays == 0 {
		cfg.EmbeddingCache.MaxAgeDays = 30
	}
	if cfg.ChatRateLimitMs < 0 {
		return fmt.Errorf("chat_rate_limit_ms must not be negative")
	}
	return nil
}
