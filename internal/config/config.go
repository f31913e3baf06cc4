package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port      int              `json:"port"`
	LogConfig logger.LogConfig `json:"log_config"`
	Database  DatabaseConfig   `json:"database"`
	AI        AIConfig         `json:"ai"`
	AWS       AWSConfig        `json:"aws"`
	Source    SourceConfig     `json:"source"`
	Ingest    IngestConfig     `json:"ingest"`
	Answer    AnswerConfig     `json:"answer"`
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

type AIConfig struct {
	EmbedProvider string `json:"embed_provider"`
	GenProvider   string `json:"gen_provider"`
	// Providers maps a provider name to its raw config block. Both
	// dispatchers and per-request overrides look their settings up here.
	Providers map[string]map[string]interface{} `json:"providers"`
	Timeout   int                               `json:"timeout"`
}

type AWSConfig struct {
	Region          string `json:"region"`
	SessionDuration int32  `json:"session_duration"`
}

type SourceConfig struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

type IngestConfig struct {
	ChunkSize   int    `json:"chunk_size"`
	Overlap     int    `json:"overlap"`
	RefreshCron string `json:"refresh_cron"`
}

type AnswerConfig struct {
	TopK            int     `json:"top_k"`
	MaxTokens       int     `json:"max_tokens"`
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"top_p"`
	ExpandQuery     bool    `json:"expand_query"`
	CacheTTLMinutes int     `json:"cache_ttl_minutes"`
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
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.AI.EmbedProvider == "" {
		return nil, fmt.Errorf("ai.embed_provider is required")
	}
	if cfg.AI.GenProvider == "" {
		return nil, fmt.Errorf("ai.gen_provider is required")
	}
	if cfg.AI.Timeout == 0 {
		cfg.AI.Timeout = 60
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Source.Type == "" {
		cfg.Source.Type = "local"
	}
	if cfg.Ingest.ChunkSize == 0 {
		cfg.Ingest.ChunkSize = 512
	}
	if cfg.Ingest.Overlap == 0 {
		cfg.Ingest.Overlap = 50
	}
	if cfg.Ingest.Overlap >= cfg.Ingest.ChunkSize {
		return nil, fmt.Errorf("ingest.overlap must be smaller than ingest.chunk_size")
	}
	if cfg.Answer.TopK == 0 {
		cfg.Answer.TopK = 5
	}
	if cfg.Answer.MaxTokens == 0 {
		cfg.Answer.MaxTokens = 200
	}
	if cfg.Answer.Temperature == 0 {
		cfg.Answer.Temperature = 0.7
	}
	if cfg.Answer.CacheTTLMinutes == 0 {
		cfg.Answer.CacheTTLMinutes = 120
	}
	if cfg.AWS.SessionDuration == 0 {
		cfg.AWS.SessionDuration = 3600
	}
	return &cfg, nil
}
