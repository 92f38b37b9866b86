package model

import "time"

// Config is the complete claimflow configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	LLM       LLMConfig       `yaml:"llm" mapstructure:"llm"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Knowledge KnowledgeConfig `yaml:"knowledge" mapstructure:"knowledge"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Scoring   ScoringConfig   `yaml:"scoring" mapstructure:"scoring"`
	HTTP      HTTPConfig      `yaml:"http" mapstructure:"http"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Logging   LoggingConfig   `yaml:"logging" mapstructure:"logging"`
}

// ServerConfig configures the HTTP boundary and the submission service
type ServerConfig struct {
	Addr            string        `yaml:"addr" mapstructure:"addr"`
	MaxInFlight     int           `yaml:"max_in_flight" mapstructure:"max_in_flight"` // 0 = unbounded
	RunLogTTL       time.Duration `yaml:"run_log_ttl" mapstructure:"run_log_ttl"`
	RunTimeout      time.Duration `yaml:"run_timeout" mapstructure:"run_timeout"` // 0 = no deadline per run
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// LLMConfig configures the decision oracle
type LLMConfig struct {
	Provider          string  `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama, gemini
	Model             string  `yaml:"model" mapstructure:"model"`
	APIKey            string  `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL           string  `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout           int     `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens         int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature       float64 `yaml:"temperature" mapstructure:"temperature"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// StoreConfig configures the result store
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// KnowledgeConfig configures the knowledge source
type KnowledgeConfig struct {
	Dir         string        `yaml:"dir" mapstructure:"dir"`
	URLs        []string      `yaml:"urls,omitempty" mapstructure:"urls"`
	ChunkWords  int           `yaml:"chunk_words" mapstructure:"chunk_words"`
	TopK        int           `yaml:"top_k" mapstructure:"top_k"`
	CacheTTL    time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
	Concurrency int           `yaml:"concurrency" mapstructure:"concurrency"`

	// Fetched URL bodies are kept in memory and, when FetchCacheDir is set, on disk
	FetchCacheDir string        `yaml:"fetch_cache_dir,omitempty" mapstructure:"fetch_cache_dir"`
	FetchCacheTTL time.Duration `yaml:"fetch_cache_ttl" mapstructure:"fetch_cache_ttl"`
	FetchRate     float64       `yaml:"fetch_rate" mapstructure:"fetch_rate"` // Requests per second per host
}

// PipelineConfig configures stage readiness and the dynamic planner
type PipelineConfig struct {
	Mode                      Mode    `yaml:"mode" mapstructure:"mode"`
	MinExtractionCompleteness float64 `yaml:"min_extraction_completeness" mapstructure:"min_extraction_completeness"`
	MinEnrichmentConfidence   float64 `yaml:"min_enrichment_confidence" mapstructure:"min_enrichment_confidence"`
	PlannerMaxSteps           int     `yaml:"planner_max_steps" mapstructure:"planner_max_steps"`
}

// ScoringConfig holds every deterministic threshold
type ScoringConfig struct {
	Levels  LevelThresholds `yaml:"levels" mapstructure:"levels"`
	Risk    RiskConfig      `yaml:"risk" mapstructure:"risk"`
	Rules   RulesConfig     `yaml:"rules" mapstructure:"rules"`
	Quality QualityConfig   `yaml:"quality" mapstructure:"quality"`
}

// Tier assigns Score to values strictly above Above
type Tier struct {
	Above float64 `yaml:"above" mapstructure:"above"`
	Score int     `yaml:"score" mapstructure:"score"`
}

// KeywordScore assigns Score when a claim type contains any keyword
type KeywordScore struct {
	Keywords []string `yaml:"keywords" mapstructure:"keywords"`
	Score    int      `yaml:"score" mapstructure:"score"`
}

// RiskConfig configures the risk calculator factors
type RiskConfig struct {
	AmountTiers         []Tier         `yaml:"amount_tiers" mapstructure:"amount_tiers"` // Highest first
	AmountBase          int            `yaml:"amount_base" mapstructure:"amount_base"`
	AgeTiers            []Tier         `yaml:"age_tiers" mapstructure:"age_tiers"` // Days, highest first
	AgeBase             int            `yaml:"age_base" mapstructure:"age_base"`
	RequiredFields      []string       `yaml:"required_fields" mapstructure:"required_fields"`
	MissingFieldPenalty int            `yaml:"missing_field_penalty" mapstructure:"missing_field_penalty"`
	MissingFieldCap     int            `yaml:"missing_field_cap" mapstructure:"missing_field_cap"`
	ContactPenalty      int            `yaml:"contact_penalty" mapstructure:"contact_penalty"`
	TypeScores          []KeywordScore `yaml:"type_scores" mapstructure:"type_scores"` // First match wins
	TypeDefault         int            `yaml:"type_default" mapstructure:"type_default"`
}

// RulesConfig configures the basic fraud rule set
type RulesConfig struct {
	UnusualAmount      float64  `yaml:"unusual_amount" mapstructure:"unusual_amount"`
	CriticalFields     []string `yaml:"critical_fields" mapstructure:"critical_fields"`
	MaxMissingCritical int      `yaml:"max_missing_critical" mapstructure:"max_missing_critical"`
	MaxClaimAgeDays    int      `yaml:"max_claim_age_days" mapstructure:"max_claim_age_days"`
	HighSeverityAt     int      `yaml:"high_severity_at" mapstructure:"high_severity_at"` // Failed rule count
}

// QualityConfig configures the quality checker
type QualityConfig struct {
	Minimum            float64  `yaml:"minimum" mapstructure:"minimum"`
	RequiredFields     []string `yaml:"required_fields" mapstructure:"required_fields"`
	CompletenessWeight float64  `yaml:"completeness_weight" mapstructure:"completeness_weight"`
	ConsistencyWeight  float64  `yaml:"consistency_weight" mapstructure:"consistency_weight"`
	IntegrityWeight    float64  `yaml:"integrity_weight" mapstructure:"integrity_weight"`
	MinDescription     int      `yaml:"min_description" mapstructure:"min_description"`
}

// HTTPConfig configures outbound HTTP used for remote knowledge documents
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// BatchConfig configures the batch command
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// LoggingConfig configures zap
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json, console
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":3001",
			MaxInFlight:     0,
			RunLogTTL:       time.Hour,
			ShutdownTimeout: 30 * time.Second,
		},
		LLM: LLMConfig{
			Provider:          "ollama",
			Model:             "qwen3:0.6b",
			Timeout:           120,
			MaxTokens:         1024,
			Temperature:       0.1,
			RequestsPerSecond: 2,
			Burst:             4,
		},
		Store: StoreConfig{
			Path: "output/claim_results.json",
		},
		Knowledge: KnowledgeConfig{
			Dir:         "knowledge",
			ChunkWords:  500,
			TopK:        3,
			CacheTTL:    10 * time.Minute,
			Concurrency: 4,

			FetchCacheTTL: 24 * time.Hour,
			FetchRate:     1,
		},
		Pipeline: PipelineConfig{
			Mode:                      ModeFixed,
			MinExtractionCompleteness: 70,
			MinEnrichmentConfidence:   0.6,
			PlannerMaxSteps:           5,
		},
		Scoring: DefaultScoringConfig(),
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "claimflow/0.1",
			MaxBodyBytes: 2_000_000,
		},
		Batch: BatchConfig{
			Concurrency: 4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// DefaultScoringConfig returns the default deterministic thresholds
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Levels: DefaultLevelThresholds(),
		Risk: RiskConfig{
			AmountTiers: []Tier{
				{Above: 100000, Score: 85},
				{Above: 50000, Score: 65},
				{Above: 10000, Score: 45},
				{Above: 1000, Score: 25},
			},
			AmountBase: 10,
			AgeTiers: []Tier{
				{Above: 365, Score: 70},
				{Above: 180, Score: 50},
				{Above: 30, Score: 30},
			},
			AgeBase:             15,
			RequiredFields:      []string{"claimantName", "claimType", "incidentDate", "description", "amount"},
			MissingFieldPenalty: 15,
			MissingFieldCap:     75,
			ContactPenalty:      20,
			TypeScores: []KeywordScore{
				{Keywords: []string{"fraud", "suspicious"}, Score: 90},
				{Keywords: []string{"property", "auto"}, Score: 35},
				{Keywords: []string{"health", "medical"}, Score: 20},
			},
			TypeDefault: 30,
		},
		Rules: RulesConfig{
			UnusualAmount:      100000,
			CriticalFields:     []string{"claimantName", "incidentDate", "description"},
			MaxMissingCritical: 2,
			MaxClaimAgeDays:    365,
			HighSeverityAt:     3,
		},
		Quality: QualityConfig{
			Minimum:            70,
			RequiredFields:     []string{"claimantName", "claimType", "incidentDate", "description"},
			CompletenessWeight: 0.4,
			ConsistencyWeight:  0.3,
			IntegrityWeight:    0.3,
			MinDescription:     10,
		},
	}
}
