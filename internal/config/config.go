package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Provider names accepted by LLM_PROVIDER.
const (
	ProviderArk    = "ark"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Storage backends accepted by STORAGE_BACKEND.
const (
	StorageFile   = "file"
	StorageMemory = "memory"
)

// Config aggregates the service configuration.
type Config struct {
	Server  ServerConfig
	AI      AIConfig
	Storage StorageConfig
	Chat    ChatConfig
	Log     LogConfig
	Metrics MetricsConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	storage, err := loadStorageConfig()
	if err != nil {
		return nil, err
	}

	chat, err := loadChatConfig()
	if err != nil {
		return nil, err
	}

	logCfg, err := loadLogConfig()
	if err != nil {
		return nil, err
	}

	metricsEnabled, err := parseBoolEnv("METRICS_ENABLED", true)
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:  server,
		AI:      ai,
		Storage: storage,
		Chat:    chat,
		Log:     logCfg,
		Metrics: MetricsConfig{Enabled: metricsEnabled},
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// ":8080" and "127.0.0.1:8080" are passed through as-is.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig describes the text generation provider.
type AIConfig struct {
	Provider string

	// Ark
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int

	OpenAI OpenAIConfig
	Gemini GeminiConfig
}

// OpenAIConfig holds OpenAI-compatible endpoint settings.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// GeminiConfig holds Gemini API settings.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// Enabled reports whether the selected provider has the credentials it needs.
func (c AIConfig) Enabled() bool {
	switch c.Provider {
	case ProviderOpenAI:
		return c.OpenAI.APIKey != "" && c.OpenAI.Model != ""
	case ProviderGemini:
		return c.Gemini.APIKey != "" && c.Gemini.Model != ""
	default:
		return c.arkEnabled()
	}
}

func (c AIConfig) arkEnabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel creates an Ark chat model from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.arkEnabled() {
		return nil, fmt.Errorf("ark credentials or model missing: set ARK_API_KEY + Model or ARK_ACCESS_KEY/ARK_SECRET_KEY")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	provider := strings.ToLower(getEnvOrDefault("LLM_PROVIDER", ProviderArk))
	switch provider {
	case ProviderArk, ProviderOpenAI, ProviderGemini:
	default:
		return AIConfig{}, fmt.Errorf("invalid LLM_PROVIDER value %q", provider)
	}

	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		Provider:    provider,
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("Model")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
		OpenAI: OpenAIConfig{
			APIKey:  strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
			Model:   getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
			BaseURL: strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
		},
		Gemini: GeminiConfig{
			APIKey: strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
			Model:  getEnvOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),
		},
	}, nil
}

// StorageConfig selects where sessions are persisted.
type StorageConfig struct {
	Backend string
	Dir     string
}

func loadStorageConfig() (StorageConfig, error) {
	backend := strings.ToLower(getEnvOrDefault("STORAGE_BACKEND", StorageFile))
	if backend != StorageFile && backend != StorageMemory {
		return StorageConfig{}, fmt.Errorf("invalid STORAGE_BACKEND value %q", backend)
	}

	return StorageConfig{
		Backend: backend,
		Dir:     getEnvOrDefault("STORAGE_DIR", "data/conversation_history"),
	}, nil
}

// ChatConfig tunes the conversation pipeline.
type ChatConfig struct {
	// HistoryLimit is the number of prior turns handed to the reply composer. Always even so
	// the window starts on a user turn.
	HistoryLimit   int
	DefaultPersona string
}

func loadChatConfig() (ChatConfig, error) {
	limit := 20
	if override, err := parseOptionalIntEnv("CHAT_HISTORY_LIMIT"); err != nil {
		return ChatConfig{}, err
	} else if override != nil {
		limit = *override
	}
	if limit < 2 {
		limit = 2
	}
	if limit%2 != 0 {
		limit++
	}

	return ChatConfig{
		HistoryLimit:   limit,
		DefaultPersona: getEnvOrDefault("DEFAULT_PERSONA", "companion"),
	}, nil
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string
	Pretty bool
}

func loadLogConfig() (LogConfig, error) {
	pretty, err := parseBoolEnv("LOG_PRETTY", false)
	if err != nil {
		return LogConfig{}, err
	}
	return LogConfig{
		Level:  getEnvOrDefault("LOG_LEVEL", "info"),
		Pretty: pretty,
	}, nil
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
