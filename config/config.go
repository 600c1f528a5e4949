package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

const (
	BackendMemory   = "memory"
	BackendChromem  = "chromem"
	BackendPostgres = "postgres"
)

// DefaultPromptTemplate is the persona instruction with the context and
// question holes the query engine fills per request.
const DefaultPromptTemplate = "You are a helpful, motivational sister who answers in a supportive, encouraging tone, mixing simple Urdu and English. Always address the user as 'behn' and keep answers concise, clear, and empathetic.\n\n" +
	"Context:\n{context_str}\n\nQuestion: {query_str}\n\nAnswer:"

type Config struct {
	Server     ServerConfig    `yaml:"server"`
	Corpus     CorpusConfig    `yaml:"corpus"`
	Index      IndexConfig     `yaml:"index"`
	LLM        LLMConfig       `yaml:"llm"`
	Embeddings EmbeddingConfig `yaml:"embeddings"`
	Persona    PersonaConfig   `yaml:"persona"`
	Log        LogConfig       `yaml:"log"`

	// Provider credentials and endpoints. These normally come from the
	// environment rather than the config file.
	OllamaHost      string `yaml:"ollama_host"`
	OpenAIAPIKey    string `yaml:"openai_api_key"`
	OpenAIBaseURL   string `yaml:"openai_base_url"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	GeminiAPIKey    string `yaml:"gemini_api_key"`
	PostgresDSN     string `yaml:"postgres_dsn"`

	ProviderTimeout time.Duration `yaml:"provider_timeout" validate:"gt=0"`
}

type ServerConfig struct {
	Port           int           `yaml:"port" validate:"min=1,max=65535"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type CorpusConfig struct {
	Dir          string `yaml:"dir" validate:"required"`
	ChunkSize    int    `yaml:"chunk_size" validate:"gt=0"`
	ChunkOverlap int    `yaml:"chunk_overlap" validate:"gte=0,ltfield=ChunkSize"`
}

type IndexConfig struct {
	Backend   string `yaml:"backend" validate:"oneof=memory chromem postgres"`
	TopK      int    `yaml:"top_k" validate:"gt=0"`
	BatchSize int    `yaml:"batch_size" validate:"gt=0"`
}

type LLMConfig struct {
	Provider    string  `yaml:"provider" validate:"oneof=openai ollama anthropic gemini"`
	Model       string  `yaml:"model" validate:"required"`
	MaxTokens   int     `yaml:"max_tokens" validate:"gt=0"`
	Temperature float64 `yaml:"temperature" validate:"gte=0,lte=2"`
}

type EmbeddingConfig struct {
	Provider  string `yaml:"provider" validate:"oneof=openai ollama gemini"`
	Model     string `yaml:"model" validate:"required"`
	Dimension int    `yaml:"dimension" validate:"gte=0"`
}

// Gloss pairs an English term with the bilingual annotation appended after it.
type Gloss struct {
	Term  string `yaml:"term"`
	Gloss string `yaml:"gloss"`
}

type PersonaConfig struct {
	PromptTemplate string  `yaml:"prompt_template" validate:"required"`
	Intro          string  `yaml:"intro"`
	Closing        string  `yaml:"closing"`
	Glossary       []Gloss `yaml:"glossary"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=trace debug info warn error"`
	Format string `yaml:"format" validate:"oneof=console json"`
}

// Load reads the YAML file at path over the defaults, applies environment
// overrides and then fills the provider-dependent model names. A missing file
// yields the defaults. Keys present in the file win even when zero, so
// chunk_overlap: 0 or temperature: 0 are honoured.
func Load(path string) (Config, error) {
	cfg := baseConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	applyModelDefaults(&cfg)
	return cfg, nil
}

// Default returns a configuration populated only with defaults.
func Default() Config {
	cfg := baseConfig()
	applyModelDefaults(&cfg)
	return cfg
}

// baseConfig holds every default that does not depend on another setting.
func baseConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:           10000,
			AllowedOrigins: []string{"https://www.herhaq.org", "http://localhost:3000"},
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   2 * time.Minute,
			IdleTimeout:    60 * time.Second,
		},
		Corpus: CorpusConfig{
			Dir:          "data",
			ChunkSize:    1000,
			ChunkOverlap: 200,
		},
		Index: IndexConfig{
			Backend:   BackendMemory,
			TopK:      2,
			BatchSize: 32,
		},
		LLM: LLMConfig{
			Provider:    ProviderOpenAI,
			MaxTokens:   1024,
			Temperature: 0.3,
		},
		Embeddings: EmbeddingConfig{
			Provider: ProviderOpenAI,
		},
		Persona: PersonaConfig{
			PromptTemplate: DefaultPromptTemplate,
			Intro:          "Behn, himmat na haaro! Yeh maloomat aap ke liye hai:",
			Closing:        "Aap apne haqooq jaanti rahiye, hum aap ke saath hain! 💪",
			Glossary:       DefaultGlossary(),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		OllamaHost:      "http://localhost:11434",
		ProviderTimeout: 60 * time.Second,
	}
}

// applyModelDefaults picks a model for the chosen provider when none is set.
func applyModelDefaults(cfg *Config) {
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = defaultLLMModel(cfg.LLM.Provider)
	}
	if cfg.Embeddings.Model == "" {
		cfg.Embeddings.Model = defaultEmbeddingModel(cfg.Embeddings.Provider)
	}
}

// DefaultGlossary is the ordered term list used by the tone processor.
// Order matters: replacements are applied one after another.
func DefaultGlossary() []Gloss {
	return []Gloss{
		{Term: "rights", Gloss: "haqooq"},
		{Term: "women", Gloss: "khawateen"},
		{Term: "support", Gloss: "madad"},
		{Term: "harassment", Gloss: "tang karna"},
		{Term: "help", Gloss: "madad"},
	}
}

func defaultLLMModel(provider string) string {
	switch provider {
	case ProviderOllama:
		return "llama3.1:8b"
	case ProviderAnthropic:
		return "claude-3-5-haiku-latest"
	case ProviderGemini:
		return "gemini-2.0-flash"
	default:
		return "gpt-4o-mini"
	}
}

func defaultEmbeddingModel(provider string) string {
	switch provider {
	case ProviderOllama:
		return "nomic-embed-text"
	case ProviderGemini:
		return "text-embedding-004"
	default:
		return "text-embedding-3-small"
	}
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Corpus.Dir, "HERHAQ_DATA_DIR")
	setString(&cfg.LLM.Provider, "LLM_PROVIDER")
	setString(&cfg.LLM.Model, "LLM_MODEL")
	setString(&cfg.Embeddings.Provider, "EMBEDDINGS_PROVIDER")
	setString(&cfg.Embeddings.Model, "EMBEDDINGS_MODEL")
	setString(&cfg.OllamaHost, "OLLAMA_HOST")
	setString(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	setString(&cfg.OpenAIBaseURL, "OPENAI_BASE_URL")
	setString(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	setString(&cfg.GeminiAPIKey, "GEMINI_API_KEY")
	setString(&cfg.PostgresDSN, "POSTGRES_DSN")
	setString(&cfg.Index.Backend, "INDEX_BACKEND")
	setString(&cfg.Log.Level, "LOG_LEVEL")

	if err := setInt(&cfg.Server.Port, "PORT"); err != nil {
		return err
	}
	if err := setInt(&cfg.Embeddings.Dimension, "EMBEDDINGS_DIMENSION"); err != nil {
		return err
	}
	return setInt(&cfg.Index.TopK, "INDEX_TOP_K")
}

func setString(dst *string, key string) {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		*dst = strings.TrimSpace(value)
	}
}

func setInt(dst *int, key string) error {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*dst = n
	return nil
}
