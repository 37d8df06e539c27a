package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v6"
)

type ResponderKind string

const (
	ResponderSimulator ResponderKind = "simulator"
	ResponderOpenAI    ResponderKind = "openai"
	ResponderYandex    ResponderKind = "yandex"
	ResponderRemote    ResponderKind = "remote"
)

type Config struct {
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	AdminChatID      int64  `env:"ADMIN_CHAT_ID"`

	// Backend
	BackendBaseURL string        `env:"BACKEND_BASE_URL" envDefault:"http://localhost:8080"`
	HTTPTimeout    time.Duration `env:"HTTP_TIMEOUT" envDefault:"15s"`

	// Demo account answered locally without hitting the backend
	DemoEmail    string `env:"DEMO_EMAIL" envDefault:"teste@teste"`
	DemoPassword string `env:"DEMO_PASSWORD" envDefault:"123"`
	DemoToken    string `env:"DEMO_TOKEN" envDefault:"test-token-123"`

	// Key/value persistence
	KVBackend  string `env:"KV_BACKEND" envDefault:"sqlite"`
	KVPath     string `env:"KV_PATH" envDefault:"data/lumigen.db"`
	SessionKey string `env:"SESSION_KEY" envDefault:"lumigen_user"`

	// Responder
	Responder        ResponderKind `env:"RESPONDER" envDefault:"simulator"`
	OpenAIAPIKey     string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string        `env:"OPENAI_BASE_URL"`
	OpenAIModel      string        `env:"OPENAI_MODEL" envDefault:"gpt-3.5-turbo"`
	YandexOAuthToken string        `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string        `env:"YANDEX_FOLDER_ID"`
	SystemPromptPath string        `env:"SYSTEM_PROMPT_PATH" envDefault:"prompts/system_prompt.txt"`

	// Typewriter
	ThinkingText  string        `env:"THINKING_TEXT" envDefault:"Pensando..."`
	ThinkingDelay time.Duration `env:"THINKING_DELAY" envDefault:"600ms"`
	RevealTick    time.Duration `env:"REVEAL_TICK" envDefault:"20ms"`
	RevealChunk   int           `env:"REVEAL_CHUNK" envDefault:"3"`
	SeedSamples   bool          `env:"SEED_SAMPLE_CONVERSATIONS" envDefault:"false"`

	// Telegram rendering
	EditInterval time.Duration `env:"TELEGRAM_EDIT_INTERVAL" envDefault:"1s"`

	// Storage
	TranscriptPath string `env:"TRANSCRIPT_PATH" envDefault:"logs/transcript.jsonl"`
	ReportSpec     string `env:"REPORT_SPEC" envDefault:"0 21 * * *"`

	// Dev server
	DevServerPort int           `env:"DEVSERVER_PORT" envDefault:"8080"`
	TokenTTL      time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	PurgeSpec     string        `env:"TOKEN_PURGE_SPEC" envDefault:"@every 1h"`
}

func New() *Config {
	cfg, err := Parse()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}

// Parse reads the configuration from the environment without exiting on error.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
