package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv        string
	LogLevel      string
	Port          string
	DatabaseURL   string
	RedisURL      string
	GeoIPDBPath   string
	StoragePath   string
	DefaultLocale string

	DesignProvider string
	GeminiAPIKey   string
	GeminiModel    string
	OpenAIAPIKey   string
	OpenAIModel    string
	OpenAIBaseURL  string
	OpenAIOrg      string

	BackgroundProvider string
	BackgroundFormat   string
	RunwareAPIKey      string
	RunwareAPIURL      string
	RunwareModel       string

	TemplateSynthesis bool
	SelectionSeed     *uint64
	FontFamily        string
	MaxImages         int

	CollaboratorTimeout  time.Duration
	CollaboratorAttempts int
	CollaboratorBackoff  time.Duration
	CacheTTL             time.Duration

	CORSAllowedOrigins []string
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	RateLimitPerMin    int
}

const (
	DesignProviderGemini = "gemini"
	DesignProviderOpenAI = "openai"
	DesignProviderStatic = "static"

	BackgroundProviderRunware  = "runware"
	BackgroundProviderGradient = "gradient"
)

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:        getEnv("APP_ENV", "development"),
		LogLevel:      os.Getenv("LOG_LEVEL"),
		Port:          getEnv("PORT", "8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		GeoIPDBPath:   os.Getenv("GEOIP_DB_PATH"),
		StoragePath:   getEnv("STORAGE_PATH", "./data/backgrounds"),
		DefaultLocale: getEnv("DEFAULT_LOCALE", "en"),

		DesignProvider: strings.ToLower(getEnv("DESIGN_PROVIDER", DesignProviderGemini)),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIOrg:      os.Getenv("OPENAI_ORG"),

		BackgroundProvider: strings.ToLower(getEnv("BACKGROUND_PROVIDER", BackgroundProviderRunware)),
		BackgroundFormat:   strings.ToLower(getEnv("BACKGROUND_FORMAT", "png")),
		RunwareAPIKey:      os.Getenv("RUNWARE_API_KEY"),
		RunwareAPIURL:      getEnv("RUNWARE_API_URL", "https://api.runware.ai/v1"),
		RunwareModel:       getEnv("RUNWARE_MODEL", "runware:100@1"),

		TemplateSynthesis: getEnvBool("TEMPLATE_SYNTHESIS", false),
		FontFamily:        getEnv("FONT_FAMILY", "Arial"),
		MaxImages:         getEnvInt("MAX_IMAGES", 6),

		CollaboratorTimeout:  time.Second * time.Duration(getEnvInt("COLLABORATOR_TIMEOUT_SECONDS", 60)),
		CollaboratorAttempts: getEnvInt("COLLABORATOR_ATTEMPTS", 3),
		CollaboratorBackoff:  time.Millisecond * time.Duration(getEnvInt("COLLABORATOR_BACKOFF_MS", 500)),
		CacheTTL:             time.Second * time.Duration(getEnvInt("CACHE_TTL_SECONDS", 86400)),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 180)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if v := strings.TrimSpace(os.Getenv("SELECTION_SEED")); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("SELECTION_SEED must be an unsigned integer: %w", err)
		}
		cfg.SelectionSeed = &seed
	}

	switch cfg.DesignProvider {
	case DesignProviderGemini, DesignProviderOpenAI, DesignProviderStatic:
	default:
		return nil, fmt.Errorf("DESIGN_PROVIDER %q is not supported", cfg.DesignProvider)
	}

	switch cfg.BackgroundProvider {
	case BackgroundProviderRunware, BackgroundProviderGradient:
	default:
		return nil, fmt.Errorf("BACKGROUND_PROVIDER %q is not supported", cfg.BackgroundProvider)
	}

	switch cfg.BackgroundFormat {
	case "png", "webp":
	default:
		return nil, fmt.Errorf("BACKGROUND_FORMAT %q is not supported", cfg.BackgroundFormat)
	}

	if cfg.CollaboratorAttempts < 1 {
		return nil, fmt.Errorf("COLLABORATOR_ATTEMPTS must be at least 1")
	}
	if cfg.MaxImages < 1 {
		return nil, fmt.Errorf("MAX_IMAGES must be at least 1")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
