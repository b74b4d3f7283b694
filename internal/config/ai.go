package config

import (
	"fmt"
	"os"
)

// AIConfig holds Gemini settings for insight generation.
type AIConfig struct {
	APIKey    string
	BaseURL   string
	TimeoutMS int

	Models AIModels
}

// AIModels picks a model per workload: fast for per-game insights, the
// deeper model for the cross-game couple narrative.
type AIModels struct {
	GameInsights    string
	CoupleNarrative string
}

func LoadAIConfig() AIConfig {
	return AIConfig{
		APIKey:    os.Getenv("GEMINI_API_KEY"),
		BaseURL:   getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		TimeoutMS: getEnvInt("GEMINI_TIMEOUT_MS", 30000),
		Models: AIModels{
			GameInsights:    getEnv("GEMINI_MODEL_GAME", "gemini-2.0-flash"),
			CoupleNarrative: getEnv("GEMINI_MODEL_COUPLE", "gemini-2.0-pro"),
		},
	}
}

func (c AIConfig) IsEnabled() bool {
	return c.APIKey != ""
}

func (c AIConfig) ModelEndpoint(model string) string {
	return fmt.Sprintf("%s/models/%s:generateContent", c.BaseURL, model)
}
