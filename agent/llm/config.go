package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Chative-Voice-Agents/agent/contract"
	openrouterx "github.com/tanpawarit/Chative-Voice-Agents/pkg/openrouter"
)

type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"600"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.4"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`
	Preflight          bool          `envconfig:"PREFLIGHT" split_words:"true" default:"false"`
	Reasoning          bool          `envconfig:"REASONING" split_words:"true" default:"false"`

	EducationModel       string  `envconfig:"EDUCATION_MODEL" split_words:"true"`
	FraudModel           string  `envconfig:"FRAUD_MODEL" split_words:"true"`
	GroceryModel         string  `envconfig:"GROCERY_MODEL" split_words:"true"`
	EducationTemperature float32 `envconfig:"EDUCATION_TEMPERATURE" split_words:"true" default:"-1"`
	FraudTemperature     float32 `envconfig:"FRAUD_TEMPERATURE" split_words:"true" default:"-1"`
	GroceryTemperature   float32 `envconfig:"GROCERY_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: openrouter api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	return nil
}

// OpenRouterFor resolves the model and temperature for one agent. Per-agent
// overrides win; a negative temperature override means unset.
func (c Config) OpenRouterFor(agentType contractx.AgentType) openrouterx.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	var overrideModel string
	overrideTemp := float32(-1)
	switch agentType {
	case contractx.AgentTypeEducation:
		overrideModel, overrideTemp = c.EducationModel, c.EducationTemperature
	case contractx.AgentTypeFraud:
		overrideModel, overrideTemp = c.FraudModel, c.FraudTemperature
	case contractx.AgentTypeGrocery:
		overrideModel, overrideTemp = c.GroceryModel, c.GroceryTemperature
	}
	if v := strings.TrimSpace(overrideModel); v != "" {
		modelName = v
	}
	if overrideTemp >= 0 {
		temp = overrideTemp
	}

	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
		Reasoning:          c.Reasoning,
	}
}
