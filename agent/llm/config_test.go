package llm

import (
	"errors"
	"testing"

	contractx "github.com/tanpawarit/Chative-Voice-Agents/agent/contract"
)

func TestOpenRouterForOverrides(t *testing.T) {
	t.Parallel()

	cfg := Config{
		APIKey:               " key ",
		Model:                "google/gemini-2.5-flash",
		Temperature:          0.4,
		MaxCompletionToken:   600,
		FraudModel:           "openai/gpt-4.1-mini",
		FraudTemperature:     0,
		EducationTemperature: -1,
	}

	fraudCfg := cfg.OpenRouterFor(contractx.AgentTypeFraud)
	if fraudCfg.Model != "openai/gpt-4.1-mini" || fraudCfg.Temperature != 0 {
		t.Fatalf("unexpected fraud config: model=%s temp=%v", fraudCfg.Model, fraudCfg.Temperature)
	}

	eduCfg := cfg.OpenRouterFor(contractx.AgentTypeEducation)
	if eduCfg.Model != "google/gemini-2.5-flash" || eduCfg.Temperature != 0.4 {
		t.Fatalf("unexpected education config: model=%s temp=%v", eduCfg.Model, eduCfg.Temperature)
	}
	if eduCfg.APIKey != "key" || *eduCfg.MaxCompletionToken != 600 {
		t.Fatalf("unexpected shared fields: %+v", eduCfg)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	if err := (Config{Model: "m"}).Validate(); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation without api key, got %v", err)
	}
	if err := (Config{APIKey: "k", Model: "m"}).Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}
