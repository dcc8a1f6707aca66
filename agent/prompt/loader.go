package prompt

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/Chative-Voice-Agents/agent/contract"
)

var (
	//go:embed template/education.txt
	educationRaw string

	//go:embed template/fraud.txt
	fraudRaw string

	//go:embed template/grocery.txt
	groceryRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Education string
	Fraud     string
	Grocery   string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Education: strings.TrimSpace(educationRaw),
		Fraud:     strings.TrimSpace(fraudRaw),
		Grocery:   strings.TrimSpace(groceryRaw),
	}
}

func (p PromptSet) For(agentType contractx.AgentType) (string, error) {
	var raw string
	switch agentType {
	case contractx.AgentTypeEducation:
		raw = p.Education
	case contractx.AgentTypeFraud:
		raw = p.Fraud
	case contractx.AgentTypeGrocery:
		raw = p.Grocery
	}
	if raw == "" {
		return "", fmt.Errorf("%w: agent=%s", contractx.ErrPromptMissing, agentType)
	}
	return raw, nil
}

// Vars are the values substituted into a system prompt.
type Vars struct {
	CompanyName        string
	CompanyDescription string
}

// Render fills the agent's system prompt with vars.
func Render(ctx context.Context, agentType contractx.AgentType, vars Vars) (string, error) {
	raw, err := LoadPromptSet().For(agentType)
	if err != nil {
		return "", err
	}

	template := einoprompt.FromMessages(schema.FString, schema.SystemMessage(raw))
	msgs, err := template.Format(ctx, map[string]any{
		"company_name":        vars.CompanyName,
		"company_description": vars.CompanyDescription,
	})
	if err != nil {
		return "", fmt.Errorf("render prompt for agent=%s: %w", agentType, err)
	}
	if len(msgs) == 0 || strings.TrimSpace(msgs[0].Content) == "" {
		return "", fmt.Errorf("%w: rendered prompt for agent=%s is empty", contractx.ErrPromptMissing, agentType)
	}
	return msgs[0].Content, nil
}
