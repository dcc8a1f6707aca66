package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	assistantx "github.com/tanpawarit/Chative-Voice-Agents/agent/agents/assistant"
	"github.com/tanpawarit/Chative-Voice-Agents/agent/agents/orchestrator"
	contractx "github.com/tanpawarit/Chative-Voice-Agents/agent/contract"
	"github.com/tanpawarit/Chative-Voice-Agents/agent/fraud"
	"github.com/tanpawarit/Chative-Voice-Agents/agent/grocery"
	"github.com/tanpawarit/Chative-Voice-Agents/agent/lead"
	llmx "github.com/tanpawarit/Chative-Voice-Agents/agent/llm"
	promptx "github.com/tanpawarit/Chative-Voice-Agents/agent/prompt"
	statex "github.com/tanpawarit/Chative-Voice-Agents/agent/state"
	"github.com/tanpawarit/Chative-Voice-Agents/agent/tool"
	"github.com/tanpawarit/Chative-Voice-Agents/agent/usage"
	configx "github.com/tanpawarit/Chative-Voice-Agents/pkg/config"
	openrouterx "github.com/tanpawarit/Chative-Voice-Agents/pkg/openrouter"
	qstashx "github.com/tanpawarit/Chative-Voice-Agents/pkg/qstash"
)

type AppConfig struct {
	CompanyFile  string `split_words:"true" default:"data/company_faq.json"`
	LeadDir      string `split_words:"true" default:"leads"`
	CasesFile    string `split_words:"true" default:"data/fraud_cases.json"`
	BankName     string `split_words:"true" default:"SecureBank"`
	CatalogFile  string `split_words:"true" default:"data/catalog.json"`
	OrderDir     string `split_words:"true" default:"orders"`
	StoreName    string `split_words:"true" default:"FreshBasket"`
	MaxSteps     int    `split_words:"true" default:"6"`
	HistoryTurns int    `split_words:"true" default:"12"`
	MetricsAddr  string `split_words:"true"`
}

type app struct {
	agent        contractx.AgentType
	orchestrator *orchestrator.Orchestrator
	usage        *usage.Collector
}

func newApp(ctx context.Context, agent contractx.AgentType, appCfg AppConfig) (*app, error) {
	llmCfg, err := configx.New[llmx.Config]("OPENROUTER")
	if err != nil {
		return nil, err
	}
	if llmCfg.Preflight {
		if err := openrouterx.Preflight(ctx, llmCfg.OpenRouterFor(agent)); err != nil {
			return nil, err
		}
	}

	collector := usage.NewCollector()
	deps := tool.Deps{Usage: collector}

	sink, err := newSink()
	if err != nil {
		return nil, err
	}
	deps.Sink = sink

	var vars promptx.Vars
	switch agent {
	case contractx.AgentTypeEducation:
		deps.Company = lead.LoadCompany(appCfg.CompanyFile)
		deps.LeadDir = appCfg.LeadDir
		vars = promptx.Vars{
			CompanyName:        deps.Company.Profile.Name,
			CompanyDescription: deps.Company.Profile.Description,
		}
	case contractx.AgentTypeFraud:
		deps.Cases = fraud.OpenStore(appCfg.CasesFile)
		vars = promptx.Vars{CompanyName: appCfg.BankName}
	case contractx.AgentTypeGrocery:
		deps.Catalog = grocery.LoadCatalog(appCfg.CatalogFile)
		deps.OrderDir = appCfg.OrderDir
		vars = promptx.Vars{CompanyName: appCfg.StoreName}
	}
	if strings.TrimSpace(vars.CompanyName) == "" {
		vars.CompanyName = "our company"
	}
	if err := ensureDir(deps.LeadDir, deps.OrderDir); err != nil {
		return nil, err
	}

	assistant, err := assistantx.New(ctx, *llmCfg, agent, vars, appCfg.MaxSteps)
	if err != nil {
		return nil, err
	}

	orch, err := orchestrator.New(statex.NewMemoryStore(), assistant, tool.Factory(agent, deps), collector, orchestrator.Config{
		Agent:        agent,
		HistoryTurns: appCfg.HistoryTurns,
	})
	if err != nil {
		return nil, err
	}

	return &app{agent: agent, orchestrator: orch, usage: collector}, nil
}

func newSink() (contractx.Sink, error) {
	cfg, err := configx.New[qstashx.Config]("QSTASH")
	if err != nil {
		return nil, err
	}
	if !cfg.Enabled() {
		log.Debug().Msg("qstash delivery disabled")
		return nil, nil
	}
	client, err := qstashx.NewClient(*cfg)
	if err != nil {
		return nil, fmt.Errorf("qstash client: %w", err)
	}
	return client, nil
}

func ensureDir(dirs ...string) error {
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir %s: %w", dir, err)
		}
	}
	return nil
}
