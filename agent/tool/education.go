package tool

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	"github.com/tanpawarit/Chative-Voice-Agents/agent/lead"
)

const (
	ToolSearchFAQ      = "search_faq"
	ToolEndCallSummary = "end_call_summary"
)

type leadTool struct {
	name  string
	field lead.Field
	desc  string
	ack   func(value string) string
}

var leadTools = []leadTool{
	{"save_lead_name", lead.FieldName, "Save the lead's name when they mention it.",
		func(v string) string { return fmt.Sprintf("Thanks, %s. Nice to meet you!", v) }},
	{"save_current_status", lead.FieldCurrentStatus, "Save whether the lead is a student, working professional, or dropper.",
		func(string) string { return "Got it, I have noted your current status." }},
	{"save_target_exam", lead.FieldTargetExam, "Save which exam the lead is targeting, for example GATE CSE, GATE DA or UGC NET.",
		func(v string) string { return fmt.Sprintf("Great, so you are targeting %s.", v) }},
	{"save_target_year", lead.FieldTargetYear, "Save the year of the exam attempt the lead is planning.",
		func(v string) string { return fmt.Sprintf("Okay, targeting %s.", v) }},
	{"save_contact", lead.FieldContact, "Save the lead's email or phone number.",
		func(string) string { return "Perfect, I have saved your contact details." }},
	{"save_background", lead.FieldBackground, "Save the lead's academic background, such as branch and college.",
		func(string) string { return "Thanks, that background info really helps." }},
	{"save_current_preparation", lead.FieldCurrentPreparation, "Save how the lead is preparing today: self-study, coaching, or not started.",
		func(string) string { return "Got it, I have noted your current preparation approach." }},
	{"save_weak_areas", lead.FieldWeakAreas, "Save the subjects the lead finds difficult.",
		func(string) string { return "No worries, we focus a lot on building strong concepts in those areas." }},
	{"save_timeline", lead.FieldTimeline, "Save when the lead wants to start: now, soon, or later.",
		func(string) string { return "Great, I have noted your timeline to get started." }},
}

func educationTools(g *Gateway, l *lead.Lead) []entry {
	entries := []entry{
		{
			info: &schema.ToolInfo{
				Name: ToolSearchFAQ,
				Desc: "Search the company FAQ to answer questions about courses, pricing, free content, test series, or the company itself.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"question": {Type: schema.String, Desc: "The caller's question", Required: true},
				}),
			},
			run: func(_ context.Context, args Args) (string, error) {
				q, err := args.String("question")
				if err != nil {
					return "", err
				}
				return g.deps.Company.SearchFAQ(q), nil
			},
		},
	}

	for _, lt := range leadTools {
		lt := lt
		entries = append(entries, entry{
			info: &schema.ToolInfo{
				Name: lt.name,
				Desc: lt.desc,
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					string(lt.field): {Type: schema.String, Desc: "Value as the caller said it", Required: true},
				}),
			},
			run: func(_ context.Context, args Args) (string, error) {
				raw, err := args.String(string(lt.field))
				if err != nil {
					return "", err
				}
				v, err := l.Set(lt.field, raw)
				if err != nil {
					return "", err
				}
				return lt.ack(v), nil
			},
		})
	}

	entries = append(entries, entry{
		info: &schema.ToolInfo{
			Name: ToolEndCallSummary,
			Desc: "Save the lead summary and close the call. Use when the caller says that's all, thank you, or clearly wants to end the conversation.",
		},
		terminal: true,
		run: func(ctx context.Context, _ Args) (string, error) {
			return endCallSummary(ctx, g, l), nil
		},
	})
	return entries
}

// endCallSummary always produces the closing line, saved or not.
func endCallSummary(ctx context.Context, g *Gateway, l *lead.Lead) string {
	company := g.deps.Company.Profile.Name
	team := company
	if team == "" {
		team = "our"
	}

	out, err := l.Finalize(g.deps.LeadDir, company, g.deps.Now())
	if err != nil {
		log.Error().Err(err).Str("session_id", g.sessionID).Msg("save lead summary")
		return fmt.Sprintf(
			"Thank you so much for your time today. %s. I could not save your details just now, but the %s team will still reach out to you with the best plan for your preparation. All the best for your exam journey!",
			out.Recap, team)
	}

	log.Info().Str("session_id", g.sessionID).Str("path", out.Path).Int("filled", l.Filled()).Msg("lead saved")
	g.deliver(ctx, "lead", out.Summary)
	return fmt.Sprintf(
		"Thank you so much for your time today. %s. I have saved your details, and the %s team will reach out to you with the best plan for your preparation. All the best for your exam journey!",
		out.Recap, team)
}
