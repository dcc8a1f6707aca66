package usage

import (
	"net/http"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Voice-Agents/agent/contract"
)

const namespace = "voice_agent"

// Collector counts tool invocations, completed turns and ended calls on a
// private registry.
type Collector struct {
	registry *prometheus.Registry

	ToolInvocations *prometheus.CounterVec
	Turns           *prometheus.CounterVec
	CallsEnded      *prometheus.CounterVec
}

var _ contractx.UsageRecorder = (*Collector)(nil)

func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	toolInvocations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_invocations_total",
			Help:      "Tool invocations by agent, tool and outcome kind",
		},
		[]string{"agent", "tool", "outcome"},
	)

	turns := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Completed user turns",
		},
		[]string{"agent"},
	)

	callsEnded := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calls_ended_total",
			Help:      "Calls that reached their end",
		},
		[]string{"agent"},
	)

	registry.MustRegister(toolInvocations, turns, callsEnded)

	return &Collector{
		registry:        registry,
		ToolInvocations: toolInvocations,
		Turns:           turns,
		CallsEnded:      callsEnded,
	}
}

func (c *Collector) ToolInvoked(agent contractx.AgentType, tool string, kind string) {
	c.ToolInvocations.WithLabelValues(string(agent), tool, kind).Inc()
}

func (c *Collector) TurnCompleted(agent contractx.AgentType) {
	c.Turns.WithLabelValues(string(agent)).Inc()
}

func (c *Collector) CallEnded(agent contractx.AgentType) {
	c.CallsEnded.WithLabelValues(string(agent)).Inc()
}

// Handler exposes the collector in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Summary is a flattened view of the counters, all agents combined.
type Summary struct {
	Turns        int            `json:"turns"`
	CallsEnded   int            `json:"calls_ended"`
	ToolCalls    map[string]int `json:"tool_calls"`
	ToolFailures int            `json:"tool_failures"`
}

func (c *Collector) Summary() (Summary, error) {
	families, err := c.registry.Gather()
	if err != nil {
		return Summary{}, err
	}

	s := Summary{ToolCalls: map[string]int{}}
	for _, mf := range families {
		switch mf.GetName() {
		case namespace + "_turns_total":
			s.Turns = sumCounters(mf.GetMetric())
		case namespace + "_calls_ended_total":
			s.CallsEnded = sumCounters(mf.GetMetric())
		case namespace + "_tool_invocations_total":
			for _, m := range mf.GetMetric() {
				n := int(m.GetCounter().GetValue())
				s.ToolCalls[label(m, "tool")] += n
				if label(m, "outcome") != contractx.KindOf(nil) {
					s.ToolFailures += n
				}
			}
		}
	}
	return s, nil
}

// LogSummary writes the usage summary at shutdown.
func (c *Collector) LogSummary() {
	s, err := c.Summary()
	if err != nil {
		log.Error().Err(err).Msg("gather usage metrics")
		return
	}

	tools := make([]string, 0, len(s.ToolCalls))
	for name := range s.ToolCalls {
		tools = append(tools, name)
	}
	sort.Strings(tools)

	dict := zerolog.Dict()
	for _, name := range tools {
		dict = dict.Int(name, s.ToolCalls[name])
	}
	log.Info().
		Int("turns", s.Turns).
		Int("calls_ended", s.CallsEnded).
		Int("tool_failures", s.ToolFailures).
		Dict("tool_calls", dict).
		Msg("usage summary")
}

func sumCounters(metrics []*dto.Metric) int {
	total := 0
	for _, m := range metrics {
		total += int(m.GetCounter().GetValue())
	}
	return total
}

func label(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}
