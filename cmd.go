package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	contractx "github.com/tanpawarit/Chative-Voice-Agents/agent/contract"
	"github.com/tanpawarit/Chative-Voice-Agents/agent/tool"
	configx "github.com/tanpawarit/Chative-Voice-Agents/pkg/config"
)

const hangup = "/hangup"

func newRunCmd() *cobra.Command {
	var (
		agentFlag   string
		sessionID   string
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Take one call on the console; each input line is a caller turn",
		RunE: func(cmd *cobra.Command, args []string) error {
			agent, err := contractx.ParseAgentType(agentFlag)
			if err != nil {
				return err
			}
			appCfg, err := configx.New[AppConfig]("AGENT")
			if err != nil {
				return err
			}
			if metricsAddr != "" {
				appCfg.MetricsAddr = metricsAddr
			}
			if strings.TrimSpace(sessionID) == "" {
				sessionID = uuid.NewString()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, agent, *appCfg)
			if err != nil {
				return err
			}
			defer a.usage.LogSummary()

			if appCfg.MetricsAddr != "" {
				srv := &http.Server{Addr: appCfg.MetricsAddr, Handler: metricsMux(a), ReadHeaderTimeout: 5 * time.Second}
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						log.Error().Err(err).Str("addr", appCfg.MetricsAddr).Msg("metrics server")
					}
				}()
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
					defer cancel()
					_ = srv.Shutdown(shutdownCtx)
				}()
			}

			return a.converse(ctx, cmd, sessionID)
		},
	}

	cmd.Flags().StringVar(&agentFlag, "agent", "", "agent to run: education, fraud or grocery")
	cmd.Flags().StringVar(&sessionID, "session", "", "call id (default random)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	_ = cmd.MarkFlagRequired("agent")
	return cmd
}

func metricsMux(a *app) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.usage.Handler())
	return mux
}

// converse reads caller turns until the agent ends the call, the caller hangs
// up or input runs out.
func (a *app) converse(ctx context.Context, cmd *cobra.Command, sessionID string) error {
	out := cmd.OutOrStdout()
	log.Info().Str("session_id", sessionID).Str("agent", string(a.agent)).Msg("call started")
	fmt.Fprintf(out, "[%s agent, call %s] type %s to end the call\n", a.agent, sessionID, hangup)

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "caller> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == hangup {
			break
		}

		reply, err := a.orchestrator.HandleMessage(ctx, sessionID, line)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Error().Err(err).Str("session_id", sessionID).Msg("handle turn")
			fmt.Fprintln(out, "agent> Sorry, I had trouble with that. Could you say it again?")
			continue
		}
		fmt.Fprintf(out, "agent> %s\n", reply.Text)
		if reply.EndCall {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		log.Error().Err(err).Msg("read caller input")
	}

	return a.orchestrator.EndCall(context.WithoutCancel(ctx), sessionID)
}

func newToolsCmd() *cobra.Command {
	var agentFlag string

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tools an agent can call",
		RunE: func(cmd *cobra.Command, args []string) error {
			agent, err := contractx.ParseAgentType(agentFlag)
			if err != nil {
				return err
			}
			for _, info := range tool.InfosForAgent(agent) {
				fmt.Fprintf(cmd.OutOrStdout(), "%-28s %s\n", info.Name, info.Desc)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&agentFlag, "agent", "", "agent: education, fraud or grocery")
	_ = cmd.MarkFlagRequired("agent")
	return cmd
}
