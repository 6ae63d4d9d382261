package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ai_study_planner/config"
	"ai_study_planner/generator"
	"ai_study_planner/logger"
	"ai_study_planner/publisher"
	"ai_study_planner/server"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "studyplan",
		Short:         "AI学习周计划生成器",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newPlanCmd())
	return root
}

func setup() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return cfg, log, nil
}

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web page and JSON API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()
			if addr != "" {
				cfg.HTTPAddr = addr
			}
			return serve(cmd.Context(), cfg, log)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "http listen address (overrides HTTP_ADDR)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	srv, err := server.New(cfg, log)
	if err != nil {
		return err
	}
	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if ip, err := server.LocalIP(); err == nil {
		log.Info("share this address on the local network", "url", server.AccessURL(ip, cfg.HTTPAddr))
	} else {
		log.Warn("could not determine local ip", "error", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting web server", "addr", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down web server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

type planFlags struct {
	topic, goal, level, needs string
	hours                     float64
	provider, model, apiKey   string
	out                       string
}

func newPlanCmd() *cobra.Command {
	var f planFlags
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Generate one study plan and write it as a Markdown file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()
			path, err := runPlan(cmd.Context(), cfg, log, f, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&f.topic, "topic", "", "学习主题")
	cmd.Flags().StringVar(&f.goal, "goal", "", "学习目标")
	cmd.Flags().Float64Var(&f.hours, "hours", 2.0, "每天可用学习时间（小时, 0.5-8）")
	cmd.Flags().StringVar(&f.level, "level", "beginner", "beginner|intermediate|advanced|expert")
	cmd.Flags().StringVar(&f.needs, "needs", "", "特殊需求")
	cmd.Flags().StringVar(&f.provider, "provider", "deepseek", "deepseek|openai")
	cmd.Flags().StringVar(&f.model, "model", "", "model id (provider default when empty)")
	cmd.Flags().StringVar(&f.apiKey, "api-key", "", "api key (falls back to DEEPSEEK_API_KEY / OPENAI_API_KEY)")
	cmd.Flags().StringVar(&f.out, "out", ".", "output directory")
	return cmd
}

func runPlan(ctx context.Context, cfg *config.Config, log *logger.Logger, f planFlags, now time.Time) (string, error) {
	level, err := generator.ParseLevel(f.level)
	if err != nil {
		return "", err
	}
	req := generator.UserRequest{
		Topic:        f.topic,
		Goal:         f.goal,
		DailyHours:   f.hours,
		Level:        level,
		SpecialNeeds: f.needs,
	}
	kind, err := generator.ParseProviderKind(f.provider)
	if err != nil {
		return "", err
	}
	llm, err := generator.NewLLM(cfg.Provider(kind, f.apiKey, f.model))
	if err != nil {
		return "", err
	}
	agent, err := generator.NewAgent(llm, generator.NewLogObserver(log))
	if err != nil {
		return "", err
	}

	if cfg.LLMTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.LLMTimeout)
		defer cancel()
	}
	sess := generator.NewSession("cli", agent)
	reply, err := sess.GeneratePlan(ctx, req)
	if err != nil {
		return "", err
	}
	if reply.Warning != "" {
		log.Warn("plan fallback", "warning", reply.Warning)
	}
	plan, goal := sess.Plan()
	return publisher.WriteExport(f.out, goal, plan, now)
}
