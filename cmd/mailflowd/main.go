package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/mailflow/mailflow/internal/action"
	"github.com/mailflow/mailflow/internal/ai"
	"github.com/mailflow/mailflow/internal/condition"
	"github.com/mailflow/mailflow/internal/engine"
	"github.com/mailflow/mailflow/internal/logging"
	"github.com/mailflow/mailflow/internal/scheduler"
	"github.com/mailflow/mailflow/internal/store"
	"github.com/mailflow/mailflow/internal/trigger"
)

func main() {
	// .env is optional; real env always wins.
	_ = godotenv.Load()
	cfg := loadConfig()

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("mailflowd exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(mailflowDir(), 0o755); err != nil {
		return err
	}

	st, err := store.NewLibSQLStore("file:" + cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return err
	}

	resolver := aiResolver(cfg)
	conditions := condition.NewEvaluator(resolver, logger)

	// Mail provider drivers are wired by the embedding service; without one,
	// mail actions report a per-node failure and notifications still work.
	actions := action.NewExecutor(nil, nil, logger)

	executor := engine.NewExecutor(st, conditions, actions, envMap(), logger)
	triggers := trigger.NewService(st, logger)

	sched := scheduler.NewScheduler(st, triggers, executor, logger)
	if err := sched.Start(ctx); err != nil {
		return err
	}

	logger.Info("mailflowd started", slog.String("db", cfg.DBPath))
	<-ctx.Done()

	return sched.Stop()
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	inner := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return slog.New(logging.NewCorrelationHandler(inner))
}

// aiResolver returns a resolver backed by the configured OpenAI-compatible
// endpoint, or nil when none is configured (classification degrades to the
// "other" route).
func aiResolver(cfg Config) ai.Resolver {
	if cfg.AIBaseURL == "" {
		return nil
	}
	client := ai.NewClient(ai.ClientConfig{
		BaseURL: cfg.AIBaseURL,
		APIKey:  cfg.AIAPIKey,
		Model:   cfg.AIModel,
	})
	return func(context.Context, string) (ai.Completer, error) {
		return client, nil
	}
}

func envMap() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}
