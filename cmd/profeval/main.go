package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/cgirard/profeval/internal/exam"
	"github.com/cgirard/profeval/internal/handler"
	appI18n "github.com/cgirard/profeval/internal/i18n"
	"github.com/cgirard/profeval/internal/llm"
	"github.com/cgirard/profeval/internal/model"
	"github.com/cgirard/profeval/internal/store"
)

const defaultModel = "openrouter/anthropic/claude-sonnet-4"

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "profeval",
		Short: "AI assessment platform for instructors",
	}

	serve := serveCmd()
	root.AddCommand(serve, exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `profeval --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the assessment HTTP API",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "profeval.db", "SQLite database path")
	f.String("llm-url", "https://oi-server.onrender.com", "OpenAI-compatible API base URL")
	f.String("llm-key", "", "API key for the model provider")
	f.String("llm-customer", "", "Customer id header for the model provider")
	f.Int("llm-retries", 1, "Max attempts per LLM call (values above 1 retry transport failures only)")
	f.Duration("llm-retry-backoff", 500*time.Millisecond, "Initial backoff between LLM retries")
	f.String("llm-model", defaultModel, "Default model name")
	f.StringP("lang", "l", "fr", "API message language (en, fr)")
	f.String("name", "Plateforme d'Évaluation IA", "Platform instance name")
	f.String("passcode", "", "Instructor passcode (or set PROFEVAL_PASSCODE)")
	f.Bool("secure-cookies", true, "Set Secure flag on session cookies")
	f.StringSlice("allowed-origins", []string{"http://localhost:3000"}, "CORS allowed origins")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export saved QCM banks as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "profeval.db", "SQLite database path")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("PROFEVAL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("profeval")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/profeval")
	v.AddConfigPath("/etc/profeval")
	v.AddConfigPath("/data")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	// Open database.
	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	// Seed the instructor account if no users exist.
	if err := seedInstructor(db, v.GetString("passcode")); err != nil {
		return fmt.Errorf("seed instructor: %w", err)
	}

	// Initialize i18n.
	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	// Record the instance metadata for config and export endpoints.
	if err := db.SetPlatformInfo(store.PlatformInfo{
		Name:         v.GetString("name"),
		DefaultModel: v.GetString("llm-model"),
		Locale:       lang,
	}); err != nil {
		return fmt.Errorf("save platform info: %w", err)
	}

	if err := db.CleanupExpiredSessions(); err != nil {
		slog.Warn("failed to clean up expired sessions", "error", err)
	}

	llmClient := llm.New(
		v.GetString("llm-url"),
		v.GetString("llm-key"),
		v.GetString("llm-customer"),
	).WithRetry(llm.RetryPolicy{
		MaxAttempts: v.GetInt("llm-retries"),
		Backoff:     v.GetDuration("llm-retry-backoff"),
	})

	cfg := model.ServerConfig{
		Addr:           v.GetString("addr"),
		LLMModel:       v.GetString("llm-model"),
		SecureCookies:  v.GetBool("secure-cookies"),
		AllowedOrigins: v.GetStringSlice("allowed-origins"),
	}

	h := handler.New(db, llmClient, exam.NewEngine(), cfg)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	slog.Info("starting server",
		"addr", cfg.Addr,
		"model", cfg.LLMModel,
		"llm_url", v.GetString("llm-url"),
		"lang", lang,
	)
	return http.ListenAndServe(cfg.Addr, r)
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	docs, err := db.ExportAllBanks()
	if err != nil {
		return fmt.Errorf("export banks: %w", err)
	}

	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)

	return nil
}

func seedInstructor(db *store.Store, passcode string) error {
	count, err := db.UserCount()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if passcode == "" {
		return fmt.Errorf("instructor passcode is required: set --passcode flag or PROFEVAL_PASSCODE env var")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash passcode: %w", err)
	}

	_, err = db.CreateUser(model.User{
		Username:     "instructor",
		DisplayName:  "Instructor",
		PasswordHash: string(hash),
		Active:       true,
	})
	if err != nil {
		return fmt.Errorf("create instructor user: %w", err)
	}

	slog.Info("seeded instructor account")
	return nil
}
