package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mpujadas/gridchat/config"
	"github.com/mpujadas/gridchat/engine"
	"github.com/mpujadas/gridchat/llm"
	"github.com/mpujadas/gridchat/llm/ollama"
	"github.com/mpujadas/gridchat/llm/openai"
	"github.com/mpujadas/gridchat/session"
	"github.com/mpujadas/gridchat/tools"
	"github.com/mpujadas/gridchat/tui"
)

var (
	providerFlag string
	modelFlag    string
	endpointFlag string
	sessionFlag  string
	verbose      bool

	rootCmd = &cobra.Command{
		Use:   "gridchat",
		Short: "Tool-augmented LLM chat for the energy platform",
		Long:  "gridchat is a session-scoped chat engine that lets an LLM consult platform tools while helping users configure device optimization.",
		RunE:  runChat,
	}

	queryCmd = &cobra.Command{
		Use:   "query [message]",
		Short: "Send a one-shot message without entering the chat UI",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runQuery,
	}

	toolsCmd = &cobra.Command{
		Use:   "tools",
		Short: "List the registered tools",
		RunE:  runTools,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&providerFlag, "provider", "", "backend provider (ollama, openai)")
	rootCmd.PersistentFlags().StringVar(&modelFlag, "model", "", "model identifier")
	rootCmd.PersistentFlags().StringVar(&endpointFlag, "endpoint", "", "backend base URL override")
	rootCmd.PersistentFlags().StringVar(&sessionFlag, "session", "local", "session id")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log turn diagnostics to stderr")

	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(toolsCmd)
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: error loading .env file: %v\n", err)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if providerFlag != "" {
		cfg.Provider = strings.ToLower(providerFlag)
	}
	if modelFlag != "" {
		cfg.Model = modelFlag
	}
	if endpointFlag != "" {
		cfg.Endpoint = endpointFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(interactive bool) *slog.Logger {
	if !verbose {
		if interactive {
			// Keep diagnostics out of the drawing area.
			return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)}))
		}
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func newClient(cfg *config.Config) (llm.Client, error) {
	opts := []llm.ClientOption{llm.WithTimeout(cfg.Timeout)}
	if cfg.Endpoint != "" {
		opts = append(opts, llm.WithBaseURL(cfg.Endpoint))
	}
	if cfg.Model != "" {
		opts = append(opts, llm.WithModel(cfg.Model))
	}

	switch cfg.Provider {
	case "ollama":
		return ollama.NewClient(opts...), nil
	case "openai":
		return openai.NewClient(append(opts, llm.WithAPIKey(cfg.APIKey))...)
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

func buildEngine(cfg *config.Config, logger *slog.Logger) (*engine.Engine, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, err
	}

	store := session.NewStore(
		session.WithTTL(cfg.SessionTTL),
		session.WithMaxSessions(cfg.MaxSessions),
	)

	engOpts := []engine.Option{
		engine.WithSessionStore(store),
		engine.WithLogger(logger),
		engine.WithModel(cfg.Model),
	}
	if cfg.SystemPrompt != "" {
		engOpts = append(engOpts, engine.WithSystemPrompt(cfg.SystemPrompt))
	}
	eng := engine.New(client, engOpts...)

	catalog := tools.DefaultCatalog()
	for _, t := range []tools.Tool{catalog.DeviceTypesTool(), catalog.OptimizationConfigsTool()} {
		if err := eng.RegisterTool(t); err != nil {
			return nil, fmt.Errorf("register tool: %w", err)
		}
	}

	return eng, nil
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	eng, err := buildEngine(cfg, newLogger(true))
	if err != nil {
		return err
	}

	model := tui.New(eng, sessionFlag, cfg.Provider, displayModel(cfg))
	_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	eng, err := buildEngine(cfg, newLogger(false))
	if err != nil {
		return err
	}

	reply := eng.HandleTurn(context.Background(), sessionFlag, strings.Join(args, " "))
	fmt.Println(reply)
	return nil
}

func runTools(cmd *cobra.Command, args []string) error {
	catalog := tools.DefaultCatalog()
	for _, t := range []tools.Tool{catalog.DeviceTypesTool(), catalog.OptimizationConfigsTool()} {
		fmt.Printf("%s\n    %s\n", t.Name(), t.Description())
	}
	return nil
}

func displayModel(cfg *config.Config) string {
	if cfg.Model != "" {
		return cfg.Model
	}
	return "(provider default)"
}
