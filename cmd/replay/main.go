// Package main provides the replay CLI. It executes a generated browser
// automation function in the interpreter sandbox, optionally refining it
// through LLM repair rounds until its result is accepted, and writes an
// execution summary plus the recording bundles for inspection.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/entrhq/replay/pkg/browser"
	"github.com/entrhq/replay/pkg/config"
	"github.com/entrhq/replay/pkg/executor"
	"github.com/entrhq/replay/pkg/llm/openai"
	"github.com/entrhq/replay/pkg/recording"
	"github.com/entrhq/replay/pkg/refine"
)

const version = "0.1.0"

// CLIConfig holds command-line configuration
type CLIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	ConfigFile  string
	CodeFile    string
	Params      string
	OutputDir   string
	OutputFile  string
	Refine      bool
	Iterations  int
	Timeout     time.Duration
	Headed      bool
	ShowVersion bool
}

func main() {
	cliConfig := parseFlags()

	if cliConfig.ShowVersion {
		fmt.Printf("replay v%s\n", version)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n\nShutting down gracefully...")
		cancel()
	}()

	if err := run(ctx, cliConfig); err != nil {
		cancel()
		log.Printf("Execution failed: %v", err)
		os.Exit(1)
	}
	cancel()
}

// parseFlags parses command line flags
func parseFlags() *CLIConfig {
	cliConfig := &CLIConfig{}

	flag.StringVar(&cliConfig.APIKey, "api-key", os.Getenv("OPENAI_API_KEY"), "OpenAI API key for repair")
	flag.StringVar(&cliConfig.BaseURL, "base-url", os.Getenv("OPENAI_BASE_URL"), "OpenAI API base URL")
	flag.StringVar(&cliConfig.Model, "model", "", "LLM model for repair")
	flag.StringVar(&cliConfig.ConfigFile, "config", "", "Path to configuration file (YAML)")
	flag.StringVar(&cliConfig.CodeFile, "code", "", "Path to the candidate function file (required)")
	flag.StringVar(&cliConfig.Params, "params", "{}", "Function parameters as JSON, or @file")
	flag.StringVar(&cliConfig.OutputDir, "output-dir", "", "Directory for recording bundles")
	flag.StringVar(&cliConfig.OutputFile, "output", "", "Output file for the execution summary (default stdout)")
	flag.BoolVar(&cliConfig.Refine, "refine", false, "Refine the candidate through LLM repair rounds")
	flag.IntVar(&cliConfig.Iterations, "iterations", 0, "Maximum refinement iterations")
	flag.DurationVar(&cliConfig.Timeout, "timeout", 0, "Per-execution timeout")
	flag.BoolVar(&cliConfig.Headed, "headed", false, "Run the browser with a visible window")
	flag.BoolVar(&cliConfig.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Replay - Sandboxed Browser Automation Runner\n\n")
		fmt.Fprintf(os.Stderr, "Usage: replay [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Execute a candidate once\n")
		fmt.Fprintf(os.Stderr, "  replay -code checkout.go -params '{\"url\": \"https://shop.test\"}'\n\n")
		fmt.Fprintf(os.Stderr, "  # Refine until the result is accepted\n")
		fmt.Fprintf(os.Stderr, "  replay -code checkout.go -refine -config replay.yaml\n\n")
	}

	flag.Parse()
	return cliConfig
}

// summary is the JSON document written after a run.
type summary struct {
	Accepted   bool              `json:"accepted"`
	Iterations int               `json:"iterations"`
	Value      any               `json:"value,omitempty"`
	Error      string            `json:"error,omitempty"`
	Recordings []*recording.Info `json:"recordings,omitempty"`
	Code       string            `json:"code"`
	DurationMS int64             `json:"duration_ms"`
}

// run executes or refines the candidate
func run(ctx context.Context, cliConfig *CLIConfig) error {
	cfg, err := loadConfig(cliConfig)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if cliConfig.CodeFile == "" {
		return fmt.Errorf("a candidate file is required (use -code)")
	}
	codeBytes, err := os.ReadFile(cliConfig.CodeFile)
	if err != nil {
		return fmt.Errorf("failed to read candidate file: %w", err)
	}
	code := string(codeBytes)

	params, err := loadParams(cliConfig.Params)
	if err != nil {
		return fmt.Errorf("failed to parse parameters: %w", err)
	}

	registry := recording.NewRegistry()
	provider := browser.NewProvider(registry)
	defer provider.Shutdown()

	exec := executor.New(provider, registry)

	started := time.Now()
	var result summary
	if cliConfig.Refine {
		result, err = runRefinement(ctx, cfg, cliConfig, exec, code, params)
	} else {
		result, err = runOnce(ctx, cfg, exec, code, params)
	}
	if err != nil {
		return err
	}
	result.DurationMS = time.Since(started).Milliseconds()

	return writeSummary(cliConfig.OutputFile, result)
}

// runOnce executes the candidate a single time.
func runOnce(ctx context.Context, cfg *config.Config, exec *executor.Executor, code string, params map[string]any) (summary, error) {
	res := exec.Run(ctx, code, params, executor.Options{
		SessionName: cfg.Execution.SessionName,
		OutputDir:   cfg.OutputDir,
		Timeout:     cfg.Execution.Timeout,
		Headless:    cfg.Browser.Headless,
	})

	out := summary{
		Accepted:   res.Success,
		Iterations: 1,
		Value:      res.Value,
		Code:       code,
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	if res.Recording != nil {
		out.Recordings = []*recording.Info{res.Recording}
	}
	return out, nil
}

// runRefinement drives the repair loop over the candidate.
func runRefinement(ctx context.Context, cfg *config.Config, cliConfig *CLIConfig, exec *executor.Executor, code string, params map[string]any) (summary, error) {
	repairer, err := buildRepairer(cfg, cliConfig)
	if err != nil {
		return summary{}, err
	}

	loop := refine.New(exec, repairer, refine.Options{
		MaxIterations: cfg.Refinement.MaxIterations,
		OutputDir:     cfg.OutputDir,
		Timeout:       cfg.Execution.Timeout,
		Headless:      cfg.Browser.Headless,
		Accept:        buildAccept(cfg),
	})

	outcome, err := loop.Run(ctx, code, params)
	if err != nil {
		return summary{}, err
	}

	out := summary{
		Accepted:   outcome.Accepted,
		Iterations: len(outcome.Attempts),
		Code:       outcome.Code,
	}
	for _, attempt := range outcome.Attempts {
		if attempt.Result.Recording != nil {
			out.Recordings = append(out.Recordings, attempt.Result.Recording)
		}
	}
	if last := len(outcome.Attempts) - 1; last >= 0 {
		res := outcome.Attempts[last].Result
		out.Value = res.Value
		if res.Err != nil {
			out.Error = res.Err.Error()
		}
	}
	return out, nil
}

// buildRepairer creates the LLM repairer, CLI flags overriding the config
// file.
func buildRepairer(cfg *config.Config, cliConfig *CLIConfig) (refine.Repairer, error) {
	model := cfg.LLM.Model
	if cliConfig.Model != "" {
		model = cliConfig.Model
	}
	baseURL := cfg.LLM.BaseURL
	if cliConfig.BaseURL != "" {
		baseURL = cliConfig.BaseURL
	}
	apiKey := cfg.LLM.APIKey
	if cliConfig.APIKey != "" {
		apiKey = cliConfig.APIKey
	}

	opts := []openai.ProviderOption{openai.WithModel(model)}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}

	provider, err := openai.NewProvider(apiKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM provider: %w", err)
	}
	return refine.NewLLMRepairer(provider), nil
}

// buildAccept assembles the accept predicate from the config.
func buildAccept(cfg *config.Config) refine.Predicate {
	predicates := []refine.Predicate{refine.Succeeded()}
	if cfg.Refinement.AcceptPattern != "" {
		predicates = append(predicates, refine.ValueMatches(cfg.Refinement.AcceptPattern))
	}
	if cfg.Refinement.MinOperations > 0 {
		predicates = append(predicates, refine.MinOperations(cfg.Refinement.MinOperations))
	}
	return refine.All(predicates...)
}

// loadConfig loads the YAML config file and applies CLI overrides
func loadConfig(cliConfig *CLIConfig) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if cliConfig.ConfigFile != "" {
		loaded, err := config.Load(cliConfig.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if cliConfig.OutputDir != "" {
		cfg.OutputDir = cliConfig.OutputDir
	}
	if cliConfig.Timeout > 0 {
		cfg.Execution.Timeout = cliConfig.Timeout
	}
	if cliConfig.Iterations > 0 {
		cfg.Refinement.MaxIterations = cliConfig.Iterations
	}
	if cliConfig.Headed {
		cfg.Browser.Headless = false
	}

	return cfg, nil
}

// loadParams parses the -params value, reading @file references from disk.
func loadParams(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if strings.HasPrefix(raw, "@") {
		data, err := os.ReadFile(raw[1:])
		if err != nil {
			return nil, fmt.Errorf("failed to read params file: %w", err)
		}
		raw = string(data)
	}

	params := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		return nil, err
	}
	return params, nil
}

// writeSummary emits the run summary as JSON.
func writeSummary(path string, result summary) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	data = append(data, '\n')

	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
