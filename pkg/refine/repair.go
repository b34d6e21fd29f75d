package refine

import (
	"context"
	"fmt"
	"strings"

	"github.com/entrhq/replay/pkg/executor"
	"github.com/entrhq/replay/pkg/llm"
	"github.com/entrhq/replay/pkg/llm/tokenizer"
)

// Repairer produces a corrected candidate from a rejected execution.
type Repairer interface {
	Repair(ctx context.Context, code string, result *executor.Result) (string, error)
}

// repairSystemPrompt frames the model as a fixer for sandboxed automation
// functions and restates the contract candidates must satisfy.
const repairSystemPrompt = `You repair Go browser automation functions that run in a restricted interpreter.

The function contract:
- The code is a main package with a single entry point: func Run(params map[string]any) (any, error)
- Browser access goes through the "replay/harness" import: harness.GetInstance(harness.Options{Recording: true, SessionName: "..."}) returns an instance whose Page supports Navigate, Fill, Click, Count, Text, Attribute, and Content
- Only these imports are allowed: errors, fmt, math, regexp, sort, strconv, strings, time, unicode, unicode/utf8, encoding/json, encoding/base64, and replay/harness
- Call harness.FinalizeRecording(sessionName) before returning

Respond with the complete corrected function in a single Go code block. Do not explain the fix.`

// defaultMaxPromptTokens bounds the repair prompt when a tokenizer is
// available.
const defaultMaxPromptTokens = 6000

// LLMRepairer asks an LLM provider for corrected candidates.
type LLMRepairer struct {
	provider        llm.Provider
	tokenizer       *tokenizer.Tokenizer
	maxPromptTokens int
}

// NewLLMRepairer creates a repairer on the given provider. Token counting
// is best-effort; when the tokenizer cannot initialize, prompts go out
// unbudgeted.
func NewLLMRepairer(provider llm.Provider) *LLMRepairer {
	tok, err := tokenizer.New()
	if err != nil {
		tok = nil
	}
	return &LLMRepairer{
		provider:        provider,
		tokenizer:       tok,
		maxPromptTokens: defaultMaxPromptTokens,
	}
}

// Repair sends the failing candidate and its execution outcome to the
// provider and extracts the corrected code from the response.
func (r *LLMRepairer) Repair(ctx context.Context, code string, result *executor.Result) (string, error) {
	messages := []*llm.Message{
		llm.NewSystemMessage(repairSystemPrompt),
		llm.NewUserMessage(r.buildPrompt(code, result)),
	}

	reply, err := r.provider.Complete(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("repair completion failed: %w", err)
	}

	repaired := ExtractCode(reply.Content)
	if repaired == "" {
		return "", fmt.Errorf("repair response contained no code")
	}
	return repaired, nil
}

// buildPrompt renders the failing code and outcome. When the full prompt
// busts the token budget, the recording detail is dropped first; the code
// and failure always survive.
func (r *LLMRepairer) buildPrompt(code string, result *executor.Result) string {
	var b strings.Builder
	b.WriteString("This function did not produce an acceptable result:\n\n")
	b.WriteString("```go\n")
	b.WriteString(strings.TrimSpace(code))
	b.WriteString("\n```\n\n")
	b.WriteString(describeFailure(result))

	prompt := b.String()
	detail := describeRecording(result)
	if detail == "" {
		return prompt
	}

	full := prompt + "\n" + detail
	if r.tokenizer != nil && r.tokenizer.CountTokens(full) > r.maxPromptTokens {
		return prompt
	}
	return full
}

func describeFailure(result *executor.Result) string {
	if result == nil {
		return "The execution produced no result."
	}
	if result.Err == nil {
		return fmt.Sprintf("The execution succeeded but its return value was rejected: %v", result.Value)
	}

	switch result.Err.Kind {
	case executor.ErrorKindTimeout:
		return fmt.Sprintf("The execution timed out after %s. Remove waits that can hang and keep the flow minimal.", result.Duration)
	case executor.ErrorKindLoad:
		return fmt.Sprintf("The code failed to load: %v", result.Err.Err)
	default:
		return fmt.Sprintf("The execution failed: %v", result.Err.Err)
	}
}

func describeRecording(result *executor.Result) string {
	if result == nil || result.Recording == nil {
		return ""
	}
	info := result.Recording
	return fmt.Sprintf("The run recorded %d browser operations in session %q before ending.", info.OperationCount, info.SessionName)
}

// ExtractCode pulls Go source out of an LLM response. Fenced go blocks
// win, then any fenced block, then the raw text.
func ExtractCode(response string) string {
	for _, fence := range []string{"```go", "```"} {
		start := strings.Index(response, fence)
		if start < 0 {
			continue
		}
		rest := response[start+len(fence):]
		if newline := strings.IndexByte(rest, '\n'); newline >= 0 {
			rest = rest[newline+1:]
		}
		end := strings.Index(rest, "```")
		if end < 0 {
			continue
		}
		if code := strings.TrimSpace(rest[:end]); code != "" {
			return code
		}
	}
	return strings.TrimSpace(response)
}
