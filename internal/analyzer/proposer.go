// Package analyzer learns parsing profiles for unknown bank layouts. An LLM
// proposes a profile from page-text snippets, the proposal is validated by
// actually parsing sample pages with it, and only then is it appended to the
// profile registry. The package also extracts account identity with an LLM,
// falling back to the registry's pattern heuristics.
package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"bankstmt/statement-core/internal/models"
)

// Supported LLM providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// DefaultModel returns the default model name for a provider.
func DefaultModel(provider string) string {
	if provider == ProviderGemini {
		return "gemini-2.5-flash"
	}
	return "gpt-4o-mini"
}

// Snippet is a truncated page-text sample sent to the LLM.
type Snippet struct {
	Page int    `json:"page"`
	Text string `json:"text"`
}

// Proposal is the profile candidate returned by the LLM, before any
// validation. Field values are untrusted.
type Proposal struct {
	ProfileName           string   `json:"profile_name"`
	DetectionContainsAny  []string `json:"detection_contains_any"`
	DetectionContainsAll  []string `json:"detection_contains_all"`
	DateTokens            []string `json:"date_tokens"`
	DescriptionTokens     []string `json:"description_tokens"`
	DebitTokens           []string `json:"debit_tokens"`
	CreditTokens          []string `json:"credit_tokens"`
	BalanceTokens         []string `json:"balance_tokens"`
	DateOrder             []string `json:"date_order"`
	NoiseTokens           []string `json:"noise_tokens"`
	AccountNamePatterns   []string `json:"account_name_patterns"`
	AccountNumberPatterns []string `json:"account_number_patterns"`
}

// IdentityReply is the LLM answer to an account identity prompt.
type IdentityReply struct {
	AccountName   *string `json:"account_name"`
	AccountNumber *string `json:"account_number"`
}

// ProposalError carries a stable reason code alongside the underlying error.
// Reason codes surface verbatim in learn outcomes, so they form part of the
// package contract.
type ProposalError struct {
	Reason string
	Err    error
}

func (e *ProposalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *ProposalError) Unwrap() error { return e.Err }

// ReasonOf extracts the stable reason code from err, defaulting to
// "invalid_llm_output" for errors that carry none.
func ReasonOf(err error) string {
	if pe, ok := err.(*ProposalError); ok && pe.Reason != "" {
		return pe.Reason
	}
	return "invalid_llm_output"
}

// ProfileProposer is one LLM provider capable of generating profile
// proposals and identity extractions.
type ProfileProposer interface {
	ProposeProfile(ctx context.Context, snippets []Snippet) (*Proposal, error)
	ProposeGuidedProfile(ctx context.Context, snippets []Snippet, rows []models.GuidedRow) (*Proposal, error)
	ExtractIdentity(ctx context.Context, pageText string) (*IdentityReply, error)
	Provider() string
	Model() string
}

// ProposerConfig configures an LLM provider client.
type ProposerConfig struct {
	Provider        string
	Model           string
	APIKey          string
	TimeoutSec      int
	MaxRetries      int
	RetryBackoffSec float64
}

// NewProposer builds the provider named in cfg. An unknown provider yields a
// ProposalError with reason "unsupported_provider".
func NewProposer(cfg ProposerConfig) (ProfileProposer, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel(cfg.Provider)
	}
	switch cfg.Provider {
	case ProviderGemini:
		return newGeminiProposer(cfg), nil
	case ProviderOpenAI:
		return newOpenAIProposer(cfg), nil
	default:
		return nil, &ProposalError{Reason: "unsupported_provider"}
	}
}

const proposalSchemaBlock = "Required keys:\n" +
	"profile_name, detection_contains_any, detection_contains_all, date_tokens, description_tokens, " +
	"debit_tokens, credit_tokens, balance_tokens, date_order, noise_tokens, " +
	"account_name_patterns, account_number_patterns.\n"

func buildProfilePrompt(snippets []Snippet) string {
	encoded, _ := json.Marshal(snippets)
	return "Generate a strict bank statement parsing profile from snippet text.\n" +
		"Return one JSON object only, no markdown, no explanations.\n" +
		proposalSchemaBlock +
		"Rules:\n" +
		"- date_order values must be from [mdy, dmy, ymd].\n" +
		"- all array values must be strings.\n" +
		"- detection_contains_any and detection_contains_all cannot both be empty.\n" +
		"- profile_name should be short and bank-specific.\n" +
		"Example shape:\n" +
		proposalExampleJSON("AUTO_EXAMPLE") +
		"Statement snippets: " + string(encoded) + "\n" +
		"Output JSON now."
}

func buildGuidedProfilePrompt(snippets []Snippet, rows []models.GuidedRow) string {
	encodedRows, _ := json.Marshal(rows)
	encodedSnippets, _ := json.Marshal(snippets)
	return "Generate a strict bank statement parsing profile using guided table OCR samples.\n" +
		"Return one JSON object only, no markdown.\n" +
		proposalSchemaBlock +
		"Rules:\n" +
		"- date_order values must be from [mdy, dmy, ymd].\n" +
		"- all arrays contain strings only.\n" +
		"- detection_contains_any and detection_contains_all cannot both be empty.\n" +
		"- infer headers/tokens from guided OCR rows and snippets.\n" +
		"- do not invent bank/account names as profile names; profile_name must represent a bank layout.\n" +
		"Example shape:\n" +
		proposalExampleJSON("AUTO_EXAMPLE_BANK") +
		"Guided rows: " + string(encodedRows) + "\n" +
		"Statement snippets: " + string(encodedSnippets) + "\n" +
		"Output JSON now."
}

func buildIdentityPrompt(pageText string) string {
	if len(pageText) > 9000 {
		pageText = pageText[:9000]
	}
	return "Extract account identity from this bank statement page text.\n" +
		"Return one JSON object only, no markdown, no explanations.\n" +
		"Required keys: account_name, account_number.\n" +
		"Rules:\n" +
		"- Use null when not confidently found.\n" +
		"- account_name should be the account holder name only.\n" +
		"- account_number should keep masking/dashes if present in source.\n" +
		"Page text: " + pageText + "\n" +
		"Output JSON now."
}

func proposalExampleJSON(name string) string {
	return `{"profile_name":"` + name + `","detection_contains_any":["example bank"],"detection_contains_all":[],` +
		`"date_tokens":["date"],"description_tokens":["description"],"debit_tokens":["debit"],` +
		`"credit_tokens":["credit"],"balance_tokens":["balance"],"date_order":["mdy"],` +
		`"noise_tokens":[],"account_name_patterns":[],"account_number_patterns":[]}` + "\n"
}

// decodeJSONObject unmarshals content into out, tolerating prose around the
// JSON by retrying on the outermost braced span.
func decodeJSONObject(content string, out interface{}) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return &ProposalError{Reason: "invalid_llm_output"}
	}
	if err := json.Unmarshal([]byte(content), out); err == nil {
		return nil
	}
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return &ProposalError{Reason: "invalid_llm_output"}
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), out); err != nil {
		return &ProposalError{Reason: "invalid_llm_output", Err: err}
	}
	return nil
}
