package analyzer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"bankstmt/statement-core/internal/models"
)

// geminiProposer talks to the Gemini API in strict-JSON mode.
type geminiProposer struct {
	cfg ProposerConfig
}

func newGeminiProposer(cfg ProposerConfig) *geminiProposer {
	return &geminiProposer{cfg: cfg}
}

func (g *geminiProposer) Provider() string { return ProviderGemini }
func (g *geminiProposer) Model() string    { return g.cfg.Model }

func (g *geminiProposer) ProposeProfile(ctx context.Context, snippets []Snippet) (*Proposal, error) {
	var proposal Proposal
	if err := g.generateJSON(ctx, buildProfilePrompt(snippets), &proposal); err != nil {
		return nil, err
	}
	return &proposal, nil
}

func (g *geminiProposer) ProposeGuidedProfile(ctx context.Context, snippets []Snippet, rows []models.GuidedRow) (*Proposal, error) {
	var proposal Proposal
	if err := g.generateJSON(ctx, buildGuidedProfilePrompt(snippets, rows), &proposal); err != nil {
		return nil, err
	}
	return &proposal, nil
}

func (g *geminiProposer) ExtractIdentity(ctx context.Context, pageText string) (*IdentityReply, error) {
	var reply IdentityReply
	if err := g.generateJSON(ctx, buildIdentityPrompt(pageText), &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

func (g *geminiProposer) generateJSON(ctx context.Context, prompt string, out interface{}) error {
	if g.cfg.APIKey == "" {
		return &ProposalError{Reason: "missing_api_key"}
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(g.cfg.APIKey))
	if err != nil {
		return &ProposalError{Reason: "http_error_network", Err: err}
	}
	defer client.Close()

	model := client.GenerativeModel(g.cfg.Model)
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(0)

	var resp *genai.GenerateContentResponse
	operation := func() error {
		callCtx, cancel := context.WithTimeout(ctx, time.Duration(g.cfg.TimeoutSec)*time.Second)
		defer cancel()
		resp, err = model.GenerateContent(callCtx, genai.Text(prompt))
		if err != nil {
			return classifyGeminiError(err)
		}
		return nil
	}
	if err := backoff.Retry(operation, g.retryPolicy(ctx)); err != nil {
		var pe *ProposalError
		if errors.As(err, &pe) {
			return pe
		}
		return &ProposalError{Reason: "http_error_network", Err: err}
	}

	content := joinGeminiText(resp)
	if content == "" {
		return &ProposalError{Reason: "invalid_llm_output"}
	}
	return decodeJSONObject(content, out)
}

func (g *geminiProposer) retryPolicy(ctx context.Context) backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Duration(g.cfg.RetryBackoffSec * float64(time.Second))
	retries := g.cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(policy, uint64(retries)), ctx)
}

// classifyGeminiError maps transport failures to stable reason codes and
// marks non-retryable statuses permanent so the backoff loop stops early.
func classifyGeminiError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &ProposalError{Reason: "timeout", Err: err}
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		reason := fmt.Sprintf("http_error_%d", apiErr.Code)
		switch apiErr.Code {
		case 429, 500, 502, 503, 504:
			return &ProposalError{Reason: reason, Err: err}
		default:
			return backoff.Permanent(&ProposalError{Reason: reason, Err: err})
		}
	}
	return &ProposalError{Reason: "http_error_network", Err: err}
}

func joinGeminiText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var out string
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				if out != "" {
					out += "\n"
				}
				out += string(text)
			}
		}
	}
	return out
}
