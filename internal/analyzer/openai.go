package analyzer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	openai "github.com/sashabaranov/go-openai"

	"bankstmt/statement-core/internal/models"
)

const openaiSystemPrompt = "You return only a strict JSON object with no markdown and no extra text."

// openaiProposer talks to the OpenAI chat completions API with JSON response
// format enforced.
type openaiProposer struct {
	cfg ProposerConfig
}

func newOpenAIProposer(cfg ProposerConfig) *openaiProposer {
	return &openaiProposer{cfg: cfg}
}

func (o *openaiProposer) Provider() string { return ProviderOpenAI }
func (o *openaiProposer) Model() string    { return o.cfg.Model }

func (o *openaiProposer) ProposeProfile(ctx context.Context, snippets []Snippet) (*Proposal, error) {
	var proposal Proposal
	if err := o.completeJSON(ctx, buildProfilePrompt(snippets), &proposal); err != nil {
		return nil, err
	}
	return &proposal, nil
}

func (o *openaiProposer) ProposeGuidedProfile(ctx context.Context, snippets []Snippet, rows []models.GuidedRow) (*Proposal, error) {
	var proposal Proposal
	if err := o.completeJSON(ctx, buildGuidedProfilePrompt(snippets, rows), &proposal); err != nil {
		return nil, err
	}
	return &proposal, nil
}

func (o *openaiProposer) ExtractIdentity(ctx context.Context, pageText string) (*IdentityReply, error) {
	var reply IdentityReply
	if err := o.completeJSON(ctx, buildIdentityPrompt(pageText), &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

func (o *openaiProposer) completeJSON(ctx context.Context, prompt string, out interface{}) error {
	if o.cfg.APIKey == "" {
		return &ProposalError{Reason: "missing_api_key"}
	}

	client := openai.NewClient(o.cfg.APIKey)
	req := openai.ChatCompletionRequest{
		Model: o.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: openaiSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature:    0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	var resp openai.ChatCompletionResponse
	operation := func() error {
		callCtx, cancel := context.WithTimeout(ctx, time.Duration(o.cfg.TimeoutSec)*time.Second)
		defer cancel()
		var err error
		resp, err = client.CreateChatCompletion(callCtx, req)
		if err != nil {
			return classifyOpenAIError(err)
		}
		return nil
	}
	if err := backoff.Retry(operation, o.retryPolicy(ctx)); err != nil {
		var pe *ProposalError
		if errors.As(err, &pe) {
			return pe
		}
		return &ProposalError{Reason: "http_error_network", Err: err}
	}

	if len(resp.Choices) == 0 {
		return &ProposalError{Reason: "invalid_llm_output"}
	}
	return decodeJSONObject(resp.Choices[0].Message.Content, out)
}

func (o *openaiProposer) retryPolicy(ctx context.Context) backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Duration(o.cfg.RetryBackoffSec * float64(time.Second))
	retries := o.cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(policy, uint64(retries)), ctx)
}

func classifyOpenAIError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &ProposalError{Reason: "timeout", Err: err}
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		reason := fmt.Sprintf("http_error_%d", apiErr.HTTPStatusCode)
		switch apiErr.HTTPStatusCode {
		case 429, 500, 502, 503, 504:
			return &ProposalError{Reason: reason, Err: err}
		default:
			return backoff.Permanent(&ProposalError{Reason: reason, Err: err})
		}
	}
	return &ProposalError{Reason: "http_error_network", Err: err}
}
