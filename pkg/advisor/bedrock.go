package advisor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// Model invocation parameters for cost optimization analysis.
const (
	maxTokens   = 4096
	temperature = 0.1
	topP        = 0.9
)

// BedrockInvoker calls a Bedrock-hosted Anthropic model.
type BedrockInvoker struct {
	client  *bedrockruntime.Client
	modelID string
}

// NewBedrockInvoker creates an invoker for the given model.
func NewBedrockInvoker(cfg aws.Config, modelID string) *BedrockInvoker {
	return &BedrockInvoker{
		client:  bedrockruntime.NewFromConfig(cfg),
		modelID: modelID,
	}
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	AnthropicVersion string             `json:"anthropic_version"`
	MaxTokens        int                `json:"max_tokens"`
	Temperature      float64            `json:"temperature"`
	TopP             float64            `json:"top_p"`
	Messages         []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

// InvokeText sends the prompt and returns the model's text output.
func (b *BedrockInvoker) InvokeText(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(anthropicRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        maxTokens,
		Temperature:      temperature,
		TopP:             topP,
		Messages:         []anthropicMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	out, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(b.modelID),
		ContentType: aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return "", fmt.Errorf("invoke model %s: %w", b.modelID, err)
	}

	var resp anthropicResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(resp.Content) == 0 {
		return "", fmt.Errorf("empty response from model")
	}
	return resp.Content[0].Text, nil
}
