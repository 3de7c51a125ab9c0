package parse

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/cardlens/cardlens/internal/errx"
)

const defaultModel = "gpt-4o-mini"

const systemPrompt = `You extract contact fields from business card text produced by OCR.
Respond with a single JSON object using exactly these keys:
name, company, job_title, email, phone, mobile, address, website, notes, confidence.
Use empty strings for fields you cannot find. confidence is a number in [0,1].
Fix obvious OCR artifacts (spacing, broken lines) but never invent data.`

// OpenAI parses card text with the OpenAI chat completions API in
// JSON mode.
type OpenAI struct {
	client openai.Client
	model  string
}

// OpenAIOption configures the parser.
type OpenAIOption func(*OpenAI)

// WithModel overrides the completion model.
func WithModel(model string) OpenAIOption {
	return func(o *OpenAI) {
		if model != "" {
			o.model = model
		}
	}
}

// NewOpenAI creates an OpenAI-backed parser. An empty apiKey falls
// back to the OPENAI_API_KEY environment variable.
func NewOpenAI(apiKey string, opts ...OpenAIOption) *OpenAI {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	o := &OpenAI{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  defaultModel,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ParseCardText implements Parser.
func (o *OpenAI) ParseCardText(ctx context.Context, ocrText string, hints Hints) (ParsedCard, error) {
	if strings.TrimSpace(ocrText) == "" {
		return ParsedCard{}, errx.New(errx.KindValidation, "empty text")
	}

	completion, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(buildPrompt(ocrText, hints)),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
		Temperature: openai.Float(0),
	})
	if err != nil {
		return ParsedCard{}, errx.Wrap(errx.KindProcessing, err, "openai parse")
	}
	if len(completion.Choices) == 0 {
		return ParsedCard{}, errx.New(errx.KindProcessing, "openai returned no choices")
	}

	var p ParsedCard
	if err := json.Unmarshal([]byte(completion.Choices[0].Message.Content), &p); err != nil {
		return ParsedCard{}, errx.Wrap(errx.KindProcessing, err, "decode openai response")
	}
	if p.Confidence < 0 {
		p.Confidence = 0
	}
	if p.Confidence > 1 {
		p.Confidence = 1
	}
	p.Source = "openai/" + o.model
	p.ParsedAt = time.Now()
	return p, nil
}

func buildPrompt(ocrText string, hints Hints) string {
	var b strings.Builder
	if len(hints.Languages) > 0 {
		fmt.Fprintf(&b, "Expected languages: %s.\n", strings.Join(hints.Languages, ", "))
	}
	if hints.Country != "" {
		fmt.Fprintf(&b, "Likely country: %s.\n", hints.Country)
	}
	b.WriteString("Business card text:\n")
	b.WriteString(ocrText)
	return b.String()
}
