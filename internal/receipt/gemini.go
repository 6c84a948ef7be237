package receipt

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// DefaultModelName is the Gemini model used for receipt extraction.
const DefaultModelName = "gemini-2.0-flash"

// prompt instructs the model to answer in the sectioned-text grammar that
// ParseResponse understands.
const prompt = `Extract items, prices, and tax information from this receipt.
Look for:
1. Individual items and their prices
2. Subtotal amount
3. Tax amounts (C-taxable, A-taxable, etc.)
4. Total amount

Format the response as:
ITEMS:
Item1: $Price1
Item2: $Price2
...

TAXES:
C-taxable: $Amount
A-taxable: $Amount
...

TOTALS:
Subtotal: $Amount
Total: $Amount`

// Parser extracts a structured receipt from a raster image.
// The Gemini-backed implementation is the production parser; tests substitute
// a fake so the line parser can be exercised with literal response strings.
type Parser interface {
	Parse(ctx context.Context, image []byte, mimeType string) (*Receipt, error)
}

// Unavailable is a Parser for deployments with no vision model configured.
// Every parse attempt fails; the rest of the application still works.
type Unavailable struct{}

func (Unavailable) Parse(context.Context, []byte, string) (*Receipt, error) {
	return nil, fmt.Errorf("receipt parsing is not configured")
}

// GeminiParser sends receipt images to the Gemini API and parses the
// sectioned-text response.
type GeminiParser struct {
	client *genai.Client
	model  string
}

// NewGeminiParser creates a parser backed by the Gemini API. The API key is
// read from the environment by the genai client when empty.
func NewGeminiParser(ctx context.Context, apiKey, model string) (*GeminiParser, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	if model == "" {
		model = DefaultModelName
	}
	return &GeminiParser{client: client, model: model}, nil
}

// Parse sends the image with the extraction prompt and parses the response.
func (p *GeminiParser) Parse(ctx context.Context, image []byte, mimeType string) (*Receipt, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: prompt},
				{
					InlineData: &genai.Blob{
						MIMEType: mimeType,
						Data:     image,
					},
				},
			},
		},
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, ErrParseIncomplete
	}
	return ParseResponse(text)
}
