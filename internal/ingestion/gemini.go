package ingestion

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/jonathan/hiretree/internal/types"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

const documentPrompt = `Extract the technical skills from the attached resume.

Return ONLY a JSON object with this shape:
{
  "skills": [
    {
      "name": "Go",
      "years": 4,
      "last_used_year": 2025,
      "recency": "current",
      "ai_confidence": 4
    }
  ],
  "years_experience": 8,
  "current_role": "Backend Engineer",
  "summary": "One sentence about the candidate"
}

Rules:
- "recency" is one of "current", "1-2 years ago" or "3+ years ago"
- "ai_confidence" is an integer from 1 to 5 describing how strongly the resume supports the skill
- "last_used_year" is null when the resume does not say
- One entry per technology, tool or language. No soft skills.`

// generator is the slice of the Gemini API the parser needs.
type generator interface {
	Generate(ctx context.Context, parts ...genai.Part) (string, error)
	Close() error
}

// GeminiDocumentParser sends the uploaded file to Gemini and validates the
// JSON it answers with against the profile schema.
type GeminiDocumentParser struct {
	gen generator
}

// NewGeminiDocumentParser creates a parser backed by the given model.
func NewGeminiDocumentParser(ctx context.Context, apiKey, model string) (*GeminiDocumentParser, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiDocumentParser{gen: &geminiGenerator{client: client, model: model}}, nil
}

// ParseDocument implements DocumentParser.
func (p *GeminiDocumentParser) ParseDocument(ctx context.Context, filename string, content []byte) (types.ParsedProfile, error) {
	if err := ValidateDocumentName(filename); err != nil {
		return types.ParsedProfile{}, err
	}
	mimeType := documentTypes[strings.ToLower(filepath.Ext(filename))]

	text, err := p.gen.Generate(ctx, genai.Blob{MIMEType: mimeType, Data: content}, genai.Text(documentPrompt))
	if err != nil {
		return types.ParsedProfile{}, fmt.Errorf("document parser request failed: %w", err)
	}
	return decodeProfile([]byte(cleanJSONBlock(text)))
}

// Close releases the Gemini client.
func (p *GeminiDocumentParser) Close() error {
	return p.gen.Close()
}

type geminiGenerator struct {
	client *genai.Client
	model  string
}

func (g *geminiGenerator) Generate(ctx context.Context, parts ...genai.Part) (string, error) {
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(0.1)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	return extractText(resp)
}

func (g *geminiGenerator) Close() error {
	return g.client.Close()
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}
	return strings.Join(parts, ""), nil
}

// cleanJSONBlock strips a markdown code fence the model sometimes adds.
func cleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
