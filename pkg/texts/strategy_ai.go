package texts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/slidesmith/slidesmith/pkg/analysis"
	"github.com/slidesmith/slidesmith/pkg/httputil"
)

// Sampling parameters for the chat completions. Low temperature keeps
// the copy factual; the token cap bounds per-slide length.
const (
	aiTemperature = 0.4
	aiMaxTokens   = 380
)

// AIStrategy composes text through a chat-completion model under a
// strict JSON contract. Any transport error, malformed JSON, or missing
// key is returned as an error; the Composer then discards the run and
// falls back.
type AIStrategy struct {
	client *openai.Client
	model  string
}

var _ Strategy = (*AIStrategy)(nil)

// NewAIStrategy builds a strategy talking to the given model. An empty
// model selects gpt-4o-mini.
func NewAIStrategy(apiKey, model string) *AIStrategy {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &AIStrategy{client: openai.NewClient(apiKey), model: model}
}

func systemPrompt(style Style) string {
	tone := "neutral and factual"
	switch style {
	case StyleShort:
		tone = "terse, at most two sentences per field"
	case StyleExecutive:
		tone = "confident and action-oriented, ending with a recommendation"
	}
	return "You are a data analyst writing slide copy. Respond with a single JSON object and nothing else, " +
		"no markdown fences. Tone: " + tone + "."
}

// ComposeColumn asks for {"analysis","insights","anomalies"} about one
// column and validates the contract.
func (s *AIStrategy) ComposeColumn(ctx context.Context, col ColumnPayload, style Style) (ColumnText, error) {
	prompt := fmt.Sprintf(
		`Write slide copy for column %q (type %s, %d unique values, %.1f%% missing, issues: %s, sample values: %s). `+
			`Return JSON with exactly the keys "analysis", "insights" and "anomalies" (empty string when nothing to report).`,
		col.Name, col.Type, col.Stats.Unique, col.Stats.MissingPercent,
		orNone(strings.Join(col.Issues, ", ")), orNone(strings.Join(col.Samples, ", ")))

	raw, err := s.complete(ctx, style, prompt)
	if err != nil {
		return ColumnText{}, err
	}
	var text ColumnText
	if err := decodeStrict(raw, &text, "analysis", "insights", "anomalies"); err != nil {
		return ColumnText{}, fmt.Errorf("column %s: %w", col.Name, err)
	}
	return text, nil
}

// ComposeCorrelation asks for {"text"} describing one relation.
func (s *AIStrategy) ComposeCorrelation(ctx context.Context, c analysis.Correlation, style Style) (string, error) {
	prompt := fmt.Sprintf(
		`Columns %q and %q have a Pearson correlation of %.3f. `+
			`Return JSON with exactly the key "text" holding a short interpretation.`,
		c.Columns[0], c.Columns[1], c.Value)
	return s.textUnit(ctx, style, prompt)
}

// ComposeIntro asks for {"text"} opening the deck.
func (s *AIStrategy) ComposeIntro(ctx context.Context, dc DatasetContext, style Style) (string, error) {
	prompt := fmt.Sprintf(
		`Write an introduction for a report titled %q over a dataset of %d rows and %d columns. `+
			`Return JSON with exactly the key "text".`,
		dc.Title, dc.Rows, dc.Cols)
	return s.textUnit(ctx, style, prompt)
}

// ComposeSummary asks for {"text"} closing the deck.
func (s *AIStrategy) ComposeSummary(ctx context.Context, dc DatasetContext, style Style) (string, error) {
	prompt := fmt.Sprintf(
		`Write a closing summary for a dataset of %d rows and %d columns with these quality issues: %s. `+
			`Return JSON with exactly the key "text".`,
		dc.Rows, dc.Cols, orNone(issueList(dc.Issues)))
	return s.textUnit(ctx, style, prompt)
}

func (s *AIStrategy) textUnit(ctx context.Context, style Style, prompt string) (string, error) {
	raw, err := s.complete(ctx, style, prompt)
	if err != nil {
		return "", err
	}
	var out struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return "", fmt.Errorf("malformed completion: %w", err)
	}
	if strings.TrimSpace(out.Text) == "" {
		return "", errors.New(`completion missing required key "text"`)
	}
	return out.Text, nil
}

func (s *AIStrategy) complete(ctx context.Context, style Style, prompt string) (string, error) {
	var resp openai.ChatCompletionResponse
	err := httputil.Retry(ctx, 3, 500*time.Millisecond, func() error {
		var err error
		resp, err = s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       s.model,
			Temperature: aiTemperature,
			MaxTokens:   aiMaxTokens,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(style)},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
		})
		if err != nil && isTransient(err) {
			return &httputil.RetryableError{Err: err}
		}
		return err
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return stripFences(resp.Choices[0].Message.Content), nil
}

// isTransient reports whether a completion error is worth retrying:
// rate limits and server-side failures.
func isTransient(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	return errors.As(err, &reqErr)
}

// decodeStrict unmarshals raw JSON into dst and verifies every required
// key is present. Values may be empty strings: the prompt allows "" when
// there is nothing to report.
func decodeStrict(raw string, dst *ColumnText, required ...string) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return fmt.Errorf("malformed completion: %w", err)
	}
	for _, key := range required {
		if _, ok := fields[key]; !ok {
			return fmt.Errorf("completion missing required key %q", key)
		}
	}
	return json.Unmarshal([]byte(raw), dst)
}

// stripFences tolerates models that wrap JSON in a markdown code block
// despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
