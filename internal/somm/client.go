// Package somm implements the client for the vino AI proxy: the two network
// operations that turn a photographed wine label into a normalized WineData
// record (extraction) and a WineData into an AITastingProfile (synthesis).
//
// Both operations share the same response discipline: the proxy answers with
// a chat-completions envelope whose message content is itself a JSON string,
// possibly wrapped in ```json fences. The client strips fences, decodes
// leniently into the domain types, and classifies failures into a small
// taxonomy (transport, status, envelope, payload) so callers can surface
// distinct user-facing outcomes. Nothing is retried automatically: a failed
// extraction prompts the user to rescan.
package somm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Failure classes. Handlers map these to stable error codes; see the package
// doc for the taxonomy.
var (
	// ErrUnavailable wraps transport-level failures, including timeouts.
	ErrUnavailable = errors.New("somm: service unreachable")

	// ErrEnvelope indicates the outer chat-response JSON did not match the
	// expected shape (or contained no choices). Nothing partial is salvaged.
	ErrEnvelope = errors.New("somm: invalid response envelope")

	// ErrPayload indicates the inner content string was not decodable into
	// the target domain type.
	ErrPayload = errors.New("somm: undecodable payload")
)

// StatusError reports a non-2xx response from the proxy, kept distinct from
// transport failure so a UI can tell "offline" from "service rejected this".
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("somm: http %d: %s", e.StatusCode, e.Body)
}

// Config carries the client's endpoints and generation parameters. Zero
// values are filled with defaults by New.
type Config struct {
	// BaseURL is the vino proxy root, e.g. "https://vinobytes.example.com".
	BaseURL string
	// ChatPath and ImagePath are the JSON-chat and multipart-image routes.
	ChatPath  string
	ImagePath string
	// APIKey, when set, is sent as a bearer token.
	APIKey string

	// ExtractTimeout bounds the extraction request (default 15s).
	ExtractTimeout time.Duration
	// SynthesisTimeout bounds the synthesis request. The upstream client only
	// bounded extraction; we apply a symmetric default deliberately.
	SynthesisTimeout time.Duration

	// MaxTokens caps completion length for both operations (default 350).
	MaxTokens int
	// SynthesisTemperature allows some lexical variety in profiles while
	// keeping structure stable (default 0.3). Extraction is pinned to 0.
	SynthesisTemperature float64
	// ImageDetail is the vision fidelity hint for extraction (default "low").
	ImageDetail string
	// Model names the chat model used for synthesis (default "gpt-4o").
	Model string
}

func (c Config) withDefaults() Config {
	if c.ChatPath == "" {
		c.ChatPath = "/api/chat"
	}
	if c.ImagePath == "" {
		c.ImagePath = "/api/chat/image"
	}
	if c.ExtractTimeout <= 0 {
		c.ExtractTimeout = 15 * time.Second
	}
	if c.SynthesisTimeout <= 0 {
		c.SynthesisTimeout = 15 * time.Second
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 350
	}
	if c.SynthesisTemperature <= 0 {
		c.SynthesisTemperature = 0.3
	}
	if c.ImageDetail == "" {
		c.ImageDetail = "low"
	}
	if c.Model == "" {
		c.Model = "gpt-4o"
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	return c
}

// Client issues extraction and synthesis calls against the vino proxy. It is
// safe for concurrent use; each scan owns its own request lifecycle.
type Client struct {
	cfg  Config
	http *http.Client
}

// New constructs a Client. The underlying http.Client carries no global
// timeout; per-operation deadlines are applied via context so extraction and
// synthesis can be bounded independently.
func New(cfg Config) *Client {
	return &Client{cfg: cfg.withDefaults(), http: &http.Client{}}
}

// chatMessage is one role/content turn in the request payload.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatEnvelope is the proxy's response: OpenAI chat-completions shape with
// the structured result serialized inside choices[0].message.content.
type chatEnvelope struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *tokenUsage `json:"usage"`
}

// tokenUsage is the proxy's token accounting block. ImageTokens is only
// reported for vision requests.
type tokenUsage struct {
	PromptTokens     int  `json:"prompt_tokens"`
	CompletionTokens int  `json:"completion_tokens"`
	TotalTokens      int  `json:"total_tokens"`
	ImageTokens      *int `json:"image_tokens"`
}

// do posts the prepared request and returns the inner content string.
// Classification: transport → ErrUnavailable, non-2xx → *StatusError,
// bad outer JSON or empty choices → ErrEnvelope.
func (c *Client) do(req *http.Request, op string) (string, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		observeRequest(op, outcomeTransport)
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		observeRequest(op, outcomeStatus)
		return "", &StatusError{StatusCode: resp.StatusCode, Body: resp.Status}
	}

	var env chatEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		observeRequest(op, outcomeEnvelope)
		return "", fmt.Errorf("%w: %v", ErrEnvelope, err)
	}
	if len(env.Choices) == 0 {
		observeRequest(op, outcomeEnvelope)
		return "", fmt.Errorf("%w: no choices", ErrEnvelope)
	}

	if env.Usage != nil {
		logUsage(op, env.Usage)
	}
	return env.Choices[0].Message.Content, nil
}

// decodeContent strips code fences and whitespace, then decodes into dst.
func decodeContent(content string, dst any, op string) error {
	trimmed := cleanJSON(content)
	if err := json.Unmarshal([]byte(trimmed), dst); err != nil {
		observeRequest(op, outcomePayload)
		return fmt.Errorf("%w: %v", ErrPayload, err)
	}
	observeRequest(op, outcomeOK)
	return nil
}

// cleanJSON removes ```json fences, stray backticks, and surrounding
// whitespace from model output.
func cleanJSON(raw string) string {
	raw = strings.ReplaceAll(raw, "```json", "")
	raw = strings.ReplaceAll(raw, "```", "")
	return strings.TrimSpace(raw)
}

// Per-1k-token dollar rates used for the observability cost estimate. These
// track the proxy's upstream model pricing and have no effect on control flow.
const (
	extractPromptRate     = 0.005
	extractCompletionRate = 0.015
	extractImageRate      = 0.005
	chatPromptRate        = 0.0015
	chatCompletionRate    = 0.0020

	// lowDetailImageTokens is the flat vision charge for detail:"low" when
	// the proxy does not report image_tokens itself.
	lowDetailImageTokens = 85
)

// logUsage records token accounting and an estimated dollar cost for the
// operation. Purely observational.
func logUsage(op string, u *tokenUsage) {
	imageTokens := lowDetailImageTokens
	promptRate, completionRate := chatPromptRate, chatCompletionRate
	if op == opExtract {
		promptRate, completionRate = extractPromptRate, extractCompletionRate
		if u.ImageTokens != nil {
			imageTokens = *u.ImageTokens
		}
	} else {
		imageTokens = 0
	}

	cost := float64(u.PromptTokens)/1000*promptRate +
		float64(u.CompletionTokens)/1000*completionRate +
		float64(imageTokens)/1000*extractImageRate

	observeTokens(op, u, imageTokens)

	log.Info().
		Str("op", op).
		Int("prompt_tokens", u.PromptTokens).
		Int("completion_tokens", u.CompletionTokens).
		Int("image_tokens", imageTokens).
		Int("total_tokens", u.TotalTokens).
		Float64("estimated_cost_usd", cost).
		Msg("somm token usage")
}

// Timeout helper shared by both operations.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
