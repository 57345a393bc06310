package somm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vinobytes/somm-backend/internal/domain"
)

const synthesisSystemPrompt = "You are a sommelier AI that returns ONLY valid JSON, no prose."

// synthesisRequest is the JSON-chat request body for the profile call.
type synthesisRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	MaxTokens      int           `json:"max_tokens"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

// TastingProfile synthesizes the classic reference profile for a scanned
// wine. The prompt embeds the wine's facts and the category's full
// aroma/flavour vocabularies, instructing the model to pick exactly four of
// each from those lists only. The descriptor-pool union fallback for unknown
// categories guarantees a non-empty vocabulary.
//
// Post-decode, HasTannin is overwritten with decoded OR category structural
// tannin: the model is never trusted to suppress tannin for a structurally
// tannic style. The merged value is what gates the tasting UI downstream.
func (c *Client) TastingProfile(ctx context.Context, wine *domain.WineData) (*domain.AITastingProfile, error) {
	tr := otel.Tracer("somm/Client")
	ctx, span := tr.Start(ctx, "TastingProfile",
		trace.WithAttributes(attribute.String("wine.category", string(wine.Category))),
	)
	defer span.End()

	ctx, cancel := withTimeout(ctx, c.cfg.SynthesisTimeout)
	defer cancel()

	pool := wine.Category.Descriptors()

	reqBody := synthesisRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: synthesisSystemPrompt},
			{Role: "user", Content: synthesisUserPrompt(wine, pool)},
		},
		Temperature: c.cfg.SynthesisTemperature,
		MaxTokens:   c.cfg.MaxTokens,
	}
	reqBody.ResponseFormat.Type = "json_object"

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+c.cfg.ChatPath, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	content, err := c.do(req, opSynthesize)
	if err != nil {
		return nil, err
	}

	var profile domain.AITastingProfile
	if err := decodeContent(content, &profile, opSynthesize); err != nil {
		return nil, err
	}

	// Merge rule: the style itself can imply tannin even when the model
	// under-reports it.
	profile.HasTannin = profile.HasTannin || wine.Category.TanninExists()

	return &profile, nil
}

// synthesisUserPrompt renders the single user turn with the wine facts and
// the comma-joined descriptor vocabularies.
func synthesisUserPrompt(wine *domain.WineData, pool domain.DescriptorPool) string {
	producer, region, vintage := "Unknown", "Unknown", "NV"
	grapes := "N/A"
	if wine.Producer != nil {
		producer = *wine.Producer
	}
	if wine.Region != nil {
		region = *wine.Region
	}
	if wine.Vintage != nil {
		vintage = *wine.Vintage
	}
	if len(wine.Grapes) > 0 {
		grapes = strings.Join(wine.Grapes, ", ")
	}

	return fmt.Sprintf(`Provide a concise CLASSIC tasting profile JSON for this wine:

Producer: %s
Region:   %s
Grapes:   %s
Vintage:  %s

Choose exactly four aromas and exactly four flavours from the lists below.
Pick the appropriate boolean for hasTannin. Use true if there's noticeable grip, otherwise use false.

AllowedAromas:  %s
AllowedFlavors: %s

Respond with exactly:
{
  "acidity":"Low|Medium-|Medium|Medium+|High",
  "alcohol":"Low|Medium-|Medium|Medium+|High",
  "body":"Light|Medium-|Medium|Medium+|Full",
  "tannin":"Low|Medium-|Medium|Medium+|High",
  "sweetness":"Bone-Dry|Dry|Off-Dry|Sweet|Very Sweet",
  "aromas":[/* 4 from AllowedAromas */],
  "flavors":[/* 4 from AllowedFlavors */],
  "tips":["One short palate-training tip"],
  "hasTannin":<true|false>
}`,
		producer, region, grapes, vintage,
		strings.Join(pool.Aromas, ", "),
		strings.Join(pool.Flavours, ", "))
}
