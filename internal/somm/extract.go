package somm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vinobytes/somm-backend/internal/domain"
)

// extractSystemPrompt enumerates the exact JSON schema and field-inference
// hints for label extraction. The proxy relays it verbatim to the vision
// model.
const extractSystemPrompt = `You are a sommelier-AI that extracts structured data from wine label images and supplements missing details using your global wine knowledge.

I will provide you a JPEG image of a wine label. You must return only valid double-quoted JSON — no markdown, prose, or explanations.

Use the label image to identify key facts. If any detail is not visible on the label but you can reliably infer it from your vast wine knowledge (based on producer, region, classification, vineyard, vintage), then you should include it.

Leave a field null or "" only if it cannot be found on the label AND cannot be inferred reliably.

RETURN JSON IN THIS KEY ORDER:
{
        "producer": "",
        "country": "",
        "region": "",
        "subregion": "",
        "appellation": "",
        "classification": null,
        "grapes": [],
        "vintage": "",
        "tastingNotes": "",
        "pairings": ["", "", ""],
        "vibeTag": "",
        "vineyard": null,
        "soilType": null,
        "climate": null,
        "drinkingWindow": null,
        "abv": null,
        "winemakingStyle": null,
        "category": ""
      }

FIELD HINTS

• "country": e.g., France, Italy, USA — always required.
• "region": major wine area, e.g., Burgundy, Piedmont, California.
• "subregion": optional — a zone within the region, e.g., Côte de Beaune, Langhe, Sonoma.
• "appellation": village or official zone, e.g., Savigny-lès-Beaune, Barolo, Russian River Valley.
• "classification": e.g., DOC, DOCG, AOC, AVA — if shown or inferable from location.
• "grapes": all visible or inferable varieties as an array of strings.
• "vintage": four-digit year if shown or known.
• "tastingNotes": should always be filled out, inferred from grapes + location if needed.
• "pairings": 3 specific food pairings (not broad cuisines) e.g., Grilled chicken with lemon butter sauce.
• "vibeTag": 10 - 15 words, emotional tone (e.g., Graceful, earthy, and quietly seductive — a true expression of Burgundian finesse.).
• "vineyard": only if specific site is known (e.g., "La Tâche" or "To-Kalon").
• "soilType": e.g., clay-limestone, volcanic — use known terroirs.
• "climate": e.g., Mediterranean, continental, maritime.
• "drinkingWindow": e.g., "2022–2035" if wine is ageworthy.
• "winemakingStyle": e.g., traditional, natural, Bordeaux-style, oxidative.
• "category": Must choose from:
  - red wine | white wine | rosé wine | orange wine
  - red sparkling wine | white sparkling wine
  - red dessert wine | white dessert wine
  - red fortified wine | white fortified wine

DO NOT output any explanation, markdown, prose, or extra fields. Return pure JSON.`

const extractUserPrompt = "This is a photo of a wine label. Extract all structured wine information you can — including producer, region, vintage, grapes, classification, and any other known facts. Use your own vast knowledge of the wine world to complete missing details if they are not clearly printed on the label."

// ExtractWineInfo turns an already-prepared JPEG of a wine label into a
// WineData record. jpeg must be non-empty and pre-bounded by the caller (see
// internal/imaging); the request pins temperature to 0 for determinism,
// bounds max_tokens, and requests reduced vision detail to control cost.
//
// The call is bounded by Config.ExtractTimeout. Failures are classified, not
// retried: the caller is expected to surface a rescan prompt.
func (c *Client) ExtractWineInfo(ctx context.Context, jpeg []byte) (*domain.WineData, error) {
	tr := otel.Tracer("somm/Client")
	ctx, span := tr.Start(ctx, "ExtractWineInfo",
		trace.WithAttributes(attribute.Int("image.bytes", len(jpeg))),
	)
	defer span.End()

	if len(jpeg) == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrPayload)
	}

	ctx, cancel := withTimeout(ctx, c.cfg.ExtractTimeout)
	defer cancel()

	messages, err := json.Marshal([]chatMessage{
		{Role: "system", Content: extractSystemPrompt},
		{Role: "user", Content: extractUserPrompt},
	})
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreatePart(textPartHeader("messages", "application/json"))
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(messages); err != nil {
		return nil, err
	}
	if err := mw.WriteField("temperature", "0"); err != nil {
		return nil, err
	}
	if err := mw.WriteField("max_tokens", strconv.Itoa(c.cfg.MaxTokens)); err != nil {
		return nil, err
	}
	if err := mw.WriteField("detail", c.cfg.ImageDetail); err != nil {
		return nil, err
	}
	img, err := mw.CreateFormFile("image", "label.jpg")
	if err != nil {
		return nil, err
	}
	if _, err := img.Write(jpeg); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+c.cfg.ImagePath, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	content, err := c.do(req, opExtract)
	if err != nil {
		return nil, err
	}

	var wine domain.WineData
	if err := decodeContent(content, &wine, opExtract); err != nil {
		return nil, err
	}
	return &wine, nil
}

// textPartHeader builds a multipart header for a named field with an explicit
// content type (WriteField offers no way to set one).
func textPartHeader(name, contentType string) textproto.MIMEHeader {
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q`, name))
	h.Set("Content-Type", contentType)
	return h
}
