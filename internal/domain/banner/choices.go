package banner

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"bannerserver/internal/domain/layout"
)

const DefaultTextColor = "#000000"

type TextColors struct {
	MainText      string `json:"mainText,omitempty"`
	SecondaryText string `json:"secondaryText,omitempty"`
}

// Position is one positional hint; hints line up with template objects by index.
type Position struct {
	Type   string            `json:"type,omitempty"`
	Left   *layout.Dimension `json:"left"`
	Top    *layout.Dimension `json:"top"`
	Width  *layout.Dimension `json:"width,omitempty"`
	Height *layout.Dimension `json:"height,omitempty"`
}

// Choices are the copy, colors and optional layout hints produced by the
// design suggestion collaborator.
type Choices struct {
	MainText        string     `json:"mainText"`
	SecondaryText   string     `json:"secondaryText"`
	TextColors      TextColors `json:"textColors"`
	BackgroundImage string     `json:"backgroundImage,omitempty"`
	Products        string     `json:"products,omitempty"`
	ObjectPositions []Position `json:"objectPositions,omitempty"`
}

// MainColor returns the main text color or the default.
func (c Choices) MainColor() string {
	return colorOrDefault(c.TextColors.MainText)
}

// SecondaryColor returns the secondary text color or the default.
func (c Choices) SecondaryColor() string {
	return colorOrDefault(c.TextColors.SecondaryText)
}

func colorOrDefault(c string) string {
	if c = strings.TrimSpace(c); c != "" {
		return c
	}
	return DefaultTextColor
}

type choicesPayload struct {
	MainText        *string         `json:"mainText"`
	SecondaryText   *string         `json:"secondaryText"`
	TextColors      *TextColors     `json:"textColors"`
	BackgroundImage string          `json:"backgroundImage"`
	Products        json.RawMessage `json:"products"`
	ObjectPositions []Position      `json:"objectPositions"`
}

// ParseChoices strips markdown code fences from a collaborator reply and
// validates it. Undecodable input yields ErrMalformedSuggestion; decodable
// input with a bad shape yields a *ValidationError wrapping ErrInvalidSuggestion.
func ParseChoices(raw string) (Choices, error) {
	cleaned := StripCodeFence(raw)
	if cleaned == "" {
		return Choices{}, fmt.Errorf("%w: empty response", ErrMalformedSuggestion)
	}
	var p choicesPayload
	if err := json.Unmarshal([]byte(cleaned), &p); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return Choices{}, &ValidationError{Field: typeErr.Field, Reason: "has the wrong type", Err: ErrInvalidSuggestion}
		}
		if errors.Is(err, layout.ErrMalformedDimension) {
			return Choices{}, &ValidationError{Field: "objectPositions", Reason: err.Error(), Err: ErrInvalidSuggestion}
		}
		return Choices{}, fmt.Errorf("%w: %v", ErrMalformedSuggestion, err)
	}
	if p.MainText == nil || strings.TrimSpace(*p.MainText) == "" {
		return Choices{}, &ValidationError{Field: "mainText", Reason: "is required", Err: ErrInvalidSuggestion}
	}
	c := Choices{
		MainText:        strings.TrimSpace(*p.MainText),
		BackgroundImage: strings.TrimSpace(p.BackgroundImage),
		ObjectPositions: p.ObjectPositions,
	}
	if p.SecondaryText != nil {
		c.SecondaryText = strings.TrimSpace(*p.SecondaryText)
	}
	if p.TextColors != nil {
		c.TextColors = *p.TextColors
	}
	products, err := decodeProducts(p.Products)
	if err != nil {
		return Choices{}, &ValidationError{Field: "products", Reason: err.Error(), Err: ErrInvalidSuggestion}
	}
	c.Products = products
	for i, pos := range c.ObjectPositions {
		if pos.Left == nil || pos.Top == nil {
			return Choices{}, &ValidationError{Field: fmt.Sprintf("objectPositions[%d]", i), Reason: "left and top are required", Err: ErrInvalidSuggestion}
		}
	}
	return c, nil
}

// products may come back as a string or a list of strings.
func decodeProducts(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return "", errors.New("must be a string or a list of strings")
	}
	return strings.Join(list, ", "), nil
}

// StripCodeFence removes ```json fences and any prose around the outermost
// JSON object.
func StripCodeFence(raw string) string {
	text := strings.TrimSpace(raw)
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```JSON", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}
