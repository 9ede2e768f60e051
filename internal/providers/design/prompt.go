package design

import (
	"encoding/json"
	"fmt"
	"strings"

	"bannerserver/internal/domain/banner"
	"bannerserver/internal/domain/layout"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// languageName turns a BCP 47 tag into an English language name, defaulting
// to English.
func languageName(locale string) string {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil || tag == language.Und {
		return "English"
	}
	base, _ := tag.Base()
	if name := display.English.Languages().Name(base); name != "" {
		return name
	}
	return "English"
}

// buildSuggestionPrompt asks for copy and colors, and for object positions
// only when the template accepts them.
func buildSuggestionPrompt(req banner.SuggestionRequest) string {
	objects, _ := json.Marshal(req.Template.Objects)
	sb := &strings.Builder{}
	sb.WriteString("Create a banner design based on the following:\n")
	fmt.Fprintf(sb, "Template: %s\n", objects)
	fmt.Fprintf(sb, "Promotion: %s\n", req.Promotion)
	fmt.Fprintf(sb, "Theme: %s\n", req.Theme)
	fmt.Fprintf(sb, "Resolution: %s\n", req.Resolution)
	fmt.Fprintf(sb, "Color Palette: %s (the background image combines these colors)\n", strings.Join(req.Palette, ", "))
	if len(req.Products) > 0 {
		fmt.Fprintf(sb, "%d product image(s) are attached; the copy should fit them.\n", len(req.Products))
	}
	fmt.Fprintf(sb, "Write all copy in %s.\n\n", languageName(req.Locale))
	sb.WriteString("Provide the following in a JSON format (without any comments):\n")
	sb.WriteString(`{"mainText": "main text for the promotion (be creative)", "secondaryText": "secondary text, fewer than 8 words", "textColors": {"mainText": "color for main text", "secondaryText": "color for secondary text"}`)
	if req.Template.AllowPositionOverride {
		sb.WriteString(`, "objectPositions": [{"type": "text", "left": "10-90%", "top": "10-90%"}, {"type": "image", "left": "10-90%", "top": "10-90%", "width": "20-80%", "height": "20-80%"}]`)
		sb.WriteString("}\n\nReturn one objectPositions entry per template object, in template order, without src fields. Percentages must stay within the given ranges.")
	} else {
		sb.WriteString("}\n")
	}
	sb.WriteString("\nText colors must be readable on the background colors. The response should be JSON only.")
	return sb.String()
}

// buildSynthesisPrompt asks for a new template, showing examples as few-shot
// guidance.
func buildSynthesisPrompt(resolution string, numImages int, examples []layout.Template) string {
	sb := &strings.Builder{}
	sb.WriteString("You design banner layout templates. Positions and sizes are percentage strings such as \"12%\". ")
	sb.WriteString("Each object is either {\"type\":\"text\",\"left\",\"top\",\"width\",\"height\",\"fontSize\",\"fontWeight\",\"textAlign\"} or {\"type\":\"image\",\"left\",\"top\",\"width\",\"height\"}. ")
	sb.WriteString("Objects are listed back to front. Use exactly two text objects with different font sizes; the larger one holds the headline.\n\n")
	for i, ex := range examples {
		ex.ID = ""
		data, err := json.Marshal(ex)
		if err != nil {
			continue
		}
		fmt.Fprintf(sb, "Example %d:\n%s\n\n", i+1, data)
	}
	fmt.Fprintf(sb, "Create a new template for resolution %s with exactly %d image object(s). ", resolution, numImages)
	fmt.Fprintf(sb, "Respond with JSON only: {\"resolution\":%q,\"numImages\":%d,\"objects\":[...]}", resolution, numImages)
	return sb.String()
}

func extractJSONFragment(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	text = trimCodeFence(text)
	start := strings.IndexAny(text, "{[")
	end := strings.LastIndexAny(text, "]}")
	if start >= 0 && end >= start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}

func coalesce(values ...string) string {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			return v
		}
	}
	return ""
}
