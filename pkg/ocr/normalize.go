package ocr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/Abraxas-365/pagelift/pkg/slide"
	"golang.org/x/text/unicode/norm"
)

var (
	fencePattern = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
	hexColor     = regexp.MustCompile(`^#?([0-9a-fA-F]{6})$`)
)

// number accepts JSON numbers and numeric strings. Models are not consistent
// about quoting coordinates.
type number float64

func (n *number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*n = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "%")
		if s == "" {
			*n = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("not a number: %q", s)
		}
		*n = number(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*n = number(f)
	return nil
}

type rawText struct {
	Text       string          `json:"text"`
	X          number          `json:"x"`
	Y          number          `json:"y"`
	Width      number          `json:"width"`
	Height     number          `json:"height"`
	FontSize   number          `json:"fontSize"`
	FontWeight json.RawMessage `json:"fontWeight"`
	FontColor  string          `json:"fontColor"`
	Align      string          `json:"align"`
}

type rawRegion struct {
	X      number `json:"x"`
	Y      number `json:"y"`
	Width  number `json:"width"`
	Height number `json:"height"`
}

type rawResponse struct {
	TextElements []rawText   `json:"textElements"`
	ImageRegions []rawRegion `json:"imageRegions"`
}

// ExtractJSON strips markdown code fences and surrounding prose so that the
// first JSON object or array in raw can be decoded.
func ExtractJSON(raw []byte) []byte {
	s := strings.TrimSpace(string(raw))
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	if s == "" || s[0] == '{' || s[0] == '[' {
		return []byte(s)
	}

	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return []byte(s)
	}
	closer := byte('}')
	if s[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(s, closer)
	if end <= start {
		return []byte(s[start:])
	}
	return []byte(s[start : end+1])
}

// Normalize converts a backend response body into an OcrResult. Both the
// object shape and the legacy bare array of text elements are accepted.
// Boxes are clamped into the page, text is NFC-normalized and blank texts
// are dropped. Anything that is not one of the two shapes fails with
// ErrMalformedResponse.
func Normalize(raw []byte) (*slide.OcrResult, error) {
	body := ExtractJSON(raw)
	if len(body) == 0 {
		return nil, errorRegistry.NewWithMessage(ErrMalformedResponse, "OCR backend returned an empty response")
	}

	var resp rawResponse
	switch body[0] {
	case '{':
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, NewError(ErrMalformedResponse, err)
		}
	case '[':
		if err := json.Unmarshal(body, &resp.TextElements); err != nil {
			return nil, NewError(ErrMalformedResponse, err)
		}
	default:
		return nil, errorRegistry.New(ErrMalformedResponse).WithDetail("prefix", preview(body))
	}

	result := &slide.OcrResult{
		TextElements: make([]slide.TextElement, 0, len(resp.TextElements)),
		ImageRegions: make([]slide.Box, 0, len(resp.ImageRegions)),
	}

	for _, t := range resp.TextElements {
		text := norm.NFC.String(t.Text)
		if strings.TrimSpace(text) == "" {
			continue
		}
		result.TextElements = append(result.TextElements, slide.TextElement{
			ID:         slide.NewElementID(),
			Box:        slide.NewBox(float64(t.X), float64(t.Y), float64(t.Width), float64(t.Height)),
			Text:       text,
			FontSize:   clampFontSize(float64(t.FontSize)),
			FontWeight: parseFontWeight(t.FontWeight),
			FontColor:  parseFontColor(t.FontColor),
			Align:      parseAlign(t.Align),
		})
	}

	for _, r := range resp.ImageRegions {
		result.ImageRegions = append(result.ImageRegions,
			slide.NewBox(float64(r.X), float64(r.Y), float64(r.Width), float64(r.Height)))
	}

	return result, nil
}

func clampFontSize(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// parseFontWeight accepts "bold"/"normal" and CSS numeric weights.
func parseFontWeight(raw json.RawMessage) slide.FontWeight {
	if len(raw) == 0 {
		return ""
	}
	var n number
	if err := json.Unmarshal(raw, &n); err == nil {
		if n >= 600 {
			return slide.FontWeightBold
		}
		if n > 0 {
			return slide.FontWeightNormal
		}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bold", "bolder", "semibold", "extrabold", "black", "heavy":
		return slide.FontWeightBold
	case "normal", "regular", "light", "lighter", "thin":
		return slide.FontWeightNormal
	}
	return ""
}

func parseFontColor(s string) string {
	m := hexColor.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return ""
	}
	return "#" + strings.ToUpper(m[1])
}

func parseAlign(s string) slide.Align {
	switch a := slide.Align(strings.ToLower(strings.TrimSpace(s))); a {
	case slide.AlignLeft, slide.AlignCenter, slide.AlignRight:
		return a
	}
	return ""
}

func preview(b []byte) string {
	if len(b) > 40 {
		return string(b[:40])
	}
	return string(b)
}
