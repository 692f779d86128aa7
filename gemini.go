package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"google.golang.org/genai"
)

const suggestPrompt = `Suggest %d words for a wordsearch puzzle on the theme "%s".

Rules:
- Each word is a single common word, lowercase, letters only (no spaces, hyphens, digits or accents).
- Words are between 3 and 12 letters long.
- No duplicates.
- Answer ONLY with a JSON array of strings, no commentary and no markdown.`

// SuggestWords asks Gemini for themed words usable in a wordsearch.
// The response is post-filtered: anything that is not purely letters, or
// shorter than two letters, is dropped.
func (g *GeminiClient) SuggestWords(ctx context.Context, theme string, count int) ([]string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.modelName,
		[]*genai.Content{{
			Role: "user",
			Parts: []*genai.Part{
				{Text: fmt.Sprintf(suggestPrompt, count, theme)},
			},
		}},
		&genai.GenerateContentConfig{
			Temperature:      genai.Ptr(float32(0.7)),
			TopP:             genai.Ptr(float32(1)),
			ResponseMIMEType: "application/json",
		},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("empty gemini response")
	}

	var raw []string
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("parse word list JSON: %w\nraw response: %s", err, text)
	}

	words := make([]string, 0, count)
	seen := make(map[string]bool)
	for _, w := range raw {
		w = strings.ToLower(strings.TrimSpace(w))
		if len(w) < 2 || seen[w] || !lettersOnly(w) {
			continue
		}
		seen[w] = true
		words = append(words, w)
		if len(words) == count {
			break
		}
	}

	if len(words) == 0 {
		return nil, fmt.Errorf("no usable words in gemini response: %s", text)
	}
	return words, nil
}

func lettersOnly(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
