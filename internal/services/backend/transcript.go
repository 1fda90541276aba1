package backend

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"worthit/internal/services"
	"worthit/internal/videoid"
)

type transcriptResponse struct {
	Text string `json:"text"`
}

// Transcript fetches the transcript for id, walking the ordered language
// fallbacks on not-found until one succeeds or the list is exhausted.
func (c *Client) Transcript(ctx context.Context, id videoid.ID, languages []string) (string, error) {
	if len(languages) == 0 {
		return "", services.Wrap(services.ErrValidation, "backend", "transcript", "no languages supplied", nil)
	}

	var lastErr error
	for _, lang := range languages {
		lang = strings.TrimSpace(lang)
		if lang == "" {
			continue
		}
		query := url.Values{}
		query.Set("id", id.String())
		query.Set("languages", lang)

		var decoded transcriptResponse
		err := c.getJSON(ctx, "transcript", "/transcript", query, &decoded)
		if err == nil {
			text := strings.TrimSpace(decoded.Text)
			if text == "" {
				lastErr = services.Wrap(services.ErrNotFound, "backend", "transcript", "empty transcript for "+lang, nil)
				continue
			}
			return text, nil
		}
		if errors.Is(err, services.ErrNotFound) {
			lastErr = err
			continue
		}
		return "", err
	}

	if lastErr == nil {
		lastErr = services.Wrap(services.ErrNotFound, "backend", "transcript", "no usable languages", nil)
	}
	return "", lastErr
}
