package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"telepilot/internal/model"
)

// QuoteService fetches random quotes from a ZenQuotes-compatible API.
type QuoteService struct {
	url    string
	client *http.Client
}

func NewQuoteService(url string, client *http.Client) *QuoteService {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &QuoteService{url: url, client: client}
}

type zenQuote struct {
	Text   string `json:"q"`
	Author string `json:"a"`
}

// Random returns one quote. Every failure wraps ErrQuoteFetch.
func (s *QuoteService) Random(ctx context.Context) (model.Quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return model.Quote{}, fmt.Errorf("%w: build request: %w", ErrQuoteFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return model.Quote{}, fmt.Errorf("%w: %w", ErrQuoteFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.Quote{}, fmt.Errorf("%w: unexpected status %s", ErrQuoteFetch, resp.Status)
	}

	var quotes []zenQuote
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&quotes); err != nil {
		return model.Quote{}, fmt.Errorf("%w: decode: %w", ErrQuoteFetch, err)
	}
	if len(quotes) == 0 || strings.TrimSpace(quotes[0].Text) == "" {
		return model.Quote{}, fmt.Errorf("%w: empty response", ErrQuoteFetch)
	}

	author := strings.TrimSpace(quotes[0].Author)
	if author == "" {
		author = "Unknown"
	}
	return model.Quote{Text: strings.TrimSpace(quotes[0].Text), Author: author}, nil
}
