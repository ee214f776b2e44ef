package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ContentGenerator is the contract for the AI content service that refines
// product names and writes descriptions.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, req *ContentRequest) (*GeneratedContent, error)
}

// ContentRequest carries the hints the content service works from.
type ContentRequest struct {
	NameHint    string   `json:"nameHint"`
	ProductType string   `json:"productType"`
	Tags        []string `json:"tags,omitempty"`
}

// ImageMetadata is per-image SEO metadata produced by the content service.
type ImageMetadata struct {
	Title   string `json:"title"`
	AltText string `json:"altText"`
}

// GeneratedContent is the content service's answer for one product.
type GeneratedContent struct {
	Name             string          `json:"name"`
	ShortDescription string          `json:"shortDescription"`
	Description      string          `json:"description"`
	Tags             []string        `json:"tags,omitempty"`
	ImageMetadata    []ImageMetadata `json:"imageMetadata,omitempty"`
}

// ContentClient talks to the ML content-generation service.
type ContentClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	timeout    time.Duration
}

// NewContentClient creates a content generation client.
func NewContentClient(baseURL, apiKey string, timeout time.Duration) *ContentClient {
	return &ContentClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
	}
}

// GenerateContent requests AI-generated name, descriptions and tags for a
// product. One call per product; failures abort only that product's pipeline.
func (c *ContentClient) GenerateContent(ctx context.Context, contentReq *ContentRequest) (*GeneratedContent, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(contentReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal content request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/content/product", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("content service request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read content response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("content service returned %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var content GeneratedContent
	if err := json.Unmarshal(respBody, &content); err != nil {
		return nil, fmt.Errorf("failed to parse content response: %w", err)
	}
	return &content, nil
}
