package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// GenerationProvider turns a prompt into a fetchable image URL. Exactly one
// result is requested and only the first is used.
type GenerationProvider interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ImageDownloader fetches the generated bytes from the provider's URL.
type ImageDownloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

type openAIProvider struct {
	client *openai.Client
	model  openai.ImageModel
}

func NewOpenAIProvider(apiKey string) GenerationProvider {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &openAIProvider{
		client: &client,
		model:  openai.ImageModelDallE2,
	}
}

func (p *openAIProvider) Generate(ctx context.Context, prompt string) (string, error) {
	params := openai.ImageGenerateParams{
		Model:          p.model,
		Prompt:         prompt,
		N:              openai.Int(1),
		Size:           openai.ImageGenerateParamsSize1024x1024,
		ResponseFormat: openai.ImageGenerateParamsResponseFormatURL,
	}

	resp, err := p.client.Images.Generate(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", fmt.Errorf("provider returned no image")
	}
	return resp.Data[0].URL, nil
}

type httpDownloader struct {
	client *http.Client
}

func NewHTTPDownloader() ImageDownloader {
	return &httpDownloader{client: &http.Client{Timeout: 60 * time.Second}}
}

func (d *httpDownloader) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d downloading image", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
