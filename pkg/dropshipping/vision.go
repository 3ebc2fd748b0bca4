package dropshipping

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"desirefinder-be/pkg/llm"
)

const maxImageBytes = 8 << 20

const imageRubric = `Analyze this product image. Return ONLY "true" or "false" (no explanation).

Criteria for "true":
- High resolution and clear
- Professional white/neutral background
- No watermarks or text overlays
- No Chinese/foreign text in the image
- Clean, luxury aesthetic
- Product is clearly visible

Criteria for "false":
- Low resolution or blurry
- Watermarked or has text overlays
- Contains Chinese or foreign text
- Cluttered background
- Poor lighting or quality
- Looks like a screenshot or low-quality listing

Return ONLY "true" or "false":`

// ImageJudge decides whether a product photo meets the storefront bar.
// A returned error means the check could not run; callers accept the
// product in that case.
type ImageJudge interface {
	Judge(ctx context.Context, p Product) (bool, error)
}

type VisionJudge struct {
	llm    llm.LLMProvider
	model  string
	client *http.Client
}

func NewVisionJudge(provider llm.LLMProvider, model string, client *http.Client) *VisionJudge {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &VisionJudge{llm: provider, model: model, client: client}
}

func (j *VisionJudge) Judge(ctx context.Context, p Product) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.ImageURL, nil)
	if err != nil {
		return false, fmt.Errorf("image request: %w", err)
	}
	resp, err := j.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	// an image the supplier cannot serve is a broken listing
	if resp.StatusCode != http.StatusOK {
		return false, nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return false, fmt.Errorf("read image: %w", err)
	}
	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	opts := []llm.Option{llm.WithTemperature(0)}
	if j.model != "" {
		opts = append(opts, llm.WithModel(j.model))
	}
	verdict, err := j.llm.Vision(ctx, imageRubric, []llm.Image{{Data: data, MimeType: mimeType}}, opts...)
	if err != nil {
		return false, fmt.Errorf("vision model: %w", err)
	}

	verdict = strings.ToLower(strings.TrimSpace(verdict))
	return verdict == "true" || strings.Contains(verdict, "true"), nil
}
