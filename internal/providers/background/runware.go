package background

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bannerserver/internal/domain/banner"
	"bannerserver/internal/infra"

	"github.com/google/uuid"
)

// FluxSchnellModel is the Runware model id for FLUX.1 schnell.
const FluxSchnellModel = "runware:100@1"

const (
	runwareDefaultURL = "https://api.runware.ai/v1"
	runwareMinSide    = 128
	runwareMaxSide    = 2048
	runwareStep       = 64
)

type RunwareOptions struct {
	APIKey     string
	APIURL     string
	Model      string
	Steps      int
	CFGScale   float64
	HTTPClient *http.Client
}

// RunwareGenerator runs text-to-image inference on Runware.
type RunwareGenerator struct {
	apiKey   string
	apiURL   string
	model    string
	steps    int
	cfgScale float64
	client   *http.Client
}

type runwareRequest struct {
	TaskType       string  `json:"taskType"`
	TaskUUID       string  `json:"taskUUID"`
	PositivePrompt string  `json:"positivePrompt"`
	Model          string  `json:"model"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	NumberResults  int     `json:"numberResults"`
	OutputFormat   string  `json:"outputFormat"`
	Steps          int     `json:"steps,omitempty"`
	CFGScale       float64 `json:"CFGScale,omitempty"`
}

type runwareResponse struct {
	Data []struct {
		TaskType  string `json:"taskType"`
		TaskUUID  string `json:"taskUUID"`
		ImageURL  string `json:"imageURL"`
		ImageUUID string `json:"imageUUID"`
	} `json:"data"`
	Error  string `json:"error,omitempty"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors,omitempty"`
}

func NewRunwareGenerator(opts RunwareOptions) (*RunwareGenerator, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("runware api key is required")
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	g := &RunwareGenerator{
		apiKey:   strings.TrimSpace(opts.APIKey),
		apiURL:   strings.TrimSpace(opts.APIURL),
		model:    strings.TrimSpace(opts.Model),
		steps:    opts.Steps,
		cfgScale: opts.CFGScale,
		client:   client,
	}
	if g.apiURL == "" {
		g.apiURL = runwareDefaultURL
	}
	if g.model == "" {
		g.model = FluxSchnellModel
	}
	if g.steps <= 0 {
		g.steps = 4
	}
	if g.cfgScale <= 0 {
		g.cfgScale = 1.0
	}
	return g, nil
}

// Generate returns an asset that references the image URL; the bytes are
// fetched separately.
func (g *RunwareGenerator) Generate(ctx context.Context, req banner.BackgroundRequest) (banner.Asset, error) {
	body, err := json.Marshal([]runwareRequest{{
		TaskType:       "imageInference",
		TaskUUID:       uuid.NewString(),
		PositivePrompt: Prompt(req),
		Model:          g.model,
		Width:          snapSide(req.Width),
		Height:         snapSide(req.Height),
		NumberResults:  1,
		OutputFormat:   "PNG",
		Steps:          g.steps,
		CFGScale:       g.cfgScale,
	}})
	if err != nil {
		return banner.Asset{}, fmt.Errorf("runware: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL, bytes.NewReader(body))
	if err != nil {
		return banner.Asset{}, fmt.Errorf("runware: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return banner.Asset{}, infra.Retryable(fmt.Errorf("runware: http request: %w", err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return banner.Asset{}, infra.Retryable(fmt.Errorf("runware: read response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("runware: status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return banner.Asset{}, infra.Retryable(err)
		}
		return banner.Asset{}, err
	}
	var out runwareResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return banner.Asset{}, fmt.Errorf("runware: decode response: %w", err)
	}
	if out.Error != "" {
		return banner.Asset{}, fmt.Errorf("runware: %s", out.Error)
	}
	if len(out.Errors) > 0 {
		return banner.Asset{}, fmt.Errorf("runware: %s", out.Errors[0].Message)
	}
	if len(out.Data) == 0 || out.Data[0].ImageURL == "" {
		return banner.Asset{}, errors.New("runware: no image generated")
	}
	return banner.Asset{Ref: out.Data[0].ImageURL, MIME: "image/png"}, nil
}

// snapSide rounds to the nearest multiple of 64 inside the accepted range.
func snapSide(v int) int {
	v = (v + runwareStep/2) / runwareStep * runwareStep
	return min(max(v, runwareMinSide), runwareMaxSide)
}
