package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// CloudConfig configures a REST-backed TTS provider. APIKey is read from
// config/environment and validated before synthesis starts, per spec.md
// §6's "API credentials ... are validated before TTS starts".
type CloudConfig struct {
	Name       string
	Endpoint   string
	APIKey     string
	Model      string
	OutputDir  string
	HTTPClient *http.Client
}

// CloudProvider is a generic REST-backed cloud TTS backend. Its request
// shape (POST text as JSON, Authorization header, raw audio bytes back)
// matches the Deepgram-style speak endpoint in the closest sibling
// implementation's audio client, generalized so a second cloud backend can
// reuse the same struct with a different Endpoint/Model.
type CloudProvider struct {
	cfg CloudConfig
}

// NewCloudProvider validates credentials eagerly and returns a ready
// provider.
func NewCloudProvider(cfg CloudConfig) (*CloudProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("tts: %s requires an API key", cfg.Name)
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &CloudProvider{cfg: cfg}, nil
}

func (p *CloudProvider) Name() string { return p.cfg.Name }

func (p *CloudProvider) Synthesize(ctx context.Context, text string, opts SynthesizeOptions) (string, int64, error) {
	payload := map[string]string{"text": text}
	if opts.Voice != "" {
		payload["voice"] = opts.Voice
	}
	if opts.Style != "" {
		payload["style"] = opts.Style
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Authorization", "Token "+p.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.cfg.HTTPClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("tts %s: request failed: %w", p.cfg.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		return "", 0, fmt.Errorf("tts %s: %s: %s", p.cfg.Name, resp.Status, string(errBody))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, err
	}

	if err := os.MkdirAll(p.cfg.OutputDir, 0o755); err != nil {
		return "", 0, err
	}
	outFile := filepath.Join(p.cfg.OutputDir, "narration-full.mp3")
	if err := os.WriteFile(outFile, audio, 0o644); err != nil {
		return "", 0, err
	}

	// Duration is measured by the duration-probe collaborator, not here;
	// callers that need it immediately should probe outFile.
	return outFile, 0, nil
}
