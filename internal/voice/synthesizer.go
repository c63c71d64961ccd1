package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxAudioBytes caps a synthesized greeting.
const maxAudioBytes = 10 << 20

// HTTPSynthesizer calls a text-to-speech endpoint that accepts {"text": "..."}
// and answers with the audio body.
type HTTPSynthesizer struct {
	Endpoint string
	APIKey   string
	Client   *http.Client
}

func NewHTTPSynthesizer(endpoint, apiKey string) *HTTPSynthesizer {
	return &HTTPSynthesizer{Endpoint: endpoint, APIKey: apiKey, Client: &http.Client{Timeout: 30 * time.Second}}
}

func (s *HTTPSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, string, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.APIKey)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, "", fmt.Errorf("tts: unexpected status %d", resp.StatusCode)
	}
	audio, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes+1))
	if err != nil {
		return nil, "", err
	}
	if len(audio) == 0 {
		return nil, "", fmt.Errorf("tts: empty audio")
	}
	if len(audio) > maxAudioBytes {
		return nil, "", fmt.Errorf("tts: audio exceeds %d bytes", maxAudioBytes)
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "audio/mpeg"
	}
	return audio, ct, nil
}
