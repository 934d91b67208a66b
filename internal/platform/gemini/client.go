package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/emberchat/emberchat-backend/internal/platform/logger"
)

const (
	// FallbackEmptyReply substitutes for a payload that decoded but carried no
	// usable text.
	FallbackEmptyReply = "I'm sorry, I couldn't process that."
	// FallbackUnavailable substitutes for transport errors, timeouts and
	// non-2xx responses.
	FallbackUnavailable = "I'm experiencing technical difficulties. Please try again later."
)

const defaultAPIURL = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent"

// historyWindow bounds the rendered conversation context to the most recent
// entries; anything older is truncated away.
const historyWindow = 5

// HistoryEntry is one rendered line of conversation context.
type HistoryEntry struct {
	Speaker string
	Text    string
}

// Client turns (prompt, history) into generated text. Generate never fails
// outward: every internal failure is converted to a fixed fallback string.
type Client interface {
	Generate(ctx context.Context, prompt string, history []HistoryEntry) string
}

type client struct {
	log             *logger.Logger
	apiURL          string
	apiKey          string
	temperature     float64
	maxOutputTokens int
	httpClient      *http.Client
}

func NewClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	apiKey := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	if apiKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY")
	}

	apiURL := strings.TrimSpace(os.Getenv("GEMINI_API_URL"))
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	timeoutSec := 30
	if v := strings.TrimSpace(os.Getenv("GEMINI_TIMEOUT_SECONDS")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}

	temperature := 0.2
	if v := strings.TrimSpace(os.Getenv("GEMINI_TEMPERATURE")); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			temperature = parsed
		}
	}

	maxTokens := 512
	if v := strings.TrimSpace(os.Getenv("GEMINI_MAX_OUTPUT_TOKENS")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			maxTokens = parsed
		}
	}

	return &client{
		log:             log.With("service", "GeminiClient"),
		apiURL:          apiURL,
		apiKey:          apiKey,
		temperature:     temperature,
		maxOutputTokens: maxTokens,
		httpClient:      &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
	}, nil
}

type generateRequest struct {
	Contents        []requestContent `json:"contents"`
	Temperature     float64          `json:"temperature"`
	MaxOutputTokens int              `json:"maxOutputTokens"`
}

type requestContent struct {
	Parts []requestPart `json:"parts"`
}

type requestPart struct {
	Text string `json:"text"`
}

type geminiHTTPError struct {
	StatusCode int
	Body       string
}

func (e *geminiHTTPError) Error() string {
	return fmt.Sprintf("gemini http %d: %s", e.StatusCode, e.Body)
}

// errMalformed marks payloads that decoded but yielded no text; it maps to
// FallbackEmptyReply rather than the transport fallback.
var errMalformed = errors.New("gemini response carried no usable text")

func (c *client) Generate(ctx context.Context, prompt string, history []HistoryEntry) string {
	text, err := c.generate(ctx, prompt, history)
	if err == nil {
		return text
	}
	// The endpoint URL carries the API key as a query parameter; log the error
	// only, never the URL.
	c.log.Error("generation failed; substituting fallback", "error", err)
	if errors.Is(err, errMalformed) {
		return FallbackEmptyReply
	}
	return FallbackUnavailable
}

func (c *client) generate(ctx context.Context, prompt string, history []HistoryEntry) (string, error) {
	payload := generateRequest{
		Contents: []requestContent{
			{Parts: []requestPart{{Text: renderContext(prompt, history)}}},
		},
		Temperature:     c.temperature,
		MaxOutputTokens: c.maxOutputTokens,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"?key="+c.apiKey, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return "", readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &geminiHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	text, ok := ExtractText(raw)
	if !ok {
		return "", errMalformed
	}
	return text, nil
}

// renderContext flattens the bounded history and new prompt into the single
// text block the upstream endpoint expects. An empty prompt is passed through
// unchanged; the upstream service decides what to do with it.
func renderContext(prompt string, history []HistoryEntry) string {
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	if len(history) == 0 {
		return fmt.Sprintf("User: %s\nAI:", prompt)
	}

	var b strings.Builder
	b.WriteString("Previous conversation:\n")
	for _, entry := range history {
		speaker := entry.Speaker
		if strings.TrimSpace(speaker) == "" {
			speaker = "User"
		}
		b.WriteString(speaker)
		b.WriteString(": ")
		b.WriteString(entry.Text)
		b.WriteString("\n")
	}
	b.WriteString("\nUser: ")
	b.WriteString(prompt)
	b.WriteString("\nAI:")
	return b.String()
}
