package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/emberchat/emberchat-backend/internal/platform/logger"
)

type roundTripperFunc func(req *http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func testClient(t *testing.T, rt roundTripperFunc) *client {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return &client{
		log:             log,
		apiURL:          "http://upstream/generate",
		apiKey:          "test-key",
		temperature:     0.2,
		maxOutputTokens: 512,
		httpClient:      &http.Client{Transport: rt},
	}
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
	}
}

func TestGenerate_Success(t *testing.T) {
	c := testClient(t, func(req *http.Request) (*http.Response, error) {
		if req.Method != http.MethodPost {
			t.Fatalf("method=%s", req.Method)
		}
		if got := req.URL.Query().Get("key"); got != "test-key" {
			t.Fatalf("key=%q", got)
		}
		var in generateRequest
		if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
			t.Fatalf("decode req: %v", err)
		}
		if len(in.Contents) != 1 || len(in.Contents[0].Parts) != 1 {
			t.Fatalf("unexpected contents shape: %+v", in.Contents)
		}
		if !strings.Contains(in.Contents[0].Parts[0].Text, "User: hello") {
			t.Fatalf("prompt missing from rendered text: %q", in.Contents[0].Parts[0].Text)
		}
		if in.MaxOutputTokens != 512 {
			t.Fatalf("maxOutputTokens=%d", in.MaxOutputTokens)
		}
		return jsonResponse(http.StatusOK, `{"candidates":[{"content":"hi there"}]}`), nil
	})

	got := c.Generate(context.Background(), "hello", nil)
	if got != "hi there" {
		t.Fatalf("got %q", got)
	}
}

func TestGenerate_TransportErrorFallsBack(t *testing.T) {
	c := testClient(t, func(req *http.Request) (*http.Response, error) {
		return nil, fmt.Errorf("connection refused")
	})
	if got := c.Generate(context.Background(), "hello", nil); got != FallbackUnavailable {
		t.Fatalf("got %q", got)
	}
}

func TestGenerate_TimeoutFallsBack(t *testing.T) {
	c := testClient(t, func(req *http.Request) (*http.Response, error) {
		<-req.Context().Done()
		return nil, req.Context().Err()
	})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if got := c.Generate(ctx, "hello", nil); got != FallbackUnavailable {
		t.Fatalf("got %q", got)
	}
}

func TestGenerate_Non2xxFallsBack(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusTooManyRequests, http.StatusInternalServerError} {
		c := testClient(t, func(req *http.Request) (*http.Response, error) {
			return jsonResponse(status, `{"error":{}}`), nil
		})
		if got := c.Generate(context.Background(), "hello", nil); got != FallbackUnavailable {
			t.Fatalf("status %d: got %q", status, got)
		}
	}
}

func TestGenerate_MalformedPayloadFallsBack(t *testing.T) {
	for _, body := range []string{`{}`, `{"candidates":[]}`, `not json`} {
		c := testClient(t, func(req *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, body), nil
		})
		if got := c.Generate(context.Background(), "hello", nil); got != FallbackEmptyReply {
			t.Fatalf("body %q: got %q", body, got)
		}
	}
}

func TestRenderContext_NoHistory(t *testing.T) {
	got := renderContext("hello", nil)
	want := "User: hello\nAI:"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestRenderContext_WithHistory(t *testing.T) {
	history := []HistoryEntry{
		{Speaker: "alice", Text: "hi"},
		{Speaker: "AI Assistant", Text: "hello alice"},
	}
	got := renderContext("how are you?", history)
	want := "Previous conversation:\nalice: hi\nAI Assistant: hello alice\n\nUser: how are you?\nAI:"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestRenderContext_TruncatesToRecentEntries(t *testing.T) {
	var history []HistoryEntry
	for i := 0; i < 9; i++ {
		history = append(history, HistoryEntry{Speaker: "u", Text: fmt.Sprintf("m%d", i)})
	}
	got := renderContext("next", history)
	if strings.Contains(got, "m3") {
		t.Fatalf("expected old entries to be dropped: %q", got)
	}
	for i := 4; i < 9; i++ {
		if !strings.Contains(got, fmt.Sprintf("m%d", i)) {
			t.Fatalf("missing recent entry m%d: %q", i, got)
		}
	}
}

func TestRenderContext_BlankSpeakerDefaultsToUser(t *testing.T) {
	got := renderContext("q", []HistoryEntry{{Speaker: "  ", Text: "hi"}})
	if !strings.Contains(got, "User: hi") {
		t.Fatalf("got %q", got)
	}
}
