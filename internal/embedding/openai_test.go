package embedding

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
)

type stubTransport struct {
	status int
	body   string
}

func (s *stubTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode: s.status,
		Body:       io.NopCloser(strings.NewReader(s.body)),
		Header:     make(http.Header),
	}, nil
}

func newStubbedClient(status int, body string) *OpenAIClient {
	return &OpenAIClient{
		apiKey:     "test-key",
		httpClient: &http.Client{Transport: &stubTransport{status: status, body: body}},
	}
}

func TestEmbed_ReturnsVector(t *testing.T) {
	client := newStubbedClient(http.StatusOK, `{"data":[{"embedding":[0.1,0.2,0.3]}]}`)

	vec, err := client.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(vec) != 3 {
		t.Errorf("embedding length = %d, want 3", len(vec))
	}
}

func TestEmbed_NonOKStatusSurfaced(t *testing.T) {
	// Gateway errors come back as HTML, not JSON. The status must reach
	// the caller instead of an unmarshal failure.
	client := newStubbedClient(http.StatusTooManyRequests, "<html>rate limited</html>")

	_, err := client.Embed(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error for non-200 response")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("error = %q, want the API status in the message", err)
	}
}
