package llm

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Backend names.
const (
	BackendAuto   = "auto"
	BackendOpenAI = "openai"
	BackendOllama = "ollama"
)

const probeTimeout = 5 * time.Second

// endpoint is a resolved backend plus the base URL requests are built from.
type endpoint struct {
	backend string
	baseURL string
}

func (e endpoint) chatURL() (string, error) {
	if e.backend == BackendOllama {
		return url.JoinPath(e.baseURL, "api", "chat")
	}
	return url.JoinPath(e.baseURL, "chat", "completions")
}

func (e endpoint) healthURL() (string, error) {
	if e.backend == BackendOllama {
		return url.JoinPath(e.baseURL, "api", "tags")
	}
	return url.JoinPath(e.baseURL, "models")
}

// RequiresAPIKey reports whether the base URL points at the hosted OpenAI API.
func RequiresAPIKey(baseURL string) bool {
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return false
	}
	return strings.EqualFold(parsed.Hostname(), "api.openai.com")
}

// resolve maps the configured backend to a concrete endpoint. The result of an
// auto probe is cached on the client.
func (c *Client) resolve(ctx context.Context) (endpoint, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.resolved != nil {
		return *c.resolved, nil
	}
	base := strings.TrimRight(c.cfg.BaseURL, "/")
	var ep endpoint
	switch c.cfg.Backend {
	case BackendOpenAI:
		ep = endpoint{backend: BackendOpenAI, baseURL: base}
	case BackendOllama:
		ep = endpoint{backend: BackendOllama, baseURL: strings.TrimSuffix(base, "/v1")}
	case BackendAuto, "":
		if strings.HasSuffix(base, "/v1") {
			ep = endpoint{backend: BackendOpenAI, baseURL: base}
			break
		}
		if c.probeOpenAI(ctx, base) {
			ep = endpoint{backend: BackendOpenAI, baseURL: base + "/v1"}
		} else {
			ep = endpoint{backend: BackendOllama, baseURL: base}
		}
	default:
		return endpoint{}, fmt.Errorf("unknown llm backend %q", c.cfg.Backend)
	}
	c.resolved = &ep
	return ep, nil
}

func (c *Client) probeOpenAI(ctx context.Context, base string) bool {
	probeURL, err := url.JoinPath(base, "v1", "models")
	if err != nil {
		return false
	}
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, probeURL, nil)
	if err != nil {
		return false
	}
	c.authorize(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode < http.StatusMultipleChoices
}

func (c *Client) authorize(req *http.Request) {
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
}
