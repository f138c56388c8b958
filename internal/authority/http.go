package authority

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/information-sharing-networks/oms-authenticator/internal/result"
)

// maxResponseSize caps how much of an authority response is read.
const maxResponseSize = 1 << 20

// getJSON performs a GET and decodes the JSON response into T.
func getJSON[T any](ctx context.Context, client *http.Client, url string) result.Result[T] {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return result.Failure[T](fmt.Sprintf("GET %s: failed to create request: %v", url, err))
	}
	req.Header.Set("Accept", "application/json")
	return doJSON[T](client, req)
}

// postJSON encodes body as JSON, POSTs it and decodes the JSON response into T.
func postJSON[T any](ctx context.Context, client *http.Client, url string, body any) result.Result[T] {
	payload, err := json.Marshal(body)
	if err != nil {
		return result.Failure[T](fmt.Sprintf("POST %s: failed to encode request: %v", url, err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return result.Failure[T](fmt.Sprintf("POST %s: failed to create request: %v", url, err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return doJSON[T](client, req)
}

// doJSON turns every way an authority call can go wrong into a failure that
// names the method, URL and, when there was a response, its status and body.
func doJSON[T any](client *http.Client, req *http.Request) result.Result[T] {
	target := req.Method + " " + req.URL.String()

	// #nosec G107 -- authority URLs come from the provider configuration
	resp, err := client.Do(req)
	if err != nil {
		return result.Failure[T](fmt.Sprintf("%s: %v", target, err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return result.Failure[T](fmt.Sprintf("%s: status %d: failed to read response: %v", target, resp.StatusCode, err))
	}
	content := string(raw)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return result.Failure[T](fmt.Sprintf("%s: status %d %s. Response content: '%s'",
			target, resp.StatusCode, http.StatusText(resp.StatusCode), content))
	}

	if strings.TrimSpace(content) == "" {
		return result.Failure[T](fmt.Sprintf("%s: status %d. Response content is empty", target, resp.StatusCode))
	}

	var decoded *T
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return result.Failure[T](fmt.Sprintf("%s: status %d. Error deserializing '%s': %v", target, resp.StatusCode, content, err))
	}
	if decoded == nil {
		return result.Failure[T](fmt.Sprintf("%s: status %d. Deserialized <null> from '%s'", target, resp.StatusCode, content))
	}
	return result.Success(*decoded)
}

// endpoint joins the provider base URL and an absolute path.
func endpoint(baseURL, path string) string {
	return strings.TrimRight(baseURL, "/") + path
}
