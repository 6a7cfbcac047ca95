package backend

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/panciteria/storefront-bff/internal/core/domain"
)

const maxErrorExcerpt = 200

// upstreamError turns a non-2xx response into a domain.UpstreamError. The
// detail is the upstream's "detail" field when the body is a JSON object
// carrying one, the stringified JSON body otherwise, or a truncated excerpt
// of the raw text when the body is not JSON at all.
func upstreamError(resp *http.Response) *domain.UpstreamError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	detail := strings.TrimSpace(string(raw))
	var parsed map[string]any
	if err := json.Unmarshal(raw, &parsed); err == nil {
		if d, ok := parsed["detail"].(string); ok && d != "" {
			detail = d
		} else if compact, err := json.Marshal(parsed); err == nil {
			detail = string(compact)
		}
	} else if len(detail) > maxErrorExcerpt {
		detail = detail[:maxErrorExcerpt]
	}

	return &domain.UpstreamError{Status: resp.StatusCode, Detail: detail}
}

func is2xx(resp *http.Response) bool {
	return resp.StatusCode >= 200 && resp.StatusCode <= 299
}

// readAll drains a successful response body with a sane upper bound.
func readAll(resp *http.Response) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	return raw, nil
}
