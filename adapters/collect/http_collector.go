package collect

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"orgscout/domain/signal"
	"orgscout/internal"
	apperrors "orgscout/internal/errors"
	"orgscout/internal/retry"
	"orgscout/ports"
)

// ChannelEndpoint describes how to reach one evidence channel. URLTemplate
// may contain an {entity_id} placeholder plus arbitrary {key} placeholders
// filled from the request's query parameters.
type ChannelEndpoint struct {
	URLTemplate string
}

// HTTPCollector implements ports.EvidencePort over plain HTTP endpoints,
// one per channel. Responses are truncated to maxBody bytes.
type HTTPCollector struct {
	endpoints map[signal.ChannelType]ChannelEndpoint
	client    *http.Client
	policy    retry.Policy
	log       *internal.Logger
}

const maxBody = 256 * 1024

func NewHTTPCollector(endpoints map[signal.ChannelType]ChannelEndpoint, timeout time.Duration, policy retry.Policy) *HTTPCollector {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPCollector{
		endpoints: endpoints,
		client:    &http.Client{Timeout: timeout},
		policy:    policy,
		log:       internal.Component("Collector"),
	}
}

func (c *HTTPCollector) Collect(ctx context.Context, req ports.CollectRequest) (*ports.CollectResult, error) {
	endpoint, ok := c.endpoints[req.Channel]
	if !ok {
		return nil, apperrors.InvalidInput(fmt.Sprintf("no endpoint configured for channel %s", req.Channel))
	}

	target := expandTemplate(endpoint.URLTemplate, req)
	if _, err := url.Parse(target); err != nil {
		return nil, apperrors.InvalidInput(fmt.Sprintf("bad endpoint URL for channel %s: %v", req.Channel, err))
	}

	var result *ports.CollectResult
	err := c.policy.Do(ctx, func(ctx context.Context) error {
		httpReq, err := http.NewRequestWithContext(ctx, "GET", target, nil)
		if err != nil {
			return retry.Permanent(apperrors.InvalidInput(err.Error()))
		}
		httpReq.Header.Set("Accept", "text/html, application/json, text/plain")

		resp, err := c.client.Do(httpReq)
		if err != nil {
			c.log.Warn("channel %s fetch failed: %v", req.Channel, err)
			return apperrors.ExternalServiceError(string(req.Channel), err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return apperrors.ExternalServiceError(string(req.Channel), fmt.Errorf("status %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return retry.Permanent(apperrors.ExternalServiceError(string(req.Channel), fmt.Errorf("status %d", resp.StatusCode)))
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
		if err != nil {
			return apperrors.ExternalServiceError(string(req.Channel), err)
		}
		if len(strings.TrimSpace(string(body))) == 0 {
			return retry.Permanent(apperrors.ExternalServiceError(string(req.Channel), fmt.Errorf("empty response body")))
		}

		result = &ports.CollectResult{
			Content:     string(body),
			SourceURL:   target,
			CollectedAt: time.Now().UTC(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.log.Debug("channel %s collected %d bytes from %s", req.Channel, len(result.Content), result.SourceURL)
	return result, nil
}

func expandTemplate(template string, req ports.CollectRequest) string {
	out := strings.ReplaceAll(template, "{entity_id}", url.QueryEscape(req.EntityID.String()))
	for key, value := range req.Query {
		out = strings.ReplaceAll(out, "{"+key+"}", url.QueryEscape(value))
	}
	return out
}

// StaticCollector returns canned content per channel. Used in tests and in
// dry-run mode when no live endpoints are configured.
type StaticCollector struct {
	Content map[signal.ChannelType]string
	Err     map[signal.ChannelType]error
}

func (s *StaticCollector) Collect(ctx context.Context, req ports.CollectRequest) (*ports.CollectResult, error) {
	if err, ok := s.Err[req.Channel]; ok {
		return nil, err
	}
	content, ok := s.Content[req.Channel]
	if !ok {
		return nil, apperrors.ExternalServiceError(string(req.Channel), fmt.Errorf("no content"))
	}
	return &ports.CollectResult{
		Content:     content,
		SourceURL:   fmt.Sprintf("https://example.test/%s/%s", req.Channel, req.EntityID),
		CollectedAt: time.Now().UTC(),
	}, nil
}
