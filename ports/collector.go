package ports

import (
	"context"
	"time"

	"orgscout/domain/core"
	"orgscout/domain/signal"
)

// CollectRequest identifies one hop: a channel to query and the parameters
// (organization name, entity id, extra query hints) to query it with.
type CollectRequest struct {
	Channel  signal.ChannelType `json:"channel_type"`
	EntityID core.EntityID      `json:"entity_id"`
	Query    map[string]string  `json:"query_parameters"`
}

// CollectResult is the raw material returned by a successful hop.
type CollectResult struct {
	Content     string    `json:"content"`
	SourceURL   string    `json:"source_url"`
	CollectedAt time.Time `json:"collected_at"`
}

// EvidencePort performs the actual network/scrape/search call for one hop.
// Failures after the adapter's own retries surface as errors; the discovery
// loop records them against the channel's blacklist entry.
type EvidencePort interface {
	Collect(ctx context.Context, req CollectRequest) (*CollectResult, error)
}
