package discovery

import (
	"sync"
	"time"

	"orgscout/domain/signal"
)

// BlacklistEntry tracks the success/failure history of one channel type for
// one organization.
type BlacklistEntry struct {
	Channel             signal.ChannelType `json:"channel_type"`
	ConsecutiveFailures int                `json:"consecutive_failures"`
	SuccessCount        int                `json:"success_count"`
	FailureCount        int                `json:"failure_count"`
	LastFailureAt       time.Time          `json:"last_failure_at"`
	Blacklisted         bool               `json:"blacklisted"`
}

// ExhaustionRate is failures/(failures+successes), clamped to [0, 0.95] so
// history alone never fully zeroes a channel's score.
func (e BlacklistEntry) ExhaustionRate() float64 {
	total := e.FailureCount + e.SuccessCount
	if total == 0 {
		return 0
	}
	rate := float64(e.FailureCount) / float64(total)
	if rate > 0.95 {
		rate = 0.95
	}
	return rate
}

// Blacklist holds per-channel history for a single organization's session.
// It is never shared across organizations; within a session it may be
// touched by concurrently evaluated hypotheses, so access is locked.
type Blacklist struct {
	mu        sync.Mutex
	threshold int
	entries   map[signal.ChannelType]*BlacklistEntry
}

// NewBlacklist creates an empty blacklist with the given consecutive-failure
// threshold.
func NewBlacklist(threshold int) *Blacklist {
	return &Blacklist{
		threshold: threshold,
		entries:   make(map[signal.ChannelType]*BlacklistEntry),
	}
}

func (b *Blacklist) entry(ch signal.ChannelType) *BlacklistEntry {
	e, ok := b.entries[ch]
	if !ok {
		e = &BlacklistEntry{Channel: ch}
		b.entries[ch] = e
	}
	return e
}

// RecordSuccess notes a successful hop against a channel and clears its
// consecutive-failure streak.
func (b *Blacklist) RecordSuccess(ch signal.ChannelType) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e := b.entry(ch)
	e.SuccessCount++
	e.ConsecutiveFailures = 0
	e.Blacklisted = false
}

// RecordFailure notes a failed hop against a channel; crossing the threshold
// blacklists it.
func (b *Blacklist) RecordFailure(ch signal.ChannelType) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e := b.entry(ch)
	e.FailureCount++
	e.ConsecutiveFailures++
	e.LastFailureAt = time.Now()
	if e.ConsecutiveFailures >= b.threshold {
		e.Blacklisted = true
	}
}

// Entry returns a copy of the entry for a channel (zero entry if untouched).
func (b *Blacklist) Entry(ch signal.ChannelType) BlacklistEntry {
	b.mu.Lock()
	defer b.mu.Unlock()

	if e, ok := b.entries[ch]; ok {
		return *e
	}
	return BlacklistEntry{Channel: ch}
}

// AllBlacklisted reports whether every channel in the list is currently
// blacklisted. Used to decide whether a REJECT can terminate a hypothesis.
func (b *Blacklist) AllBlacklisted(channels []signal.ChannelType) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(channels) == 0 {
		return true
	}
	for _, ch := range channels {
		e, ok := b.entries[ch]
		if !ok || !e.Blacklisted {
			return false
		}
	}
	return true
}

// Eligible filters channels to those not blacklisted. If every channel in
// the list is blacklisted, the least-recently-failed one is unblocked and
// returned so a category can never starve completely.
func (b *Blacklist) Eligible(channels []signal.ChannelType) []signal.ChannelType {
	b.mu.Lock()
	defer b.mu.Unlock()

	eligible := make([]signal.ChannelType, 0, len(channels))
	for _, ch := range channels {
		if e, ok := b.entries[ch]; ok && e.Blacklisted {
			continue
		}
		eligible = append(eligible, ch)
	}
	if len(eligible) > 0 || len(channels) == 0 {
		return eligible
	}

	// Total starvation: unblock the channel whose last failure is oldest.
	var oldest *BlacklistEntry
	for _, ch := range channels {
		e := b.entry(ch)
		if oldest == nil || e.LastFailureAt.Before(oldest.LastFailureAt) {
			oldest = e
		}
	}
	oldest.Blacklisted = false
	oldest.ConsecutiveFailures = 0
	return []signal.ChannelType{oldest.Channel}
}
