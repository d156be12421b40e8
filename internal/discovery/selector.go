package discovery

import (
	"sort"

	"orgscout/domain/signal"
)

// Selector ranks the channels applicable to a hypothesis category by
// expected information gain discounted by each channel's failure history.
type Selector struct {
	weights map[signal.ChannelType]float64
}

// NewSelector creates a selector over the configured base EIG weights.
func NewSelector(weights map[signal.ChannelType]float64) *Selector {
	return &Selector{weights: weights}
}

type scoredChannel struct {
	channel signal.ChannelType
	score   float64
	rank    int
}

// Rank returns the eligible channels in preference order:
// score = base_eig x (1 - exhaustion_rate), ties broken by the declaration
// order of channel types. Blacklisted channels are excluded, except that a
// fully blacklisted category yields its least-recently-failed channel.
func (s *Selector) Rank(bl *Blacklist, channels []signal.ChannelType) []signal.ChannelType {
	eligible := bl.Eligible(channels)
	if len(eligible) == 0 {
		return nil
	}

	scored := make([]scoredChannel, 0, len(eligible))
	for _, ch := range eligible {
		entry := bl.Entry(ch)
		scored = append(scored, scoredChannel{
			channel: ch,
			score:   s.weights[ch] * (1 - entry.ExhaustionRate()),
			rank:    signal.ChannelRank(ch),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].rank < scored[j].rank
	})

	ranked := make([]signal.ChannelType, len(scored))
	for i, sc := range scored {
		ranked[i] = sc.channel
	}
	return ranked
}
