package discovery

import (
	"fmt"

	"orgscout/domain/core"
	"orgscout/domain/signal"
)

// HypothesisTemplate seeds one standing hypothesis per category when a
// discovery run starts for an organization.
type HypothesisTemplate struct {
	Category  string
	Statement string // fmt template, receives the organization name
	Prior     float64
	Channels  []signal.ChannelType
	Guidance  string // channel guidance forwarded to the reasoning collaborator
}

// DefaultTemplates returns the built-in hypothesis seeds. Categories map to
// the channel types worth querying for them.
func DefaultTemplates() []HypothesisTemplate {
	return []HypothesisTemplate{
		{
			Category:  "procurement_intent",
			Statement: "%s is preparing to issue a procurement request within the next two quarters",
			Prior:     0.15,
			Channels: []signal.ChannelType{
				signal.ChannelRFPListing,
				signal.ChannelProcurement,
				signal.ChannelNewsSearch,
				signal.ChannelPublicFilings,
			},
			Guidance: "Weigh formal solicitation language (RFP, RFI, tender, bid deadline) far above vague intent. Budget line items and procurement portal postings are strong evidence.",
		},
		{
			Category:  "capacity_expansion",
			Statement: "%s is expanding capacity in a way that signals new vendor spending",
			Prior:     0.1,
			Channels: []signal.ChannelType{
				signal.ChannelCareersPage,
				signal.ChannelPressRelease,
				signal.ChannelNewsSearch,
			},
			Guidance: "Hiring clusters, new facility announcements, and multi-year program launches indicate expansion. Single role postings are weak evidence at best.",
		},
	}
}

// Seed instantiates the templates for one organization.
func Seed(entity core.EntityID, orgName string, templates []HypothesisTemplate) []*signal.Hypothesis {
	hyps := make([]*signal.Hypothesis, 0, len(templates))
	for _, t := range templates {
		hyps = append(hyps, signal.NewHypothesis(entity, fmt.Sprintf(t.Statement, orgName), t.Category, t.Prior))
	}
	return hyps
}

// ChannelsFor returns the channel set for a category, nil if unknown.
func ChannelsFor(category string, templates []HypothesisTemplate) []signal.ChannelType {
	for _, t := range templates {
		if t.Category == category {
			return t.Channels
		}
	}
	return nil
}

// GuidanceFor returns the reasoning guidance for a category.
func GuidanceFor(category string, templates []HypothesisTemplate) string {
	for _, t := range templates {
		if t.Category == category {
			return t.Guidance
		}
	}
	return ""
}
