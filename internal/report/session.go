package report

import (
	"sync"

	"mailmetrics/internal/domain"
)

// AllCampaigns is the session filter value selecting every campaign.
const AllCampaigns = ""

// Session holds the interactive state one dashboard consumer carries
// between calls: the current campaign filter and the last result set it
// saw. It replaces implicit global state with an explicit object passed
// between the core and the presentation layer.
type Session struct {
	mu       sync.Mutex
	campaign string
	last     *domain.ResultSet
}

// NewSession creates a Session with no filter and no data.
func NewSession() *Session {
	return &Session{}
}

// SetFilter selects a campaign; AllCampaigns clears the selection.
func (s *Session) SetFilter(campaign string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.campaign = campaign
}

// Filter returns the current campaign selection.
func (s *Session) Filter() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.campaign
}

// Remember stores the last fetched result set.
func (s *Session) Remember(rs *domain.ResultSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = rs
}

// Last returns the last fetched result set, or nil before the first load.
func (s *Session) Last() *domain.ResultSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
