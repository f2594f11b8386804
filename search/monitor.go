package search

import "github.com/poiesic/talentmatch/core"

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(kind core.Kind, query string)
	AfterSemanticSearch(ids []string)
	Filtered(id string)
	VerbatimHit(id string)
	Finish(items []core.Item)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ core.Kind, _ string)   {}
func (n *noopMonitor) AfterSemanticSearch(_ []string) {}
func (n *noopMonitor) Filtered(_ string)              {}
func (n *noopMonitor) VerbatimHit(_ string)           {}
func (n *noopMonitor) Finish(_ []core.Item)           {}
