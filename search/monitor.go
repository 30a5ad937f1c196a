package search

import "github.com/poiesic/lore/core"

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterSemanticSearch(matches []*core.SearchResult)
	AfterKeywordSearch(ids []core.ID)
	HybridHit(record *core.ContentRecord)
	SemanticHit(record *core.ContentRecord)
	KeywordHit(record *core.ContentRecord)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                             {}
func (n *noopMonitor) AfterSemanticSearch(_ []*core.SearchResult) {}
func (n *noopMonitor) AfterKeywordSearch(_ []core.ID)             {}
func (n *noopMonitor) HybridHit(_ *core.ContentRecord)            {}
func (n *noopMonitor) SemanticHit(_ *core.ContentRecord)          {}
func (n *noopMonitor) KeywordHit(_ *core.ContentRecord)           {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)              {}
