// Package search maintains a full-text index over alert state using Bleve.
// The index is in-memory and rebuilt from scratch on restart, matching the
// lifetime of the alert store it mirrors.
package search

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/platformbuilds/alert-engine/internal/alerting"
	"github.com/platformbuilds/alert-engine/internal/config"
	"github.com/platformbuilds/alert-engine/internal/models"
	"github.com/platformbuilds/alert-engine/pkg/logger"
)

// AlertIndex provides full-text search over the latest known state of
// every alert seen since startup.
type AlertIndex struct {
	mu         sync.RWMutex
	index      bleve.Index
	logger     logger.Logger
	maxResults int
}

func NewAlertIndex(cfg config.SearchConfig, log logger.Logger) (*AlertIndex, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create alert index: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 50
	}

	return &AlertIndex{
		index:      idx,
		logger:     log,
		maxResults: maxResults,
	}, nil
}

// Attach subscribes the index to the engine bus so every lifecycle event
// refreshes the alert's document.
func (a *AlertIndex) Attach(bus *alerting.Bus) {
	bus.SubscribeAll(func(evt alerting.Event) {
		if evt.Alert == nil {
			return
		}
		if err := a.Index(evt.Alert); err != nil {
			a.logger.Warn("Alert indexing failed", "alert_id", evt.Alert.ID, "error", err)
		}
	})
}

// Index upserts the alert's searchable document keyed by alert id.
func (a *AlertIndex) Index(alert *models.Alert) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	doc := map[string]interface{}{
		"id":               alert.ID,
		"type":             alert.Type,
		"priority":         string(alert.Priority),
		"title":            alert.Title,
		"message":          alert.Message,
		"source":           alert.Source,
		"status":           alert.Status,
		"tags":             alert.Tags,
		"acknowledged":     alert.Acknowledged,
		"resolved":         alert.Resolved,
		"escalation_level": alert.EscalationLevel,
		"created_at":       alert.CreatedAt.Format(time.RFC3339),
	}
	return a.index.Index(alert.ID, doc)
}

// Search runs a Bleve query-string search and returns matched documents
// with their ids and scores.
func (a *AlertIndex) Search(ctx context.Context, queryString string, limit int) ([]map[string]interface{}, uint64, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if limit <= 0 || limit > a.maxResults {
		limit = a.maxResults
	}

	bleveQuery := query.NewQueryStringQuery(queryString)
	searchRequest := bleve.NewSearchRequestOptions(bleveQuery, limit, 0, false)
	searchRequest.Fields = []string{"*"}

	searchResult, err := a.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, 0, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]map[string]interface{}, 0, len(searchResult.Hits))
	for _, hit := range searchResult.Hits {
		doc := make(map[string]interface{}, len(hit.Fields)+2)
		doc["_id"] = hit.ID
		doc["_score"] = hit.Score
		for key, value := range hit.Fields {
			doc[key] = value
		}
		hits = append(hits, doc)
	}
	return hits, searchResult.Total, nil
}

// DocCount reports how many alerts are indexed.
func (a *AlertIndex) DocCount() (uint64, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.index.DocCount()
}

// Close releases the index.
func (a *AlertIndex) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.index.Close()
}
