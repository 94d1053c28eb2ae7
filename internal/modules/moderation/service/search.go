package moderation

import (
	"html"
	"log/slog"
	"strings"
	"time"

	"anoa.com/forumguard/internal/model"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
)

const flagsIndex = "flags"

// FlagIndexer mirrors flags into the moderator queue search index. A nil
// client disables indexing entirely (search is an optional dependency).
type FlagIndexer interface {
	IndexFlag(flag *model.Flag) error
	Search(query string, limit int64) ([]FlagDocument, error)
}

type FlagDocument struct {
	ID          string `json:"id"`
	ContentType string `json:"content_type"`
	TargetID    string `json:"target_id"`
	Reason      string `json:"reason"`
	Status      string `json:"status"`
	Explanation string `json:"explanation"`
	CreatedAt   int64  `json:"created_at"`
}

type meiliFlagIndexer struct {
	client    meilisearch.ServiceManager
	sanitizer *bluemonday.Policy
}

func NewFlagIndexer(client meilisearch.ServiceManager) FlagIndexer {
	idx := &meiliFlagIndexer{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
	}
	if client != nil {
		idx.initIndex()
	}
	return idx
}

func (s *meiliFlagIndexer) initIndex() {
	filterable := []any{"status", "reason", "content_type"}
	if _, err := s.client.Index(flagsIndex).UpdateFilterableAttributes(&filterable); err != nil {
		slog.Warn("failed to update flags filterable attributes", "err", err)
	}
	sortable := []string{"created_at"}
	if _, err := s.client.Index(flagsIndex).UpdateSortableAttributes(&sortable); err != nil {
		slog.Warn("failed to update flags sortable attributes", "err", err)
	}
}

func (s *meiliFlagIndexer) IndexFlag(flag *model.Flag) error {
	if s.client == nil {
		return nil
	}

	doc := FlagDocument{
		ID:          flag.ID.String(),
		ContentType: flag.ContentType,
		TargetID:    flag.TargetID().String(),
		Reason:      string(flag.Reason),
		Status:      string(flag.Status),
		Explanation: s.cleanExplanationForIndex(flag.Explanation),
		CreatedAt:   flag.CreatedAt.Unix(),
	}
	if doc.CreatedAt <= 0 {
		doc.CreatedAt = time.Now().Unix()
	}

	primaryKey := "id"
	_, err := s.client.Index(flagsIndex).AddDocuments([]FlagDocument{doc}, &primaryKey)
	return err
}

// Explanations are user-supplied; strip any markup before the text goes into
// the search index.
func (s *meiliFlagIndexer) cleanExplanationForIndex(explanation string) string {
	sanitized := s.sanitizer.Sanitize(explanation)
	cleanText := html.UnescapeString(sanitized)
	return strings.Join(strings.Fields(cleanText), " ")
}

func (s *meiliFlagIndexer) Search(query string, limit int64) ([]FlagDocument, error) {
	if s.client == nil {
		return []FlagDocument{}, nil
	}

	resp, err := s.client.Index(flagsIndex).Search(query, &meilisearch.SearchRequest{Limit: limit})
	if err != nil {
		return nil, err
	}

	docs := make([]FlagDocument, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		var doc FlagDocument
		if err := hit.DecodeInto(&doc); err != nil {
			slog.Warn("failed to decode flag search hit", "err", err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
