package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/oksasatya/alumni-backend/internal/domain/entity"
)

const requestTimeout = 3 * time.Second

// ProfileIndex is the Elasticsearch backed alumni directory.
type ProfileIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewProfileIndex(es *elasticsearch.Client, index string) *ProfileIndex {
	return &ProfileIndex{es: es, index: index}
}

type profileDoc struct {
	entity.DirectoryEntry
	UpdatedAt string `json:"updated_at"`
}

// Index upserts the directory document for a verified account, keyed by account id.
func (ix *ProfileIndex) Index(ctx context.Context, a *entity.Account, p *entity.Profile) error {
	doc := profileDoc{
		DirectoryEntry: entity.DirectoryEntry{
			AccountID:      a.ID,
			Email:          a.Email,
			Name:           p.Name,
			Course:         p.Course,
			GraduationYear: p.GraduationYear,
			Designation:    p.Designation,
		},
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: ix.index, DocumentID: a.ID, Body: bytes.NewReader(b), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(c, ix.es)
	if err != nil {
		return fmt.Errorf("index profile %s: %w", a.ID, err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("index profile %s: %s", a.ID, res.Status())
	}
	return nil
}

// Remove deletes the document. A missing document is not an error.
func (ix *ProfileIndex) Remove(ctx context.Context, accountID string) error {
	req := esapi.DeleteRequest{Index: ix.index, DocumentID: accountID}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(c, ix.es)
	if err != nil {
		return fmt.Errorf("remove profile %s: %w", accountID, err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("remove profile %s: %s", accountID, res.Status())
	}
	return nil
}

// Search performs a multi_match over name, email, designation and course.
func (ix *ProfileIndex) Search(ctx context.Context, q string, size int) ([]entity.DirectoryEntry, error) {
	switch {
	case size <= 0:
		size = 10
	case size > 50:
		size = 50
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"name^2", "email^2", "designation", "course"},
			},
		},
		"size": size,
	}
	b, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := ix.es.Search(
		ix.es.Search.WithContext(c),
		ix.es.Search.WithIndex(ix.index),
		ix.es.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("search profiles: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source entity.DirectoryEntry `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]entity.DirectoryEntry, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
