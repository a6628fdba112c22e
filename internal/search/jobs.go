// Package search mirrors job postings into Elasticsearch for full-text search.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/Tech-Society-SEC/SkillSync/internal/model"
)

// ErrDisabled is returned when no Elasticsearch URL is configured.
var ErrDisabled = errors.New("search is not configured")

const jobMapping = `{
	"mappings": {
		"properties": {
			"jobId": {"type": "keyword"},
			"title": {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
			"company": {"type": "text"},
			"description": {"type": "text"},
			"location": {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
			"skillsRequired": {"type": "keyword"},
			"experienceRequired": {"type": "integer"},
			"salaryMin": {"type": "integer"},
			"salaryMax": {"type": "integer"},
			"employmentType": {"type": "keyword"},
			"postedBy": {"type": "keyword"},
			"isActive": {"type": "boolean"},
			"postedAt": {"type": "date"},
			"expiresAt": {"type": "date"},
			"updatedAt": {"type": "date"}
		}
	}
}`

// Query is a full-text job search.
type Query struct {
	Text       string
	ActiveOnly bool
	From       int
	Size       int
}

// Result is one page of hits, best match first.
type Result struct {
	Jobs  []model.Job
	Total int64
}

// JobIndex indexes and searches jobs.
type JobIndex struct {
	client *elasticsearch.Client
	index  string
}

// NewJobIndex connects to the cluster at url and verifies it answers.
func NewJobIndex(url, index string) (*JobIndex, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{url}})
	if err != nil {
		return nil, fmt.Errorf("create es client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("es info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("es error: %s", res.Status())
	}

	return &JobIndex{client: client, index: index}, nil
}

// EnsureIndex creates the index with the job mapping when it is missing.
func (i *JobIndex) EnsureIndex(ctx context.Context) error {
	res, err := i.client.Indices.Exists([]string{i.index}, i.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = i.client.Indices.Create(i.index,
		i.client.Indices.Create.WithBody(bytes.NewReader([]byte(jobMapping))),
		i.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("create index error: %s", res.Status())
	}
	return nil
}

// Index upserts job under its external id.
func (i *JobIndex) Index(ctx context.Context, job *model.Job) error {
	if i == nil {
		return ErrDisabled
	}
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      i.index,
		DocumentID: job.JobID,
		Body:       bytes.NewReader(data),
		Refresh:    "false",
	}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("index request: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index error: %s", res.Status())
	}
	return nil
}

// Delete removes the document for jobID. A missing document is not an error.
func (i *JobIndex) Delete(ctx context.Context, jobID string) error {
	if i == nil {
		return ErrDisabled
	}
	req := esapi.DeleteRequest{Index: i.index, DocumentID: jobID}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete error: %s", res.Status())
	}
	return nil
}

// Search runs q against the index.
func (i *JobIndex) Search(ctx context.Context, q Query) (*Result, error) {
	if i == nil {
		return nil, ErrDisabled
	}
	body, err := json.Marshal(searchBody(q))
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	res, err := i.client.Search(
		i.client.Search.WithContext(ctx),
		i.client.Search.WithIndex(i.index),
		i.client.Search.WithBody(bytes.NewReader(body)),
		i.client.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search error: %s", res.Status())
	}
	return decodeHits(res.Body)
}

func searchBody(q Query) map[string]any {
	var must []any
	if q.Text != "" {
		must = append(must, map[string]any{
			"multi_match": map[string]any{
				"query":     q.Text,
				"fields":    []string{"title^3", "skillsRequired^2", "company", "description", "location"},
				"fuzziness": "AUTO",
			},
		})
	} else {
		must = append(must, map[string]any{"match_all": map[string]any{}})
	}

	boolQuery := map[string]any{"must": must}
	if q.ActiveOnly {
		boolQuery["filter"] = []any{map[string]any{"term": map[string]any{"isActive": true}}}
	}

	return map[string]any{
		"query": map[string]any{"bool": boolQuery},
		"from":  q.From,
		"size":  q.Size,
		"sort":  []any{"_score", map[string]any{"postedAt": "desc"}},
	}
}

func decodeHits(r io.Reader) (*Result, error) {
	var body struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source model.Job `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := &Result{Total: body.Hits.Total.Value, Jobs: make([]model.Job, 0, len(body.Hits.Hits))}
	for _, h := range body.Hits.Hits {
		out.Jobs = append(out.Jobs, h.Source)
	}
	return out, nil
}
