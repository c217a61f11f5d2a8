package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"scentdb/pkg/models"
)

// Archive fetches fragrance listings from a hosted JSON archive. The
// payload is an array of flat objects whose key names vary by dump
// vintage ("perfume" vs "name", "main_accords" vs "accords"); records
// are passed through untouched and the normalizer's alias table sorts
// out the naming.
type Archive struct {
	BaseURL string
	Client  *http.Client
	Limit   int // page size
	Max     int // total fetch cap, 0 = no cap
}

func NewArchive(baseURL string) *Archive {
	return &Archive{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 12 * time.Second},
		Limit:   200,
	}
}

func (s *Archive) Name() string { return "archive" }

// FetchAll pages through {BaseURL}/fragrances?limit=N&offset=M until
// the archive returns an empty page.
func (s *Archive) FetchAll(ctx context.Context) ([]models.SourceRecord, error) {
	var all []models.SourceRecord
	offset := 0

	for {
		u, err := url.Parse(s.BaseURL + "/fragrances")
		if err != nil {
			return nil, fmt.Errorf("archive: parse url: %w", err)
		}
		q := u.Query()
		q.Set("limit", fmt.Sprintf("%d", s.Limit))
		q.Set("offset", fmt.Sprintf("%d", offset))
		u.RawQuery = q.Encode()

		page, err := s.fetchPage(ctx, u.String())
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}

		all = append(all, page...)
		if s.Max > 0 && len(all) >= s.Max {
			all = all[:s.Max]
			break
		}
		offset += s.Limit
	}

	return all, nil
}

func (s *Archive) fetchPage(ctx context.Context, rawURL string) ([]models.SourceRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("archive: build request: %w", err)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("archive: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("archive: status %d: %s", resp.StatusCode, string(body))
	}

	var page []models.SourceRecord
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("archive: decode: %w", err)
	}
	return page, nil
}

// JSONFile reads a local JSON dump with the same array-of-objects
// shape the archive serves. Used by the import-json command.
type JSONFile struct {
	Path string
}

func NewJSONFile(path string) *JSONFile {
	return &JSONFile{Path: path}
}

func (s *JSONFile) Name() string { return "json-file" }

func (s *JSONFile) FetchAll(_ context.Context) ([]models.SourceRecord, error) {
	b, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("json-file: read %s: %w", s.Path, err)
	}

	var recs []models.SourceRecord
	if err := json.Unmarshal(b, &recs); err != nil {
		return nil, fmt.Errorf("json-file: decode %s: %w", s.Path, err)
	}
	return recs, nil
}
