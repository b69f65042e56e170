package service

import (
	"context"
	"encoding/json"
	"slices"
	"strings"
	"sync"

	"github.com/templui/spacenews/internal/cms"
)

// stubCMS serves canned pages keyed by cursor ("" is the first page) and records by uid.
type stubCMS struct {
	mu         sync.Mutex
	pages      map[string]*cms.Response
	records    map[string]*cms.RawPostRecord
	err        error
	uidsErr    error
	queryCalls int
	fetchCalls int
	getCalls   int
	lastQuery  cms.QueryOptions
}

func newStubCMS() *stubCMS {
	return &stubCMS{
		pages:   make(map[string]*cms.Response),
		records: make(map[string]*cms.RawPostRecord),
	}
}

func (s *stubCMS) page(cursor, next string, records ...cms.RawPostRecord) {
	resp := &cms.Response{Results: records}
	if next != "" {
		resp.NextPage = &next
	}
	s.pages[cursor] = resp
}

func (s *stubCMS) QueryPosts(_ context.Context, opts cms.QueryOptions) (*cms.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queryCalls++
	s.lastQuery = opts
	if s.err != nil {
		return nil, s.err
	}
	return s.pages[""], nil
}

func (s *stubCMS) FetchPage(_ context.Context, cursor string) (*cms.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchCalls++
	if s.err != nil {
		return nil, s.err
	}
	resp, ok := s.pages[cursor]
	if !ok {
		return nil, cms.ErrForeignCursor
	}
	return resp, nil
}

func (s *stubCMS) GetByUID(_ context.Context, uid string) (*cms.RawPostRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls++
	if s.err != nil {
		return nil, s.err
	}
	rec, ok := s.records[uid]
	if !ok {
		return nil, cms.ErrNotFound
	}
	return rec, nil
}

func (s *stubCMS) AllUIDs(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if s.uidsErr != nil {
		return nil, s.uidsErr
	}
	uids := make([]string, 0, len(s.records))
	for uid := range s.records {
		uids = append(uids, uid)
	}
	slices.Sort(uids)
	return uids, nil
}

func ptr(s string) *string {
	return &s
}

// summaryRecord is a listing record the way the search API returns it.
func summaryRecord(uid string) cms.RawPostRecord {
	return cms.RawPostRecord{
		UID:                  uid,
		FirstPublicationDate: ptr("2021-03-15T19:25:28+0000"),
		Data: &cms.RawPostData{
			Title:    ptr("Title " + uid),
			Subtitle: "Subtitle " + uid,
			Author:   "Danilo Vieira",
			Banner:   cms.RawImage{URL: "https://images.example.com/" + uid + ".png"},
		},
	}
}

// decodedRecord decodes a record the way the CMS client does.
func decodedRecord(raw string) cms.RawPostRecord {
	var rec cms.RawPostRecord
	err := json.Unmarshal([]byte(raw), &rec)
	if err != nil {
		panic(err)
	}
	return rec
}

// fullRecord is a complete post whose content holds the given section headings and bodies.
func fullRecord(uid string, sections ...map[string]any) *cms.RawPostRecord {
	rec := summaryRecord(uid)
	if sections == nil {
		sections = []map[string]any{}
	}
	content, err := json.Marshal(sections)
	if err != nil {
		panic(err)
	}
	rec.Data.Content = content
	return &rec
}

func section(heading string, paragraphs ...string) map[string]any {
	body := make([]map[string]any, 0, len(paragraphs))
	for _, p := range paragraphs {
		body = append(body, map[string]any{"type": "paragraph", "text": p, "spans": []any{}})
	}
	return map[string]any{"heading": heading, "body": body}
}

// words returns n space separated words.
func words(n int) string {
	return strings.TrimSpace(strings.Repeat("lorem ", n))
}
