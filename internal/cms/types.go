package cms

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RawPostRecord is a post document as returned by the CMS search API.
//
// Decoding a record never fails: a field with an unexpected JSON type is
// recorded in Malformed so one bad document does not discard the whole page.
type RawPostRecord struct {
	ID                   string       `json:"id"`
	UID                  string       `json:"uid"`
	Type                 string       `json:"type"`
	FirstPublicationDate *string      `json:"first_publication_date"`
	Data                 *RawPostData `json:"data"`

	Malformed *FieldError `json:"-"`
}

type RawPostData struct {
	// Title is nil when the document has no title field.
	Title    *string  `json:"title"`
	Subtitle string   `json:"subtitle"`
	Author   string   `json:"author"`
	Banner   RawImage `json:"banner"`
	// Content is decoded lazily so absent, null and malformed content can be told apart.
	Content json.RawMessage `json:"content"`
}

type RawImage struct {
	URL string `json:"url"`
	Alt string `json:"alt"`
}

// FieldError names the first field of a record that could not be decoded.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func (r *RawPostRecord) UnmarshalJSON(b []byte) error {
	*r = RawPostRecord{}

	var fields map[string]json.RawMessage
	err := json.Unmarshal(b, &fields)
	if err != nil {
		r.Malformed = &FieldError{Field: "record", Err: err}
		return nil
	}

	d := fieldDecoder{fields: fields}
	d.decode("uid", "uid", &r.UID)
	d.decode("id", "id", &r.ID)
	d.decode("type", "type", &r.Type)
	d.decode("first_publication_date", "first_publication_date", &r.FirstPublicationDate)

	if raw, ok := fields["data"]; ok && !isNull(raw) {
		var dataFields map[string]json.RawMessage
		err := json.Unmarshal(raw, &dataFields)
		if err != nil {
			d.fail("data", err)
		} else {
			data := &RawPostData{}
			dd := fieldDecoder{fields: dataFields}
			dd.decode("title", "data.title", &data.Title)
			dd.decode("subtitle", "data.subtitle", &data.Subtitle)
			dd.decode("author", "data.author", &data.Author)
			dd.decode("banner", "data.banner", &data.Banner)
			if content, ok := dataFields["content"]; ok {
				data.Content = append(json.RawMessage(nil), content...)
			}
			r.Data = data
			if d.err == nil {
				d.err = dd.err
			}
		}
	}

	r.Malformed = d.err
	return nil
}

// fieldDecoder decodes named fields one by one and keeps the first failure.
type fieldDecoder struct {
	fields map[string]json.RawMessage
	err    *FieldError
}

func (d *fieldDecoder) decode(key, field string, dst any) {
	raw, ok := d.fields[key]
	if !ok || isNull(raw) {
		return
	}
	err := json.Unmarshal(raw, dst)
	if err != nil {
		d.fail(field, err)
	}
}

func (d *fieldDecoder) fail(field string, err error) {
	if d.err == nil {
		d.err = &FieldError{Field: field, Err: err}
	}
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// Response is one page of search results. NextPage is the cursor URL of the
// following page, nil on the last page.
type Response struct {
	Page             int             `json:"page"`
	ResultsPerPage   int             `json:"results_per_page"`
	ResultsSize      int             `json:"results_size"`
	TotalResultsSize int             `json:"total_results_size"`
	TotalPages       int             `json:"total_pages"`
	NextPage         *string         `json:"next_page"`
	PrevPage         *string         `json:"prev_page"`
	Results          []RawPostRecord `json:"results"`
}

// Cursor returns the next page URL or "" when there is none.
func (r *Response) Cursor() string {
	if r == nil || r.NextPage == nil {
		return ""
	}
	return *r.NextPage
}

type apiInfo struct {
	Refs []apiRef `json:"refs"`
}

type apiRef struct {
	ID          string `json:"id"`
	Ref         string `json:"ref"`
	Label       string `json:"label"`
	IsMasterRef bool   `json:"isMasterRef"`
}
