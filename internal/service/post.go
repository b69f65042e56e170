package service

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"strings"
	"unicode"

	"github.com/templui/spacenews/internal/cms"
	"github.com/templui/spacenews/internal/model"
)

// WordsPerMinute is the assumed average reading speed.
const WordsPerMinute = 200

type rawSection struct {
	Heading *string               `json:"heading"`
	Body    []model.RichTextBlock `json:"body"`
}

type PostService struct {
	cms CMS
}

func NewPostService(client CMS) *PostService {
	return &PostService{
		cms: client,
	}
}

// Post fetches the document with the given uid and assembles its view model.
// A missing document surfaces as a FetchError wrapping cms.ErrNotFound.
func (s *PostService) Post(ctx context.Context, uid string) (*model.PostDetail, error) {
	raw, err := s.cms.GetByUID(ctx, uid)
	if err != nil {
		return nil, &FetchError{Op: "get post " + uid, Err: err}
	}
	return Assemble(raw)
}

// Assemble shapes a full post record into a PostDetail and computes its reading time.
func Assemble(raw *cms.RawPostRecord) (*model.PostDetail, error) {
	err := checkRecord(raw)
	if err != nil {
		return nil, err
	}
	if raw.Data == nil {
		return nil, &ShapeError{UID: raw.UID, Field: "data", Reason: "is missing"}
	}

	content := bytes.TrimSpace(raw.Data.Content)
	if len(content) == 0 || bytes.Equal(content, []byte("null")) {
		return nil, &ShapeError{UID: raw.UID, Field: "data.content", Reason: "is missing"}
	}

	var sections []rawSection
	err = json.Unmarshal(content, &sections)
	if err != nil {
		return nil, &ShapeError{UID: raw.UID, Field: "data.content", Reason: "is malformed", Err: err}
	}

	published, err := parsePublicationDate(raw.UID, raw.FirstPublicationDate)
	if err != nil {
		return nil, err
	}

	post := &model.PostDetail{
		UID:             raw.UID,
		PublicationDate: published,
		Title:           stringValue(raw.Data.Title),
		BannerURL:       raw.Data.Banner.URL,
		Author:          raw.Data.Author,
		Sections:        make([]model.Section, 0, len(sections)),
	}

	for _, s := range sections {
		section := model.Section{Body: s.Body}
		if s.Heading != nil {
			section.Heading = *s.Heading
		}
		post.Sections = append(post.Sections, section)
	}

	post.ReadingTime = ReadingTime(post.Sections)

	return post, nil
}

// ReadingTime is the total word count of every heading and body block divided
// by WordsPerMinute, rounded half up to whole minutes.
func ReadingTime(sections []model.Section) int {
	words := 0
	for _, section := range sections {
		words += CountWords(section.Heading)
		for _, block := range section.Body {
			words += CountWords(block.Text)
		}
	}
	return int(math.Round(float64(words) / WordsPerMinute))
}

// CountWords counts the tokens left after splitting on runs of non-word runes.
func CountWords(text string) int {
	return len(strings.FieldsFunc(text, isWordSeparator))
}

func isWordSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
