package post

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"boostysync/pkg/logger"
	"boostysync/pkg/media"
)

// Block is one rendered text segment of a post. A break block inserts a blank
// line between paragraphs.
type Block struct {
	Text  string
	Break bool
}

// Post is a single post's text content plus its owned media pool.
type Post struct {
	ID          string
	Title       string
	PublishTime int64 // unix seconds, platform time (UTC based)
	SignedQuery string
	Markdown    bool

	MediaPool *media.Pool

	blocks    []Block
	tags      []string
	malformed bool

	log logger.Logger
}

// New creates a post record with an empty media pool accepting the given kinds.
func New(id, title string, publishTime int64, markdown bool, flags media.Flags) *Post {
	return &Post{
		ID:          id,
		Title:       title,
		PublishTime: publishTime,
		Markdown:    markdown,
		MediaPool:   media.NewPool(flags),
		log:         logger.GetLogger(),
	}
}

// AddText appends a text block from the editor's serialized payload.
// An empty modificator is a plain paragraph and BLOCK_END is a paragraph
// break; anything else is ignored. A payload that fails to decode flags the
// post as malformed but never aborts its construction.
func (p *Post) AddText(content, modificator string) {
	switch modificator {
	case "":
		text, err := decodeTextPayload(content, p.Markdown)
		if err != nil {
			if errors.Is(err, errEmptyText) {
				return
			}
			p.log.WarnWithFields("failed to decode text block", map[string]interface{}{
				"post_id": p.ID,
				"error":   err.Error(),
			})
			p.malformed = true
			return
		}
		p.blocks = append(p.blocks, Block{Text: text})
	case BlockEndModificator:
		p.blocks = append(p.blocks, Block{Break: true})
	default:
		p.log.DebugWithFields("skipping text block with unknown modificator", map[string]interface{}{
			"post_id":     p.ID,
			"modificator": modificator,
		})
	}
}

// AddLink appends a link block.
func (p *Post) AddLink(content, url string) {
	if url == "" {
		return
	}
	p.blocks = append(p.blocks, Block{Text: renderLink(content, url, p.Markdown)})
}

// AddTag records a tag title on the post.
func (p *Post) AddTag(title string) {
	p.tags = append(p.tags, title)
}

// Tags returns the post's tag titles in insertion order.
func (p *Post) Tags() []string {
	return p.tags
}

// Blocks returns the rendered text blocks.
func (p *Post) Blocks() []Block {
	return p.blocks
}

// ContentMalformed reports whether any structured text payload failed to decode.
func (p *Post) ContentMalformed() bool {
	return p.malformed
}

// ContentsText builds the display document for the post: title, text blocks,
// and a publish-time footer in local time.
func (p *Post) ContentsText() string {
	var b strings.Builder

	if p.Title != "" {
		if p.Markdown {
			b.WriteString("# " + p.Title + "\n\n")
		} else {
			b.WriteString(p.Title + "\n")
			b.WriteString(strings.Repeat("-", len([]rune(p.Title))) + "\n\n")
		}
	}

	for i, block := range p.blocks {
		if block.Break {
			b.WriteString("\n")
			continue
		}
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(block.Text)
	}

	if p.PublishTime > 0 {
		// The platform reports UTC-based timestamps; render them in the
		// machine's local zone with real timezone conversion.
		published := time.Unix(p.PublishTime, 0).In(time.Local).Format("02.01.2006 15:04")
		if p.Markdown {
			b.WriteString(fmt.Sprintf("\n\n---\n\npublished on %s\n", published))
		} else {
			b.WriteString(fmt.Sprintf("\n\n[published on %s]\n", published))
		}
	}

	return b.String()
}
