package post

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// BlockEndModificator marks a paragraph break in the post editor's output.
const BlockEndModificator = "BLOCK_END"

// styleBold is the only span style code the editor is known to emit.
const styleBold = 0

// errEmptyText marks a structurally valid payload whose text is empty; such
// blocks are dropped without flagging the post as malformed.
var errEmptyText = fmt.Errorf("empty text payload")

// decodeTextPayload decodes the editor's serialized 3-element payload
// [text, styleName, spanList]. In markdown mode the style must be "unstyled"
// and bold spans are rendered with ** markers; offsets index into the original
// text, so all insertion points are computed before any marker is inserted.
func decodeTextPayload(payload string, markdown bool) (string, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal([]byte(payload), &parts); err != nil {
		return "", fmt.Errorf("unmarshal text payload: %w", err)
	}
	if len(parts) != 3 {
		return "", fmt.Errorf("text payload has %d elements, want 3", len(parts))
	}

	var text string
	if err := json.Unmarshal(parts[0], &text); err != nil {
		return "", fmt.Errorf("text payload element 0: %w", err)
	}
	if text == "" {
		return "", errEmptyText
	}

	if !markdown {
		return text, nil
	}

	var style string
	if err := json.Unmarshal(parts[1], &style); err != nil {
		return "", fmt.Errorf("text payload element 1: %w", err)
	}
	if style != "unstyled" {
		return "", fmt.Errorf("unexpected text style %q", style)
	}

	var spans [][]int
	if err := json.Unmarshal(parts[2], &spans); err != nil {
		return "", fmt.Errorf("text payload spans: %w", err)
	}

	return applySpans(text, spans), nil
}

// applySpans renders style spans over text. Unknown style codes produce no
// markup. Span offsets are character positions in the original string.
func applySpans(text string, spans [][]int) string {
	runes := []rune(text)

	var points []int
	for _, span := range spans {
		if len(span) != 3 || span[0] != styleBold {
			continue
		}
		start, length := span[1], span[2]
		if start < 0 || length <= 0 || start+length > len(runes) {
			continue
		}
		points = append(points, start, start+length)
	}
	if len(points) == 0 {
		return text
	}

	// Insert from the end so earlier offsets stay valid.
	sort.Sort(sort.Reverse(sort.IntSlice(points)))

	out := runes
	for _, p := range points {
		out = append(out[:p], append([]rune("**"), out[p:]...)...)
	}
	return string(out)
}

// renderLink renders a link block. The wrapped text payload follows the same
// decoding rule as a plain text block; an undecodable or empty label falls
// back to the bare URL.
func renderLink(content, url string, markdown bool) string {
	text, err := decodeTextPayload(content, markdown)
	if err != nil {
		text = ""
	}

	if markdown {
		if text == "" {
			text = url
		}
		return fmt.Sprintf("[%s](%s)", text, url)
	}

	if strings.TrimSpace(text) == "" {
		return url
	}
	return fmt.Sprintf("%s (ссылка: %s)", text, url)
}
