package stats

import (
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/olekukonko/tablewriter"
)

// Kind names a download category in the run report.
type Kind string

const (
	KindPhoto    Kind = "photo"
	KindVideo    Kind = "video"
	KindAudio    Kind = "audio"
	KindFile     Kind = "file"
	KindDocument Kind = "document"
)

// Kinds lists every reported category in display order.
var Kinds = []Kind{KindPhoto, KindVideo, KindAudio, KindFile, KindDocument}

type counters struct {
	downloaded atomic.Int64
	passed     atomic.Int64
	errors     atomic.Int64
}

// Tracker accumulates per-kind download outcomes across concurrent batches.
// Counter updates are lock-free; the failed-URL list takes a mutex because it
// is only touched on the error path.
type Tracker struct {
	kinds map[Kind]*counters

	mu     sync.Mutex
	failed []FailedItem
}

// FailedItem records one download that gave up after retries.
type FailedItem struct {
	Kind Kind
	ID   string
	URL  string
	Err  string
}

// NewTracker creates a tracker with zeroed counters for every kind.
func NewTracker() *Tracker {
	t := &Tracker{kinds: make(map[Kind]*counters)}
	for _, k := range Kinds {
		t.kinds[k] = &counters{}
	}
	return t
}

// AddDownloaded counts one item fetched and written to disk.
func (t *Tracker) AddDownloaded(kind Kind) {
	t.kinds[kind].downloaded.Add(1)
}

// AddPassed counts one item skipped because it already exists on disk.
func (t *Tracker) AddPassed(kind Kind) {
	t.kinds[kind].passed.Add(1)
}

// AddError counts one item that failed after retries and records it for the
// end-of-run report.
func (t *Tracker) AddError(kind Kind, id, url string, err error) {
	t.kinds[kind].errors.Add(1)

	msg := ""
	if err != nil {
		msg = err.Error()
	}
	t.mu.Lock()
	t.failed = append(t.failed, FailedItem{Kind: kind, ID: id, URL: url, Err: msg})
	t.mu.Unlock()
}

// Downloaded returns the downloaded count for a kind.
func (t *Tracker) Downloaded(kind Kind) int64 {
	return t.kinds[kind].downloaded.Load()
}

// Passed returns the skipped-existing count for a kind.
func (t *Tracker) Passed(kind Kind) int64 {
	return t.kinds[kind].passed.Load()
}

// Errors returns the failed count for a kind.
func (t *Tracker) Errors(kind Kind) int64 {
	return t.kinds[kind].errors.Load()
}

// TotalDownloaded sums downloaded counts across kinds.
func (t *Tracker) TotalDownloaded() int64 {
	var n int64
	for _, c := range t.kinds {
		n += c.downloaded.Load()
	}
	return n
}

// TotalErrors sums failed counts across kinds.
func (t *Tracker) TotalErrors() int64 {
	var n int64
	for _, c := range t.kinds {
		n += c.errors.Load()
	}
	return n
}

// FailedItems returns a copy of the recorded failures.
func (t *Tracker) FailedItems() []FailedItem {
	t.mu.Lock()
	defer t.mu.Unlock()
	res := make([]FailedItem, len(t.failed))
	copy(res, t.failed)
	return res
}

// Summary renders the run report as a text table, one row per kind plus a
// totals row, followed by the failed URLs if any.
func (t *Tracker) Summary() string {
	var b strings.Builder

	table := tablewriter.NewWriter(&b)
	table.SetHeader([]string{"Kind", "Downloaded", "Passed", "Errors"})
	table.SetBorder(false)
	table.SetColumnSeparator(" ")

	var totalDown, totalPass, totalErr int64
	for _, k := range Kinds {
		c := t.kinds[k]
		d, p, e := c.downloaded.Load(), c.passed.Load(), c.errors.Load()
		totalDown += d
		totalPass += p
		totalErr += e
		table.Append([]string{
			string(k),
			strconv.FormatInt(d, 10),
			strconv.FormatInt(p, 10),
			strconv.FormatInt(e, 10),
		})
	}
	table.SetFooter([]string{
		"total",
		strconv.FormatInt(totalDown, 10),
		strconv.FormatInt(totalPass, 10),
		strconv.FormatInt(totalErr, 10),
	})
	table.Render()

	failed := t.FailedItems()
	if len(failed) > 0 {
		b.WriteString("\nfailed downloads:\n")
		for _, f := range failed {
			b.WriteString("  [" + string(f.Kind) + "] " + f.ID + " " + f.URL)
			if f.Err != "" {
				b.WriteString(" (" + f.Err + ")")
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}
