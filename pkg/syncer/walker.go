package syncer

import (
	"context"

	"boostysync/pkg/syncstate"
)

// maxStreamErrors bounds failed page fetches per stream; past it the stream
// is abandoned with a warning rather than failing the whole run.
const maxStreamErrors = 10

// pageResult is what a fetch closure reports back after processing one page's
// entries.
type pageResult struct {
	isLast bool
	offset string
}

// fetchPage fetches and processes one page at the given cursor ("" for the
// first page).
type fetchPage func(ctx context.Context, offset string) (pageResult, error)

// walkStream drives one content stream to completion.
//
// The cursor protocol: the first numerically-parsable cursor seen in a run is
// the stream's checkpoint candidate. If a stored checkpoint exists and a
// page's cursor parses to a value at or below it, everything past that point
// was synced by an earlier run and the walk stops early. The in-flight cursor
// is persisted after every page so an interrupted run can resume mid-stream.
func (s *Syncer) walkStream(ctx context.Context, stream syncstate.Stream, fetch fetchPage) error {
	offset := ""
	if s.state != nil && s.resume {
		if runtime := s.state.RuntimeOffset(stream); runtime != nil {
			offset = *runtime
			s.log.InfoWithFields("resuming stream from interrupted cursor", map[string]interface{}{
				"stream": string(stream),
				"offset": offset,
			})
		}
	}

	var lastVal int64
	haveLast := false
	if s.state != nil {
		if last := s.state.LastOffset(stream); last != nil {
			lastVal, haveLast = parseCursor(*last)
		}
	}

	var firstSeen *string
	errorCount := 0
	abandoned := false

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if errorCount > maxStreamErrors {
			s.log.WarnWithFields("abandoning stream after repeated failures, rerun with --resume to retry", map[string]interface{}{
				"stream": string(stream),
				"errors": errorCount,
			})
			abandoned = true
			break
		}

		s.pacer.Wait()

		res, err := fetch(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			errorCount++
			s.log.WarnWithFields("failed to fetch page", map[string]interface{}{
				"stream": string(stream),
				"offset": offset,
				"error":  err.Error(),
			})
			continue
		}

		next := res.offset
		stopEarly := false
		if v, ok := parseCursor(next); ok {
			if firstSeen == nil {
				cursor := next
				firstSeen = &cursor
			}
			if haveLast && v <= lastVal {
				s.log.InfoWithFields("reached previously synced cursor, stopping", map[string]interface{}{
					"stream": string(stream),
					"cursor": next,
				})
				stopEarly = true
			}
		}

		if s.state != nil {
			s.state.SetRuntimeOffset(stream, &next)
			if err := s.state.Save(); err != nil {
				return err
			}
		}

		if stopEarly || res.isLast {
			break
		}
		offset = next
	}

	if s.state != nil {
		// An abandoned stream did not complete cleanly: the checkpoint must
		// not advance and the in-flight cursor stays so the run is resumable.
		if abandoned {
			return s.state.Save()
		}
		s.state.FinishStream(stream, firstSeen)
		return s.state.Save()
	}
	return nil
}
