package journal

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	apperrors "github.com/x-itg/ocr/internal/errors"
	"github.com/x-itg/ocr/internal/orchestrator/series"
	"github.com/x-itg/ocr/internal/trace"
)

// TimeLayout keeps milliseconds; sub-second intervals would collide otherwise.
const TimeLayout = "2006-01-02 15:04:05.000"

var header = []string{"time", "channel", "value"}

// Journal accumulates readings and writes them in batches. Batches are
// written in order by a single writer goroutine; Add never waits on it.
type Journal struct {
	maxBatch   int
	flushDelay time.Duration

	mu      sync.Mutex
	pending []series.Reading
	timer   *time.Timer
	closed  bool
	ready   [][]series.Reading // flushed, not yet written

	wake    chan struct{}
	done    chan struct{}
	out     *csv.Writer
	closer  io.Closer
	errMu   sync.Mutex
	err     error
}

// Open appends to path, writing a header when the file is new.
func Open(path string, maxBatch int, flushDelay time.Duration) (*Journal, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.CodeExportFailed, "open journal %s", path)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, apperrors.Wrapf(err, apperrors.CodeExportFailed, "stat journal %s", path)
	}
	return New(f, info.Size() == 0, maxBatch, flushDelay), nil
}

// New writes to w, which is closed by Close if it is an io.Closer.
func New(w io.Writer, writeHeader bool, maxBatch int, flushDelay time.Duration) *Journal {
	if maxBatch <= 0 {
		maxBatch = DefaultMaxBatch
	}
	if flushDelay <= 0 {
		flushDelay = DefaultFlushDelay
	}
	j := &Journal{
		maxBatch:   maxBatch,
		flushDelay: flushDelay,
		pending:    make([]series.Reading, 0, maxBatch),
		wake:       make(chan struct{}, 1),
		done:       make(chan struct{}),
		out:        csv.NewWriter(w),
	}
	if c, ok := w.(io.Closer); ok {
		j.closer = c
	}
	if writeHeader {
		j.write(header)
		j.out.Flush()
	}
	go j.run()
	return j
}

// Add queues a reading.
func (j *Journal) Add(r series.Reading) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return
	}

	j.pending = append(j.pending, r)
	if len(j.pending) >= j.maxBatch {
		j.flushLocked()
		return
	}

	if j.timer == nil {
		j.timer = time.AfterFunc(j.flushDelay, j.Flush)
	} else {
		j.timer.Reset(j.flushDelay)
	}
}

// Flush hands pending readings to the writer.
func (j *Journal) Flush() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.flushLocked()
}

func (j *Journal) flushLocked() {
	if j.timer != nil {
		j.timer.Stop()
		j.timer = nil
	}
	if len(j.pending) == 0 || j.closed {
		return
	}
	j.ready = append(j.ready, j.pending)
	j.pending = make([]series.Reading, 0, j.maxBatch)
	j.signal()
}

func (j *Journal) signal() {
	select {
	case j.wake <- struct{}{}:
	default:
	}
}

func (j *Journal) run() {
	defer close(j.done)
	for range j.wake {
		j.mu.Lock()
		ready, closed := j.ready, j.closed
		j.ready = nil
		j.mu.Unlock()

		for _, batch := range ready {
			j.writeBatch(batch)
		}
		if closed {
			return
		}
	}
}

func (j *Journal) writeBatch(batch []series.Reading) {
	ctx, span := trace.StartSpan(context.Background(), "journal_flush")
	span.Set("count", len(batch))
	for _, r := range batch {
		j.write([]string{
			r.Time.Format(TimeLayout),
			strconv.Itoa(r.ChannelID),
			strconv.FormatFloat(r.Value, 'f', -1, 64),
		})
	}
	j.out.Flush()
	span.End()

	if err := j.out.Error(); err != nil {
		j.setErr(err)
		trace.Logger(ctx).Warn("journal write failed", "span", span, "error", err)
	}
}

func (j *Journal) write(record []string) {
	if err := j.out.Write(record); err != nil {
		j.setErr(err)
	}
}

func (j *Journal) setErr(err error) {
	j.errMu.Lock()
	if j.err == nil {
		j.err = err
	}
	j.errMu.Unlock()
}

// Close flushes what is pending, waits for the writer and closes the file.
// It returns the first write error, if any.
func (j *Journal) Close() error {
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		return nil
	}
	j.flushLocked()
	j.closed = true
	j.signal()
	j.mu.Unlock()

	<-j.done
	if j.closer != nil {
		if err := j.closer.Close(); err != nil {
			j.setErr(err)
		}
	}
	j.errMu.Lock()
	defer j.errMu.Unlock()
	if j.err != nil {
		return apperrors.Wrap(j.err, apperrors.CodeExportFailed, "write journal")
	}
	return nil
}
