package eventlog

import (
	"bufio"
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"

	"github.com/andrewmcadoo/nexus/internal/errs"
	"github.com/andrewmcadoo/nexus/internal/types"
)

// Writer appends RunEvents to one run's JSONL log under an exclusive,
// non-blocking advisory lock (mirrors the pidfile lock acquisition
// pattern: LOCK_EX|LOCK_NB, fail fast rather than wait for a writer
// that may never release).
type Writer struct {
	path string
	file *os.File
	buf  *bufio.Writer
	seq  uint64
}

// Open opens (creating if needed) the log file at path, takes an
// exclusive non-blocking lock, and scans any existing content to
// recover the next event_seq to assign. Returns EventLogLockedError if
// another writer already holds the lock.
func Open(path string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, &errs.IoError{Operation: "create event log directory", Path: dir, Cause: err}
		}
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_APPEND|os.O_CREATE, 0o600)
	if err != nil {
		return nil, &errs.IoError{Operation: "open event log for write", Path: path, Cause: err}
	}

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		file.Close()
		if errors.Is(err, syscall.EWOULDBLOCK) {
			return nil, &errs.EventLogLockedError{Path: path}
		}
		return nil, &errs.IoError{Operation: "lock event log", Path: path, Cause: err}
	}

	nextSeq, err := scanMaxEventSeq(file)
	if err != nil {
		syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
		file.Close()
		return nil, err
	}

	if _, err := file.Seek(0, os.SEEK_END); err != nil {
		syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
		file.Close()
		return nil, &errs.IoError{Operation: "seek event log", Path: path, Cause: err}
	}

	return &Writer{path: path, file: file, buf: bufio.NewWriter(file), seq: nextSeq}, nil
}

// scanMaxEventSeq reads every existing line, tracking the highest
// event_seq seen, and returns one past it (1 if the file is empty or
// every line fails to decode — event_seq values start at 1, never 0).
func scanMaxEventSeq(file *os.File) (uint64, error) {
	if _, err := file.Seek(0, os.SEEK_SET); err != nil {
		return 0, &errs.IoError{Operation: "read event log", Path: file.Name(), Cause: err}
	}

	var maxSeq uint64
	var seenAny bool
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		seq, ok := rawEventSeq(line)
		if !ok {
			slog.Default().Warn("skipping undecodable event log line", "path", file.Name())
			continue
		}
		if !seenAny || seq > maxSeq {
			maxSeq = seq
			seenAny = true
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, &errs.IoError{Operation: "read event log", Path: file.Name(), Cause: err}
	}

	if !seenAny {
		return 1, nil
	}
	return maxSeq + 1, nil
}

// Append assigns the next event_seq to event, writes it as one JSONL
// line, and advances the in-memory counter. It does not flush or fsync;
// call Sync to make the write durable.
func (w *Writer) Append(event types.RunEvent) error {
	line, err := marshalRecord(event, w.seq)
	if err != nil {
		return &errs.SerializationError{Reason: err.Error()}
	}
	if _, err := w.buf.Write(line); err != nil {
		return &errs.IoError{Operation: "write event log", Path: w.path, Cause: err}
	}
	if err := w.buf.WriteByte('\n'); err != nil {
		return &errs.IoError{Operation: "write event log", Path: w.path, Cause: err}
	}
	w.seq++
	return nil
}

// Sync flushes buffered writes and fsyncs the underlying file.
func (w *Writer) Sync() error {
	if err := w.buf.Flush(); err != nil {
		return &errs.IoError{Operation: "flush event log", Path: w.path, Cause: err}
	}
	if err := w.file.Sync(); err != nil {
		return &errs.IoError{Operation: "fsync event log", Path: w.path, Cause: err}
	}
	return nil
}

// Close flushes best-effort, releases the lock, and closes the file.
// A flush error is reported but the lock is still released.
func (w *Writer) Close() error {
	flushErr := w.buf.Flush()
	syscall.Flock(int(w.file.Fd()), syscall.LOCK_UN)
	closeErr := w.file.Close()
	if flushErr != nil {
		return &errs.IoError{Operation: "flush event log", Path: w.path, Cause: flushErr}
	}
	if closeErr != nil {
		return &errs.IoError{Operation: "close event log", Path: w.path, Cause: closeErr}
	}
	return nil
}

// NextEventSeq returns the event_seq that would be assigned to the next
// appended event, for callers that want to report progress.
func (w *Writer) NextEventSeq() uint64 {
	return w.seq
}
