package eventlog

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/andrewmcadoo/nexus/internal/errs"
)

// Reader iterates the records of an existing event log under a shared,
// blocking advisory lock: readers wait for writers to release rather
// than fail fast, since a reader only wants a consistent view, not
// exclusive access.
type Reader struct {
	path   string
	file   *os.File
	scan   *bufio.Scanner
	lineNo int
	closed bool
}

// OpenReader opens path for reading and takes a shared lock, blocking
// until any writer releases its exclusive lock. Returns
// EventLogNotFoundError if the file does not exist.
func OpenReader(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &errs.EventLogNotFoundError{Path: path}
		}
		return nil, &errs.IoError{Operation: "open event log for read", Path: path, Cause: err}
	}

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_SH); err != nil {
		file.Close()
		return nil, &errs.IoError{Operation: "lock event log", Path: path, Cause: err}
	}

	scan := bufio.NewScanner(file)
	scan.Buffer(make([]byte, 64*1024), 16*1024*1024)
	return &Reader{path: path, file: file, scan: scan}, nil
}

// Next returns the next record, false at EOF, or an
// EventLogCorruptedError for a line that fails to decode. Blank lines
// are skipped silently.
func (r *Reader) Next() (Record, bool, error) {
	for r.scan.Scan() {
		r.lineNo++
		line := bytes.TrimSpace(r.scan.Bytes())
		if len(line) == 0 {
			continue
		}
		rec, err := unmarshalRecord(line)
		if err != nil {
			return Record{}, false, &errs.EventLogCorruptedError{
				Line:    r.lineNo,
				Message: fmt.Sprintf("line %d: %s", r.lineNo, err.Error()),
			}
		}
		return rec, true, nil
	}
	if err := r.scan.Err(); err != nil {
		return Record{}, false, &errs.IoError{Operation: "read event log", Path: r.path, Cause: err}
	}
	return Record{}, false, nil
}

// LineNumber returns the 1-based line number of the record last
// returned by Next.
func (r *Reader) LineNumber() int {
	return r.lineNo
}

// Close releases the shared lock and closes the file.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	syscall.Flock(int(r.file.Fd()), syscall.LOCK_UN)
	if err := r.file.Close(); err != nil {
		return &errs.IoError{Operation: "close event log", Path: r.path, Cause: err}
	}
	return nil
}

// LoadAll reads every record in the log, skipping (and logging, via
// warn) any corrupted line rather than failing the whole read, but
// propagating any other error (lock/IO failure) immediately.
func LoadAll(path string) ([]Record, error) {
	r, err := OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var records []Record
	for {
		rec, ok, err := r.Next()
		if err != nil {
			var corrupted *errs.EventLogCorruptedError
			if errors.As(err, &corrupted) {
				fmt.Fprintf(os.Stderr, "warning: skipping corrupted event log line: %s\n", corrupted.Message)
				continue
			}
			return nil, err
		}
		if !ok {
			break
		}
		records = append(records, rec)
	}
	return records, nil
}

// FilterByRun returns the subset of records whose RunID matches runID.
func FilterByRun(records []Record, runID string) []Record {
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		if rec.RunID == runID {
			out = append(out, rec)
		}
	}
	return out
}

// FilterByType returns the subset of records whose Type matches
// eventType.
func FilterByType(records []Record, eventType string) []Record {
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		if rec.Type == eventType {
			out = append(out, rec)
		}
	}
	return out
}
