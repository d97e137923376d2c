package transport

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/andrewmcadoo/nexus/internal/errs"
)

const (
	sseDataPrefix   = "data:"
	sseDoneSentinel = "[DONE]"
)

var sseDelimiter = []byte("\n\n")

// parseSSEEvents drains every complete "\n\n"-delimited event out of
// buffer, returning the decoded chunks, the unconsumed remainder, and
// whether the "[DONE]" sentinel was seen (in which case the caller
// should stop reading further, regardless of what the remainder holds).
// A chunk that fails to decode aborts the scan immediately with an
// error; events already decoded are still returned alongside it.
func parseSSEEvents(buffer []byte) (chunks []ChatChunk, rest []byte, done bool, err error) {
	for {
		idx := bytes.Index(buffer, sseDelimiter)
		if idx < 0 {
			break
		}
		event := buffer[:idx]
		buffer = buffer[idx+len(sseDelimiter):]

		if len(bytes.TrimSpace(event)) == 0 {
			continue
		}

		chunk, isDone, parseErr := parseEvent(string(event))
		if parseErr != nil {
			return chunks, buffer, false, parseErr
		}
		if isDone {
			return chunks, buffer, true, nil
		}
		if chunk != nil {
			chunks = append(chunks, *chunk)
		}
	}
	return chunks, buffer, false, nil
}

// parseEvent decodes one SSE event body (already split on the "\n\n"
// delimiter) into a chunk. Returns (nil, true, nil) for the "[DONE]"
// sentinel, (nil, false, nil) for an event with no "data:" lines.
func parseEvent(event string) (*ChatChunk, bool, error) {
	lines := strings.Split(event, "\n")
	var payloadLines []string
	for _, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		if !strings.HasPrefix(line, sseDataPrefix) {
			continue
		}
		data := strings.TrimPrefix(line, sseDataPrefix)
		data = strings.TrimPrefix(data, " ")
		payloadLines = append(payloadLines, data)
	}

	if len(payloadLines) == 0 {
		return nil, false, nil
	}

	joined := strings.Join(payloadLines, "\n")
	if joined == sseDoneSentinel {
		return nil, true, nil
	}

	var chunk ChatChunk
	if err := json.Unmarshal([]byte(joined), &chunk); err != nil {
		return nil, false, &errs.StreamInterruptedError{Message: "failed to decode SSE data event: " + err.Error()}
	}
	return &chunk, false, nil
}
