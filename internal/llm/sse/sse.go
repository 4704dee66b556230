// Package sse implements the line-buffered Server-Sent-Events parsing rules
// shared by every provider adapter (§6 "SSE parsing rules"): split on \n,
// ignore lines not beginning with "data:" (the space after the colon is
// optional), stop at "data: [DONE]", and
// tolerate partial lines across reads (handled transparently by
// bufio.Scanner's internal buffering).
package sse

import (
	"bufio"
	"io"
	"strings"
)

// done is the provider-agnostic end-of-stream sentinel.
const done = "[DONE]"

// ForEachEvent scans r line by line, invoking onData with the payload of
// each "data: " line in order. Returns early if onData returns an error, or
// once a "[DONE]" sentinel is seen.
func ForEachEvent(r io.Reader, onData func(data string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "data: ") && !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == done {
			return nil
		}
		if err := onData(data); err != nil {
			return err
		}
	}
	return scanner.Err()
}
