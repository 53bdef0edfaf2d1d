package transport

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
)

// doneMarker is the literal terminal marker signalling end of stream.
const doneMarker = "[DONE]"

// streamChunk is the wire shape of one SSE data payload.
type streamChunk struct {
	ID      string `json:"id"`
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// readEvents scans server-sent events off r line by line, decoding each
// data payload and forwarding it to fn. Unparseable payloads are skipped
// rather than failing the stream: decryption-level integrity is handled
// a layer up, and the remote may interleave comments or heartbeats.
func readEvents(r io.Reader, fn func(ChatEvent) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == doneMarker {
			return nil
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			continue
		}

		ev := ChatEvent{ID: chunk.ID}
		if len(chunk.Choices) > 0 {
			ev.Delta = chunk.Choices[0].Delta.Content
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
	return scanner.Err()
}
