package transport

import (
	"bufio"
	"bytes"
	"io"
)

// EventReader reads a line-oriented server-sent-event stream and yields the
// concatenated data payload of each event. Comment lines and non-data
// fields are skipped; multiple data lines in one event are joined with \n.
type EventReader struct {
	r *bufio.Reader
}

// NewEventReader wraps r for SSE decoding.
func NewEventReader(r io.Reader) *EventReader {
	return &EventReader{r: bufio.NewReaderSize(r, 64*1024)}
}

// Next returns the data payload of the next event, or io.EOF when the
// stream ends. A trailing event without a blank-line terminator is still
// returned before EOF.
func (er *EventReader) Next() ([]byte, error) {
	var data [][]byte
	for {
		line, err := er.r.ReadBytes('\n')
		if err != nil {
			line = bytes.TrimRight(line, "\r\n")
			if len(line) > 0 {
				data = appendDataLine(data, line)
			}
			if len(data) > 0 {
				return bytes.Join(data, []byte("\n")), nil
			}
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, err
		}

		line = bytes.TrimRight(line, "\r\n")
		if len(line) == 0 {
			if len(data) == 0 {
				continue
			}
			return bytes.Join(data, []byte("\n")), nil
		}
		if line[0] == ':' {
			continue
		}
		data = appendDataLine(data, line)
	}
}

func appendDataLine(dst [][]byte, line []byte) [][]byte {
	if !bytes.HasPrefix(line, []byte("data:")) {
		return dst
	}
	val := line[len("data:"):]
	if len(val) > 0 && val[0] == ' ' {
		val = val[1:]
	}
	return append(dst, append([]byte(nil), val...))
}
