package sse

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// Frame is one parsed event. Data lines are joined with "\n".
type Frame struct {
	Event string
	Data  string
	ID    string
}

// Reader parses frames from an event stream. It buffers across reads so a
// frame is only returned once its terminating blank line has arrived.
type Reader struct {
	r *bufio.Reader
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Next returns the next complete frame. Comment lines are skipped. At the end
// of the stream it returns io.EOF; an unterminated trailing frame is dropped.
func (r *Reader) Next() (Frame, error) {
	var (
		f       Frame
		data    []string
		started bool
	)
	for {
		line, err := r.r.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return Frame{}, io.EOF
			}
			return Frame{}, err
		}
		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")

		if line == "" {
			if !started {
				continue
			}
			f.Data = strings.Join(data, "\n")
			return f, nil
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			f.Event = value
			started = true
		case "data":
			data = append(data, value)
			started = true
		case "id":
			f.ID = value
			started = true
		}
	}
}
