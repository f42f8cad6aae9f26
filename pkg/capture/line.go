// line.go - Headless operator that reads commands from text lines.
package capture

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"io"
	"strconv"
	"strings"
	"sync"
)

// LineOperator reads capture commands, one per line:
//
//	<x> <y>          click at display position (x, y)
//	click <x> <y>    same
//	q | finish | done
//	cancel | esc
//
// After a click the next line is the label. End of input cancels. Prompts
// are written to the output writer, which may be nil.
type LineOperator struct {
	out   io.Writer
	lines chan string
	start sync.Once
	in    io.Reader
}

// NewLineOperator returns an operator reading from r and prompting on w.
func NewLineOperator(r io.Reader, w io.Writer) *LineOperator {
	if w == nil {
		w = io.Discard
	}
	return &LineOperator{in: r, out: w, lines: make(chan string)}
}

// read starts the scanner goroutine so reads can be abandoned when ctx ends.
func (o *LineOperator) read(ctx context.Context) (string, bool, error) {
	o.start.Do(func() {
		go func() {
			sc := bufio.NewScanner(o.in)
			for sc.Scan() {
				o.lines <- sc.Text()
			}
			close(o.lines)
		}()
	})

	select {
	case <-ctx.Done():
		return "", false, ctx.Err()
	case line, ok := <-o.lines:
		return line, ok, nil
	}
}

// Next implements Operator.
func (o *LineOperator) Next(ctx context.Context, display image.Image) (Event, error) {
	b := display.Bounds()
	for {
		fmt.Fprintf(o.out, "[%dx%d] click <x> <y> | finish | cancel> ", b.Dx(), b.Dy())
		line, ok, err := o.read(ctx)
		if err != nil {
			return Event{}, err
		}
		if !ok {
			return Event{Kind: EventCancel}, nil
		}

		ev, err := ParseCommand(line)
		if err != nil {
			fmt.Fprintln(o.out, err)
			continue
		}
		if ev.Kind == 0 {
			continue
		}
		return ev, nil
	}
}

// Label implements Operator. End of input yields a blank label.
func (o *LineOperator) Label(ctx context.Context, at image.Point) (string, error) {
	fmt.Fprintf(o.out, "label for (%d, %d): ", at.X, at.Y)
	line, _, err := o.read(ctx)
	return line, err
}

// ParseCommand parses one command line. A blank line is the zero Event.
func ParseCommand(line string) (Event, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return Event{}, nil
	}

	switch fields[0] {
	case "q", "finish", "done":
		return Event{Kind: EventFinish}, nil
	case "cancel", "esc":
		return Event{Kind: EventCancel}, nil
	case "click":
		fields = fields[1:]
	}

	if len(fields) != 2 {
		return Event{}, fmt.Errorf("unrecognized command %q", line)
	}
	x, errX := strconv.Atoi(fields[0])
	y, errY := strconv.Atoi(fields[1])
	if errX != nil || errY != nil {
		return Event{}, fmt.Errorf("bad coordinates in %q", line)
	}
	return Event{Kind: EventClick, At: image.Pt(x, y)}, nil
}
