package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/askiada/go-argpipe/pkg/mapping"
)

// printer writes the objects leaving the pipeline, one per line.
// Objects with properties are written as "Key: value" pairs.
type printer struct {
	mu  sync.Mutex
	w   io.Writer
	key *color.Color
	err error
}

func newPrinter(w io.Writer, noColor bool) *printer {
	key := color.New(color.FgCyan, color.Bold)
	if noColor {
		key.DisableColor()
	}

	return &printer{w: w, key: key}
}

func (p *printer) Print(o any) {
	line := p.render(o)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintln(p.w, line)
}

// Err returns the first write error.
func (p *printer) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.err
}

func (p *printer) render(o any) string {
	if s, ok := mapping.Format(o); ok {
		return s
	}

	props := mapping.Properties(o)
	if props.Len() == 0 {
		return fmt.Sprint(o)
	}

	fields := make([]string, 0, props.Len())
	for pair := props.Oldest(); pair != nil; pair = pair.Next() {
		value, ok := mapping.Format(pair.Value)
		if !ok {
			value = fmt.Sprint(pair.Value)
		}
		fields = append(fields, p.key.Sprint(pair.Key)+": "+value)
	}

	return strings.Join(fields, "  ")
}
