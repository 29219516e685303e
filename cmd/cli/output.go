package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"neutrino/internal/search"
)

// renderer writes search results as they arrive and a closing summary.
type renderer interface {
	Result(r search.SearchResult) error
	Finish(stats search.StatsSnapshot, contentMode bool, elapsed time.Duration) error
}

type consoleRenderer struct {
	w       io.Writer
	summary bool
	path    *color.Color
	span    *color.Color
	dim     *color.Color
}

// newConsoleRenderer prints one line per result. Colors and the summary are
// only used on an interactive terminal.
func newConsoleRenderer(w io.Writer, interactive bool) *consoleRenderer {
	c := &consoleRenderer{
		w:       w,
		summary: interactive,
		path:    color.New(color.FgCyan),
		span:    color.New(color.FgYellow),
		dim:     color.New(color.Faint),
	}
	for _, col := range []*color.Color{c.path, c.span, c.dim} {
		if interactive {
			col.EnableColor()
		} else {
			col.DisableColor()
		}
	}
	return c
}

func (c *consoleRenderer) Result(r search.SearchResult) error {
	if r.Kind != search.Matched {
		_, err := c.path.Fprintln(c.w, r.Path)
		return err
	}

	spans := make([]string, 0, len(r.Matches))
	for _, m := range r.Matches {
		spans = append(spans, c.span.Sprintf("[%d, %d]", m.Begin, m.End))
	}
	_, err := fmt.Fprintf(c.w, "%s %s %s\n", c.path.Sprint(r.Path), c.dim.Sprint(": Matches @"), strings.Join(spans, " - "))
	return err
}

func (c *consoleRenderer) Finish(stats search.StatsSnapshot, contentMode bool, elapsed time.Duration) error {
	if !c.summary {
		return nil
	}
	_, err := fmt.Fprintln(c.w, summaryLine(stats, contentMode, elapsed))
	return err
}

// summaryLine reports e.g. "3 match(es) out of 1,204 object(s), with 4.1 MB read in 12ms."
func summaryLine(stats search.StatsSnapshot, contentMode bool, elapsed time.Duration) string {
	elapsed = elapsed.Round(time.Millisecond)
	if !contentMode {
		return fmt.Sprintf("%s match(es) out of %s object(s) in %v.",
			humanize.Comma(stats.ObjectsGlobMatched), humanize.Comma(stats.ObjectsDiscovered), elapsed)
	}
	return fmt.Sprintf("%s match(es) out of %s object(s), with %s read in %v.",
		humanize.Comma(stats.ObjectsContentMatched), humanize.Comma(stats.ObjectsDiscovered),
		humanize.Bytes(uint64(stats.BytesRead)), elapsed)
}

// jsonRenderer streams results as the elements of one JSON array.
type jsonRenderer struct {
	w     io.Writer
	count int
}

func newJSONRenderer(w io.Writer) *jsonRenderer {
	return &jsonRenderer{w: w}
}

func (j *jsonRenderer) Result(r search.SearchResult) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	sep := ",\n"
	if j.count == 0 {
		sep = "[\n"
	}
	j.count++
	if _, err := io.WriteString(j.w, sep); err != nil {
		return err
	}
	_, err = j.w.Write(data)
	return err
}

func (j *jsonRenderer) Finish(search.StatsSnapshot, bool, time.Duration) error {
	end := "\n]\n"
	if j.count == 0 {
		end = "[]\n"
	}
	_, err := io.WriteString(j.w, end)
	return err
}

func printBanner(w io.Writer, s *search.Searcher) {
	opts := s.Options()
	title := color.New(color.Bold, color.FgMagenta)
	title.Fprintln(w, "Neutrino")
	color.New(color.Italic).Fprintln(w, "Accelerated File Searcher")
	fmt.Fprintf(w, "  root:        %s\n", s.Root())
	fmt.Fprintf(w, "  glob:        %s\n", opts.Glob)
	if opts.Pattern != "" {
		fmt.Fprintf(w, "  pattern:     %s\n", opts.Pattern)
	}
	fmt.Fprintf(w, "  concurrency: %d\n", opts.Concurrency)
	if opts.MaxSize > 0 {
		fmt.Fprintf(w, "  max size:    %s\n", humanize.Bytes(uint64(opts.MaxSize)))
	}
	if opts.MaxDepth > 0 {
		fmt.Fprintf(w, "  max depth:   %d\n", opts.MaxDepth)
	}
	fmt.Fprintln(w, strings.Repeat("-", 40))
}
