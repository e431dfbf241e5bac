package main

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/arumata/incback/internal/usecase"
)

const progressInterval = 100 * time.Millisecond

// progress keeps a single status line updated while a source is walked.
// A disabled progress ignores every call.
type progress struct {
	w       io.Writer
	enabled bool
	now     func() time.Time

	mu      sync.Mutex
	last    time.Time
	source  string
	visible bool

	newC, modC, dimC *color.Color
}

func newProgress(w io.Writer, enabled bool) *progress {
	p := &progress{
		w:       w,
		enabled: enabled,
		now:     time.Now,
		newC:    color.New(color.FgGreen),
		modC:    color.New(color.FgYellow),
		dimC:    color.New(color.Faint),
	}
	if !enabled {
		for _, c := range []*color.Color{p.newC, p.modC, p.dimC} {
			c.DisableColor()
		}
	}
	return p
}

// Update matches usecase.BackupOptions.OnClassify.
func (p *progress) Update(source string, ev usecase.ClassificationEvent) {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if source == p.source && now.Sub(p.last) < progressInterval {
		return
	}
	p.source = source
	p.last = now

	line := fmt.Sprintf("%s new, %s modified, %s unmodified  %s",
		p.newC.Sprint(ev.Counters.New),
		p.modC.Sprint(ev.Counters.Modified),
		p.dimC.Sprint(ev.Counters.Unmodified),
		truncateLeft(ev.RelPath, p.pathWidth()),
	)
	_, _ = fmt.Fprintf(p.w, "\r\033[K%s", line)
	p.visible = true
}

// Finish clears the status line so the summary starts on a clean row.
func (p *progress) Finish() {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.visible {
		_, _ = fmt.Fprint(p.w, "\r\033[K")
		p.visible = false
	}
}

func (p *progress) pathWidth() int {
	const reserved = 48
	width := 80
	if f, ok := p.w.(*os.File); ok {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			width = w
		}
	}
	if width-reserved < 10 {
		return 10
	}
	return width - reserved
}

// truncateLeft keeps the end of s, which is the most specific part of a path.
func truncateLeft(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 1 {
		return string(r[len(r)-max:])
	}
	return "…" + string(r[len(r)-max+1:])
}
