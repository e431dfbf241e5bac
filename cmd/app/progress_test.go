package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/arumata/incback/internal/usecase"
)

func event(rel string, n, m, u int) usecase.ClassificationEvent {
	return usecase.ClassificationEvent{
		RelPath:  rel,
		Counters: usecase.Counters{New: n, Modified: m, Unmodified: u},
	}
}

func TestProgress_Disabled(t *testing.T) {
	var buf bytes.Buffer
	p := newProgress(&buf, false)

	p.Update("/src", event("a.txt", 1, 0, 0))
	p.Finish()

	assert.Empty(t, buf.String())
}

func TestProgress_ThrottlesWithinSource(t *testing.T) {
	var buf bytes.Buffer
	p := newProgress(&buf, true)
	now := time.Date(2015, 7, 2, 9, 30, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	p.Update("/src", event("a.txt", 1, 0, 0))
	p.Update("/src", event("b.txt", 2, 0, 0))
	assert.Equal(t, 1, strings.Count(buf.String(), "\r"))

	now = now.Add(progressInterval)
	p.Update("/src", event("c.txt", 3, 0, 0))
	assert.Equal(t, 2, strings.Count(buf.String(), "\r"))
	assert.Contains(t, buf.String(), "c.txt")
	assert.NotContains(t, buf.String(), "b.txt")
}

func TestProgress_NewSourceAlwaysRenders(t *testing.T) {
	var buf bytes.Buffer
	p := newProgress(&buf, true)
	now := time.Date(2015, 7, 2, 9, 30, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	p.Update("/src1", event("a.txt", 1, 0, 0))
	p.Update("/src2", event("b.txt", 0, 1, 0))

	assert.Contains(t, buf.String(), "b.txt")
}

func TestProgress_FinishClearsLine(t *testing.T) {
	var buf bytes.Buffer
	p := newProgress(&buf, true)

	p.Finish()
	assert.Empty(t, buf.String(), "nothing to clear before the first update")

	p.Update("/src", event("a.txt", 1, 2, 3))
	p.Finish()
	assert.True(t, strings.HasSuffix(buf.String(), "\r\033[K"))
}

func TestTruncateLeft(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"dir/sub/file.txt", 9, "…file.txt"},
		{"abc", 1, "c"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, truncateLeft(tt.in, tt.max), tt.in)
	}
}
