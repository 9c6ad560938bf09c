package diag

import (
	"fmt"
	"iter"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the number of distinct lines a Decoder remembers.
const DefaultCacheSize = 256

// DecoderStats counts what a Decoder has seen since creation.
type DecoderStats struct {
	Lines     int // lines that looked like records
	Decoded   int
	Skipped   int // malformed records
	CacheHits int
}

// Decoder turns diagnostic streams into Records and remembers decoded lines.
// Safe for concurrent use.
type Decoder struct {
	cache *lru.Cache[string, *Record]

	mu    sync.Mutex
	stats DecoderStats
}

// NewDecoder creates a Decoder caching up to size lines (DefaultCacheSize when size <= 0).
func NewDecoder(size int) (*Decoder, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, *Record](size)
	if err != nil {
		return nil, fmt.Errorf("diag: decoder cache: %w", err)
	}
	return &Decoder{cache: cache}, nil
}

// Decode parses one line. Malformed lines are remembered as such and reported with ok=false.
func (d *Decoder) Decode(line string) (rec *Record, ok bool) {
	if cached, hit := d.cache.Get(line); hit {
		d.count(func(s *DecoderStats) {
			s.Lines++
			s.CacheHits++
			if cached == nil {
				s.Skipped++
			} else {
				s.Decoded++
			}
		})
		return cached, cached != nil
	}
	rec, err := Decode([]byte(line))
	if err != nil {
		d.cache.Add(line, nil)
		d.count(func(s *DecoderStats) {
			s.Lines++
			s.Skipped++
		})
		return nil, false
	}
	d.cache.Add(line, rec)
	d.count(func(s *DecoderStats) {
		s.Lines++
		s.Decoded++
	})
	return rec, true
}

// Records yields every well-formed record of stream, one per line starting
// with RecordStart. Other lines and malformed records are skipped.
func (d *Decoder) Records(stream []byte) iter.Seq[*Record] {
	return func(yield func(*Record) bool) {
		for line := range strings.Lines(string(stream)) {
			line = strings.TrimRight(line, "\r\n")
			if line == "" || line[0] != RecordStart {
				continue
			}
			rec, ok := d.Decode(line)
			if !ok {
				continue
			}
			if !yield(rec) {
				return
			}
		}
	}
}

// Stats returns a snapshot of the counters.
func (d *Decoder) Stats() DecoderStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

func (d *Decoder) count(update func(*DecoderStats)) {
	d.mu.Lock()
	update(&d.stats)
	d.mu.Unlock()
}
