// Package resource serves the gated resources from a directory.
package resource

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Provider errors.
var (
	ErrInvalidID = errors.New("resource: invalid id")
	ErrNotFound  = errors.New("resource: not found")
)

// Info describes a resource file.
type Info struct {
	ID      string    `json:"id"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
	Stale   bool      `json:"stale,omitempty"`
}

// Content is an open resource.
type Content interface {
	io.ReadSeeker
	io.Closer
}

// DirProvider reads resources from a single directory.
type DirProvider struct {
	dir        string
	pattern    *regexp.Regexp
	staleAfter time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures a DirProvider.
type Option func(*DirProvider)

// WithClock sets the time source used for staleness.
func WithClock(now func() time.Time) Option {
	return func(p *DirProvider) {
		p.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *DirProvider) {
		p.logger = l
	}
}

// NewDirProvider creates a provider over dir. staleAfter of zero disables
// the stale warning.
func NewDirProvider(dir, pattern string, staleAfter time.Duration, opts ...Option) (*DirProvider, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("resource: compile pattern: %w", err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resource: resolve dir: %w", err)
	}
	p := &DirProvider{
		dir:        abs,
		pattern:    re,
		staleAfter: staleAfter,
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Dir returns the absolute resource directory.
func (p *DirProvider) Dir() string {
	return p.dir
}

// ValidID reports whether id is an acceptable resource file name.
func (p *DirProvider) ValidID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	if strings.ContainsAny(id, `/\`) || strings.ContainsRune(id, 0) {
		return false
	}
	return p.pattern.MatchString(id)
}

// Stat returns information about a resource without opening it.
func (p *DirProvider) Stat(id string) (Info, error) {
	if !p.ValidID(id) {
		return Info{}, ErrInvalidID
	}
	fi, err := os.Stat(filepath.Join(p.dir, id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Info{}, ErrNotFound
		}
		return Info{}, fmt.Errorf("resource: stat %s: %w", id, err)
	}
	if !fi.Mode().IsRegular() {
		return Info{}, ErrNotFound
	}
	return p.info(id, fi), nil
}

// Open opens a resource for reading. The caller closes it.
func (p *DirProvider) Open(id string) (Content, Info, error) {
	info, err := p.Stat(id)
	if err != nil {
		return nil, Info{}, err
	}
	f, err := os.Open(filepath.Join(p.dir, id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, Info{}, ErrNotFound
		}
		return nil, Info{}, fmt.Errorf("resource: open %s: %w", id, err)
	}
	if info.Stale {
		args := []any{"resource_id", id, "age", p.now().Sub(info.ModTime).Round(time.Second)}
		if name, ok := ParseName(id); ok && !name.IssuedAt.IsZero() {
			args = append(args, "issued_at", name.IssuedAt)
		}
		p.logger.Warn("serving stale resource", args...)
	}
	return f, info, nil
}

// List returns every valid resource in the directory, newest first.
func (p *DirProvider) List() ([]Info, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return nil, fmt.Errorf("resource: read dir: %w", err)
	}
	out := make([]Info, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || !p.ValidID(e.Name()) {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, p.info(e.Name(), fi))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ModTime.Equal(out[j].ModTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].ModTime.After(out[j].ModTime)
	})
	return out, nil
}

func (p *DirProvider) info(id string, fi os.FileInfo) Info {
	info := Info{ID: id, Size: fi.Size(), ModTime: fi.ModTime()}
	if p.staleAfter > 0 && p.now().Sub(fi.ModTime()) > p.staleAfter {
		info.Stale = true
	}
	return info
}

// ============================================================================
// Name parsing
// ============================================================================

// Name holds the fields encoded in a resource file name.
type Name struct {
	Contact  string    `json:"contact,omitempty"`
	Session  string    `json:"session"`
	IssuedAt time.Time `json:"issued_at,omitempty"`

	// Legacy is set for products_<session>.html names.
	Legacy bool `json:"legacy,omitempty"`
}

// ParseName decodes products_<contact>_<session>_<unixms>.html or the
// legacy products_<session>.html. The contact may itself contain
// underscores; session and timestamp are the last two fields.
func ParseName(id string) (Name, bool) {
	base, ok := strings.CutPrefix(id, "products_")
	if !ok {
		return Name{}, false
	}
	base, ok = strings.CutSuffix(base, ".html")
	if !ok || base == "" {
		return Name{}, false
	}

	parts := strings.Split(base, "_")
	if len(parts) < 3 {
		return Name{Session: base, Legacy: true}, true
	}

	n := len(parts)
	ms, err := strconv.ParseInt(parts[n-1], 10, 64)
	if err != nil || ms <= 0 {
		return Name{Session: base, Legacy: true}, true
	}
	return Name{
		Contact:  strings.Join(parts[:n-2], "_"),
		Session:  parts[n-2],
		IssuedAt: time.UnixMilli(ms).UTC(),
	}, true
}
