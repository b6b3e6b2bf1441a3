package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/shaderd/builder"
)

// DefaultLockTableSize bounds the number of idle destination locks kept for
// reuse. Locks in use are tracked separately and never evicted.
const DefaultLockTableSize = 256

// Artifact is one published module.
type Artifact struct {
	// Entry is the entry point name for multi-module outcomes, empty otherwise.
	Entry  string
	Source string
	Path   string
}

// CopyError reports a module that could not be published.
type CopyError struct {
	Entry  string
	Source string
	Dest   string
	Err    error
}

// Error implements the error interface.
func (e *CopyError) Error() string {
	if e.Entry != "" {
		return fmt.Sprintf("publishing entry point %q from %s to %s: %v", e.Entry, e.Source, e.Dest, e.Err)
	}
	return fmt.Sprintf("publishing %s to %s: %v", e.Source, e.Dest, e.Err)
}

// Unwrap returns the underlying error.
func (e *CopyError) Unwrap() error {
	return e.Err
}

// Mirror receives a copy of every published artifact.
type Mirror interface {
	Upload(ctx context.Context, a Artifact) error
}

// Options configure a Publisher.
type Options struct {
	Logger *slog.Logger
	// Mirror is optional. Mirror failures are logged, never returned.
	Mirror        Mirror
	LockTableSize int
}

// Publisher copies modules to their destination. It is safe for concurrent
// use: writes to the same destination are serialized, others run in
// parallel.
type Publisher struct {
	log    *slog.Logger
	mirror Mirror

	mu    sync.Mutex
	held  map[string]*destLock
	locks *lru.Cache[string, *destLock] // idle
}

// destLock serializes writes to one destination. refs counts the copies
// holding or waiting for it; both fields are guarded by Publisher.mu except
// the mutex itself.
type destLock struct {
	sync.Mutex
	refs int
}

// New creates a Publisher.
func New(opts Options) (*Publisher, error) {
	size := opts.LockTableSize
	if size <= 0 {
		size = DefaultLockTableSize
	}
	locks, err := lru.New[string, *destLock](size)
	if err != nil {
		return nil, fmt.Errorf("creating lock table: %w", err)
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Publisher{log: log, mirror: opts.Mirror, held: make(map[string]*destLock), locks: locks}, nil
}

// Publish copies the modules of outcome according to policy and returns
// where they went. MultiModule results are ordered by entry point name.
func (p *Publisher) Publish(ctx context.Context, outcome *builder.Outcome, policy Policy) ([]Artifact, error) {
	if outcome == nil {
		return nil, errors.New("publish: nil outcome")
	}

	var artifacts []Artifact
	switch m := outcome.Module.(type) {
	case builder.SingleModule:
		a := Artifact{Source: m.Path, Path: policy.singleDest(m.Path)}
		if err := p.copy(ctx, a); err != nil {
			return nil, err
		}
		artifacts = []Artifact{a}

	case builder.MultiModule:
		entries := m.Entries()
		artifacts = make([]Artifact, len(entries))
		owner := make(map[string]string, len(entries))
		for i, entry := range entries {
			src := m.Paths[entry]
			dst := policy.multiDest(src)
			if other, taken := owner[dst]; taken {
				return nil, fmt.Errorf("publish: entry points %q and %q both map to %s", other, entry, dst)
			}
			owner[dst] = entry
			artifacts[i] = Artifact{Entry: entry, Source: src, Path: dst}
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, a := range artifacts {
			a := a
			g.Go(func() error {
				return p.copy(gctx, a)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("publish: unknown module type %T", outcome.Module)
	}

	for _, a := range artifacts {
		p.log.Info("published shader module", "entry", a.Entry, "from", a.Source, "to", a.Path)
	}
	p.mirrorAll(ctx, artifacts)
	return artifacts, nil
}

func (p *Publisher) mirrorAll(ctx context.Context, artifacts []Artifact) {
	if p.mirror == nil {
		return
	}
	for _, a := range artifacts {
		if err := p.mirror.Upload(ctx, a); err != nil {
			p.log.Warn("mirroring shader module failed", "path", a.Path, "error", err)
		}
	}
}

// acquire locks dst. While any copy holds or waits for the lock it lives in
// p.held, out of reach of the LRU.
func (p *Publisher) acquire(dst string) *destLock {
	p.mu.Lock()
	l, ok := p.held[dst]
	if !ok {
		if l, ok = p.locks.Peek(dst); ok {
			p.locks.Remove(dst)
		} else {
			l = &destLock{}
		}
		p.held[dst] = l
	}
	l.refs++
	p.mu.Unlock()

	l.Lock()
	return l
}

// release unlocks dst and parks the lock in the idle table once unused.
func (p *Publisher) release(dst string, l *destLock) {
	l.Unlock()
	p.mu.Lock()
	defer p.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(p.held, dst)
		p.locks.Add(dst, l)
	}
}

// copy writes a.Source to a.Path through a temporary file in the
// destination directory, so readers never observe a partial module.
func (p *Publisher) copy(ctx context.Context, a Artifact) error {
	fail := func(err error) error {
		return &CopyError{Entry: a.Entry, Source: a.Source, Dest: a.Path, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	l := p.acquire(a.Path)
	defer p.release(a.Path, l)

	in, err := os.Open(a.Source)
	if err != nil {
		return fail(err)
	}
	defer in.Close()

	dir := filepath.Dir(a.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fail(err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(a.Path)+builder.TempInfix+"*")
	if err != nil {
		return fail(err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		return fail(err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fail(err)
	}
	if err := os.Rename(tmp.Name(), a.Path); err != nil {
		return fail(err)
	}
	return nil
}
