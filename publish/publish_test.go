package publish

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shaderd/builder"
)

func newPublisher(t *testing.T, mirror Mirror) *Publisher {
	t.Helper()
	p, err := New(Options{Mirror: mirror})
	require.NoError(t, err)
	return p
}

// module writes a fake compiler output and returns its path.
func module(t *testing.T, dir, name, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func single(path string) *builder.Outcome {
	return &builder.Outcome{Module: builder.SingleModule{Path: path}}
}

func TestPublish_DefaultSingle(t *testing.T) {
	project := t.TempDir()
	src := module(t, filepath.Join(project, "target", "spirv-builder"), "shaders.spv", "v1")
	p := newPublisher(t, nil)

	got, err := p.Publish(context.Background(), single(src), Default(project))
	require.NoError(t, err)

	want := filepath.Join(project, "compiled", "shaders.spv")
	assert.Equal(t, []Artifact{{Source: src, Path: want}}, got)
	assert.Equal(t, "v1", readFile(t, want))

	// Publishing again overwrites.
	require.NoError(t, os.WriteFile(src, []byte("v2"), 0o644))
	_, err = p.Publish(context.Background(), single(src), Default(project))
	require.NoError(t, err)
	assert.Equal(t, "v2", readFile(t, want))

	entries, err := os.ReadDir(filepath.Join(project, "compiled"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestPublish_ExplicitSingle(t *testing.T) {
	project := t.TempDir()
	src := module(t, filepath.Join(project, "target"), "shaders.spv", "spirv")
	dst := filepath.Join(t.TempDir(), "assets", "main.spv")
	p := newPublisher(t, nil)

	got, err := p.Publish(context.Background(), single(src), Explicit(dst))
	require.NoError(t, err)
	assert.Equal(t, dst, got[0].Path)
	assert.Equal(t, "spirv", readFile(t, dst))

	_, err = os.Stat(filepath.Join(project, "compiled"))
	assert.True(t, errors.Is(err, fs.ErrNotExist), "explicit policy must not create compiled/")
	_, err = os.Stat(filepath.Join(filepath.Dir(dst), "shaders.spv"))
	assert.True(t, errors.Is(err, fs.ErrNotExist), "explicit policy must not keep the source file name")
}

func TestPublish_MissingSource(t *testing.T) {
	project := t.TempDir()
	p := newPublisher(t, nil)

	_, err := p.Publish(context.Background(), single(filepath.Join(project, "gone.spv")), Default(project))
	require.Error(t, err)

	var copyErr *CopyError
	require.True(t, errors.As(err, &copyErr))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.Contains(t, err.Error(), "gone.spv")
	assert.Contains(t, err.Error(), filepath.Join(project, "compiled", "gone.spv"))
}

func TestPublish_MultiModule(t *testing.T) {
	project := t.TempDir()
	out := filepath.Join(project, "target")
	outcome := &builder.Outcome{Module: builder.MultiModule{Paths: map[string]string{
		"main_vs": module(t, out, "main_vs.spv", "vertex"),
		"main_fs": module(t, out, "main_fs.spv", "fragment"),
	}}}

	t.Run("default", func(t *testing.T) {
		got, err := newPublisher(t, nil).Publish(context.Background(), outcome, Default(project))
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "main_fs", got[0].Entry)
		assert.Equal(t, filepath.Join(project, "compiled", "main_fs.spv"), got[0].Path)
		assert.Equal(t, "main_vs", got[1].Entry)
		assert.Equal(t, "vertex", readFile(t, got[1].Path))
	})

	t.Run("explicit is a directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "shaders")
		got, err := newPublisher(t, nil).Publish(context.Background(), outcome, Explicit(dir))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "main_fs.spv"), got[0].Path)
		assert.Equal(t, "fragment", readFile(t, got[0].Path))
	})
}

func TestPublish_MultiModuleCollision(t *testing.T) {
	project := t.TempDir()
	outcome := &builder.Outcome{Module: builder.MultiModule{Paths: map[string]string{
		"a": module(t, filepath.Join(project, "x"), "shader.spv", "a"),
		"b": module(t, filepath.Join(project, "y"), "shader.spv", "b"),
	}}}

	_, err := newPublisher(t, nil).Publish(context.Background(), outcome, Default(project))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `entry points "a" and "b" both map to`)
}

func TestPublish_ConcurrentSameDestination(t *testing.T) {
	project := t.TempDir()
	p := newPublisher(t, nil)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		src := module(t, filepath.Join(project, fmt.Sprintf("out%d", i)), "shader.spv", fmt.Sprintf("v%d", i))
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Publish(context.Background(), single(src), Default(project))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	content := readFile(t, filepath.Join(project, "compiled", "shader.spv"))
	assert.Regexp(t, `^v[0-7]$`, content)
}

func TestPublisher_HeldLockSurvivesEviction(t *testing.T) {
	p, err := New(Options{LockTableSize: 1})
	require.NoError(t, err)

	held := p.acquire("a.spv")
	// Churn the one-entry idle table.
	for _, dst := range []string{"b.spv", "c.spv", "d.spv"} {
		p.release(dst, p.acquire(dst))
	}

	acquired := make(chan *destLock, 1)
	go func() { acquired <- p.acquire("a.spv") }()
	select {
	case <-acquired:
		t.Fatal("second writer entered while the first holds the lock")
	case <-time.After(50 * time.Millisecond):
	}

	p.release("a.spv", held)
	second := <-acquired
	assert.Same(t, held, second)
	p.release("a.spv", second)

	assert.Empty(t, p.held)
	assert.Equal(t, 1, p.locks.Len())
}

func TestPublish_Cancelled(t *testing.T) {
	project := t.TempDir()
	src := module(t, project, "shader.spv", "x")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newPublisher(t, nil).Publish(ctx, single(src), Default(project))
	assert.ErrorIs(t, err, context.Canceled)
}

type recordingMirror struct {
	mu       sync.Mutex
	uploaded []Artifact
	err      error
}

func (m *recordingMirror) Upload(_ context.Context, a Artifact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploaded = append(m.uploaded, a)
	return m.err
}

func TestPublish_Mirror(t *testing.T) {
	project := t.TempDir()
	src := module(t, filepath.Join(project, "target"), "shader.spv", "x")

	mirror := &recordingMirror{}
	got, err := newPublisher(t, mirror).Publish(context.Background(), single(src), Default(project))
	require.NoError(t, err)
	assert.Equal(t, got, mirror.uploaded)

	failing := &recordingMirror{err: errors.New("connection refused")}
	_, err = newPublisher(t, failing).Publish(context.Background(), single(src), Default(project))
	assert.NoError(t, err, "mirror failures are not publish failures")
}

func TestPolicy_String(t *testing.T) {
	assert.Equal(t, "explicit /tmp/a.spv", Explicit("/tmp/a.spv").String())
	assert.Equal(t, "default "+filepath.Join("proj", "compiled"), Default("proj").String())
	assert.False(t, Default("proj").IsExplicit())
}

func TestNewS3Mirror(t *testing.T) {
	_, err := NewS3Mirror(S3Config{})
	assert.ErrorContains(t, err, "endpoint is required")

	_, err = NewS3Mirror(S3Config{Endpoint: "localhost:9000", Bucket: "shaders"})
	assert.ErrorContains(t, err, "access key and secret key")

	m, err := NewS3Mirror(S3Config{
		Endpoint:  "localhost:9000",
		AccessKey: "minio",
		SecretKey: "minio123",
		Bucket:    "shaders",
		Prefix:    "/dev/build/",
	})
	require.NoError(t, err)
	assert.Equal(t, "dev/build/main.spv", m.ObjectKey(Artifact{Path: "/proj/compiled/main.spv"}))
}
