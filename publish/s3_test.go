package publish

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// s3Stub answers the requests an S3Mirror makes. The first failHeads bucket
// lookups are refused.
type s3Stub struct {
	failHeads int32
	heads     atomic.Int32

	mu   sync.Mutex
	puts []string
}

func (s *s3Stub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodHead:
		if s.heads.Add(1) <= s.failHeads {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusOK)
	case http.MethodPut:
		_, _ = io.Copy(io.Discard, r.Body)
		s.mu.Lock()
		s.puts = append(s.puts, r.URL.Path)
		s.mu.Unlock()
		w.Header().Set("ETag", `"9a0364b9e99bb480dd25e1f0284c8555"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func (s *s3Stub) uploaded() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.puts...)
}

func stubMirror(t *testing.T, stub *s3Stub) *S3Mirror {
	t.Helper()
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	m, err := NewS3Mirror(S3Config{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		AccessKey: "minio",
		SecretKey: "minio123",
		Bucket:    "shaders",
		Prefix:    "dev",
	})
	require.NoError(t, err)
	return m
}

func TestS3Mirror_RetriesBucketCheck(t *testing.T) {
	stub := &s3Stub{failHeads: 1}
	m := stubMirror(t, stub)
	a := Artifact{Path: module(t, t.TempDir(), "shader.spv", "spirv")}
	ctx := context.Background()

	err := m.Upload(ctx, a)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ensure bucket")
	assert.Empty(t, stub.uploaded())

	require.NoError(t, m.Upload(ctx, a), "a failed bucket check must not stick")
	assert.Equal(t, []string{"/shaders/dev/shader.spv"}, stub.uploaded())
	assert.Equal(t, int32(2), stub.heads.Load())

	// Once the bucket is known to exist it is not checked again.
	require.NoError(t, m.Upload(ctx, a))
	assert.Len(t, stub.uploaded(), 2)
	assert.Equal(t, int32(2), stub.heads.Load())
}

func TestS3Mirror_UploadFromPublisher(t *testing.T) {
	stub := &s3Stub{}
	m := stubMirror(t, stub)
	project := t.TempDir()
	src := module(t, filepath.Join(project, "target"), "shader.spv", "x")

	_, err := newPublisher(t, m).Publish(context.Background(), single(src), Default(project))
	require.NoError(t, err)
	assert.Equal(t, []string{"/shaders/dev/shader.spv"}, stub.uploaded())
}
