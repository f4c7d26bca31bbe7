package upload

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recpanel/apperror"
	"recpanel/client"
	"recpanel/config"
	"recpanel/logger"
)

type fakeSource struct {
	videos map[string]string
	order  []string
}

func (f *fakeSource) List(context.Context) ([]string, error) {
	return f.order, nil
}

func (f *fakeSource) Download(_ context.Context, name string) (*client.Download, error) {
	body, ok := f.videos[name]
	if !ok {
		return nil, apperror.NotFound
	}
	return &client.Download{Body: io.NopCloser(strings.NewReader(body)), ContentType: "video/mp4"}, nil
}

type fakeS3 struct {
	mu   sync.Mutex
	puts map[string]string
}

func newFakeS3(t *testing.T) (*fakeS3, string) {
	t.Helper()
	s := &fakeS3{puts: make(map[string]string)}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		body, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.puts[r.URL.Path] = string(body)
		s.mu.Unlock()
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return s, srv.URL
}

func (s *fakeS3) object(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.puts[key]
	return v, ok
}

func useConfig(t *testing.T, endpoint, logFolder string) {
	t.Helper()
	prev := config.Conf
	config.Conf = config.Config{
		LogFolder: logFolder,
		S3Config: config.S3{
			Bucket:      "footage",
			AccessKey:   "key",
			SecretKey:   "secret",
			Region:      "us-east-1",
			EndpointUrl: endpoint,
		},
	}
	t.Cleanup(func() { config.Conf = prev })
}

func newTestUploader(t *testing.T, src Source, recording bool) *Uploader {
	t.Helper()
	u, err := NewUploader(logger.New(io.Discard, "error"), src, func() bool { return recording })
	require.NoError(t, err)
	return u
}

func TestNewUploaderNeedsBucket(t *testing.T) {
	prev := config.Conf
	config.Conf = config.Config{}
	t.Cleanup(func() { config.Conf = prev })

	_, err := NewUploader(logger.New(io.Discard, "error"), &fakeSource{}, nil)
	assert.Error(t, err)
}

func TestUploadRecording(t *testing.T) {
	s3, endpoint := newFakeS3(t)
	useConfig(t, endpoint, "")
	src := &fakeSource{videos: map[string]string{"a.mp4": "frames-a"}}
	u := newTestUploader(t, src, false)

	require.NoError(t, u.UploadRecording(context.Background(), "a.mp4"))

	body, ok := s3.object("/footage/" + u.hostname + "/videos/a.mp4")
	require.True(t, ok, "object stored under host/videos")
	assert.Equal(t, "frames-a", body)

	uploading, name := u.UploadStats()
	assert.False(t, uploading)
	assert.Empty(t, name)

	assert.ErrorIs(t, u.UploadRecording(context.Background(), "missing.mp4"), apperror.NotFound)
}

func TestUploadRefusedWhileRecording(t *testing.T) {
	_, endpoint := newFakeS3(t)
	useConfig(t, endpoint, "")
	u := newTestUploader(t, &fakeSource{}, true)

	err := u.UploadRecording(context.Background(), "a.mp4")
	assert.ErrorIs(t, err, apperror.ServiceUnavailable)
}

func TestUploadRefusedWhileUploading(t *testing.T) {
	_, endpoint := newFakeS3(t)
	useConfig(t, endpoint, "")
	u := newTestUploader(t, &fakeSource{}, false)

	require.NoError(t, u.begin())
	err := u.UploadRecordings(context.Background())
	assert.ErrorIs(t, err, apperror.ServiceUnavailable)
	u.end()
}

func TestUploadRecordingsSkipsFailures(t *testing.T) {
	s3, endpoint := newFakeS3(t)
	useConfig(t, endpoint, "")
	src := &fakeSource{
		videos: map[string]string{"a.mp4": "A", "c.mp4": "C"},
		order:  []string{"a.mp4", "b.mp4", "c.mp4"},
	}
	u := newTestUploader(t, src, false)

	require.NoError(t, u.UploadRecordings(context.Background()))

	_, okA := s3.object("/footage/" + u.hostname + "/videos/a.mp4")
	_, okB := s3.object("/footage/" + u.hostname + "/videos/b.mp4")
	_, okC := s3.object("/footage/" + u.hostname + "/videos/c.mp4")
	assert.True(t, okA)
	assert.False(t, okB)
	assert.True(t, okC)
}

func TestUploadLogsKeepsNewest(t *testing.T) {
	s3, endpoint := newFakeS3(t)
	dir := t.TempDir()
	useConfig(t, endpoint, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "recpanel_logs_2024-03-01.log"), []byte("old"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "recpanel_logs_2024-03-02.log"), []byte("current"), 0644))

	u := newTestUploader(t, &fakeSource{}, false)
	u.UploadLogs(context.Background())

	body, ok := s3.object("/footage/" + u.hostname + "/logs/recpanel_logs_2024-03-01.log")
	require.True(t, ok)
	assert.Equal(t, "old", body)

	_, err := os.Stat(filepath.Join(dir, "recpanel_logs_2024-03-01.log"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "recpanel_logs_2024-03-02.log"))
	assert.NoError(t, err)
}
