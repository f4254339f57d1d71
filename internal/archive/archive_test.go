package archive

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/splatbench/internal/config"
	"github.com/vk/splatbench/internal/metrics"
	"github.com/vk/splatbench/internal/stats"
)

type fakeStore struct {
	exists   bool
	created  []string
	objects  map[string]string
	failKeys map[string]bool
}

func (f *fakeStore) BucketExists(_ context.Context, _ string) (bool, error) {
	return f.exists, nil
}

func (f *fakeStore) MakeBucket(_ context.Context, bucket string, _ minio.MakeBucketOptions) error {
	f.created = append(f.created, bucket)
	f.exists = true
	return nil
}

func (f *fakeStore) PutObject(_ context.Context, _, object string, reader io.Reader, size int64, _ minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.failKeys[object] {
		return minio.UploadInfo{}, errors.New("access denied")
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	if f.objects == nil {
		f.objects = map[string]string{}
	}
	f.objects[object] = string(data)
	return minio.UploadInfo{Key: object, Size: size}, nil
}

func artifacts() []stats.Artifact {
	return []stats.Artifact{
		{Scene: "bonsai", Kind: stats.Validation, Path: "results/bonsai/stats/val_step7499.json", Content: []byte(`{"psnr":32}`)},
		{Scene: "bonsai", Kind: stats.Training, Path: "results/bonsai/stats/train_step7499_rank0.json", Content: []byte(`{"mem":1}`)},
	}
}

func TestUpload_CreatesBucketAndKeys(t *testing.T) {
	store := &fakeStore{}
	a := New(store, "benchmarks", "nightly", nil)

	n, err := a.Upload(context.Background(), artifacts())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"benchmarks"}, store.created)
	assert.Equal(t, map[string]string{
		"nightly/bonsai/stats/val_step7499.json":        `{"psnr":32}`,
		"nightly/bonsai/stats/train_step7499_rank0.json": `{"mem":1}`,
	}, store.objects)
}

func TestUpload_ContinuesAfterFailure(t *testing.T) {
	store := &fakeStore{exists: true, failKeys: map[string]bool{"nightly/bonsai/stats/val_step7499.json": true}}
	m := metrics.New("splatbench", "test")
	a := New(store, "benchmarks", "nightly", m)

	n, err := a.Upload(context.Background(), artifacts())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
	assert.Equal(t, 1, n)
	assert.Empty(t, store.created)
	assert.Contains(t, store.objects, "nightly/bonsai/stats/train_step7499_rank0.json")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ArtifactsArchived))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ArchiveErrors))
}

func TestNewMinIO_RequiresCredentials(t *testing.T) {
	_, err := NewMinIO(&config.Archive{Endpoint: "localhost:9000", Bucket: "b"}, nil)
	require.ErrorContains(t, err, "access key")

	a, err := NewMinIO(&config.Archive{Endpoint: "localhost:9000", Bucket: "b", Prefix: "p", AccessKey: "k", SecretKey: "s"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "p/room/stats/val_step1.json", a.Key(stats.Artifact{Scene: "room", Path: "x/room/stats/val_step1.json"}))
}
