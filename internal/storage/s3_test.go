package storage

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packvault/packvault/internal/storage/storagetest"
)

const testBucket = "packs"

func newTestStorage(t *testing.T) (*S3Storage, *storagetest.FakeS3) {
	t.Helper()
	fake := storagetest.NewFakeS3()
	t.Cleanup(fake.Close)

	s, err := NewS3Storage(context.Background(), S3Config{
		Region:        "us-east-1",
		Bucket:        testBucket,
		AccessKey:     "test",
		SecretKey:     "test-secret",
		Endpoint:      fake.URL(),
		PresignExpiry: time.Minute,
	})
	require.NoError(t, err)
	return s, fake
}

func TestS3StorageCreatesBucket(t *testing.T) {
	_, fake := newTestStorage(t)

	// Bucket exists now, so a blob can be seeded and listed
	fake.PutObject(testBucket, "k", storagetest.Object{Data: []byte("x")})
	assert.Equal(t, []string{"k"}, fake.Keys(testBucket))
}

func TestS3StoragePutGetDelete(t *testing.T) {
	s, fake := newTestStorage(t)
	ctx := context.Background()
	data := []byte{0x89, 'P', 'N', 'G', 0x00, 0xff, 0xfe}

	require.NoError(t, s.Put(ctx, "resources/r1/files/f1", data, "image/png"))

	obj, ok := fake.Object(testBucket, "resources/r1/files/f1")
	require.True(t, ok)
	assert.Equal(t, data, obj.Data)
	assert.Equal(t, "image/png", obj.ContentType)

	rc, err := s.Get(ctx, "resources/r1/files/f1")
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, data, got)

	require.NoError(t, s.Delete(ctx, "resources/r1/files/f1"))
	_, ok = fake.Object(testBucket, "resources/r1/files/f1")
	assert.False(t, ok)

	// Deleting again is not an error
	require.NoError(t, s.Delete(ctx, "resources/r1/files/f1"))
}

func TestS3StorageGetMissing(t *testing.T) {
	s, _ := newTestStorage(t)

	_, err := s.Get(context.Background(), "resources/none")
	require.ErrorIs(t, err, ErrBlobNotFound)
}

func TestS3StoragePutFailureIsNotRetried(t *testing.T) {
	s, fake := newTestStorage(t)
	fake.FailMethod(http.MethodPut, true)

	err := s.Put(context.Background(), "resources/r1/files/f2", []byte("{}"), "application/json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to upload to S3")
	assert.Empty(t, fake.Keys(testBucket))
}

func TestS3StorageList(t *testing.T) {
	s, fake := newTestStorage(t)
	old := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	fake.PutObject(testBucket, "resources/a/files/1", storagetest.Object{Data: []byte("abc"), LastModified: old})
	fake.PutObject(testBucket, "resources/b/files/2", storagetest.Object{Data: []byte("de"), LastModified: old})
	fake.PutObject(testBucket, "other/3", storagetest.Object{Data: []byte("f"), LastModified: old})

	objects, err := s.List(context.Background(), "resources/")
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "resources/a/files/1", objects[0].Key)
	assert.Equal(t, int64(3), objects[0].Size)
	assert.True(t, objects[0].LastModified.Equal(old))
}

func TestS3StoragePresignedURL(t *testing.T) {
	s, fake := newTestStorage(t)

	url, err := s.PresignedURL(context.Background(), "resources/r1/files/f1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, fake.URL()+"/"+testBucket+"/resources/r1/files/f1?"))
	assert.Contains(t, url, "X-Amz-Signature=")
	assert.Contains(t, url, "X-Amz-Expires=60")
}
