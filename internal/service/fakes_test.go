package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/packvault/packvault/internal/model"
	"github.com/packvault/packvault/internal/repository"
	"github.com/packvault/packvault/internal/storage"
)

var errInjected = errors.New("injected failure")

type fakeResources struct {
	mu        sync.Mutex
	resources map[string]*model.Resource
	deleted   []string
}

func newFakeResources(resources ...*model.Resource) *fakeResources {
	f := &fakeResources{resources: map[string]*model.Resource{}}
	for _, r := range resources {
		f.resources[r.ID] = r
	}
	return f
}

func (f *fakeResources) ByID(_ context.Context, id string) (*model.Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.resources[id]
	if !ok {
		return nil, repository.ErrResourceNotFound
	}
	copied := *r
	return &copied, nil
}

func (f *fakeResources) Delete(_ context.Context, id string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.resources[id]; !ok {
		return 0, nil
	}
	delete(f.resources, id)
	f.deleted = append(f.deleted, id)
	return 1, nil
}

type fakeFiles struct {
	mu        sync.Mutex
	files     map[string]*model.File // keyed by file id
	createErr error
	deleteErr error
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{files: map[string]*model.File{}}
}

func (f *fakeFiles) Create(ctx context.Context, file *model.File) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.createErr != nil {
		return f.createErr
	}
	copied := *file
	f.files[file.ID] = &copied
	return nil
}

func (f *fakeFiles) ByID(_ context.Context, resourceID, fileID string) (*model.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, ok := f.files[fileID]
	if !ok || file.ResourceID != resourceID {
		return nil, repository.ErrFileNotFound
	}
	copied := *file
	return &copied, nil
}

func (f *fakeFiles) Files(_ context.Context, resourceID string) ([]*model.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	files := []*model.File{}
	for _, file := range f.files {
		if file.ResourceID == resourceID {
			copied := *file
			files = append(files, &copied)
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].ID < files[j].ID })
	return files, nil
}

func (f *fakeFiles) BlobKeyExists(_ context.Context, blobKey string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, file := range f.files {
		if file.BlobKey == blobKey {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeFiles) Delete(ctx context.Context, resourceID, fileID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	file, ok := f.files[fileID]
	if !ok || file.ResourceID != resourceID {
		return 0, nil
	}
	delete(f.files, fileID)
	return 1, nil
}

func (f *fakeFiles) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.files)
}

type fakeBlob struct {
	data         []byte
	contentType  string
	lastModified time.Time
}

// fakeStorage is an in-memory blob store with per-operation fault injection
type fakeStorage struct {
	mu         sync.Mutex
	blobs      map[string]fakeBlob
	puts       int
	deletes    int
	putErr     error
	putHook    func()
	deleteHook func(ctx context.Context, key string) // runs before the delete, outside the lock
	deleteErr  error
	failDelete map[string]bool // keys whose delete fails
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{blobs: map[string]fakeBlob{}, failDelete: map[string]bool{}}
}

func (s *fakeStorage) Put(ctx context.Context, key string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	if s.putHook != nil {
		s.putHook()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.putErr != nil {
		return s.putErr
	}
	s.blobs[key] = fakeBlob{data: bytes.Clone(data), contentType: contentType, lastModified: time.Now().UTC()}
	return nil
}

func (s *fakeStorage) Get(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blobs[key]
	if !ok {
		return nil, storage.ErrBlobNotFound
	}
	return io.NopCloser(bytes.NewReader(b.data)), nil
}

func (s *fakeStorage) Delete(ctx context.Context, key string) error {
	if s.deleteHook != nil {
		s.deleteHook(ctx, key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
	if s.deleteErr != nil || s.failDelete[key] {
		return errInjected
	}
	delete(s.blobs, key)
	return nil
}

func (s *fakeStorage) List(_ context.Context, prefix string) ([]storage.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var objects []storage.Object
	for key, b := range s.blobs {
		if strings.HasPrefix(key, prefix) {
			objects = append(objects, storage.Object{Key: key, Size: int64(len(b.data)), LastModified: b.lastModified})
		}
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

func (s *fakeStorage) PresignedURL(_ context.Context, key string) (string, error) {
	return "https://blobs.example.test/" + key + "?sig=1", nil
}

func (s *fakeStorage) blob(key string) (fakeBlob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blobs[key]
	return b, ok
}

func (s *fakeStorage) seed(key string, data []byte, lastModified time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = fakeBlob{data: data, lastModified: lastModified}
}

func (s *fakeStorage) stats() (puts, deletes, blobs int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts, s.deletes, len(s.blobs)
}
