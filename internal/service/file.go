package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/packvault/packvault/internal/formdata"
	"github.com/packvault/packvault/internal/metrics"
	"github.com/packvault/packvault/internal/model"
	"github.com/packvault/packvault/internal/repository"
	"github.com/packvault/packvault/internal/storage"
	"github.com/packvault/packvault/internal/validation"
	"golang.org/x/sync/errgroup"
)

// Multipart fields of an upload body, in the order they must appear.
const (
	FieldResourceUUID  = "resource_uuid"
	FieldContentType   = "content_type"
	FieldFileDirectory = "file_directory"
	FieldFileName      = "file_name"
	FieldFile          = "file"
)

// BlobPrefix is the key prefix shared by every uploaded blob
const BlobPrefix = "resources/"

// Blob deletes running at once while sweeping a resource
const deleteConcurrency = 4

type FileService struct {
	fileRepo     repository.FileRepository
	resourceRepo repository.ResourceRepository
	storage      storage.Storage
	metrics      *metrics.Recorder
	now          func() time.Time
}

func NewFileService(fileRepo repository.FileRepository, resourceRepo repository.ResourceRepository, storage storage.Storage, recorder *metrics.Recorder) *FileService {
	return &FileService{
		fileRepo:     fileRepo,
		resourceRepo: resourceRepo,
		storage:      storage,
		metrics:      recorder,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// BlobKey derives the blob key of a file from its identifiers
func BlobKey(resourceID, fileID string) string {
	return BlobPrefix + resourceID + "/files/" + fileID
}

// Upload decodes one upload body from cur and commits it.
//
// Nothing is written until the whole body has been read and validated. The
// blob is written first and the metadata row second; if the row cannot be
// written the blob is deleted again.
func (s *FileService) Upload(ctx context.Context, requesterID, resourceID string, cur *formdata.Cursor) (file *model.File, err error) {
	defer func() {
		s.metrics.Upload(uploadResult(err))
	}()

	resource, err := s.ownedResource(ctx, requesterID, resourceID)
	if err != nil {
		return nil, err
	}

	fields, err := cur.ReadFields(ctx, FieldResourceUUID, FieldContentType, FieldFileDirectory, FieldFileName)
	if err != nil {
		return nil, err
	}

	if !sameUUID(fields[FieldResourceUUID], resource.ID) {
		return nil, fmt.Errorf("%w: got %q", ErrResourceMismatch, fields[FieldResourceUUID])
	}

	contentType := fields[FieldContentType]
	directory := fields[FieldFileDirectory]
	err = validation.CheckPolicy(string(resource.Type), contentType, directory)
	if err != nil {
		return nil, err
	}

	err = validation.ValidateFileName(fields[FieldFileName])
	if err != nil {
		return nil, err
	}

	extracted, err := cur.ReadFile(ctx, FieldFile, contentType)
	if err != nil {
		return nil, err
	}

	err = validation.ValidateSniff(contentType, extracted.SniffPrefix)
	if err != nil {
		return nil, err
	}

	now := s.now()
	fileID := uuid.New().String()
	file = &model.File{
		ResourceID:    resource.ID,
		ID:            fileID,
		FileDirectory: directory,
		FileName:      fields[FieldFileName],
		BlobKey:       BlobKey(resource.ID, fileID),
		ContentType:   contentType,
		Size:          extracted.Size,
		UploadedBy:    requesterID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	// The body is fully consumed; a client disconnect from here on must not
	// interrupt the commit halfway.
	err = s.commit(context.WithoutCancel(ctx), file, extracted.Bytes)
	if err != nil {
		return nil, err
	}

	s.metrics.UploadBytes(file.Size)
	slog.Info("file uploaded",
		"resource_uuid", file.ResourceID,
		"file_uuid", file.ID,
		"content_type", file.ContentType,
		"size", file.Size,
	)

	return file, nil
}

// commit writes the blob and then the row, deleting the blob if the row fails
func (s *FileService) commit(ctx context.Context, file *model.File, data []byte) error {
	err := s.storage.Put(ctx, file.BlobKey, data, file.ContentType)
	if err != nil {
		slog.Error("blob write failed",
			"resource_uuid", file.ResourceID,
			"file_uuid", file.ID,
			"blob_key", file.BlobKey,
			"error", err,
		)
		return fmt.Errorf("%w: %w", ErrBlobWriteFailed, err)
	}

	err = s.fileRepo.Create(ctx, file)
	if err == nil {
		return nil
	}

	slog.Error("metadata write failed, deleting blob",
		"resource_uuid", file.ResourceID,
		"file_uuid", file.ID,
		"blob_key", file.BlobKey,
		"error", err,
	)

	delErr := s.storage.Delete(ctx, file.BlobKey)
	s.metrics.Compensation(delErr == nil)
	if delErr != nil {
		slog.Error("compensating blob delete failed, blob is orphaned",
			"resource_uuid", file.ResourceID,
			"file_uuid", file.ID,
			"blob_key", file.BlobKey,
			"error", delErr,
		)
	}

	return fmt.Errorf("%w: %w", ErrMetadataWriteFailed, err)
}

// Files lists the files of a resource, oldest first
func (s *FileService) Files(ctx context.Context, requesterID, resourceID string) ([]*model.File, error) {
	resource, err := s.ownedResource(ctx, requesterID, resourceID)
	if err != nil {
		return nil, err
	}
	return s.fileRepo.Files(ctx, resource.ID)
}

// File returns a file's metadata together with a temporary download URL
func (s *FileService) File(ctx context.Context, requesterID, resourceID, fileID string) (*model.File, string, error) {
	file, err := s.ownedFile(ctx, requesterID, resourceID, fileID)
	if err != nil {
		return nil, "", err
	}

	url, err := s.storage.PresignedURL(ctx, file.BlobKey)
	if err != nil {
		return nil, "", fmt.Errorf("failed to presign %s: %w", file.BlobKey, err)
	}

	return file, url, nil
}

// Open returns the file's metadata and its blob; the caller closes the reader
func (s *FileService) Open(ctx context.Context, requesterID, resourceID, fileID string) (*model.File, io.ReadCloser, error) {
	file, err := s.ownedFile(ctx, requesterID, resourceID, fileID)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.storage.Get(ctx, file.BlobKey)
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			slog.Error("file row references a missing blob",
				"resource_uuid", file.ResourceID,
				"file_uuid", file.ID,
				"blob_key", file.BlobKey,
			)
		}
		return nil, nil, fmt.Errorf("failed to open blob %s: %w", file.BlobKey, err)
	}

	return file, rc, nil
}

// Delete removes one file. The row is only deleted once its blob is gone.
func (s *FileService) Delete(ctx context.Context, requesterID, resourceID, fileID string) error {
	file, err := s.ownedFile(ctx, requesterID, resourceID, fileID)
	if err != nil {
		return err
	}

	err = s.deleteFile(ctx, file)
	s.metrics.Delete(err == nil)
	return err
}

// DeleteResource removes every file of a resource and then the resource row.
// If any file cannot be deleted the resource row is left in place.
func (s *FileService) DeleteResource(ctx context.Context, requesterID, resourceID string) error {
	resource, err := s.ownedResource(ctx, requesterID, resourceID)
	if err != nil {
		return err
	}

	files, err := s.fileRepo.Files(ctx, resource.ID)
	if err != nil {
		return fmt.Errorf("failed to list files: %w", err)
	}

	// One failed file must not cancel the others mid-delete.
	var g errgroup.Group
	g.SetLimit(deleteConcurrency)
	for _, file := range files {
		g.Go(func() error {
			err := s.deleteFile(ctx, file)
			s.metrics.Delete(err == nil)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		slog.Warn("resource sweep incomplete, keeping resource row",
			"resource_uuid", resource.ID,
			"error", err,
		)
		return err
	}

	_, err = s.resourceRepo.Delete(ctx, resource.ID)
	if err != nil {
		return fmt.Errorf("failed to delete resource %s: %w", resource.ID, err)
	}

	slog.Info("resource deleted", "resource_uuid", resource.ID, "files", len(files))
	return nil
}

func (s *FileService) deleteFile(ctx context.Context, file *model.File) error {
	err := s.storage.Delete(ctx, file.BlobKey)
	if err != nil {
		slog.Error("blob delete failed, keeping file row",
			"resource_uuid", file.ResourceID,
			"file_uuid", file.ID,
			"blob_key", file.BlobKey,
			"error", err,
		)
		return fmt.Errorf("%w: %s: %w", ErrBlobDeleteFailed, file.BlobKey, err)
	}

	// The blob is gone; the row has to follow even if the caller gives up now.
	n, err := s.fileRepo.Delete(context.WithoutCancel(ctx), file.ResourceID, file.ID)
	if err != nil {
		slog.Error("file row delete failed after blob delete",
			"resource_uuid", file.ResourceID,
			"file_uuid", file.ID,
			"blob_key", file.BlobKey,
			"error", err,
		)
		return fmt.Errorf("%w: %w", ErrMetadataWriteFailed, err)
	}
	if n == 0 {
		return ErrFileNotFound
	}

	return nil
}

func (s *FileService) ownedResource(ctx context.Context, requesterID, resourceID string) (*model.Resource, error) {
	resource, err := s.resourceRepo.ByID(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	if !resource.IsOwnedBy(requesterID) {
		return nil, ErrForbiddenAction
	}
	return resource, nil
}

func (s *FileService) ownedFile(ctx context.Context, requesterID, resourceID, fileID string) (*model.File, error) {
	resource, err := s.ownedResource(ctx, requesterID, resourceID)
	if err != nil {
		return nil, err
	}
	return s.fileRepo.ByID(ctx, resource.ID, fileID)
}

// sameUUID compares two ids by value, so letter case and braces do not matter.
func sameUUID(a, b string) bool {
	ua, err := uuid.Parse(a)
	if err != nil {
		return false
	}
	ub, err := uuid.Parse(b)
	if err != nil {
		return false
	}
	return ua == ub
}

func uploadResult(err error) string {
	switch KindOf(err) {
	case KindClientInput:
		return metrics.ResultClientError
	case KindAuthorization:
		return metrics.ResultForbidden
	case KindNotFound:
		return metrics.ResultNotFound
	case KindStore:
		return metrics.ResultStoreError
	}
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, context.Canceled):
		return metrics.ResultCanceled
	}
	return metrics.ResultStoreError
}
