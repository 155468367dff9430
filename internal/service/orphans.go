package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// SweepOrphans deletes blobs under BlobPrefix that have no file row and are
// older than grace. With dryRun set the orphans are only reported.
// The keys of all orphans found are returned.
func (s *FileService) SweepOrphans(ctx context.Context, grace time.Duration, dryRun bool) ([]string, error) {
	objects, err := s.storage.List(ctx, BlobPrefix)
	if err != nil {
		return nil, err
	}

	cutoff := s.now().Add(-grace)
	var orphans []string
	for _, obj := range objects {
		// Uploads in flight have a blob but no row yet
		if obj.LastModified.After(cutoff) {
			continue
		}

		exists, err := s.fileRepo.BlobKeyExists(ctx, obj.Key)
		if err != nil {
			return orphans, fmt.Errorf("failed to look up blob %s: %w", obj.Key, err)
		}
		if exists {
			continue
		}

		orphans = append(orphans, obj.Key)
		if dryRun {
			slog.Info("orphaned blob", "blob_key", obj.Key, "size", obj.Size)
			continue
		}

		err = s.storage.Delete(ctx, obj.Key)
		if err != nil {
			return orphans, fmt.Errorf("%w: %s: %w", ErrBlobDeleteFailed, obj.Key, err)
		}
		s.metrics.OrphanDeleted()
		slog.Info("orphaned blob deleted", "blob_key", obj.Key, "size", obj.Size)
	}

	return orphans, nil
}
