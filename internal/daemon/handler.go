package daemon

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"weir/internal/catalog"
	"weir/internal/fileutil"
	"weir/internal/logging"
	"weir/internal/metainfo"
	"weir/internal/watchfolder"
)

// onItemsReady receives ready batches from the watch engine. Cataloging does
// database and network work, so it runs off the watcher's event loop.
func (d *Daemon) onItemsReady(paths []string) {
	ctx := d.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	go d.processBatch(ctx, paths)
}

// onItemInvalidated reports files that exhausted their retry budget. Runs off
// the watcher loop for the same reason as onItemsReady.
func (d *Daemon) onItemInvalidated(path string) {
	ctx := d.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	go func() {
		if err := d.notifier.NotifyItemInvalidated(ctx, filepath.Base(path)); err != nil {
			d.logger.Debug("invalidation notification failed", logging.Error(err))
		}
	}()
}

func (d *Daemon) processBatch(ctx context.Context, paths []string) {
	batchID := uuid.NewString()
	logger := d.logger.With(logging.String(logging.FieldBatchID, batchID))
	logger.Info("processing ready batch", logging.Int("item_count", len(paths)))

	perDir := make(map[string]int)
	for _, path := range paths {
		if err := d.catalogPath(ctx, path, batchID); err != nil {
			logger.Warn("could not catalog file",
				logging.Error(err),
				logging.String("path", path),
				logging.String(logging.FieldEventType, "catalog_failed"),
				logging.String(logging.FieldErrorHint, "check the catalog database and file permissions"),
				logging.String(logging.FieldImpact, "the file was detected but is not recorded"),
			)
			if nerr := d.notifier.NotifyError(ctx, err, "cataloging "+filepath.Base(path)); nerr != nil {
				logger.Debug("error notification failed", logging.Error(nerr))
			}
			continue
		}
		perDir[filepath.Dir(path)]++
	}

	dirs := make([]string, 0, len(perDir))
	for dir := range perDir {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	for _, dir := range dirs {
		if err := d.notifier.NotifyItemsDetected(ctx, perDir[dir], dir); err != nil {
			logger.Debug("detection notification failed", logging.Error(err))
		}
	}
}

// catalogPath parses one reported file, records it, and hands the file off
// when a handoff directory is configured. Parse failures still produce a
// catalog row so the detection is never lost.
func (d *Daemon) catalogPath(ctx context.Context, path, batchID string) error {
	item := &catalog.Item{Path: path, BatchID: batchID}

	var parseErr error
	if strings.HasSuffix(strings.ToLower(path), watchfolder.DefaultReferenceSuffix) {
		item.Kind = catalog.KindMagnet
		if m, err := metainfo.LoadMagnetFile(path); err != nil {
			parseErr = err
		} else {
			item.Name = m.DisplayName
			item.InfoHash = m.InfoHash
		}
	} else {
		item.Kind = catalog.KindTorrent
		if mi, err := metainfo.Load(path); err != nil {
			parseErr = err
		} else {
			item.Name = mi.Info.Name
			item.InfoHash = mi.InfoHash
			item.Announce = mi.Announce
			item.TotalSize = mi.Info.TotalSize()
			item.FileCount = mi.Info.NumFiles()
		}
	}
	if parseErr != nil {
		item.Status = catalog.StatusFailed
		item.ErrorMessage = parseErr.Error()
	}

	if err := d.store.Insert(ctx, item); err != nil {
		return fmt.Errorf("insert catalog item: %w", err)
	}
	if parseErr != nil {
		return nil
	}

	d.logger.Info("cataloged metadata file",
		logging.String("path", path),
		logging.String("kind", string(item.Kind)),
		logging.String("info_hash", item.InfoHash),
		logging.String(logging.FieldBatchID, batchID),
	)

	if d.cfg.Paths.HandoffDir == "" {
		return nil
	}
	return d.handOff(ctx, item)
}

// handOff relocates the item's file into the handoff directory, never
// overwriting an existing file with the same name.
func (d *Daemon) handOff(ctx context.Context, item *catalog.Item) error {
	dest := fileutil.UniquePath(filepath.Join(d.cfg.Paths.HandoffDir, filepath.Base(item.Path)))
	if err := fileutil.MoveFile(item.Path, dest); err != nil {
		if markErr := d.store.MarkFailed(ctx, item.ID, err.Error()); markErr != nil {
			d.logger.Warn("could not record handoff failure", logging.Error(markErr), logging.Int64("item_id", item.ID))
		}
		return fmt.Errorf("hand off %s: %w", item.Path, err)
	}
	if err := d.store.MarkHandedOff(ctx, item.ID, dest); err != nil {
		return fmt.Errorf("record handoff: %w", err)
	}
	d.logger.Info("handed off metadata file",
		logging.String("path", item.Path),
		logging.String("destination", dest),
	)
	return nil
}
