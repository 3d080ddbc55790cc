// Package exporter assembles reproducible dataset bundles: all accepted
// episodes for a task plus the fix episodes of its accepted jobs, as a
// ZIP with a manifest.
package exporter

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"

	"motion-curator/core/models"
	"motion-curator/storage"
)

// EpisodeSource is the read-only episode access the exporter needs.
type EpisodeSource interface {
	AcceptedEpisodes(ctx context.Context, taskID string) ([]*models.Episode, error)
	GetEpisodesByIDs(ctx context.Context, ids []string) ([]*models.Episode, error)
}

// JobSource resolves which fix episodes belong to accepted jobs.
type JobSource interface {
	AcceptedFixEpisodeIDs(ctx context.Context, taskID string) ([]string, error)
}

// ManifestEntry records one episode the export attempted to include.
type ManifestEntry struct {
	EpisodeID   string `json:"episode_id"`
	StoragePath string `json:"storage_path"`
}

// Manifest describes the bundle contents. It reflects exactly what was
// attempted, independent of which artifact fetches succeeded.
type Manifest struct {
	TaskID           string          `json:"task_id"`
	ExportedAt       string          `json:"exported_at"`
	AcceptedEpisodes []ManifestEntry `json:"accepted_episodes"`
	AcceptedFixes    []ManifestEntry `json:"accepted_fixes"`
}

// Bundle is one completed export.
type Bundle struct {
	TaskID   string
	Filename string
	Data     []byte // ZIP archive
	Manifest Manifest
	Warnings []string // One entry per artifact that could not be fetched
}

// Exporter builds dataset bundles.
type Exporter struct {
	episodes  EpisodeSource
	jobs      JobSource
	artifacts storage.Store
	now       func() time.Time
}

// NewExporter wires the exporter to its sources.
func NewExporter(episodes EpisodeSource, jobs JobSource, artifacts storage.Store) *Exporter {
	return &Exporter{
		episodes:  episodes,
		jobs:      jobs,
		artifacts: artifacts,
		now:       time.Now,
	}
}

// Export assembles the bundle for a task. Individual missing or
// unreadable artifacts are recorded as warnings and skipped; they never
// fail the export. Bundle membership and ordering are deterministic for
// a fixed accepted set: episodes are sorted by ID within each group.
func (x *Exporter) Export(ctx context.Context, taskID string) (*Bundle, error) {
	accepted, err := x.episodes.AcceptedEpisodes(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accepted episodes: %w", err)
	}

	fixIDs, err := x.jobs.AcceptedFixEpisodeIDs(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accepted fixes: %w", err)
	}
	fixes, err := x.episodes.GetEpisodesByIDs(ctx, fixIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load fix episodes: %w", err)
	}

	sortByID(accepted)
	sortByID(fixes)

	exportedAt := x.now().UTC()
	manifest := Manifest{
		TaskID:           taskID,
		ExportedAt:       exportedAt.Format(time.RFC3339),
		AcceptedEpisodes: []ManifestEntry{},
		AcceptedFixes:    []ManifestEntry{},
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	var warnings []string

	for _, e := range accepted {
		manifest.AcceptedEpisodes = append(manifest.AcceptedEpisodes, ManifestEntry{
			EpisodeID:   e.ID,
			StoragePath: e.StoragePath,
		})
		warnings = append(warnings, x.addEpisode(ctx, zw, "episodes", e)...)
	}

	for _, e := range fixes {
		manifest.AcceptedFixes = append(manifest.AcceptedFixes, ManifestEntry{
			EpisodeID:   e.ID,
			StoragePath: e.StoragePath,
		})
		warnings = append(warnings, x.addEpisode(ctx, zw, "fixes", e)...)
	}

	manifestBytes, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := writeZipEntry(zw, "manifest.json", manifestBytes); err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish archive: %w", err)
	}

	return &Bundle{
		TaskID:   taskID,
		Filename: fmt.Sprintf("dataset_%s_%s.zip", taskID, exportedAt.Format("20060102_150405")),
		Data:     buf.Bytes(),
		Manifest: manifest,
		Warnings: warnings,
	}, nil
}

// addEpisode copies the episode's artifacts into the archive under
// <group>/<id>/. Each failed fetch yields one warning.
func (x *Exporter) addEpisode(ctx context.Context, zw *zip.Writer, group string, e *models.Episode) []string {
	var warnings []string

	metaPath := e.StoragePath + "/meta.json"
	if data, err := x.artifacts.GetBytes(ctx, metaPath); err != nil {
		warnings = append(warnings, warn(e.ID, metaPath, err))
	} else if err := writeZipEntry(zw, group+"/"+e.ID+"/meta.json", data); err != nil {
		warnings = append(warnings, warn(e.ID, metaPath, err))
	}

	if e.VideoPath != nil {
		if data, err := x.artifacts.GetBytes(ctx, *e.VideoPath); err != nil {
			warnings = append(warnings, warn(e.ID, *e.VideoPath, err))
		} else if err := writeZipEntry(zw, group+"/"+e.ID+"/video.mp4", data); err != nil {
			warnings = append(warnings, warn(e.ID, *e.VideoPath, err))
		}
	}

	return warnings
}

func warn(episodeID, path string, err error) string {
	msg := fmt.Sprintf("episode %s: skipped %s: %v", episodeID, path, err)
	log.Printf("export: %s", msg)
	return msg
}

func writeZipEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create archive entry %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write archive entry %s: %w", name, err)
	}
	return nil
}

func sortByID(episodes []*models.Episode) {
	sort.Slice(episodes, func(i, j int) bool { return episodes[i].ID < episodes[j].ID })
}
