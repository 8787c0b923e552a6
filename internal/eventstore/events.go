package eventstore

import (
	"encoding/json"
	"fmt"
	"time"
)

// BuildStartedMeta contains typed metadata for build start events.
// This replaces the untyped map[string]interface{} for compile-time safety.
type BuildStartedMeta struct {
	RenderMode string `json:"render_mode"` // auto, always, never
	Atomic     bool   `json:"atomic"`      // whether output is staged and swapped into place
}

// BuildStarted is emitted when a build begins.
type BuildStarted struct {
	BaseEvent
	Config BuildStartedMeta `json:"config"`
}

// NewBuildStarted creates a BuildStarted event with typed metadata.
func NewBuildStarted(buildID string, meta BuildStartedMeta) (*BuildStarted, error) {
	payload, err := json.Marshal(map[string]any{"config": meta})
	if err != nil {
		return nil, fmt.Errorf("%w: BuildStarted payload for build %q: %v", ErrMarshalPayloadFailed, buildID, err)
	}

	return &BuildStarted{
		BaseEvent: BaseEvent{
			EventBuildID:   buildID,
			EventType:      "BuildStarted",
			EventTimestamp: time.Now(),
			EventPayload:   payload,
		},
		Config: meta,
	}, nil
}

// PagesDiscovered is emitted once content discovery finds the page tree.
type PagesDiscovered struct {
	BaseEvent
	PageCount int `json:"page_count"`
}

// NewPagesDiscovered creates a PagesDiscovered event.
func NewPagesDiscovered(buildID string, pageCount int) (*PagesDiscovered, error) {
	payload, err := json.Marshal(map[string]any{"page_count": pageCount})
	if err != nil {
		return nil, fmt.Errorf("%w: PagesDiscovered payload for build %q: %v", ErrMarshalPayloadFailed, buildID, err)
	}

	return &PagesDiscovered{
		BaseEvent: BaseEvent{
			EventBuildID:   buildID,
			EventType:      "PagesDiscovered",
			EventTimestamp: time.Now(),
			EventPayload:   payload,
		},
		PageCount: pageCount,
	}, nil
}

// ContentTransformApplied is emitted when a content transform (e.g. a
// shortcode or Markdown extension) runs during render.
type ContentTransformApplied struct {
	BaseEvent
	TransformName string        `json:"transform_name"`
	FileCount     int           `json:"file_count"`
	Duration      time.Duration `json:"duration_ms"`
}

// NewContentTransformApplied creates a ContentTransformApplied event.
func NewContentTransformApplied(buildID, transformName string, fileCount int, duration time.Duration) (*ContentTransformApplied, error) {
	payload, err := json.Marshal(map[string]any{
		"transform_name": transformName,
		"file_count":     fileCount,
		"duration_ms":    duration.Milliseconds(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: ContentTransformApplied payload for build %q transform %q: %v", ErrMarshalPayloadFailed, buildID, transformName, err)
	}

	return &ContentTransformApplied{
		BaseEvent: BaseEvent{
			EventBuildID:   buildID,
			EventType:      "ContentTransformApplied",
			EventTimestamp: time.Now(),
			EventPayload:   payload,
		},
		TransformName: transformName,
		FileCount:     fileCount,
		Duration:      duration,
	}, nil
}

// BuildReportData contains the key metrics from a build report. A subset
// of orchestrator.Report optimized for event storage.
type BuildReportData struct {
	Outcome        string           `json:"outcome"`
	PagesBuilt     int              `json:"pages_built"`
	CacheHits      int              `json:"cache_hits"`
	CacheMisses    int              `json:"cache_misses"`
	Skipped        bool             `json:"skipped"`
	StageDurations map[string]int64 `json:"stage_durations_ms"` // stage -> milliseconds
	Errors         []string         `json:"errors,omitempty"`
	Warnings       []string         `json:"warnings,omitempty"`
}

// BuildReportGenerated is emitted when a build report is finalized.
type BuildReportGenerated struct {
	BaseEvent
	Report BuildReportData `json:"report"`
}

// NewBuildReportGenerated creates a BuildReportGenerated event.
func NewBuildReportGenerated(buildID string, report BuildReportData) (*BuildReportGenerated, error) {
	payload, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("%w: BuildReportGenerated payload for build %q: %v", ErrMarshalPayloadFailed, buildID, err)
	}

	return &BuildReportGenerated{
		BaseEvent: BaseEvent{
			EventBuildID:   buildID,
			EventType:      "BuildReportGenerated",
			EventTimestamp: time.Now(),
			EventPayload:   payload,
		},
		Report: report,
	}, nil
}

// BuildCompleted is emitted when a build completes successfully.
type BuildCompleted struct {
	BaseEvent
	Status    string            `json:"status"`
	Duration  time.Duration     `json:"duration_ms"`
	Artifacts map[string]string `json:"artifacts"`
}

// NewBuildCompleted creates a BuildCompleted event.
func NewBuildCompleted(buildID, status string, duration time.Duration, artifacts map[string]string) (*BuildCompleted, error) {
	payload, err := json.Marshal(map[string]any{
		"status":      status,
		"duration_ms": duration.Milliseconds(),
		"artifacts":   artifacts,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: BuildCompleted payload for build %q: %v", ErrMarshalPayloadFailed, buildID, err)
	}

	return &BuildCompleted{
		BaseEvent: BaseEvent{
			EventBuildID:   buildID,
			EventType:      "BuildCompleted",
			EventTimestamp: time.Now(),
			EventPayload:   payload,
		},
		Status:    status,
		Duration:  duration,
		Artifacts: artifacts,
	}, nil
}

// BuildFailed is emitted when a build fails.
type BuildFailed struct {
	BaseEvent
	Stage string `json:"stage"`
	Error string `json:"error"`
}

// NewBuildFailed creates a BuildFailed event.
func NewBuildFailed(buildID, stage, errorMsg string) (*BuildFailed, error) {
	payload, err := json.Marshal(map[string]any{
		"stage": stage,
		"error": errorMsg,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: BuildFailed payload for build %q stage %q: %v", ErrMarshalPayloadFailed, buildID, stage, err)
	}

	return &BuildFailed{
		BaseEvent: BaseEvent{
			EventBuildID:   buildID,
			EventType:      "BuildFailed",
			EventTimestamp: time.Now(),
			EventPayload:   payload,
		},
		Stage: stage,
		Error: errorMsg,
	}, nil
}
