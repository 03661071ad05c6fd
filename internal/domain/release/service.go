package release

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/metafirst/supervisor/internal/domain/audit"
	"github.com/metafirst/supervisor/internal/domain/completeness"
	"github.com/metafirst/supervisor/internal/domain/ingest"
	"github.com/metafirst/supervisor/internal/domain/rdmp"
	"github.com/metafirst/supervisor/internal/domain/sample"
	"github.com/metafirst/supervisor/internal/repository"
)

const maxTagLength = 100

// Service cuts and reads project releases.
type Service struct {
	releases   Repository
	active     ActiveResolver
	samples    SampleLister
	files      FileLister
	authz      Authorizer
	activities ActivityRepository
	logger     *slog.Logger
}

// NewService creates a new release service.
func NewService(
	releases Repository,
	active ActiveResolver,
	samples SampleLister,
	files FileLister,
	authz Authorizer,
	activities ActivityRepository,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		releases:   releases,
		active:     active,
		samples:    samples,
		files:      files,
		authz:      authz,
		activities: activities,
		logger:     logger,
	}
}

// Create freezes the project's samples and their assigned files. Completeness
// is evaluated against the ACTIVE version the release is pinned to.
func (s *Service) Create(ctx context.Context, projectID, actorID string, req CreateRequest) (*Release, error) {
	if err := s.authz.Require(ctx, projectID, actorID, rdmp.ActionCreateRelease); err != nil {
		return nil, err
	}
	tag := strings.TrimSpace(req.Tag)
	if tag == "" {
		return nil, ErrInvalidInput.WithDetails("release tag is required")
	}
	if len(tag) > maxTagLength {
		return nil, ErrInvalidInput.WithDetails(fmt.Sprintf("release tag is longer than %d characters", maxTagLength))
	}

	active, err := s.active.RequireActive(ctx, projectID)
	if err != nil {
		return nil, err
	}
	parentID, err := s.parent(ctx, projectID, strings.TrimSpace(req.ParentReleaseID))
	if err != nil {
		return nil, err
	}
	snapshot, summary, err := s.snapshot(ctx, projectID, active)
	if err != nil {
		return nil, err
	}

	rel := &Release{
		ID:              uuid.NewString(),
		ProjectID:       projectID,
		Tag:             tag,
		Description:     req.Description,
		RDMPVersionID:   active.ID,
		RDMPVersionInt:  active.VersionInt,
		ParentReleaseID: parentID,
		Summary:         summary,
		CreatedBy:       actorID,
		CreatedAt:       time.Now().UTC(),
		Snapshot:        snapshot,
	}
	if err := s.releases.Create(ctx, rel); err != nil {
		if errors.Is(err, repository.ErrUniqueViolation) {
			return nil, ErrDuplicateTag.WithDetails(tag)
		}
		return nil, fmt.Errorf("creating release: %w", err)
	}

	s.logger.Info("release created",
		"project_id", projectID,
		"release_id", rel.ID,
		"tag", tag,
		"samples", summary.Samples,
		"actor_id", actorID,
	)
	if s.activities != nil {
		_ = s.activities.Log(ctx, &audit.Entry{
			ProjectID:  projectID,
			ActorID:    actorID,
			Action:     audit.ActionReleaseCreated,
			TargetType: "release",
			TargetID:   rel.ID,
			Summary:    fmt.Sprintf("created release %s (%d samples, rdmp v%d)", tag, summary.Samples, active.VersionInt),
		})
	}
	return rel, nil
}

// Get returns a release with its snapshot.
func (s *Service) Get(ctx context.Context, id string) (*Release, error) {
	rel, err := s.releases.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrReleaseNotFound
		}
		return nil, fmt.Errorf("getting release: %w", err)
	}
	return rel, nil
}

// List returns the project's releases, newest first, without snapshots.
func (s *Service) List(ctx context.Context, projectID string) ([]Release, error) {
	releases, err := s.releases.List(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing releases: %w", err)
	}
	return releases, nil
}

func (s *Service) parent(ctx context.Context, projectID, parentID string) (*string, error) {
	if parentID == "" {
		return nil, nil
	}
	parent, err := s.releases.Get(ctx, parentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidParent.WithDetails(parentID)
		}
		return nil, fmt.Errorf("getting parent release: %w", err)
	}
	if parent.ProjectID != projectID {
		return nil, ErrInvalidParent.WithDetails(parentID)
	}
	return &parent.ID, nil
}

func (s *Service) snapshot(ctx context.Context, projectID string, active *rdmp.Version) (*Snapshot, Summary, error) {
	views, err := s.samples.List(ctx, projectID, sample.ListOptions{})
	if err != nil {
		return nil, Summary{}, err
	}
	assigned, err := s.files.List(ctx, projectID, ingest.StatusAssigned)
	if err != nil {
		return nil, Summary{}, err
	}
	bySample := make(map[string][]File, len(views))
	for _, ing := range assigned {
		if ing.SampleID == nil {
			continue
		}
		bySample[*ing.SampleID] = append(bySample[*ing.SampleID], File{
			IngestID:       ing.ID,
			StorageRootID:  ing.StorageRootID,
			RelativePath:   ing.RelativePath,
			FileSizeBytes:  ing.FileSizeBytes,
			FileHashSHA256: ing.FileHashSHA256,
		})
	}

	snap := &Snapshot{Fields: active.Fields.Clone(), Samples: make([]SampleSnapshot, 0, len(views))}
	var summary Summary
	for _, view := range views {
		res, err := completeness.Evaluate(view.FieldValues, active)
		if err != nil {
			return nil, Summary{}, err
		}
		files := bySample[view.ID]
		if files == nil {
			files = []File{}
		}
		snap.Samples = append(snap.Samples, SampleSnapshot{
			ID:           view.ID,
			Identifier:   view.Identifier,
			FieldValues:  view.FieldValues,
			Completeness: res,
			Files:        files,
		})
		summary.Samples++
		summary.Files += len(files)
		if res.IsComplete {
			summary.Complete++
		}
	}
	return snap, summary, nil
}
