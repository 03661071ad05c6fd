// Package app wires the SQLite repositories into the domain services.
package app

import (
	"log/slog"

	"github.com/metafirst/supervisor/internal/domain/access"
	"github.com/metafirst/supervisor/internal/domain/audit"
	"github.com/metafirst/supervisor/internal/domain/ingest"
	"github.com/metafirst/supervisor/internal/domain/project"
	"github.com/metafirst/supervisor/internal/domain/rdmp"
	"github.com/metafirst/supervisor/internal/domain/release"
	"github.com/metafirst/supervisor/internal/domain/sample"
	"github.com/metafirst/supervisor/internal/mcp"
	"github.com/metafirst/supervisor/internal/metrics"
	"github.com/metafirst/supervisor/internal/sqlite"
)

// Options tunes service construction. The zero value is usable.
type Options struct {
	Logger       *slog.Logger
	Metrics      *metrics.Recorder
	SweepWorkers int
}

// App holds the domain services built over one database.
type App struct {
	DB        *sqlite.DB
	Projects  *project.Service
	RDMP      *rdmp.Service
	Templates *rdmp.TemplateService
	Samples   *sample.Service
	Ingests   *ingest.Service
	Releases  *release.Service
	Audit     *audit.Service
	Authz     *access.Authorizer
	APIKeys   *sqlite.APIKeyRepository
	Metrics   *metrics.Recorder
}

// New builds every service over db. Migrations must already have run.
func New(db *sqlite.DB, opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	projectRepo := sqlite.NewProjectRepository(db)
	memberRepo := sqlite.NewMemberRepository(db)
	rootRepo := sqlite.NewStorageRootRepository(db)
	rdmpRepo := sqlite.NewRDMPRepository(db)
	sampleRepo := sqlite.NewSampleRepository(db)
	ingestRepo := sqlite.NewIngestRepository(db)
	auditRepo := sqlite.NewAuditRepository(db)

	auditSvc := audit.NewService(auditRepo, logger.With("component", "audit"))
	authz := access.NewAuthorizer(memberRepo, rdmpRepo)

	templateSvc := rdmp.NewTemplateService(sqlite.NewTemplateRepository(db), logger.With("component", "template"))
	rdmpSvc := rdmp.NewService(rdmpRepo, authz, auditSvc, logger.With("component", "rdmp")).WithTemplates(templateSvc)
	sampleSvc := sample.NewService(sampleRepo, rdmpSvc, authz, ingestRepo, auditSvc, logger.With("component", "sample"))
	projectSvc := project.NewService(projectRepo, memberRepo, rootRepo, authz, auditSvc, logger.With("component", "project"))

	deps := ingest.Deps{
		Ingests:      ingestRepo,
		Projects:     projectRepo,
		Roots:        rootRepo,
		Samples:      sampleRepo,
		Creator:      sampleSvc,
		Active:       rdmpSvc,
		Authz:        authz,
		Activities:   auditSvc,
		SweepWorkers: opts.SweepWorkers,
	}
	if opts.Metrics != nil {
		rdmpSvc.WithMetrics(opts.Metrics)
		sampleSvc.WithMetrics(opts.Metrics)
		deps.Metrics = opts.Metrics
	}
	ingestSvc := ingest.NewService(deps, logger.With("component", "ingest"))
	releaseSvc := release.NewService(
		sqlite.NewReleaseRepository(db),
		rdmpSvc,
		sampleSvc,
		ingestSvc,
		authz,
		auditSvc,
		logger.With("component", "release"),
	)

	return &App{
		DB:        db,
		Projects:  projectSvc,
		RDMP:      rdmpSvc,
		Templates: templateSvc,
		Samples:   sampleSvc,
		Ingests:   ingestSvc,
		Releases:  releaseSvc,
		Audit:     auditSvc,
		Authz:     authz,
		APIKeys:   sqlite.NewAPIKeyRepository(db),
		Metrics:   opts.Metrics,
	}
}

// MCPServices exposes the services to the MCP tool handler.
func (a *App) MCPServices() mcp.Services {
	return mcp.Services{
		Projects:  a.Projects,
		RDMP:      a.RDMP,
		Templates: a.Templates,
		Samples:   a.Samples,
		Ingests:   a.Ingests,
		Releases:  a.Releases,
		Audit:     a.Audit,
		Authz:     a.Authz,
	}
}
