package rdmp_test

import (
	"context"
	"testing"

	"github.com/metafirst/supervisor/internal/domain/rdmp"
	"github.com/metafirst/supervisor/internal/domain/schema"
	"github.com/metafirst/supervisor/internal/failure"
	"github.com/metafirst/supervisor/internal/repository"
	"github.com/metafirst/supervisor/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestTemplateService_CreateStoresFirstVersion(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.TemplateRepository{}
	repo.On("Create", ctx, mock.AnythingOfType("*rdmp.Template"), mock.AnythingOfType("*rdmp.TemplateVersion")).
		Run(func(args mock.Arguments) {
			args.Get(2).(*rdmp.TemplateVersion).VersionInt = 1
		}).Return(nil)

	svc := rdmp.NewTemplateService(repo, nil)
	tmpl, err := svc.Create(ctx, "alice", rdmp.TemplateRequest{
		Name:        " Cell culture ",
		Description: "shared lab template",
		Draft:       validDraft(),
	})
	require.NoError(t, err)
	require.Equal(t, "Cell culture", tmpl.Name)
	require.Equal(t, "alice", tmpl.CreatedBy)
	require.Len(t, tmpl.Versions, 1)
	require.Equal(t, int64(1), tmpl.Versions[0].VersionInt)
	require.Equal(t, tmpl.ID, tmpl.Versions[0].TemplateID)
	require.Len(t, tmpl.Versions[0].Fields, 2)
}

func TestTemplateService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.TemplateRepository{}
	svc := rdmp.NewTemplateService(repo, nil)

	_, err := svc.Create(ctx, "alice", rdmp.TemplateRequest{Name: "  ", Draft: validDraft()})
	require.ErrorIs(t, err, rdmp.ErrInvalidTemplate)

	_, err = svc.Create(ctx, "alice", rdmp.TemplateRequest{Name: "empty"})
	require.ErrorIs(t, err, failure.ErrValidation)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)

	repo.On("Create", ctx, mock.Anything, mock.Anything).Return(repository.ErrUniqueViolation)
	_, err = svc.Create(ctx, "alice", rdmp.TemplateRequest{Name: "taken", Draft: validDraft()})
	require.ErrorIs(t, err, rdmp.ErrDuplicateTemplate)
}

func TestTemplateService_AddVersion(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.TemplateRepository{}
	repo.On("AddVersion", ctx, mock.MatchedBy(func(v *rdmp.TemplateVersion) bool {
		return v.TemplateID == "t1"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*rdmp.TemplateVersion).VersionInt = 2
	}).Return(nil)
	repo.On("AddVersion", ctx, mock.MatchedBy(func(v *rdmp.TemplateVersion) bool {
		return v.TemplateID == "missing"
	})).Return(repository.ErrNotFound)

	svc := rdmp.NewTemplateService(repo, nil)
	v, err := svc.AddVersion(ctx, "t1", "alice", validDraft())
	require.NoError(t, err)
	require.Equal(t, int64(2), v.VersionInt)

	_, err = svc.AddVersion(ctx, "missing", "alice", validDraft())
	require.ErrorIs(t, err, rdmp.ErrTemplateNotFound)
	require.ErrorIs(t, err, failure.ErrNotFound)
}

func TestTemplateService_GetIncludesVersions(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.TemplateRepository{}
	repo.On("Get", ctx, "t1").Return(&rdmp.Template{ID: "t1", Name: "Cell culture"}, nil)
	repo.On("Get", ctx, "missing").Return(nil, repository.ErrNotFound)
	repo.On("ListVersions", ctx, "t1").Return([]rdmp.TemplateVersion{
		{ID: "tv2", TemplateID: "t1", VersionInt: 2},
		{ID: "tv1", TemplateID: "t1", VersionInt: 1},
	}, nil)
	repo.On("GetVersion", ctx, "nope").Return(nil, repository.ErrNotFound)

	svc := rdmp.NewTemplateService(repo, nil)
	tmpl, err := svc.Get(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, tmpl.Versions, 2)
	require.Equal(t, int64(2), tmpl.Versions[0].VersionInt)

	_, err = svc.Get(ctx, "missing")
	require.ErrorIs(t, err, rdmp.ErrTemplateNotFound)

	_, err = svc.GetVersion(ctx, "nope")
	require.ErrorIs(t, err, rdmp.ErrTemplateVersionNotFound)
}

func TestRDMPService_CreateDraftFromTemplate(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.RDMPRepository{}
	authz := &mocks.Authorizer{}
	templates := &mocks.TemplateRepository{}
	authz.On("Require", ctx, "proj1", "pi", rdmp.ActionManageRDMP).Return(nil)
	authz.On("Require", ctx, "proj1", "ana", rdmp.ActionManageRDMP).Return(errDenied)
	templates.On("GetVersion", ctx, "tv1").Return(&rdmp.TemplateVersion{
		ID:     "tv1",
		Title:  "Cell culture",
		Fields: schema.Fields{{Key: "cell_line", Type: schema.TypeText, Required: true}},
	}, nil)
	templates.On("GetVersion", ctx, "missing").Return(nil, rdmp.ErrTemplateVersionNotFound)
	repo.On("CreateDraft", ctx, mock.AnythingOfType("*rdmp.Version")).Run(func(args mock.Arguments) {
		args.Get(1).(*rdmp.Version).VersionInt = 4
	}).Return(nil)

	svc := rdmp.NewService(repo, authz, nil, nil).WithTemplates(templates)
	v, err := svc.CreateDraftFromTemplate(ctx, "proj1", "pi", "tv1")
	require.NoError(t, err)
	require.Equal(t, rdmp.StateDraft, v.State)
	require.Equal(t, "Cell culture", v.Title)
	require.Equal(t, int64(4), v.VersionInt)
	require.NotNil(t, v.TemplateVersionID)
	require.Equal(t, "tv1", *v.TemplateVersionID)

	_, err = svc.CreateDraftFromTemplate(ctx, "proj1", "pi", "missing")
	require.ErrorIs(t, err, rdmp.ErrTemplateVersionNotFound)

	_, err = svc.CreateDraftFromTemplate(ctx, "proj1", "ana", "tv1")
	require.ErrorIs(t, err, failure.ErrPermission)
	repo.AssertNumberOfCalls(t, "CreateDraft", 1)
}
