package access_test

import (
	"context"
	"testing"

	"github.com/metafirst/supervisor/internal/domain/access"
	"github.com/metafirst/supervisor/internal/domain/project"
	"github.com/metafirst/supervisor/internal/domain/rdmp"
	"github.com/metafirst/supervisor/internal/failure"
	"github.com/metafirst/supervisor/internal/repository"
	"github.com/metafirst/supervisor/internal/repository/mocks"
	"github.com/stretchr/testify/require"
)

func TestAuthorizer_PIAlwaysAllowed(t *testing.T) {
	ctx := context.Background()
	members := &mocks.MemberRepository{}
	versions := &mocks.RDMPRepository{}
	members.On("Get", ctx, "proj1", "alice").Return(&project.Member{ProjectID: "proj1", UserID: "alice", Role: project.RolePI}, nil)

	authz := access.NewAuthorizer(members, versions)
	require.NoError(t, authz.RequirePI(ctx, "proj1", "alice"))
	require.NoError(t, authz.Require(ctx, "proj1", "alice", rdmp.ActionManageRDMP))
	versions.AssertNotCalled(t, "GetActive", ctx, "proj1")
}

func TestAuthorizer_RoleGrantsFromActiveVersion(t *testing.T) {
	ctx := context.Background()
	members := &mocks.MemberRepository{}
	versions := &mocks.RDMPRepository{}
	members.On("Get", ctx, "proj1", "bob").Return(&project.Member{ProjectID: "proj1", UserID: "bob", Role: "researcher"}, nil)
	versions.On("GetActive", ctx, "proj1").Return(&rdmp.Version{
		ID:    "v1",
		State: rdmp.StateActive,
		Roles: rdmp.Roles{{Name: "researcher", Permissions: map[rdmp.Action]bool{rdmp.ActionEditMetadata: true}}},
	}, nil)

	authz := access.NewAuthorizer(members, versions)
	require.NoError(t, authz.Require(ctx, "proj1", "bob", rdmp.ActionEditMetadata))
	require.ErrorIs(t, authz.Require(ctx, "proj1", "bob", rdmp.ActionEditPaths), access.ErrActionDenied)
	require.ErrorIs(t, authz.RequirePI(ctx, "proj1", "bob"), failure.ErrPermission)

	perms, err := authz.Permissions(ctx, "proj1", "bob")
	require.NoError(t, err)
	require.True(t, perms[rdmp.ActionEditMetadata])
	require.False(t, perms[rdmp.ActionManageRDMP])
}

func TestAuthorizer_NoActiveVersionGrantsNothing(t *testing.T) {
	ctx := context.Background()
	members := &mocks.MemberRepository{}
	versions := &mocks.RDMPRepository{}
	members.On("Get", ctx, "proj1", "bob").Return(&project.Member{ProjectID: "proj1", UserID: "bob", Role: "researcher"}, nil)
	versions.On("GetActive", ctx, "proj1").Return((*rdmp.Version)(nil), repository.ErrNotFound)

	authz := access.NewAuthorizer(members, versions)
	require.ErrorIs(t, authz.Require(ctx, "proj1", "bob", rdmp.ActionEditMetadata), access.ErrActionDenied)
}

func TestAuthorizer_NonMember(t *testing.T) {
	ctx := context.Background()
	members := &mocks.MemberRepository{}
	members.On("Get", ctx, "proj1", "eve").Return((*project.Member)(nil), repository.ErrNotFound)

	authz := access.NewAuthorizer(members, &mocks.RDMPRepository{})
	require.ErrorIs(t, authz.RequireMember(ctx, "proj1", "eve"), access.ErrNotMember)
	require.ErrorIs(t, authz.RequirePI(ctx, "proj1", "eve"), failure.ErrPermission)
}
