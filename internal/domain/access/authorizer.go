// Package access decides what a project member may do. PIs may do
// everything; other members are granted actions by their role in the
// project's ACTIVE RDMP version.
package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/metafirst/supervisor/internal/domain/project"
	"github.com/metafirst/supervisor/internal/domain/rdmp"
	"github.com/metafirst/supervisor/internal/failure"
	"github.com/metafirst/supervisor/internal/repository"
)

var (
	// ErrNotMember indicates the actor does not belong to the project.
	ErrNotMember = failure.New(failure.Permission, "not a member of the project")
	// ErrNotPI indicates an action reserved to the project's PI.
	ErrNotPI = failure.New(failure.Permission, "action requires the PI role")
	// ErrActionDenied indicates the actor's role does not grant the action.
	ErrActionDenied = failure.New(failure.Permission, "role does not grant this action")
)

// MemberLookup resolves a user's project membership.
type MemberLookup interface {
	Get(ctx context.Context, projectID, userID string) (*project.Member, error)
}

// ActiveVersions resolves a project's ACTIVE RDMP version. It returns
// repository.ErrNotFound when there is none.
type ActiveVersions interface {
	GetActive(ctx context.Context, projectID string) (*rdmp.Version, error)
}

// Authorizer implements the permission checks used by the domain services.
type Authorizer struct {
	members  MemberLookup
	versions ActiveVersions
}

// NewAuthorizer creates a new Authorizer.
func NewAuthorizer(members MemberLookup, versions ActiveVersions) *Authorizer {
	return &Authorizer{members: members, versions: versions}
}

// RequireMember fails unless actorID belongs to the project.
func (a *Authorizer) RequireMember(ctx context.Context, projectID, actorID string) error {
	_, err := a.member(ctx, projectID, actorID)
	return err
}

// RequirePI fails unless actorID holds the PI role in the project.
func (a *Authorizer) RequirePI(ctx context.Context, projectID, actorID string) error {
	m, err := a.member(ctx, projectID, actorID)
	if err != nil {
		return err
	}
	if m.Role != project.RolePI {
		return ErrNotPI.WithDetails(fmt.Sprintf("%s has role %s", actorID, m.Role))
	}
	return nil
}

// Require fails unless actorID may perform action in the project.
func (a *Authorizer) Require(ctx context.Context, projectID, actorID string, action rdmp.Action) error {
	allowed, err := a.Can(ctx, projectID, actorID, action)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrActionDenied.WithDetails(string(action))
	}
	return nil
}

// Can reports whether actorID may perform action. Non-members get
// ErrNotMember.
func (a *Authorizer) Can(ctx context.Context, projectID, actorID string, action rdmp.Action) (bool, error) {
	m, err := a.member(ctx, projectID, actorID)
	if err != nil {
		return false, err
	}
	if m.Role == project.RolePI {
		return true, nil
	}

	active, err := a.versions.GetActive(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("resolving active rdmp version: %w", err)
	}
	return active.Roles.Grants(m.Role, action), nil
}

// Permissions lists every action and whether actorID holds it.
func (a *Authorizer) Permissions(ctx context.Context, projectID, actorID string) (map[rdmp.Action]bool, error) {
	perms := make(map[rdmp.Action]bool, len(rdmp.Actions))
	for _, action := range rdmp.Actions {
		ok, err := a.Can(ctx, projectID, actorID, action)
		if err != nil {
			return nil, err
		}
		perms[action] = ok
	}
	return perms, nil
}

func (a *Authorizer) member(ctx context.Context, projectID, actorID string) (*project.Member, error) {
	if actorID == "" {
		return nil, ErrNotMember
	}
	m, err := a.members.Get(ctx, projectID, actorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotMember
		}
		return nil, fmt.Errorf("loading membership: %w", err)
	}
	return m, nil
}
