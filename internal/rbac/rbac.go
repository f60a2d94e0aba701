// Package rbac maps team roles to the actions they may perform. Roles are
// strictly ordered: owner > admin > member, and only the owner may delete
// the team.
package rbac

type Role string
type Action string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
	RoleOwner  Role = "owner"
)

const (
	ActionRead       Action = "read"
	ActionWrite      Action = "write"
	ActionInvite     Action = "invite"
	ActionManageTeam Action = "manage_team"
	ActionDeleteTeam Action = "delete_team"
)

func Can(role Role, action Action) bool {
	switch role {
	case RoleOwner:
		return true
	case RoleAdmin:
		return action == ActionRead || action == ActionWrite || action == ActionInvite || action == ActionManageTeam
	case RoleMember:
		return action == ActionRead || action == ActionWrite
	default:
		return false
	}
}

func Normalize(role string) Role {
	switch Role(role) {
	case RoleMember, RoleAdmin, RoleOwner:
		return Role(role)
	default:
		return RoleMember
	}
}
