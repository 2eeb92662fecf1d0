package rbac

// Resource identifies a protected panel surface. The catalog below covers
// the resources the dashboard manages; unknown strings are still accepted so
// a newer backend can introduce resources without a client release.
type Resource string

const (
	ResourceUsers         Resource = "users"
	ResourceNodes         Resource = "nodes"
	ResourceStats         Resource = "stats"
	ResourceViolations    Resource = "violations"
	ResourceBackups       Resource = "backups"
	ResourceNotifications Resource = "notifications"
	ResourceMail          Resource = "mail"
	ResourceSettings      Resource = "settings"
)

// Action identifies an operation on a resource.
type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionManage Action = "manage"
)

// Roles with unconditional access. An empty role is treated as permissive
// for compatibility with deployments that predate role assignment.
const (
	RoleSuperadmin = "superadmin"
	RoleAdmin      = "admin"
)
