package rbac

const (
	RoleCandidate = "candidate"
	RoleAdmin     = "admin"
)

const (
	PermSessionUseOwn = "session:use-own"
	PermSessionUseAll = "session:use-all"
	PermReportViewOwn = "report:view-own"
	PermReportViewAll = "report:view-all"
	PermReportList    = "report:list"
	PermEventList     = "event:list"
)

// Candidates hold a token bound to one session; the admin sees everything.
var RolePermissions = map[string][]string{
	RoleCandidate: {
		PermSessionUseOwn,
		PermReportViewOwn,
	},
	RoleAdmin: {
		"*",
	},
}
