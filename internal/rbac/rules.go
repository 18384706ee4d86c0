package rbac

const (
	PermQuizCreate = "quiz:create"
	PermQuizView   = "quiz:view"
	PermQuizUpdate = "quiz:update"
	PermQuizDelete = "quiz:delete"

	PermResponseCreate  = "response:create"
	PermResponseViewOwn = "response:view-own"
	PermResponseViewAll = "response:view-all"

	PermCandidacyCreate  = "candidacy:create"
	PermCandidacyViewOwn = "candidacy:view-own"
	PermCandidacyViewAll = "candidacy:view-all"
	PermCandidacyUpdate  = "candidacy:update"
	PermCandidacyDelete  = "candidacy:delete"

	PermSessionRun = "session:run"

	// admin only
	PermUsersList       = "users:list"
	PermUsersUpdateRole = "users:update_role"
	PermEventsView      = "events:view"
)

// Default policy. Candidates see redacted quizzes; handlers check
// response:view-all before returning answers.
var RolePermissions = map[string][]string{
	"candidate": {
		PermQuizView,
		PermResponseCreate,
		PermResponseViewOwn,
		PermCandidacyCreate,
		PermCandidacyViewOwn,
		PermCandidacyDelete,
		PermSessionRun,
	},
	"recruiter": {
		"quiz:*",
		PermResponseViewAll,
		PermCandidacyViewAll,
		PermCandidacyUpdate,
	},
	"admin": {
		"*", // everything
	},
}
