package core

// Roles
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

// Action names a role-gated capability checked once per request.
// Party checks (is this my post, am I in this match) stay in the services.
type Action string

const (
	ActUpsertStudentProfile Action = "profile:student:upsert"
	ActUpsertTeacherProfile Action = "profile:teacher:upsert"
	ActSearchTeachers       Action = "search:teachers"
	ActSearchTuitions       Action = "search:tuitions"

	ActCreatePost        Action = "post:create"
	ActListMyPosts       Action = "post:list-mine"
	ActClosePost         Action = "post:close"
	ActApply             Action = "post:apply"
	ActListMyApps        Action = "application:list-mine"
	ActListPostApps      Action = "application:list-for-post"
	ActDecideApplication Action = "application:decide"

	ActReviewPost        Action = "post:review"
	ActReviewApplication Action = "application:review"

	ActListMatches Action = "match:list"
	ActEndMatch    Action = "match:end"

	ActRequestDemo  Action = "demo:request"
	ActListMyDemos  Action = "demo:list-mine"
	ActCompleteDemo Action = "demo:complete"
	ActManageDemo   Action = "demo:manage"

	ActChat Action = "chat:use"

	ActWriteReview Action = "review:write"

	ActNotifications Action = "notification:own"

	ActAdmin Action = "admin:console"
)

var policy = map[string]map[Action]bool{
	RoleStudent: {
		ActUpsertStudentProfile: true,
		ActSearchTeachers:       true,
		ActCreatePost:           true,
		ActListMyPosts:          true,
		ActClosePost:            true,
		ActListPostApps:         true,
		ActDecideApplication:    true,
		ActListMatches:          true,
		ActEndMatch:             true,
		ActRequestDemo:          true,
		ActListMyDemos:          true,
		ActCompleteDemo:         true,
		ActChat:                 true,
		ActWriteReview:          true,
		ActNotifications:        true,
	},
	RoleTeacher: {
		ActUpsertTeacherProfile: true,
		ActSearchTuitions:       true,
		ActApply:                true,
		ActListMyApps:           true,
		ActListMatches:          true,
		ActEndMatch:             true,
		ActListMyDemos:          true,
		ActCompleteDemo:         true,
		ActChat:                 true,
		ActNotifications:        true,
	},
	RoleAdmin: {
		ActSearchTeachers:    true,
		ActSearchTuitions:    true,
		ActListPostApps:      true,
		ActReviewPost:        true,
		ActReviewApplication: true,
		ActListMatches:       true,
		ActEndMatch:          true,
		ActListMyDemos:       true,
		ActManageDemo:        true,
		ActNotifications:     true,
		ActAdmin:             true,
	},
}

// Allowed reports whether `role` may perform `act`. Unknown roles are allowed nothing.
func Allowed(role string, act Action) bool {
	return policy[role][act]
}
