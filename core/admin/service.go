package admin

import (
	"context"

	"github.com/pkg/errors"

	"github.com/etarip26/EduConnect/core"
	"github.com/etarip26/EduConnect/core/demo"
	"github.com/etarip26/EduConnect/core/match"
	"github.com/etarip26/EduConnect/core/notification"
	"github.com/etarip26/EduConnect/core/profile"
	"github.com/etarip26/EduConnect/core/tuition"
	"github.com/etarip26/EduConnect/core/user"
)

var (
	// errors
	ErrSelfAction = core.NewAuthorizationError("admins cannot perform this action on their own account")
)

// Stats is the dashboard summary of the platform.
type Stats struct {
	Users               int            `json:"users"`
	UsersByRole         map[string]int `json:"users_by_role"`
	PendingPosts        int            `json:"pending_posts"`
	PendingApplications int            `json:"pending_applications"`
	ActiveMatches       int            `json:"active_matches"`
	RequestedDemos      int            `json:"requested_demos"`
	UnverifiedTeachers  int            `json:"unverified_teachers"`
	UnverifiedStudents  int            `json:"unverified_students"`
}

// BanInput is the admin ban decision; Reason is kept only while banned.
type BanInput struct {
	Banned bool   `json:"banned"`
	Reason string `json:"reason"`
}

// Service is the admin console: every mutation is audited and, where it affects an account, notified.
type Service struct {
	users    user.ServiceInterface
	profiles *profile.Service
	posts    *tuition.Service
	matches  *match.Service
	demos    *demo.Service
	notices  *notification.Service
	logger   core.Logger
}

func NewService(
	users user.ServiceInterface,
	profiles *profile.Service,
	posts *tuition.Service,
	matches *match.Service,
	demos *demo.Service,
	notices *notification.Service,
	logger core.Logger,
) *Service {
	return &Service{
		users:    users,
		profiles: profiles,
		posts:    posts,
		matches:  matches,
		demos:    demos,
		notices:  notices,
		logger:   logger,
	}
}

func (svc *Service) Stats(ctx context.Context, admin user.User) (Stats, error) {
	var (
		st  Stats
		err error
	)
	if st.UsersByRole, err = svc.users.CountByRole(ctx); err != nil {
		return Stats{}, errors.Wrap(err, "counting users")
	}
	for _, n := range st.UsersByRole {
		st.Users += n
	}

	posts, err := svc.posts.ListPosts(ctx, tuition.PostPending)
	if err != nil {
		return Stats{}, errors.Wrap(err, "counting posts")
	}
	st.PendingPosts = len(posts)

	apps, err := svc.posts.ListApplications(ctx, tuition.AppPending)
	if err != nil {
		return Stats{}, errors.Wrap(err, "counting applications")
	}
	st.PendingApplications = len(apps)

	matches, err := svc.matches.ListMine(ctx, admin)
	if err != nil {
		return Stats{}, errors.Wrap(err, "counting matches")
	}
	for _, m := range matches {
		if m.IsActive() {
			st.ActiveMatches++
		}
	}

	demos, err := svc.demos.ListAll(ctx, demo.StatusRequested)
	if err != nil {
		return Stats{}, errors.Wrap(err, "counting demos")
	}
	st.RequestedDemos = len(demos)

	unverified := false
	teachers, err := svc.profiles.QueryTeachers(ctx, profile.TeacherFilter{Verified: &unverified})
	if err != nil {
		return Stats{}, errors.Wrap(err, "counting teachers")
	}
	st.UnverifiedTeachers = len(teachers)
	students, err := svc.profiles.QueryStudents(ctx, &unverified)
	if err != nil {
		return Stats{}, errors.Wrap(err, "counting students")
	}
	st.UnverifiedStudents = len(students)
	return st, nil
}

func (svc *Service) ListUsers(ctx context.Context, filter user.QueryFilter) ([]user.User, error) {
	return svc.users.Query(ctx, filter)
}

func (svc *Service) ListTeacherProfiles(ctx context.Context, filter profile.TeacherFilter) ([]profile.TeacherProfile, error) {
	return svc.profiles.QueryTeachers(ctx, filter)
}

func (svc *Service) ListStudentProfiles(ctx context.Context, verified *bool) ([]profile.StudentProfile, error) {
	return svc.profiles.QueryStudents(ctx, verified)
}

// ToggleSuspend flips the suspension of an account.
func (svc *Service) ToggleSuspend(ctx context.Context, admin user.User, userID string) (user.User, error) {
	if admin.ID == userID {
		return user.User{}, ErrSelfAction
	}
	usr, err := svc.users.GetByID(ctx, userID)
	if err != nil {
		return user.User{}, err
	}
	if usr, err = svc.users.SetSuspended(ctx, usr.ID, !usr.IsSuspended); err != nil {
		return user.User{}, err
	}

	action, msg := "user.unsuspend", "Your account has been reactivated."
	if usr.IsSuspended {
		action, msg = "user.suspend", "Your account has been suspended."
	}
	core.Audit(svc.logger, admin.ID, action, usr.ID)
	svc.notify(ctx, usr.ID, "Account status", msg, usr.ID)
	return usr, nil
}

func (svc *Service) SetBan(ctx context.Context, admin user.User, userID string, in BanInput) (user.User, error) {
	if admin.ID == userID {
		return user.User{}, ErrSelfAction
	}
	usr, err := svc.users.SetBanned(ctx, userID, in.Banned, in.Reason)
	if err != nil {
		return user.User{}, err
	}

	action, msg := "user.unban", "Your account ban has been lifted."
	if usr.IsBanned {
		action, msg = "user.ban", "Your account has been banned."
		if usr.BanReason != "" {
			msg += " Reason: " + usr.BanReason
		}
	}
	core.Audit(svc.logger, admin.ID, action, usr.ID)
	svc.notify(ctx, usr.ID, "Account status", msg, usr.ID)
	return usr, nil
}

func (svc *Service) PromoteToAdmin(ctx context.Context, admin user.User, userID string) (user.User, error) {
	usr, err := svc.users.PromoteToAdmin(ctx, userID)
	if err != nil {
		return user.User{}, err
	}
	core.Audit(svc.logger, admin.ID, "user.promote", usr.ID)
	svc.notify(ctx, usr.ID, "Account role", "Your account now has admin access.", usr.ID)
	return usr, nil
}

// DeleteUser hard-deletes an account and everything it owns.
func (svc *Service) DeleteUser(ctx context.Context, admin user.User, userID string) error {
	if admin.ID == userID {
		return ErrSelfAction
	}
	if _, err := svc.users.GetByID(ctx, userID); err != nil {
		return err
	}
	if err := svc.users.Delete(ctx, userID); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	core.Audit(svc.logger, admin.ID, "user.delete", userID)
	return nil
}

func (svc *Service) VerifyTeacher(ctx context.Context, admin user.User, teacherID string, verified bool) (profile.TeacherProfile, error) {
	p, err := svc.profiles.SetTeacherVerified(ctx, teacherID, verified)
	if err != nil {
		return profile.TeacherProfile{}, err
	}
	svc.auditVerification(ctx, admin, "teacher.verify", teacherID, "Your teacher profile", verified)
	return p, nil
}

func (svc *Service) VerifyNID(ctx context.Context, admin user.User, teacherID string, verified bool) (profile.TeacherProfile, error) {
	p, err := svc.profiles.SetNIDVerified(ctx, teacherID, verified)
	if err != nil {
		return profile.TeacherProfile{}, err
	}
	svc.auditVerification(ctx, admin, "teacher.nid_verify", teacherID, "Your national ID", verified)
	return p, nil
}

func (svc *Service) VerifyStudent(ctx context.Context, admin user.User, studentID string, verified bool) (profile.StudentProfile, error) {
	p, err := svc.profiles.SetStudentVerified(ctx, studentID, verified)
	if err != nil {
		return profile.StudentProfile{}, err
	}
	svc.auditVerification(ctx, admin, "student.verify", studentID, "Your student profile", verified)
	return p, nil
}

func (svc *Service) SetParentControl(ctx context.Context, admin user.User, studentID string, enabled bool) (profile.StudentProfile, error) {
	p, err := svc.profiles.SetParentControl(ctx, studentID, enabled)
	if err != nil {
		return profile.StudentProfile{}, err
	}
	action, msg := "student.parent_control_off", "Parent control has been disabled on your account."
	if enabled {
		action, msg = "student.parent_control_on", "Parent control has been enabled on your account. Chat and demo classes are paused."
	}
	core.Audit(svc.logger, admin.ID, action, studentID)
	svc.notify(ctx, studentID, "Parent control", msg, studentID)
	return p, nil
}

func (svc *Service) SetMatchCapabilities(ctx context.Context, admin user.User, matchID string, caps match.Capabilities) (match.Match, error) {
	m, err := svc.matches.SetCapabilities(ctx, matchID, caps)
	if err != nil {
		return match.Match{}, err
	}
	core.Audit(svc.logger, admin.ID, "match.capabilities", m.ID)
	return m, nil
}

// SendNotice sends an admin-authored notification to one account.
func (svc *Service) SendNotice(ctx context.Context, admin user.User, nn notification.NewNotice) (notification.Notification, error) {
	n, err := svc.notices.Create(ctx, nn)
	if err != nil {
		return notification.Notification{}, err
	}
	core.Audit(svc.logger, admin.ID, "notice.send", n.UserID)
	return n, nil
}

func (svc *Service) auditVerification(ctx context.Context, admin user.User, action, userID, subject string, verified bool) {
	if !verified {
		action += "_revoke"
	}
	core.Audit(svc.logger, admin.ID, action, userID)
	msg := subject + " has been verified."
	if !verified {
		msg = subject + " verification has been revoked."
	}
	svc.notify(ctx, userID, "Verification", msg, userID)
}

func (svc *Service) notify(ctx context.Context, userID, title, msg, relatedID string) {
	svc.notices.Notify(ctx, notification.Notification{
		UserID:    userID,
		Title:     title,
		Message:   msg,
		Type:      notification.TypeAdmin,
		RelatedID: relatedID,
	})
}
