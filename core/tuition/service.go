package tuition

import (
	"context"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/etarip26/EduConnect/core"
	"github.com/etarip26/EduConnect/core/match"
	"github.com/etarip26/EduConnect/core/notification"
	"github.com/etarip26/EduConnect/core/user"
)

var (
	// errors
	ErrPostNotFound        = core.NewNotFoundError("post not found")
	ErrApplicationNotFound = core.NewNotFoundError("application not found")
	ErrAlreadyApplied      = core.NewConflictError("already applied to this post")
	ErrPostNotOpen         = core.NewConflictError("post is not open for applications")
	ErrPostClosed          = core.NewConflictError("post is closed")
	ErrInvalidTransition   = core.NewConflictError("application is not in a valid state for this action")
	ErrNotPostOwner        = core.NewAuthorizationError("not the owner of this post")
)

type (
	Repository interface {
		CreatePost(ctx context.Context, p Post) (Post, error)
		GetPost(ctx context.Context, id string) (Post, error)
		// QueryPosts applies AND operation on available PostFilter fields, newest first.
		QueryPosts(ctx context.Context, filter PostFilter) ([]Post, error)
		UpdatePost(ctx context.Context, p Post) (Post, error)

		// CreateApplication fails with ErrAlreadyApplied when the teacher already applied to the post.
		CreateApplication(ctx context.Context, a Application) (Application, error)
		GetApplication(ctx context.Context, id string) (Application, error)
		// QueryApplications applies AND operation on available ApplicationFilter fields, newest first.
		QueryApplications(ctx context.Context, filter ApplicationFilter) ([]Application, error)
		// TransitionApplication moves the application from `from` to `to` if and only if its
		// current status is `from`; otherwise it fails with ErrInvalidTransition.
		TransitionApplication(ctx context.Context, id, from, to, reason string) (Application, error)
		// AcceptApplication atomically moves the application from admin_approved to accepted,
		// rejects every other application on the post, closes the post and inserts `m`.
		// It returns the accepted application and the rejected siblings; ErrPostClosed when the post is closed.
		AcceptApplication(ctx context.Context, appID string, m match.Match) (Application, []Application, error)
	}

	// Approvals tells whether an account's profile passed admin review.
	Approvals interface {
		RequireApproved(ctx context.Context, usr user.User) error
	}

	// Directory resolves the accounts behind applications.
	Directory interface {
		GetByID(ctx context.Context, id string) (user.User, error)
	}

	Service struct {
		repo      Repository
		approvals Approvals
		users     Directory
		notifier  notification.Notifier
		validate  *validator.Validate
		logger    core.Logger
	}
)

func NewService(
	repo Repository,
	approvals Approvals,
	users Directory,
	notifier notification.Notifier,
	validate *validator.Validate,
	logger core.Logger,
) *Service {
	return &Service{
		repo:      repo,
		approvals: approvals,
		users:     users,
		notifier:  notifier,
		validate:  validate,
		logger:    logger,
	}
}

// CreatePost submits a post for admin review.
func (svc *Service) CreatePost(ctx context.Context, student user.User, np NewPost) (Post, error) {
	if err := np.Validate(svc.validate); err != nil {
		return Post{}, err
	}
	if err := svc.approvals.RequireApproved(ctx, student); err != nil {
		return Post{}, err
	}

	now := time.Now().UTC()
	p := Post{
		ID:         uuid.NewString(),
		StudentID:  student.ID,
		Title:      np.Title,
		Details:    np.Details,
		ClassLevel: np.ClassLevel,
		Subjects:   np.Subjects,
		SalaryMin:  np.SalaryMin,
		SalaryMax:  np.SalaryMax,
		Location:   np.Location,
		Status:     PostPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	p, err := svc.repo.CreatePost(ctx, p)
	if err != nil {
		return Post{}, errors.Wrap(err, "creating post")
	}
	svc.notifier.NotifyRole(ctx, user.RoleAdmin, notification.Notification{
		Title:     "New tuition post",
		Message:   "A new tuition post is waiting for review: " + p.Title,
		Type:      notification.TypeTuition,
		RelatedID: p.ID,
	})
	return p, nil
}

func (svc *Service) GetPost(ctx context.Context, id string) (Post, error) {
	return svc.repo.GetPost(ctx, id)
}

// AdminReviewPost sets the review outcome of a post and tells its owner.
func (svc *Service) AdminReviewPost(ctx context.Context, admin user.User, postID string, pr PostReview) (Post, error) {
	if err := pr.Validate(svc.validate); err != nil {
		return Post{}, err
	}
	p, err := svc.repo.GetPost(ctx, postID)
	if err != nil {
		return Post{}, err
	}
	p.Status = pr.Status
	p.RejectionReason = ""
	if pr.Status == PostRejected {
		p.RejectionReason = pr.Reason
	}
	p.UpdatedAt = time.Now().UTC()
	if p, err = svc.repo.UpdatePost(ctx, p); err != nil {
		return Post{}, errors.Wrap(err, "updating post status")
	}
	core.Audit(svc.logger, admin.ID, "post."+pr.Status, p.ID)

	n := notification.Notification{
		UserID:    p.StudentID,
		Title:     "Tuition post approved",
		Message:   "Your tuition post \"" + p.Title + "\" is now visible to teachers.",
		Type:      notification.TypeTuition,
		RelatedID: p.ID,
	}
	if p.Status == PostRejected {
		n.Title = "Tuition post rejected"
		n.Message = "Your tuition post \"" + p.Title + "\" was rejected."
		if p.RejectionReason != "" {
			n.Message += " Reason: " + p.RejectionReason
		}
	}
	svc.notifier.Notify(ctx, n)
	return p, nil
}

// ListOpenPosts returns approved posts still taking applications, newest first.
func (svc *Service) ListOpenPosts(ctx context.Context) ([]Post, error) {
	return svc.repo.QueryPosts(ctx, PostFilter{OpenOnly: true})
}

// ListPosts is the admin listing, optionally restricted to one status.
func (svc *Service) ListPosts(ctx context.Context, status string) ([]Post, error) {
	return svc.repo.QueryPosts(ctx, PostFilter{Status: core.CleanString(status, true /* lower */)})
}

func (svc *Service) ListMyPosts(ctx context.Context, student user.User) ([]Post, error) {
	return svc.repo.QueryPosts(ctx, PostFilter{StudentID: student.ID})
}

// SearchPosts lets teachers browse open posts.
func (svc *Service) SearchPosts(ctx context.Context, filter PostFilter) ([]Post, error) {
	filter.Clean()
	filter.StudentID = ""
	filter.Status = ""
	filter.OpenOnly = true
	return svc.repo.QueryPosts(ctx, filter)
}

// NearbyPosts returns a page of open posts within the radius, nearest first.
func (svc *Service) NearbyPosts(ctx context.Context, nq NearbyQuery) ([]NearbyPost, error) {
	if err := nq.Validate(); err != nil {
		return nil, err
	}
	posts, err := svc.repo.QueryPosts(ctx, nq.filter())
	if err != nil {
		return nil, errors.Wrap(err, "querying posts")
	}

	nearby := make([]NearbyPost, 0, len(posts))
	for _, p := range posts {
		if !p.Location.HasCoords() {
			continue
		}
		d := core.DistanceKm(*nq.Lat, *nq.Lng, *p.Location.Lat, *p.Location.Lng)
		nearby = append(nearby, NearbyPost{Post: p, DistanceKm: core.Float64(d)})
	}
	sort.SliceStable(nearby, func(i, j int) bool { return *nearby[i].DistanceKm < *nearby[j].DistanceKm })

	start := nq.Offset()
	if start >= len(nearby) {
		return []NearbyPost{}, nil
	}
	end := start + nq.Limit
	if end > len(nearby) {
		end = len(nearby)
	}
	nearby = nearby[start:end]
	if !nq.WithDistance {
		for i := range nearby {
			nearby[i].DistanceKm = nil
		}
	}
	return nearby, nil
}

// ClosePost stops a post from taking applications; only its owner may close it.
func (svc *Service) ClosePost(ctx context.Context, student user.User, postID string) (Post, error) {
	p, err := svc.repo.GetPost(ctx, postID)
	if err != nil {
		return Post{}, err
	}
	if p.StudentID != student.ID {
		return Post{}, ErrNotPostOwner
	}
	if p.IsClosed {
		return p, nil
	}
	p.IsClosed = true
	p.UpdatedAt = time.Now().UTC()
	p, err = svc.repo.UpdatePost(ctx, p)
	return p, errors.Wrap(err, "closing post")
}

// ApplyToPost submits the teacher's application for admin review.
func (svc *Service) ApplyToPost(ctx context.Context, teacher user.User, postID string) (Application, error) {
	p, err := svc.repo.GetPost(ctx, postID)
	if err != nil {
		return Application{}, err
	}
	if err = svc.approvals.RequireApproved(ctx, teacher); err != nil {
		return Application{}, err
	}
	if p.IsClosed {
		return Application{}, ErrPostClosed
	}
	if !p.IsOpen() {
		return Application{}, ErrPostNotOpen
	}
	existing, err := svc.repo.QueryApplications(ctx, ApplicationFilter{PostID: p.ID, TeacherID: teacher.ID})
	if err != nil {
		return Application{}, errors.Wrap(err, "checking existing application")
	}
	if len(existing) > 0 {
		return Application{}, ErrAlreadyApplied
	}

	now := time.Now().UTC()
	a := Application{
		ID:        uuid.NewString(),
		PostID:    p.ID,
		TeacherID: teacher.ID,
		Status:    AppPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	a, err = svc.repo.CreateApplication(ctx, a)
	if err != nil {
		if errors.Cause(err) == ErrAlreadyApplied {
			return Application{}, ErrAlreadyApplied
		}
		return Application{}, errors.Wrap(err, "creating application")
	}
	return a, nil
}

func (svc *Service) ListMyApplications(ctx context.Context, teacher user.User) ([]Application, error) {
	return svc.repo.QueryApplications(ctx, ApplicationFilter{TeacherID: teacher.ID})
}

// ListApplications is the admin listing, optionally restricted to one status.
func (svc *Service) ListApplications(ctx context.Context, status string) ([]Application, error) {
	return svc.repo.QueryApplications(ctx, ApplicationFilter{Status: core.CleanString(status, true /* lower */)})
}

// AdminReviewApplication shortlists or rejects a pending application.
func (svc *Service) AdminReviewApplication(ctx context.Context, admin user.User, appID string, ar ApplicationReview) (Application, error) {
	if err := ar.Validate(svc.validate); err != nil {
		return Application{}, err
	}
	a, err := svc.repo.GetApplication(ctx, appID)
	if err != nil {
		return Application{}, err
	}
	if a.Status != AppPending {
		return Application{}, ErrInvalidTransition
	}
	p, err := svc.repo.GetPost(ctx, a.PostID)
	if err != nil {
		return Application{}, errors.Wrap(err, "finding application post")
	}

	if ar.Action == "reject" {
		a, err = svc.repo.TransitionApplication(ctx, a.ID, AppPending, AppAdminRejected, ar.Reason)
		if err != nil {
			return Application{}, err
		}
		core.Audit(svc.logger, admin.ID, "application.admin_reject", a.ID)
		svc.notifier.Notify(ctx, notification.Notification{
			UserID:    a.TeacherID,
			Title:     "Application not shortlisted",
			Message:   "Your application to \"" + p.Title + "\" was not shortlisted.",
			Type:      notification.TypeApplication,
			RelatedID: a.ID,
		})
		return a, nil
	}

	if p.IsClosed {
		return Application{}, ErrPostClosed
	}
	a, err = svc.repo.TransitionApplication(ctx, a.ID, AppPending, AppAdminApproved, "")
	if err != nil {
		return Application{}, err
	}
	core.Audit(svc.logger, admin.ID, "application.admin_approve", a.ID)
	svc.notifier.Notify(ctx, notification.Notification{
		UserID:    a.TeacherID,
		Title:     "You have been shortlisted",
		Message:   "Your application to \"" + p.Title + "\" was shortlisted. The student will decide soon.",
		Type:      notification.TypeApplication,
		RelatedID: a.ID,
	})
	svc.notifier.Notify(ctx, notification.Notification{
		UserID:    p.StudentID,
		Title:     "A teacher awaits your decision",
		Message:   "A shortlisted teacher applied to \"" + p.Title + "\".",
		Type:      notification.TypeApplication,
		RelatedID: a.ID,
	})
	return a, nil
}

// StudentDecideApplication lets the post owner accept or reject an admin-approved application.
// Accepting closes the post, rejects every other application on it and creates the match.
func (svc *Service) StudentDecideApplication(ctx context.Context, student user.User, appID string, d Decision) (Application, error) {
	if err := d.Validate(svc.validate); err != nil {
		return Application{}, err
	}
	a, err := svc.repo.GetApplication(ctx, appID)
	if err != nil {
		return Application{}, err
	}
	p, err := svc.repo.GetPost(ctx, a.PostID)
	if err != nil {
		return Application{}, errors.Wrap(err, "finding application post")
	}
	if p.StudentID != student.ID {
		return Application{}, ErrNotPostOwner
	}
	if a.Status != AppAdminApproved {
		return Application{}, ErrInvalidTransition
	}

	if d.Decision == DecisionReject {
		a, err = svc.repo.TransitionApplication(ctx, a.ID, AppAdminApproved, AppStudentRejected, d.Reason)
		if err != nil {
			return Application{}, err
		}
		msg := "The student declined your application to \"" + p.Title + "\"."
		if a.RejectionReason != "" {
			msg += " Reason: " + a.RejectionReason
		}
		svc.notifier.Notify(ctx, notification.Notification{
			UserID:    a.TeacherID,
			Title:     "Application declined",
			Message:   msg,
			Type:      notification.TypeApplication,
			RelatedID: a.ID,
		})
		return a, nil
	}

	m := match.New(uuid.NewString(), p.ID, p.StudentID, a.TeacherID, a.ID, time.Now().UTC())
	a, rejected, err := svc.repo.AcceptApplication(ctx, a.ID, m)
	if err != nil {
		return Application{}, err
	}
	svc.notifier.Notify(ctx, notification.Notification{
		UserID:    a.TeacherID,
		Title:     "Application accepted",
		Message:   "The student accepted your application to \"" + p.Title + "\". You can now chat and schedule a demo.",
		Type:      notification.TypeMatch,
		RelatedID: m.ID,
	})
	for _, sib := range rejected {
		svc.notifier.Notify(ctx, notification.Notification{
			UserID:    sib.TeacherID,
			Title:     "Post filled",
			Message:   "The tuition post \"" + p.Title + "\" was filled by another teacher.",
			Type:      notification.TypeApplication,
			RelatedID: sib.ID,
		})
	}
	return a, nil
}

// ListApplicationsForPost shows admins every application and the post owner only the admin-approved ones.
func (svc *Service) ListApplicationsForPost(ctx context.Context, usr user.User, postID string) ([]Candidate, error) {
	p, err := svc.repo.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	filter := ApplicationFilter{PostID: p.ID}
	switch {
	case usr.IsAdmin():
	case usr.ID == p.StudentID:
		filter.Status = AppAdminApproved
	default:
		return nil, ErrNotPostOwner
	}

	apps, err := svc.repo.QueryApplications(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying applications")
	}
	candidates := make([]Candidate, 0, len(apps))
	for _, a := range apps {
		c := Candidate{ID: a.ID, TeacherID: a.TeacherID, Status: a.Status, CreatedAt: a.CreatedAt}
		if teacher, err := svc.users.GetByID(ctx, a.TeacherID); err == nil {
			c.TeacherName = teacher.Name
			c.Email = teacher.Email
		} else if !core.IsNotFound(err) {
			return nil, errors.Wrap(err, "finding teacher")
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}
