// Package testutil wires the domain services on the in-memory database for tests.
package testutil

import (
	"context"
	"testing"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/etarip26/EduConnect/core"
	"github.com/etarip26/EduConnect/core/admin"
	"github.com/etarip26/EduConnect/core/announcement"
	"github.com/etarip26/EduConnect/core/chat"
	"github.com/etarip26/EduConnect/core/demo"
	"github.com/etarip26/EduConnect/core/match"
	"github.com/etarip26/EduConnect/core/notification"
	"github.com/etarip26/EduConnect/core/profile"
	"github.com/etarip26/EduConnect/core/review"
	"github.com/etarip26/EduConnect/core/tuition"
	"github.com/etarip26/EduConnect/core/user"
	emailsvc "github.com/etarip26/EduConnect/services/email"
	eventsvc "github.com/etarip26/EduConnect/services/events"
	logsvc "github.com/etarip26/EduConnect/services/logger"
	"github.com/etarip26/EduConnect/services/pubsub"
	sessionsvc "github.com/etarip26/EduConnect/services/session"
	inmemdb "github.com/etarip26/EduConnect/storage/database/inmem"
)

const Password = "s3cure-Passw0rd"

// Config returns the default configuration in test mode.
func Config() *core.Config {
	conf := core.NewConfig()
	conf.Env = "TEST"
	conf.Debug = false
	conf.TestMode = true
	conf.RollbarToken = ""
	return conf
}

func Logger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(logsvc.NewZapLogger(conf, "TEST"), conf)
	logger.Enable(false)
	return logger
}

func Validator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate, translator
}

// Env holds every service of the application on a fresh in-memory database.
type Env struct {
	Conf       *core.Config
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator
	DB         *inmemdb.DB
	Broker     *pubsub.MemoryBroker
	Sessions   *sessionsvc.MemoryStore
	Events     *eventsvc.Recorder
	Mail       core.EmailService

	UserRepo    user.Repository
	ProfileRepo profile.Repository

	Users         user.ServiceInterface
	Profiles      *profile.Service
	Tuition       *tuition.Service
	Matches       *match.Service
	Gate          *match.Gate
	Demos         *demo.Service
	Chat          *chat.Service
	Notifications *notification.Service
	Reviews       *review.Service
	Announcements *announcement.Service
	Admin         *admin.Service
}

func NewEnv() *Env {
	conf := Config()
	logger := Logger(conf)
	validate, translator := Validator()
	db := inmemdb.Open()

	env := &Env{
		Conf:        conf,
		Logger:      logger,
		Validate:    validate,
		Translator:  translator,
		DB:          db,
		Broker:      pubsub.NewMemoryBroker(),
		Sessions:    sessionsvc.NewMemoryStore(),
		Events:      eventsvc.NewRecorder(1000),
		Mail:        emailsvc.NewConsoleServiceMock(conf, logger),
		UserRepo:    inmemdb.NewUserRepository(db),
		ProfileRepo: inmemdb.NewProfileRepository(db),
	}

	env.Users = user.NewService(env.UserRepo, env.Mail, validate, conf)
	env.Profiles = profile.NewService(env.ProfileRepo, validate)
	env.Notifications = notification.NewService(
		inmemdb.NewNotificationRepository(db), env.Users, env.Events, env.Mail, validate, logger,
	)
	env.Tuition = tuition.NewService(
		inmemdb.NewTuitionRepository(db), env.Profiles, env.Users, env.Notifications, validate, logger,
	)
	env.Matches = match.NewService(inmemdb.NewMatchRepository(db))
	env.Gate = match.NewGate(env.Profiles)
	env.Demos = demo.NewService(
		inmemdb.NewDemoRepository(db), env.Matches, env.Gate, env.Notifications, validate, logger,
	)
	env.Chat = chat.NewService(inmemdb.NewChatRepository(db), env.Matches, env.Gate, env.Broker, conf, logger)
	env.Reviews = review.NewService(
		inmemdb.NewReviewRepository(db), env.Matches, env.Profiles, env.Users, validate, logger,
	)
	env.Announcements = announcement.NewService(inmemdb.NewAnnouncementRepository(db), validate, logger)
	env.Admin = admin.NewService(
		env.Users, env.Profiles, env.Tuition, env.Matches, env.Demos, env.Notifications, logger,
	)
	return env
}

// CreateUser stores an account with the test password and a verified email.
func (env *Env) CreateUser(t *testing.T, role, name string) user.User {
	t.Helper()
	usr := user.User{
		ID:              uuid.NewString(),
		Name:            name,
		Email:           uuid.NewString()[:8] + "@example.com",
		Role:            role,
		IsEmailVerified: true,
	}
	if err := usr.SetPassword(Password); err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	usr, err := env.UserRepo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func (env *Env) CreateAdmin(t *testing.T) user.User {
	t.Helper()
	return env.CreateUser(t, user.RoleAdmin, "Admin")
}

// CreateStudent stores a student with an admin-verified profile.
func (env *Env) CreateStudent(t *testing.T, name string) user.User {
	t.Helper()
	ctx := context.Background()
	usr := env.CreateUser(t, user.RoleStudent, name)
	if _, err := env.Profiles.UpsertStudent(ctx, usr, profile.StudentInput{
		ClassLevel: "Class 8",
		Location:   core.Location{City: "Dhaka", Lat: core.Float64(23.8103), Lng: core.Float64(90.4125)},
	}); err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	if _, err := env.Profiles.SetStudentVerified(ctx, usr.ID, true); err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return usr
}

// CreateTeacher stores a teacher with an admin-verified profile.
func (env *Env) CreateTeacher(t *testing.T, name string) user.User {
	t.Helper()
	ctx := context.Background()
	usr := env.CreateUser(t, user.RoleTeacher, name)
	if _, err := env.Profiles.UpsertTeacher(ctx, usr, profile.TeacherInput{
		University:        "BUET",
		Subjects:          []string{"Math", "Physics"},
		ClassLevels:       []string{"Class 8"},
		ExpectedSalaryMin: 5000,
		ExpectedSalaryMax: 8000,
		Location:          core.Location{City: "Dhaka", Lat: core.Float64(23.78), Lng: core.Float64(90.40)},
	}); err != nil {
		t.Fatalf("CreateTeacher() failed: %v", err)
	}
	if _, err := env.Profiles.SetTeacherVerified(ctx, usr.ID, true); err != nil {
		t.Fatalf("CreateTeacher() failed: %v", err)
	}
	return usr
}

// CreateOpenPost stores an admin-approved post of the student.
func (env *Env) CreateOpenPost(t *testing.T, student, adm user.User) tuition.Post {
	t.Helper()
	ctx := context.Background()
	p, err := env.Tuition.CreatePost(ctx, student, tuition.NewPost{
		Title:      "Math tutor needed",
		ClassLevel: "Class 8",
		Subjects:   []string{"Math"},
		SalaryMin:  5000,
		SalaryMax:  7000,
		Location:   core.Location{City: "Dhaka", Lat: core.Float64(23.8103), Lng: core.Float64(90.4125)},
	})
	if err != nil {
		t.Fatalf("CreateOpenPost() failed: %v", err)
	}
	if p, err = env.Tuition.AdminReviewPost(ctx, adm, p.ID, tuition.PostReview{Status: tuition.PostApproved}); err != nil {
		t.Fatalf("CreateOpenPost() failed: %v", err)
	}
	return p
}

// CreateMatch runs the tuition workflow up to an accepted application and returns the match.
func (env *Env) CreateMatch(t *testing.T, student, teacher, adm user.User) match.Match {
	t.Helper()
	ctx := context.Background()
	p := env.CreateOpenPost(t, student, adm)
	a, err := env.Tuition.ApplyToPost(ctx, teacher, p.ID)
	if err != nil {
		t.Fatalf("CreateMatch() failed: %v", err)
	}
	if _, err = env.Tuition.AdminReviewApplication(ctx, adm, a.ID, tuition.ApplicationReview{Action: "approve"}); err != nil {
		t.Fatalf("CreateMatch() failed: %v", err)
	}
	if _, err = env.Tuition.StudentDecideApplication(ctx, student, a.ID, tuition.Decision{Decision: tuition.DecisionAccept}); err != nil {
		t.Fatalf("CreateMatch() failed: %v", err)
	}
	ms, err := env.Matches.ListMine(ctx, student)
	if err != nil {
		t.Fatalf("CreateMatch() failed: %v", err)
	}
	for _, m := range ms {
		if m.ApplicationID == a.ID {
			return m
		}
	}
	t.Fatalf("CreateMatch() failed: no match for application %s", a.ID)
	return match.Match{}
}
