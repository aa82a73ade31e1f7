package dig_container

import (
	"context"
	"fmt"
	"log"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/dig"

	echoapi "github.com/etarip26/EduConnect/apps/api/echo"
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
	"github.com/etarip26/EduConnect/services/breaker"
	emailsvc "github.com/etarip26/EduConnect/services/email"
	eventsvc "github.com/etarip26/EduConnect/services/events"
	logsvc "github.com/etarip26/EduConnect/services/logger"
	"github.com/etarip26/EduConnect/services/metrics"
	"github.com/etarip26/EduConnect/services/pubsub"
	sessionsvc "github.com/etarip26/EduConnect/services/session"
	"github.com/etarip26/EduConnect/storage/database"
	"github.com/etarip26/EduConnect/storage/database/sqlxrepos"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

func newLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(logsvc.NewZapLogger(conf, "API"), conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(logsvc.NewZapLogger(conf, "DB"), conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) (*sqlx.DB, core.DB) {
	setUp := func(ctx context.Context) (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			return nil, err
		}

		db, err := database.Open(ctx, conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}

	db, err := setUp(context.Background())
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db, db
}

// newRedis returns nil when no Redis address is configured.
func newRedis(conf *core.Config) *redis.Client {
	if conf.Redis.Address == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Address,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
}

// newBroker relays chat events through Redis so that several API instances share rooms.
// A single instance falls back to the in-process broker.
func newBroker(client *redis.Client) core.Broker {
	if client == nil {
		return pubsub.NewMemoryBroker()
	}
	return pubsub.NewRedisBroker(client)
}

func newSessionStore(client *redis.Client, logger core.Logger) core.SessionStore {
	if client == nil {
		return sessionsvc.NewMemoryStore()
	}
	return sessionsvc.NewRedisStore(client, breaker.New(breaker.Redis, logger))
}

// newEventPublisher publishes to RabbitMQ when configured, otherwise events are dropped.
func newEventPublisher(conf *core.Config, logger core.Logger) core.EventPublisher {
	if conf.RabbitMQ.URL == "" {
		return eventsvc.NewRecorder(0)
	}
	pub, err := eventsvc.NewRabbitMQPublisher(conf.RabbitMQ.URL, conf.RabbitMQ.Exchange, breaker.New(breaker.RabbitMQ, logger))
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up event publisher: %v", err), err)
	}
	return pub
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, breaker.New(breaker.Sendgrid, logger), logger)
}

func newMetrics() *metrics.Metrics {
	return metrics.New("educonnect")
}

func newHealthChecks(db *sqlx.DB, client *redis.Client) []echoapi.HealthCheck {
	checks := []echoapi.HealthCheck{{Name: "database", Ping: db.PingContext}}
	if client != nil {
		checks = append(checks, echoapi.HealthCheck{
			Name: "redis",
			Ping: func(ctx context.Context) error { return client.Ping(ctx).Err() },
		})
	}
	return checks
}

// services

type serviceParams struct {
	dig.In

	Validate *validator.Validate
	Logger   core.Logger
	Users    user.ServiceInterface
	Profiles *profile.Service
}

func newNotificationService(
	p serviceParams,
	repo notification.Repository,
	publisher core.EventPublisher,
	mailSvc core.EmailService,
) *notification.Service {
	return notification.NewService(repo, p.Users, publisher, mailSvc, p.Validate, p.Logger)
}

func newTuitionService(p serviceParams, repo tuition.Repository, notices *notification.Service) *tuition.Service {
	return tuition.NewService(repo, p.Profiles, p.Users, notices, p.Validate, p.Logger)
}

func newMatchGate(profiles *profile.Service) *match.Gate {
	return match.NewGate(profiles)
}

func newDemoService(
	p serviceParams,
	repo demo.Repository,
	matches *match.Service,
	gate *match.Gate,
	notices *notification.Service,
) *demo.Service {
	return demo.NewService(repo, matches, gate, notices, p.Validate, p.Logger)
}

func newChatService(
	conf *core.Config,
	logger core.Logger,
	repo chat.Repository,
	matches *match.Service,
	gate *match.Gate,
	broker core.Broker,
) *chat.Service {
	return chat.NewService(repo, matches, gate, broker, conf, logger)
}

func newReviewService(p serviceParams, repo review.Repository, matches *match.Service) *review.Service {
	return review.NewService(repo, matches, p.Profiles, p.Users, p.Validate, p.Logger)
}

type depsParams struct {
	dig.In

	Validate   *validator.Validate
	Translator ut.Translator
	Sessions   core.SessionStore
	Metrics    *metrics.Metrics
	Checks     []echoapi.HealthCheck

	Users         user.ServiceInterface
	Profiles      *profile.Service
	Tuition       *tuition.Service
	Matches       *match.Service
	Demos         *demo.Service
	Chat          *chat.Service
	Notifications *notification.Service
	Reviews       *review.Service
	Announcements *announcement.Service
	Admin         *admin.Service
}

func newDeps(p depsParams) *echoapi.Deps {
	return &echoapi.Deps{
		Validate:        p.Validate,
		Translator:      p.Translator,
		Sessions:        p.Sessions,
		Metrics:         p.Metrics,
		Checks:          p.Checks,
		UserSvc:         p.Users,
		ProfileSvc:      p.Profiles,
		TuitionSvc:      p.Tuition,
		MatchSvc:        p.Matches,
		DemoSvc:         p.Demos,
		ChatSvc:         p.Chat,
		NotificationSvc: p.Notifications,
		ReviewSvc:       p.Reviews,
		AnnouncementSvc: p.Announcements,
		AdminSvc:        p.Admin,
	}
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	// infrastructure
	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidator))
	must(c.Provide(newDB))
	must(c.Provide(newRedis))
	must(c.Provide(newBroker))
	must(c.Provide(newSessionStore))
	must(c.Provide(newEventPublisher))
	must(c.Provide(newEmailService))
	must(c.Provide(newMetrics))
	must(c.Provide(newHealthChecks))

	// repositories
	must(c.Provide(sqlxrepos.NewUserRepository))
	must(c.Provide(sqlxrepos.NewProfileRepository))
	must(c.Provide(sqlxrepos.NewTuitionRepository))
	must(c.Provide(sqlxrepos.NewMatchRepository))
	must(c.Provide(sqlxrepos.NewDemoRepository))
	must(c.Provide(sqlxrepos.NewChatRepository))
	must(c.Provide(sqlxrepos.NewNotificationRepository))
	must(c.Provide(sqlxrepos.NewReviewRepository))
	must(c.Provide(sqlxrepos.NewAnnouncementRepository))

	// services
	must(c.Provide(user.NewService))
	must(c.Provide(profile.NewService))
	must(c.Provide(newNotificationService))
	must(c.Provide(newTuitionService))
	must(c.Provide(match.NewService))
	must(c.Provide(newMatchGate))
	must(c.Provide(newDemoService))
	must(c.Provide(newChatService))
	must(c.Provide(newReviewService))
	must(c.Provide(announcement.NewService))
	must(c.Provide(admin.NewService))

	// API
	must(c.Provide(newDeps))
	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
