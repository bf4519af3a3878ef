package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"rollcall/internal/attendance"
	"rollcall/internal/attendance/generator"
	attendancehandler "rollcall/internal/attendance/handler"
	"rollcall/internal/attendance/lock"
	attendancemetrics "rollcall/internal/attendance/metrics"
	attendanceservice "rollcall/internal/attendance/service"
	"rollcall/internal/audit"
	"rollcall/internal/auth"
	"rollcall/internal/class"
	"rollcall/internal/dispute"
	"rollcall/internal/enrollment"
	"rollcall/internal/evidence"
	"rollcall/internal/jwtauth"
	"rollcall/internal/lecture"
	"rollcall/internal/platform/config"
	"rollcall/internal/platform/httpserver"
	"rollcall/internal/platform/logger"
	"rollcall/internal/platform/metrics"
	"rollcall/internal/platform/postgres"
	redisplatform "rollcall/internal/platform/redis"
	transporthttp "rollcall/internal/transport/http"
	"rollcall/internal/trigger"
	"rollcall/internal/user"
)

func main() {
	log := logger.New()
	if err := run(log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

type stores struct {
	users       user.Store
	sessions    user.SessionStore
	classes     class.Store
	enrollments enrollment.Store
	lectures    lecture.Store
	evidence    evidence.Store
	records     attendance.Store
	disputes    dispute.Store
	audits      audit.Store
}

// newStores picks Postgres when a database is configured and in-memory
// otherwise, so the service can run without any backing infrastructure.
func newStores(db *sql.DB) stores {
	if db == nil {
		return stores{
			users:       user.NewInMemoryStore(),
			sessions:    user.NewInMemorySessionStore(),
			classes:     class.NewInMemoryStore(),
			enrollments: enrollment.NewInMemoryStore(),
			lectures:    lecture.NewInMemoryStore(),
			evidence:    evidence.NewInMemoryStore(),
			records:     attendance.NewInMemoryStore(),
			disputes:    dispute.NewInMemoryStore(),
			audits:      audit.NewInMemoryStore(),
		}
	}
	return stores{
		users:       user.NewPostgresStore(db),
		sessions:    user.NewPostgresSessionStore(db),
		classes:     class.NewPostgresStore(db),
		enrollments: enrollment.NewPostgresStore(db),
		lectures:    lecture.NewPostgresStore(db),
		evidence:    evidence.NewPostgresStore(db),
		records:     attendance.NewPostgresStore(db),
		disputes:    dispute.NewPostgresStore(db),
		audits:      audit.NewPostgresStore(db),
	}
}

func run(log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.FromEnv()

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	} else {
		log.Warn("no DATABASE_URL set, running on in-memory stores")
	}

	redisClient, err := redisplatform.New(cfg.Redis)
	if err != nil {
		return err
	}
	var locker lock.Locker = lock.NewInMemoryLocker()
	if redisClient != nil {
		defer redisClient.Close()
		locker = lock.NewRedisLocker(redisClient.Client, cfg.GenerationLockTTL)
	} else {
		log.Warn("no REDIS_URL set, using in-process generation lock")
	}

	st := newStores(db)

	jwtService := jwtauth.NewService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)
	publisher := audit.NewPublisher(log, 256)
	auditWorker := audit.NewWorker(log, st.audits, publisher.Inbox())

	m := metrics.New()
	am := attendancemetrics.New()

	authService := auth.New(log, st.users, st.sessions, jwtService, publisher, cfg.TokenTTL)
	classService := class.NewService(log, st.classes, publisher)
	enrollmentService := enrollment.NewService(log, st.enrollments, st.classes, st.users, publisher)
	lectureService := lecture.NewService(log, st.lectures, st.classes, st.evidence, publisher)
	attendanceService := attendanceservice.New(log, st.lectures, st.evidence, st.enrollments,
		st.records, generator.NewPhotoClusterV1(), locker, publisher, am)
	disputeService := dispute.NewService(log, st.disputes, st.records, st.lectures,
		st.classes, st.users, publisher)

	router := transporthttp.New(log, m, jwtService, transporthttp.Handlers{
		Auth:       auth.NewHandler(log, authService, jwtService),
		Class:      class.NewHandler(log, classService),
		Enrollment: enrollment.NewHandler(log, enrollmentService),
		Lecture:    lecture.NewHandler(log, lectureService),
		Attendance: attendancehandler.New(log, attendanceService),
		Dispute:    dispute.NewHandler(log, disputeService),
	})
	server := httpserver.New(cfg.Addr, router)

	consumer, err := trigger.NewConsumer(log, cfg.Kafka, attendanceService)
	if err != nil {
		return err
	}
	if consumer == nil {
		log.Warn("no KAFKA_BROKERS set, generation triggers are HTTP-only")
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http server listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		publisher.Drain(2 * time.Second)
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		err := auditWorker.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if consumer != nil {
		g.Go(func() error {
			err := consumer.Run(gctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	return g.Wait()
}
