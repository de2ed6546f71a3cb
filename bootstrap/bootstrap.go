package bootstrap

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"LogDB/internal/application/service"
	"LogDB/internal/domain"
	"LogDB/internal/platform/api/zmq"
	"LogDB/internal/platform/config"
	"LogDB/internal/platform/logging"
	"LogDB/internal/platform/messaging/zeromq/publisher"
	"LogDB/internal/platform/repository"
	"LogDB/internal/platform/repository/logstore"
	"LogDB/internal/platform/server"
	"LogDB/internal/platform/server/handler/dbentry"
	"LogDB/internal/platform/server/handler/health"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/dig"
)

const shutdownTimeout = 10 * time.Second

func Run() (bool, error) {
	container, err := newContainer()
	if err != nil {
		return false, err
	}
	err = container.Invoke(run)
	if err != nil {
		return false, err
	}
	return true, nil
}

func newContainer() (*dig.Container, error) {
	container := dig.New()
	serviceConstructors := []interface{}{
		config.LoadConfig,
		logging.NewLogger,
		registry,
		database,
		entryRepository,
		publisher.NewChangePublisher,
		service.NewDeleteEntryService,
		service.NewSaveEntryService,
		service.NewGetEntryService,
		dbentry.NewDbEntryHandler,
		health.NewHealthHandler,
		server.NewServer,
		zmq.NewZmqApi,
	}
	for _, service := range serviceConstructors {
		if err := container.Provide(service); err != nil {
			return nil, err
		}
	}
	return container, nil
}

func run(s *server.Server, api *zmq.ZmqApi, db *logstore.Database,
	changes domain.ChangePublisher, logger log.Logger) error {
	defer closeDatabase(db, logger)

	if closer, ok := changes.(io.Closer); ok {
		defer closer.Close()
	}

	defer api.Close()
	if api.Enabled() {
		if err := api.Listen(); err != nil {
			return err
		}
	}

	errs := make(chan error, 1)
	go func() {
		errs <- s.Run()
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	select {
	case err := <-errs:
		return err
	case sig := <-signals:
		level.Info(logger).Log("msg", "shutting down", "signal", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return s.Shutdown(ctx)
}

func registry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func database(cfg config.Config, logger log.Logger, reg *prometheus.Registry) (*logstore.Database, error) {
	return logstore.Open(cfg.DataFile,
		logstore.WithLogger(logger),
		logstore.WithRegisterer(reg),
	)
}

func entryRepository(db *logstore.Database) domain.DbEntryRepository {
	return repository.NewLogStoreRepository(db)
}

func closeDatabase(db *logstore.Database, logger log.Logger) {
	if err := db.Close(); err != nil {
		level.Error(logger).Log("msg", "error closing database", "err", err)
	}
}
