package service

import (
	"LogDB/internal/domain"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

type SaveEntryService struct {
	repository domain.DbEntryRepository
	publisher  domain.ChangePublisher
	logger     log.Logger
}

func NewSaveEntryService(repository domain.DbEntryRepository, publisher domain.ChangePublisher,
	logger log.Logger) *SaveEntryService {
	return &SaveEntryService{
		repository: repository,
		publisher:  publisher,
		logger:     log.With(logger, "service", "save_entry"),
	}
}

type SaveEntryCommand struct {
	Key   string
	Value string
}

type SaveEntryResult struct {
	Entry domain.DbEntry
	Err   error
}

func (s *SaveEntryService) Execute(command SaveEntryCommand) SaveEntryResult {
	if command.Key == "" {
		return SaveEntryResult{Err: domain.ErrEmptyKey}
	}
	entry := domain.NewDbEntry(command.Key, command.Value, false)
	if err := s.repository.Save(entry); err != nil {
		level.Error(s.logger).Log("msg", "error saving entry", "key", command.Key, "err", err)
		return SaveEntryResult{Err: err}
	}
	publish(s.publisher, s.logger, entry)
	return SaveEntryResult{Entry: entry}
}

// publish reports a durable change. The write has already succeeded, so a
// failed publish is only logged.
func publish(publisher domain.ChangePublisher, logger log.Logger, entry domain.DbEntry) {
	if err := publisher.Publish(domain.NewEntryChange(entry)); err != nil {
		level.Warn(logger).Log("msg", "error publishing change", "key", entry.Key(), "err", err)
	}
}
