package service

import (
	"LogDB/internal/domain"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
)

type DeleteEntryService struct {
	repository domain.DbEntryRepository
	publisher  domain.ChangePublisher
	logger     log.Logger
}

func NewDeleteEntryService(repository domain.DbEntryRepository, publisher domain.ChangePublisher,
	logger log.Logger) *DeleteEntryService {
	return &DeleteEntryService{
		repository: repository,
		publisher:  publisher,
		logger:     log.With(logger, "service", "delete_entry"),
	}
}

type DeleteEntryCommand struct {
	Key string
}

type DeleteEntryResult struct {
	Entry domain.DbEntry
	Err   error
}

func (s *DeleteEntryService) Execute(command DeleteEntryCommand) DeleteEntryResult {
	if err := s.repository.Delete(command.Key); err != nil {
		if !errors.Is(err, domain.ErrKeyNotFound) {
			level.Error(s.logger).Log("msg", "error deleting entry", "key", command.Key, "err", err)
		}
		return DeleteEntryResult{Err: err}
	}
	entry := domain.NewDbEntry(command.Key, "", true)
	publish(s.publisher, s.logger, entry)
	return DeleteEntryResult{
		Entry: entry,
	}
}
