package service

import (
	"LogDB/internal/domain"

	"github.com/pkg/errors"
)

type GetEntryService struct {
	repository domain.DbEntryRepository
}

func NewGetEntryService(repository domain.DbEntryRepository) *GetEntryService {
	return &GetEntryService{
		repository: repository,
	}
}

type GetEntryQuery struct {
	Key string
}

type GetEntryResult struct {
	Entry domain.DbEntry
	Found bool
	Err   error
}

func (s *GetEntryService) Execute(query GetEntryQuery) GetEntryResult {
	entry, err := s.repository.Get(query.Key)
	if errors.Is(err, domain.ErrKeyNotFound) {
		return GetEntryResult{Found: false}
	}
	if err != nil {
		return GetEntryResult{Err: err}
	}
	if entry.Tombstone() {
		return GetEntryResult{Found: false}
	}
	return GetEntryResult{
		Entry: entry,
		Found: true,
	}
}
