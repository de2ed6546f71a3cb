package repository

import (
	"LogDB/internal/domain"
	"LogDB/internal/platform/repository/logstore"
)

type LogStoreRepository struct {
	db *logstore.Database
}

func NewLogStoreRepository(db *logstore.Database) *LogStoreRepository {
	return &LogStoreRepository{
		db: db,
	}
}

func (r *LogStoreRepository) Save(e domain.DbEntry) error {
	if e.Tombstone() {
		return r.db.Delete(e.Key())
	}
	return r.db.Put(e.Key(), e.Value())
}

func (r *LogStoreRepository) Get(key string) (domain.DbEntry, error) {
	value, err := r.db.Get(key)
	if err != nil {
		return domain.DbEntry{}, err
	}
	return domain.NewDbEntry(key, value, false), nil
}

func (r *LogStoreRepository) Delete(key string) error {
	return r.db.Delete(key)
}
