package domain

import (
	"time"

	"github.com/google/uuid"
)

// EntryChange describes one durable mutation, published after the write returns.
type EntryChange struct {
	Id        string
	Entry     DbEntry
	Timestamp int64
}

func NewEntryChange(entry DbEntry) EntryChange {
	return EntryChange{
		Id:        uuid.NewString(),
		Entry:     entry,
		Timestamp: time.Now().UnixNano(),
	}
}

type ChangePublisher interface {
	Publish(change EntryChange) error
}

type NopChangePublisher struct{}

func NewNopChangePublisher() *NopChangePublisher {
	return &NopChangePublisher{}
}

func (p *NopChangePublisher) Publish(EntryChange) error {
	return nil
}
