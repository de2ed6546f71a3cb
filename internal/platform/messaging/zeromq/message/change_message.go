package message

import "LogDB/internal/domain"

const ChangeTopic = "entry"

type ChangeMessage struct {
	Id        string `json:"id"`
	Key       string `json:"key"`
	Value     string `json:"value,omitempty"`
	Tombstone bool   `json:"tombstone,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

func ChangeMessageFrom(change domain.EntryChange) ChangeMessage {
	return ChangeMessage{
		Id:        change.Id,
		Key:       change.Entry.Key(),
		Value:     change.Entry.Value(),
		Tombstone: change.Entry.Tombstone(),
		Timestamp: change.Timestamp,
	}
}

func (m *ChangeMessage) ToEntryChange() domain.EntryChange {
	return domain.EntryChange{
		Id:        m.Id,
		Entry:     domain.NewDbEntry(m.Key, m.Value, m.Tombstone),
		Timestamp: m.Timestamp,
	}
}
