package manager

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// HandleRecordEvent broadcasts record to every subscriber.
func (m *Manager) HandleRecordEvent(record *Record) error {
	event, err := encodeRecordEvent(record)
	if err != nil {
		return err
	}

	m.Broadcast(event)
	return nil
}

// HandleReceiveEvent processes a message sent by a subscriber and returns the
// reply for that subscriber, if any.
func (m *Manager) HandleReceiveEvent(event []byte) ([]byte, error) {
	msg := strings.TrimSpace(string(event))
	m.logger.Debug("Received event", zap.String("event", msg))

	parts := strings.Fields(msg)
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty event")
	}

	switch parts[0] {
	case LookupEvent:
		return m.handleLookupEvent(parts[1:])
	default:
		return nil, fmt.Errorf("unknown event type: %s", parts[0])
	}
}

func (m *Manager) handleLookupEvent(parts []string) ([]byte, error) {
	if len(parts) != 1 {
		return nil, fmt.Errorf("invalid lookup event format, expected 1 part, got %d", len(parts))
	}

	record, err := m.GetRecord(parts[0])
	if err != nil {
		return nil, err
	}
	return encodeRecordEvent(record)
}

func encodeRecordEvent(record *Record) ([]byte, error) {
	op := []byte(RecordEvent + " ")
	recordBytes, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}

	return append(op, recordBytes...), nil
}
