package ws

import "time"

type ConnInfo struct {
	ConnID      string
	UserID      int
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}

func (i ConnInfo) payload(conversationID int, reason string) map[string]any {
	return map[string]any{
		"conversation_id": conversationID,
		"conn_id":         i.ConnID,
		"device_id":       i.DeviceID,
		"ip":              i.IP,
		"duration_ms":     time.Since(i.ConnectedAt).Milliseconds(),
		"reason":          reason,
	}
}
