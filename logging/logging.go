package logging

import (
	"encoding/json"
	"log"
	"time"
)

type Fields struct {
	Service    string `json:"service"`
	Step       string `json:"step,omitempty"`
	Status     string `json:"status,omitempty"`
	UserID     string `json:"user_id,omitempty"`
	BillID     string `json:"bill_id,omitempty"`
	ProductID  string `json:"product_id,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty"`
	Message    string `json:"message,omitempty"`
	Error      string `json:"error,omitempty"`
}

type entry struct {
	Fields
	Timestamp string `json:"timestamp"`
}

// Log writes fields as a single JSON line through the standard logger.
func Log(fields Fields) {
	data, err := json.Marshal(entry{Fields: fields, Timestamp: time.Now().UTC().Format(time.RFC3339Nano)})
	if err != nil {
		log.Printf("{\"service\":%q,\"status\":\"log_error\",\"error\":%q}", fields.Service, err.Error())
		return
	}
	log.Print(string(data))
}

// Since returns elapsed milliseconds for DurationMS.
func Since(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
