package models

import (
	"encoding/json"
	"time"
)

type CommandType string

const (
	CmdSyncNow CommandType = "sync_now"
	CmdPause   CommandType = "pause"
	CmdResume  CommandType = "resume"
)

// Command is an operator instruction queued in the local SQLite store
// and picked up by the scheduler's poll loop.
type Command struct {
	ID          int64           `json:"id" db:"id"`
	Command     CommandType     `json:"command" db:"command"`
	Params      json.RawMessage `json:"params" db:"params"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	ProcessedAt *time.Time      `json:"processed_at" db:"processed_at"`
}
