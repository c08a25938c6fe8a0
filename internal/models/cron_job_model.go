package models

import "time"

type ScheduleKind string

const (
	ScheduleEvery ScheduleKind = "every"
	ScheduleCron  ScheduleKind = "cron"
	ScheduleAt    ScheduleKind = "at"
)

// CronSchedule is a tagged union; only the fields of Kind are meaningful.
type CronSchedule struct {
	Kind    ScheduleKind `json:"kind"`
	EveryMs int64        `json:"everyMs,omitempty"`
	Expr    string       `json:"expr,omitempty"`
	TZ      string       `json:"tz,omitempty"`
	At      *time.Time   `json:"at,omitempty"`
}

type CronJob struct {
	JobID         string       `db:"job_id" json:"job_id"`
	AgentID       *string      `db:"agent_id" json:"agent_id"`
	Name          string       `db:"name" json:"name"`
	Enabled       bool         `db:"enabled" json:"enabled"`
	Schedule      CronSchedule `db:"schedule" json:"schedule"`
	PayloadKind   string       `db:"payload_kind" json:"payload_kind"`
	SessionTarget string       `db:"session_target" json:"session_target"`
	LastRunAt     *time.Time   `db:"last_run_at" json:"last_run_at"`
	NextRunAt     *time.Time   `db:"next_run_at" json:"next_run_at"`
	SyncedAt      time.Time    `db:"synced_at" json:"synced_at"`
}
