package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/maheshrc27/mission-control/internal/models"
	gocron "github.com/robfig/cron/v3"
)

var cronParser = gocron.NewParser(gocron.SecondOptional | gocron.Minute | gocron.Hour | gocron.Dom | gocron.Month | gocron.Dow | gocron.Descriptor)

type scheduleWire struct {
	Kind    string          `json:"kind"`
	EveryMs int64           `json:"everyMs"`
	Expr    string          `json:"expr"`
	TZ      string          `json:"tz"`
	At      json.RawMessage `json:"at"`
	AtMs    int64           `json:"atMs"`
}

// ParseCronSchedule reads a schedule given either as an object or as a JSON
// string holding one.
func ParseCronSchedule(raw json.RawMessage) (models.CronSchedule, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return models.CronSchedule{}, errors.New("schedule is required")
	}

	if raw[0] == '"' {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return models.CronSchedule{}, fmt.Errorf("schedule is not valid JSON: %v", err)
		}
		raw = bytes.TrimSpace([]byte(encoded))
	}

	var w scheduleWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return models.CronSchedule{}, fmt.Errorf("schedule is not valid JSON: %v", err)
	}

	switch models.ScheduleKind(strings.TrimSpace(w.Kind)) {
	case models.ScheduleEvery:
		if w.EveryMs <= 0 {
			return models.CronSchedule{}, errors.New("every schedule needs a positive everyMs")
		}
		return models.CronSchedule{Kind: models.ScheduleEvery, EveryMs: w.EveryMs}, nil

	case models.ScheduleCron:
		expr := strings.TrimSpace(w.Expr)
		if expr == "" {
			return models.CronSchedule{}, errors.New("cron schedule needs expr")
		}
		tz := strings.TrimSpace(w.TZ)
		if _, err := time.LoadLocation(tz); err != nil {
			return models.CronSchedule{}, fmt.Errorf("unknown timezone %q", tz)
		}
		if _, err := cronParser.Parse(expr); err != nil {
			return models.CronSchedule{}, fmt.Errorf("invalid cron expression %q: %v", expr, err)
		}
		return models.CronSchedule{Kind: models.ScheduleCron, Expr: expr, TZ: tz}, nil

	case models.ScheduleAt:
		at, err := parseAt(w.At, w.AtMs)
		if err != nil {
			return models.CronSchedule{}, err
		}
		return models.CronSchedule{Kind: models.ScheduleAt, At: &at}, nil

	case "":
		return models.CronSchedule{}, errors.New("schedule kind is required")
	default:
		return models.CronSchedule{}, fmt.Errorf("unknown schedule kind %q", w.Kind)
	}
}

// at may be an RFC 3339 string or epoch milliseconds.
func parseAt(raw json.RawMessage, atMs int64) (time.Time, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
			if err != nil {
				return time.Time{}, fmt.Errorf("invalid at time %q", s)
			}
			return t.UTC(), nil
		}
		var ms int64
		if err := json.Unmarshal(raw, &ms); err == nil && ms > 0 {
			return time.UnixMilli(ms).UTC(), nil
		}
		return time.Time{}, errors.New("at must be an RFC 3339 time or epoch milliseconds")
	}
	if atMs > 0 {
		return time.UnixMilli(atMs).UTC(), nil
	}
	return time.Time{}, errors.New("at schedule needs at or atMs")
}

// NextRun computes the next fire time after now, or nil when the schedule
// will not fire again.
func NextRun(schedule models.CronSchedule, now time.Time) *time.Time {
	switch schedule.Kind {
	case models.ScheduleAt:
		if schedule.At == nil || !schedule.At.After(now) {
			return nil
		}
		return timePtr(schedule.At.UTC())
	case models.ScheduleEvery:
		if schedule.EveryMs <= 0 {
			return nil
		}
		return timePtr(now.Add(time.Duration(schedule.EveryMs) * time.Millisecond).UTC())
	case models.ScheduleCron:
		sched, err := cronParser.Parse(schedule.Expr)
		if err != nil {
			return nil
		}
		loc, err := time.LoadLocation(schedule.TZ)
		if err != nil {
			return nil
		}
		next := sched.Next(now.In(loc))
		if next.IsZero() {
			return nil
		}
		return timePtr(next.UTC())
	default:
		return nil
	}
}
