package transfer

import "strings"

type TaskCreation struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Owner       *string `json:"owner"`
	Priority    string  `json:"priority"`
}

func (t *TaskCreation) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return invalid("title", "title is required")
	}
	return nil
}

type QuestCreation struct {
	AgentID     *string `json:"agent_id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Reward      int     `json:"reward"`
}

func (q *QuestCreation) Validate() error {
	if strings.TrimSpace(q.Title) == "" {
		return invalid("title", "title is required")
	}
	if q.Reward < 0 {
		return invalid("reward", "reward cannot be negative")
	}
	return nil
}

type ImprovementCreation struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Impact      string  `json:"impact"`
	AgentID     *string `json:"agent_id"`
}

func (i *ImprovementCreation) Validate() error {
	if strings.TrimSpace(i.Title) == "" {
		return invalid("title", "title is required")
	}
	return nil
}

type StatusUpdate struct {
	Status string `json:"status"`
	Actor  string `json:"actor"`
}

func (s *StatusUpdate) Validate() error {
	if strings.TrimSpace(s.Status) == "" {
		return invalid("status", "status is required")
	}
	return nil
}
