package transfer

import (
	"strings"
	"time"
)

const (
	ShareContentKey      = "com.linkedin.ugc.ShareContent"
	MemberVisibilityKey  = "com.linkedin.ugc.MemberNetworkVisibility"
	LifecycleStatePublic = "PUBLISHED"
	VisibilityPublic     = "PUBLIC"
	MediaCategoryNone    = "NONE"
	MediaCategoryArticle = "ARTICLE"
)

type UGCText struct {
	Text string `json:"text"`
}

type UGCMedia struct {
	Status      string   `json:"status"`
	OriginalURL string   `json:"originalUrl"`
	Title       *UGCText `json:"title,omitempty"`
}

type UGCShareContent struct {
	ShareCommentary    UGCText    `json:"shareCommentary"`
	ShareMediaCategory string     `json:"shareMediaCategory"`
	Media              []UGCMedia `json:"media,omitempty"`
}

type UGCPost struct {
	Author          string                     `json:"author"`
	LifecycleState  string                     `json:"lifecycleState"`
	SpecificContent map[string]UGCShareContent `json:"specificContent"`
	Visibility      map[string]string          `json:"visibility"`
}

type LinkedInUserInfo struct {
	Sub     string `json:"sub"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

type LinkedInStatus struct {
	Connected bool       `json:"connected"`
	PersonURN string     `json:"person_urn,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Expired   bool       `json:"expired"`
}

type PostCreation struct {
	Title     *string  `json:"title"`
	Content   string   `json:"content"`
	AuthorID  string   `json:"author_id"`
	MediaURLs []string `json:"media_urls"`
}

func (p *PostCreation) Validate() error {
	if strings.TrimSpace(p.Content) == "" {
		return invalid("content", "content is required")
	}
	if strings.TrimSpace(p.AuthorID) == "" {
		return invalid("author_id", "author_id is required")
	}
	return nil
}

type PostUpdate struct {
	Title     *string   `json:"title"`
	Content   *string   `json:"content"`
	MediaURLs *[]string `json:"media_urls"`
}

func (p *PostUpdate) Validate() error {
	if p.Title == nil && p.Content == nil && p.MediaURLs == nil {
		return invalid("body", "nothing to update")
	}
	if p.Content != nil && strings.TrimSpace(*p.Content) == "" {
		return invalid("content", "content cannot be empty")
	}
	return nil
}

type PostAction string

const (
	PostActionRequestFeedback PostAction = "request_feedback"
	PostActionApprove         PostAction = "approve"
	PostActionSchedule        PostAction = "schedule"
	PostActionUnschedule      PostAction = "unschedule"
	PostActionRevise          PostAction = "revise"
)

type PostTransition struct {
	Action      PostAction `json:"action"`
	Actor       string     `json:"actor"`
	Feedback    string     `json:"feedback"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}

func (p *PostTransition) Validate() error {
	switch p.Action {
	case PostActionRequestFeedback:
		if strings.TrimSpace(p.Feedback) == "" {
			return invalid("feedback", "feedback is required when requesting changes")
		}
	case PostActionApprove:
		if strings.TrimSpace(p.Actor) == "" {
			return invalid("actor", "actor is required for approval")
		}
	case PostActionSchedule:
		if p.ScheduledAt == nil {
			return invalid("scheduled_at", "scheduled_at is required")
		}
	case PostActionUnschedule, PostActionRevise:
	case "":
		return invalid("action", "action is required")
	default:
		return invalid("action", "unknown action "+string(p.Action))
	}
	return nil
}

type PublishDueResult struct {
	Published int `json:"published"`
}
