package job

import (
	"context"
	"log/slog"
	"time"
)

const (
	RefreshInterval = 10 * time.Minute
	refreshWindow   = 7 * 24 * time.Hour
	refreshTimeout  = time.Minute
)

// CredentialRefresher is the part of the LinkedIn service this job needs.
type CredentialRefresher interface {
	RefreshCredential(ctx context.Context, within time.Duration) (bool, error)
}

// CredentialRefreshJob renews the LinkedIn grant ahead of expiry. A token that
// has already expired is left for the user to reconnect.
type CredentialRefreshJob struct {
	li  CredentialRefresher
	now func() time.Time
}

func NewCredentialRefreshJob(li CredentialRefresher) *CredentialRefreshJob {
	return &CredentialRefreshJob{li: li, now: time.Now}
}

func (c *CredentialRefreshJob) RefreshTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	if _, err := c.Run(ctx); err != nil {
		slog.Info("Unable to refresh LinkedIn credential", "error", err)
	}
}

func (c *CredentialRefreshJob) Run(ctx context.Context) (bool, error) {
	refreshed, err := c.li.RefreshCredential(ctx, refreshWindow)
	if err != nil {
		return false, err
	}
	if refreshed {
		slog.Info("LinkedIn credential refreshed", "at", c.now().UTC())
	}
	return refreshed, nil
}
