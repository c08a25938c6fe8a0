package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	config "github.com/maheshrc27/mission-control/configs"
	"github.com/maheshrc27/mission-control/internal/events"
	"github.com/maheshrc27/mission-control/internal/models"
	"github.com/maheshrc27/mission-control/internal/repository"
	"github.com/maheshrc27/mission-control/internal/transfer"
	"github.com/maheshrc27/mission-control/pkg/utils"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/linkedin"
)

// Reasons reported to the dashboard when the OAuth callback fails.
const (
	ReasonDenied        = "denied"
	ReasonInvalidState  = "invalid_state"
	ReasonMissingCode   = "missing_code"
	ReasonConfig        = "config"
	ReasonTokenExchange = "token_exchange"
	ReasonNoToken       = "no_token"
	ReasonProfileFetch  = "profile_fetch"
	ReasonNoSub         = "no_sub"
	ReasonStorage       = "storage"
)

const (
	stateTTL            = 10 * time.Minute
	defaultTokenSeconds = 60 * 24 * 60 * 60
)

var linkedInScopes = []string{"openid", "profile", "w_member_social"}

type LinkedInService interface {
	AuthURL() (string, error)
	Callback(ctx context.Context, code, state, providerErr string) (reason string)
	Status(ctx context.Context) (*transfer.LinkedInStatus, error)
	Disconnect(ctx context.Context) error
	RefreshCredential(ctx context.Context, within time.Duration) (bool, error)
}

type linkedInService struct {
	cfg    config.Config
	creds  repository.CredentialRepository
	events events.Publisher
	client *http.Client
	now    func() time.Time
}

func NewLinkedInService(cfg config.Config, creds repository.CredentialRepository, ev events.Publisher, client *http.Client) LinkedInService {
	if client == nil {
		client = http.DefaultClient
	}
	return &linkedInService{
		cfg:    cfg,
		creds:  creds,
		events: ev,
		client: client,
		now:    time.Now,
	}
}

func (s *linkedInService) oauthConfig() *oauth2.Config {
	endpoint := linkedin.Endpoint
	if s.cfg.LinkedIn.AuthURL != "" {
		endpoint.AuthURL = s.cfg.LinkedIn.AuthURL
	}
	if s.cfg.LinkedIn.TokenURL != "" {
		endpoint.TokenURL = s.cfg.LinkedIn.TokenURL
	}
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	return &oauth2.Config{
		ClientID:     s.cfg.LinkedIn.ClientID,
		ClientSecret: s.cfg.LinkedIn.ClientSecret,
		RedirectURL:  s.cfg.LinkedIn.RedirectURI,
		Scopes:       linkedInScopes,
		Endpoint:     endpoint,
	}
}

func (s *linkedInService) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.client)
}

func (s *linkedInService) AuthURL() (string, error) {
	conf := s.oauthConfig()
	if conf.ClientID == "" || conf.RedirectURL == "" {
		err := errors.New("LinkedIn OAuth configuration is incomplete")
		slog.Info(err.Error())
		return "", err
	}

	state, err := utils.GenerateStateToken(s.cfg.SecretKey, "/linkedin", stateTTL)
	if err != nil {
		return "", err
	}
	return conf.AuthCodeURL(state), nil
}

func (s *linkedInService) Callback(ctx context.Context, code, state, providerErr string) string {
	if providerErr != "" {
		slog.Info("linkedin authorization denied", "error", providerErr)
		return ReasonDenied
	}
	if code == "" {
		return ReasonMissingCode
	}
	if _, err := utils.ValidateStateToken(s.cfg.SecretKey, state); err != nil {
		slog.Info(err.Error())
		return ReasonInvalidState
	}

	conf := s.oauthConfig()
	if conf.ClientID == "" || conf.ClientSecret == "" || conf.RedirectURL == "" {
		slog.Info("LinkedIn OAuth configuration is incomplete")
		return ReasonConfig
	}

	octx := s.clientContext(ctx)
	token, err := conf.Exchange(octx, code)
	if err != nil {
		slog.Info(err.Error())
		var re *oauth2.RetrieveError
		if !errors.As(err, &re) && strings.Contains(err.Error(), "access_token") {
			return ReasonNoToken
		}
		return ReasonTokenExchange
	}
	if token.AccessToken == "" {
		return ReasonNoToken
	}

	info, err := s.fetchUserInfo(conf.Client(octx, token))
	if err != nil {
		slog.Info(err.Error())
		return ReasonProfileFetch
	}
	if strings.TrimSpace(info.Sub) == "" {
		return ReasonNoSub
	}

	if err := s.store(ctx, "urn:li:person:"+info.Sub, token); err != nil {
		return ReasonStorage
	}
	return ""
}

func (s *linkedInService) fetchUserInfo(client *http.Client) (*transfer.LinkedInUserInfo, error) {
	resp, err := client.Get(s.cfg.LinkedIn.APIURL + "/v2/userinfo")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("linkedin userinfo returned %d", resp.StatusCode)
	}

	var info transfer.LinkedInUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo: %v", err)
	}
	return &info, nil
}

// store replaces whatever grant is on file with token.
func (s *linkedInService) store(ctx context.Context, personURN string, token *oauth2.Token) error {
	key := []byte(s.cfg.SecretKey)

	accessToken, err := utils.Encrypt([]byte(token.AccessToken), key)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	var refreshToken *string
	if token.RefreshToken != "" {
		enc, err := utils.Encrypt([]byte(token.RefreshToken), key)
		if err != nil {
			slog.Info(err.Error())
			return err
		}
		refreshToken = &enc
	}

	expiresAt := token.Expiry
	if expiresAt.IsZero() {
		expiresAt = GetExpiresAt(defaultTokenSeconds)
	}

	cred := &models.LinkedInCredential{
		PersonURN:    personURN,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt.UTC(),
	}
	id, err := s.creds.Replace(ctx, cred)
	if err != nil {
		return err
	}

	s.events.Publish(events.Event{
		Type:   events.CredentialSaved,
		Entity: "linkedin_credential",
		ID:     fmt.Sprint(id),
		Data:   map[string]any{"person_urn": personURN, "expires_at": cred.ExpiresAt},
	})
	return nil
}

func (s *linkedInService) Status(ctx context.Context) (*transfer.LinkedInStatus, error) {
	cred, err := s.creds.GetCurrent(ctx)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return &transfer.LinkedInStatus{}, nil
	}
	return &transfer.LinkedInStatus{
		Connected: true,
		PersonURN: cred.PersonURN,
		ExpiresAt: timePtr(cred.ExpiresAt),
		Expired:   cred.Expired(s.now()),
	}, nil
}

func (s *linkedInService) Disconnect(ctx context.Context) error {
	if err := s.creds.DeleteAll(ctx); err != nil {
		return err
	}
	s.events.Publish(events.Event{Type: events.CredentialSaved, Entity: "linkedin_credential", Data: map[string]bool{"connected": false}})
	return nil
}

// RefreshCredential swaps the stored grant for a refreshed one when it expires
// within the given window. It reports whether a refresh happened.
func (s *linkedInService) RefreshCredential(ctx context.Context, within time.Duration) (bool, error) {
	cred, err := s.creds.GetCurrent(ctx)
	if err != nil {
		return false, err
	}
	if cred == nil || cred.RefreshToken == nil {
		return false, nil
	}
	if cred.ExpiresAt.Sub(s.now()) > within {
		return false, nil
	}

	refreshToken, err := utils.Decrypt(*cred.RefreshToken, []byte(s.cfg.SecretKey))
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	conf := s.oauthConfig()
	token, err := conf.TokenSource(s.clientContext(ctx), &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	if token.RefreshToken == "" {
		token.RefreshToken = refreshToken
	}

	if err := s.store(ctx, cred.PersonURN, token); err != nil {
		return false, err
	}
	slog.Info("linkedin credential refreshed", "person_urn", cred.PersonURN, "expires_at", token.Expiry)
	return true, nil
}
