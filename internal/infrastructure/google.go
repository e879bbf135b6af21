package infrastructure

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"accounts-service/internal/domain/entities"
)

const defaultUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// GoogleService exchanges an opaque Google access token for the profile it
// belongs to. Every failure, network, provider-side or malformed payload,
// collapses into entities.ErrInvalidProviderToken; there is no retry.
type GoogleService struct {
	httpClient  *http.Client
	userInfoURL string
}

func NewGoogleService(userInfoURL string) *GoogleService {
	if userInfoURL == "" {
		userInfoURL = defaultUserInfoURL
	}
	return &GoogleService{
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		userInfoURL: userInfoURL,
	}
}

func (g *GoogleService) FetchProfile(ctx context.Context, accessToken string) (*entities.ThirdPartyProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return nil, entities.ErrInvalidProviderToken
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, entities.ErrInvalidProviderToken
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, entities.ErrInvalidProviderToken
	}

	var payload struct {
		Email      string `json:"email"`
		GivenName  string `json:"given_name"`
		FamilyName string `json:"family_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, entities.ErrInvalidProviderToken
	}
	if payload.Email == "" {
		return nil, entities.ErrInvalidProviderToken
	}

	return &entities.ThirdPartyProfile{
		Email:      payload.Email,
		GivenName:  payload.GivenName,
		FamilyName: payload.FamilyName,
	}, nil
}
