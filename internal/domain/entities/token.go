package entities

// TokenPair is the session artifact minted on every successful
// authentication: a short-lived access token and a longer-lived refresh
// token, both self-contained JWTs.
type TokenPair struct {
	Access  string
	Refresh string
}

// ThirdPartyProfile is the identity returned by an external provider in
// exchange for an opaque access token.
type ThirdPartyProfile struct {
	Email      string
	GivenName  string
	FamilyName string
}
