package model

// OAuthTokens is a stored delegated-auth token set for one integration.
// ExpiresAt is epoch milliseconds, normalized at ingestion regardless of the
// provider's own expiry convention. Mutated only by the token lifecycle
// manager, never partially updated.
type OAuthTokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresAt    int64  `json:"expiresAt"`
	Scope        string `json:"scope,omitempty"`
}

// HealthPayload is the inbound push body accepted by POST /health.
type HealthPayload struct {
	Steps          int   `json:"steps"`
	ActiveCalories int   `json:"activeCalories"`
	SleepMinutes   int   `json:"sleepMinutes"`
	Timestamp      int64 `json:"timestamp"`
}

// BiblePlanDay is one entry of the reading plan.
type BiblePlanDay struct {
	DayIndex  int     `json:"dayIndex"`
	Reference string  `json:"reference"`
	Source    string  `json:"source"`
	Title     *string `json:"title,omitempty"`
}
