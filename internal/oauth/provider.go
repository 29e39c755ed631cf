package oauth

// Provider identifies a supported OAuth integration.
type Provider string

const (
	ProviderStrava  Provider = "strava"
	ProviderSpotify Provider = "spotify"
)

// tokenStyle distinguishes how a provider's token endpoint expects requests
// and reports expiry.
type tokenStyle int

const (
	// styleJSONAbsolute: JSON request body, response carries expires_at as
	// absolute unix seconds. Strava.
	styleJSONAbsolute tokenStyle = iota
	// styleFormBasic: form-encoded body with Basic client auth, response
	// carries expires_in as relative seconds. Spotify.
	styleFormBasic
)

// Endpoints describes a provider's OAuth surface. TokenURL is a field so
// tests can point it at a local server.
type Endpoints struct {
	AuthorizeURL string
	TokenURL     string
	Scope        string
	style        tokenStyle
}

var defaultEndpoints = map[Provider]Endpoints{
	ProviderStrava: {
		AuthorizeURL: "https://www.strava.com/oauth/authorize",
		TokenURL:     "https://www.strava.com/oauth/token",
		Scope:        "read,activity:read_all",
		style:        styleJSONAbsolute,
	},
	ProviderSpotify: {
		AuthorizeURL: "https://accounts.spotify.com/authorize",
		TokenURL:     "https://accounts.spotify.com/api/token",
		Scope:        "user-read-currently-playing user-read-playback-state",
		style:        styleFormBasic,
	},
}

// Known reports whether the provider name is one we integrate with.
func Known(p Provider) bool {
	_, ok := defaultEndpoints[p]
	return ok
}
