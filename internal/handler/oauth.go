package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/alvslovescyber/dashingly/internal/oauth"
	"github.com/alvslovescyber/dashingly/internal/websocket"
)

// OAuthHandler serves the browser-facing connect flow. baseURL is the
// LAN-reachable address of this server, since the provider redirects the
// phone's browser back here.
type OAuthHandler struct {
	oauth   *oauth.Manager
	baseURL string
	hub     *websocket.Hub
	logger  *slog.Logger
}

func NewOAuthHandler(mgr *oauth.Manager, baseURL string, hub *websocket.Hub, logger *slog.Logger) *OAuthHandler {
	return &OAuthHandler{oauth: mgr, baseURL: baseURL, hub: hub, logger: logger}
}

func (h *OAuthHandler) redirectURI(p oauth.Provider) string {
	return fmt.Sprintf("%s/oauth/%s/callback", h.baseURL, p)
}

// Start redirects to the provider's consent page.
func (h *OAuthHandler) Start(w http.ResponseWriter, r *http.Request) {
	p := oauth.Provider(r.PathValue("provider"))
	if !oauth.Known(p) {
		http.NotFound(w, r)
		return
	}

	authorizeURL, err := h.oauth.AuthorizeURL(p, h.redirectURI(p))
	if err != nil {
		h.logger.Error("cannot build authorize url", "provider", p, "error", err)
		http.Error(w, fmt.Sprintf("%s client credentials are not configured", p), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, authorizeURL, http.StatusFound)
}

// Callback completes the authorization-code exchange and shows a plain
// done page in the phone's browser.
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	p := oauth.Provider(r.PathValue("provider"))
	if !oauth.Known(p) {
		http.NotFound(w, r)
		return
	}

	q := r.URL.Query()
	if errParam := q.Get("error"); errParam != "" {
		h.logger.Warn("oauth consent denied", "provider", p, "error", errParam)
		h.page(w, "Connection failed", fmt.Sprintf("The %s authorization was not completed (%s). You can close this tab and try again.", p, errParam))
		return
	}

	code := q.Get("code")
	if code == "" {
		http.Error(w, "missing code parameter", http.StatusBadRequest)
		return
	}

	if err := h.oauth.ExchangeCode(r.Context(), p, code, h.redirectURI(p)); err != nil {
		h.logger.Error("code exchange failed", "provider", p, "error", err)
		h.page(w, "Connection failed", fmt.Sprintf("Could not complete the %s connection. You can close this tab and try again.", p))
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage(string(p), "connected", ""))
	}
	h.page(w, "Connected", fmt.Sprintf("%s is now connected to your dashboard. You can close this tab.", p))
}

func (h *OAuthHandler) page(w http.ResponseWriter, title, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<!doctype html><html><head><title>%s</title></head>
<body style="font-family:sans-serif;max-width:32em;margin:4em auto">
<h1>%s</h1><p>%s</p></body></html>`, title, title, body)
}
