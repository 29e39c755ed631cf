package handler

import (
	"encoding/base64"
	"log/slog"
	"net/http"

	qrcode "github.com/skip2/go-qrcode"
)

// QRHandler renders connect URLs as QR codes so a phone can start the
// OAuth flow by pointing its camera at the kiosk.
type QRHandler struct {
	baseURL string
	logger  *slog.Logger
}

func NewQRHandler(baseURL string, logger *slog.Logger) *QRHandler {
	return &QRHandler{baseURL: baseURL, logger: logger}
}

func (h *QRHandler) serviceURL(service string) (string, bool) {
	switch service {
	case "strava", "spotify":
		return h.baseURL + "/oauth/" + service + "/start", true
	case "health":
		return h.baseURL + "/health-info", true
	}
	return "", false
}

// Get returns the connect URL plus a PNG QR code as a data URI.
func (h *QRHandler) Get(w http.ResponseWriter, r *http.Request) {
	url, ok := h.serviceURL(r.PathValue("service"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown service")
		return
	}

	png, err := qrcode.Encode(url, qrcode.Medium, 256)
	if err != nil {
		h.logger.Error("failed to encode qr", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to generate QR code")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"url": url,
		"qr":  "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
	})
}
