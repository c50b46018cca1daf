package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/apl-daily-backend/internal/http/response"
)

// AccountAssociation is the pre-signed domain ownership proof published in
// the manifest.
type AccountAssociation struct {
	Header    string `json:"header"`
	Payload   string `json:"payload"`
	Signature string `json:"signature"`
}

type FrameManifest struct {
	AccountAssociation *AccountAssociation `json:"accountAssociation,omitempty"`
	Frame              FrameDetails        `json:"frame"`
}

type FrameDetails struct {
	Version               string `json:"version"`
	Name                  string `json:"name"`
	IconURL               string `json:"iconUrl"`
	HomeURL               string `json:"homeUrl"`
	ImageURL              string `json:"imageUrl"`
	ButtonTitle           string `json:"buttonTitle"`
	SplashImageURL        string `json:"splashImageUrl"`
	SplashBackgroundColor string `json:"splashBackgroundColor"`
	WebhookURL            string `json:"webhookUrl"`
}

type ManifestHandler struct {
	manifest FrameManifest
}

func NewManifestHandler(appURL string, assoc AccountAssociation) *ManifestHandler {
	appURL = strings.TrimRight(appURL, "/")
	m := FrameManifest{
		Frame: FrameDetails{
			Version:               "1",
			Name:                  "APL Daily",
			IconURL:               appURL + "/splash.png",
			HomeURL:               appURL,
			ImageURL:              appURL + "/api/pattern/current/image.png",
			ButtonTitle:           "Launch Today's Pattern",
			SplashImageURL:        appURL + "/splash.png",
			SplashBackgroundColor: "#e2e2e2",
			WebhookURL:            appURL + "/api/webhook",
		},
	}
	if assoc.Header != "" && assoc.Payload != "" && assoc.Signature != "" {
		m.AccountAssociation = &assoc
	}
	return &ManifestHandler{manifest: m}
}

// GET /.well-known/farcaster.json
func (h *ManifestHandler) Get(c *gin.Context) {
	response.RespondOK(c, h.manifest)
}
