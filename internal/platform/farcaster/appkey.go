package farcaster

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/apl-daily-backend/internal/platform/ctxutil"
	"github.com/yungbote/apl-daily-backend/internal/platform/logger"
)

// AppKeyVerifier decides whether key is an active signer for fid. An error
// means the answer is unknown.
type AppKeyVerifier interface {
	VerifyAppKey(ctx context.Context, fid int64, key ed25519.PublicKey) (bool, error)
}

// AppKeyVerifierFunc adapts a function to AppKeyVerifier.
type AppKeyVerifierFunc func(ctx context.Context, fid int64, key ed25519.PublicKey) (bool, error)

func (f AppKeyVerifierFunc) VerifyAppKey(ctx context.Context, fid int64, key ed25519.PublicKey) (bool, error) {
	return f(ctx, fid, key)
}

const DefaultHubURL = "https://hub-api.neynar.com"

type HubConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// HubVerifier asks a Farcaster hub for the fid's on-chain signers. The hosted
// default hub needs an API key; without one every check fails with
// ErrVerifyAppKey.
type HubVerifier struct {
	log        *logger.Logger
	cfg        HubConfig
	httpClient *http.Client
}

func NewHubVerifier(log *logger.Logger, cfg HubConfig) *HubVerifier {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultHubURL
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &HubVerifier{
		log:        log.With("client", "HubVerifier"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type onChainSignersResponse struct {
	Events []struct {
		Type            string `json:"type"`
		SignerEventBody struct {
			Key       string `json:"key"`
			EventType string `json:"eventType"`
		} `json:"signerEventBody"`
	} `json:"events"`
}

// Usable reports whether the verifier can reach a hub at all.
func (h *HubVerifier) Usable() bool {
	return h.cfg.APIKey != "" || h.cfg.BaseURL != DefaultHubURL
}

func (h *HubVerifier) VerifyAppKey(ctx context.Context, fid int64, key ed25519.PublicKey) (bool, error) {
	if !h.Usable() {
		return false, fmt.Errorf("%w: no hub api key configured", ErrVerifyAppKey)
	}
	u := h.cfg.BaseURL + "/v1/onChainSignersByFid?" + url.Values{"fid": {strconv.FormatInt(fid, 10)}}.Encode()
	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), http.MethodGet, u, nil)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrVerifyAppKey, err)
	}
	if h.cfg.APIKey != "" {
		req.Header.Set("api_key", h.cfg.APIKey)
	}
	resp, err := h.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrVerifyAppKey, err)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	_ = resp.Body.Close()
	if err != nil {
		return false, fmt.Errorf("%w: read body: %v", ErrVerifyAppKey, err)
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("%w: hub http %d", ErrVerifyAppKey, resp.StatusCode)
	}

	var out onChainSignersResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return false, fmt.Errorf("%w: decode hub response: %v", ErrVerifyAppKey, err)
	}
	for _, ev := range out.Events {
		if ev.SignerEventBody.EventType != "" && ev.SignerEventBody.EventType != "SIGNER_EVENT_TYPE_ADD" {
			continue
		}
		k, err := parseKey(ev.SignerEventBody.Key)
		if err != nil {
			continue
		}
		if bytes.Equal(k, key) {
			return true, nil
		}
	}
	h.log.Debug("app key not among hub signers", "fid", fid, "signers", len(out.Events))
	return false, nil
}
