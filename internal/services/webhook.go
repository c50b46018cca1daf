package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/yungbote/apl-daily-backend/internal/domain"
	"github.com/yungbote/apl-daily-backend/internal/observability"
	"github.com/yungbote/apl-daily-backend/internal/platform/apierr"
	"github.com/yungbote/apl-daily-backend/internal/platform/farcaster"
	"github.com/yungbote/apl-daily-backend/internal/platform/logger"
	"github.com/yungbote/apl-daily-backend/internal/repos"
)

var (
	FrameAddedMessage = domain.Message{
		Title: "Frame Added",
		Body:  "Your frame has been successfully added!",
	}
	NotificationsEnabledMessage = domain.Message{
		Title: "Notifications Enabled",
		Body:  "You will now receive notifications for this frame",
	}
)

type WebhookService interface {
	// Handle verifies body and applies the event to the sender's
	// subscription. Nothing is written unless verification succeeds.
	Handle(ctx context.Context, body []byte) (*farcaster.WebhookEvent, error)
}

type webhookService struct {
	log      *logger.Logger
	subs     repos.SubscriptionRepo
	notify   NotificationService
	verifier farcaster.AppKeyVerifier
	appURL   string
}

// NewWebhookService takes a nil verifier to accept any correctly signed
// event without checking key ownership.
func NewWebhookService(log *logger.Logger, subs repos.SubscriptionRepo, notify NotificationService, verifier farcaster.AppKeyVerifier, appURL string) WebhookService {
	return &webhookService{
		log:      log.With("service", "WebhookService"),
		subs:     subs,
		notify:   notify,
		verifier: verifier,
		appURL:   appURL,
	}
}

func (s *webhookService) Handle(ctx context.Context, body []byte) (*farcaster.WebhookEvent, error) {
	ev, err := farcaster.ParseWebhookEvent(ctx, body, s.verifier)
	if err != nil {
		observability.Current().IncWebhookEvent("unverified", "rejected")
		s.log.Warn("webhook rejected", "error", err)
		return nil, verificationError(err)
	}

	fid := ev.FID
	details := ev.Event.NotificationDetails
	var welcome *domain.Message

	switch ev.Event.Event {
	case farcaster.EventFrameAdded:
		if details != nil {
			err = s.subs.Save(ctx, fid, *details)
			welcome = &FrameAddedMessage
		} else {
			err = s.subs.Delete(ctx, fid)
		}
	case farcaster.EventNotificationsEnabled:
		err = s.subs.Save(ctx, fid, *details)
		welcome = &NotificationsEnabledMessage
	case farcaster.EventFrameRemoved, farcaster.EventNotificationsDisabled:
		err = s.subs.Delete(ctx, fid)
	}
	if err != nil {
		observability.Current().IncWebhookEvent(string(ev.Event.Event), "failed")
		s.log.Error("webhook state update failed", "fid", fid, "event", ev.Event.Event, "error", err)
		return nil, apierr.New(http.StatusInternalServerError, "webhook_store_failed", fmt.Errorf("failed to process webhook"))
	}
	observability.Current().IncWebhookEvent(string(ev.Event.Event), "ok")
	s.log.Info("webhook applied", "fid", fid, "event", ev.Event.Event)

	if welcome != nil {
		msg := *welcome
		msg.TargetURL = s.appURL
		// Best effort: the outcome is logged by the dispatcher and never
		// changes the webhook response.
		s.notify.Dispatch(ctx, msg, []domain.Subscriber{{FID: fid, Subscription: *details}})
	}
	return ev, nil
}

func verificationError(err error) error {
	switch {
	case errors.Is(err, farcaster.ErrInvalidData):
		return apierr.New(http.StatusBadRequest, "invalid_data", err)
	case errors.Is(err, farcaster.ErrInvalidAppKey):
		return apierr.New(http.StatusUnauthorized, "invalid_app_key", err)
	case errors.Is(err, farcaster.ErrVerifyAppKey):
		return apierr.New(http.StatusInternalServerError, "verify_app_key_failed", err)
	default:
		return apierr.New(http.StatusInternalServerError, "webhook_failed", err)
	}
}
