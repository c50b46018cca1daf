package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/apl-daily-backend/internal/domain"
	"github.com/yungbote/apl-daily-backend/internal/observability"
	"github.com/yungbote/apl-daily-backend/internal/platform/apierr"
	"github.com/yungbote/apl-daily-backend/internal/platform/framepush"
	"github.com/yungbote/apl-daily-backend/internal/platform/logger"
	"github.com/yungbote/apl-daily-backend/internal/repos"
)

const DefaultNotifyConcurrency = 8

type NotificationService interface {
	// SendToUser reports no_token without any network call when the user has
	// no subscription.
	SendToUser(ctx context.Context, fid int64, msg domain.Message) domain.DeliveryResult
	// Dispatch pushes msg to every target. One target's failure never stops
	// the others; the report holds one result per target in input order.
	Dispatch(ctx context.Context, msg domain.Message, targets []domain.Subscriber) domain.DeliveryReport
	// DispatchAll enumerates stored subscriptions first. Only that read can
	// fail the call.
	DispatchAll(ctx context.Context, msg domain.Message) (domain.DeliveryReport, error)
	Save(ctx context.Context, fid int64, sub domain.Subscription) error
	Subscribers(ctx context.Context) ([]int64, error)
}

type notificationService struct {
	log         *logger.Logger
	subs        repos.SubscriptionRepo
	push        framepush.Client
	concurrency int
}

func NewNotificationService(log *logger.Logger, subs repos.SubscriptionRepo, push framepush.Client, concurrency int) NotificationService {
	if concurrency <= 0 {
		concurrency = DefaultNotifyConcurrency
	}
	return &notificationService{
		log:         log.With("service", "NotificationService"),
		subs:        subs,
		push:        push,
		concurrency: concurrency,
	}
}

func (s *notificationService) SendToUser(ctx context.Context, fid int64, msg domain.Message) domain.DeliveryResult {
	sub, err := s.subs.Get(ctx, fid)
	if err != nil {
		s.log.Error("subscription lookup failed", "user_id", fid, "error", err)
		return domain.DeliveryResult{FID: fid, State: domain.DeliveryError, Detail: err.Error()}
	}
	if !sub.Valid() {
		s.log.Debug("no subscription for user", "user_id", fid)
		observability.Current().ObserveDelivery(string(domain.DeliveryNoToken), 0)
		return domain.DeliveryResult{FID: fid, State: domain.DeliveryNoToken}
	}
	return s.deliver(ctx, domain.Subscriber{FID: fid, Subscription: *sub}, msg)
}

func (s *notificationService) Dispatch(ctx context.Context, msg domain.Message, targets []domain.Subscriber) domain.DeliveryReport {
	results := make([]domain.DeliveryResult, len(targets))

	// Plain Group: a failed delivery must not cancel the rest.
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			results[i] = s.deliver(ctx, target, msg)
			return nil
		})
	}
	_ = g.Wait()

	report := domain.NewDeliveryReport(results)
	s.log.Info("dispatch finished",
		"targets", len(targets),
		"success", report.Counts[domain.DeliverySuccess],
		"rate_limited", report.Counts[domain.DeliveryRateLimited],
		"no_token", report.Counts[domain.DeliveryNoToken],
		"failed", report.Counts[domain.DeliveryError],
	)
	return report
}

func (s *notificationService) DispatchAll(ctx context.Context, msg domain.Message) (domain.DeliveryReport, error) {
	targets, err := s.subs.List(ctx)
	if err != nil {
		return domain.DeliveryReport{}, fmt.Errorf("list subscribers: %w", err)
	}
	return s.Dispatch(ctx, msg, targets), nil
}

func (s *notificationService) Save(ctx context.Context, fid int64, sub domain.Subscription) error {
	if fid <= 0 {
		return apierr.New(http.StatusBadRequest, "missing_user_id", fmt.Errorf("user id required"))
	}
	if !sub.Valid() {
		return apierr.New(http.StatusBadRequest, "missing_fields", fmt.Errorf("url and token are required"))
	}
	if err := s.subs.Save(ctx, fid, sub); err != nil {
		s.log.Error("save subscription failed", "user_id", fid, "error", err)
		return apierr.New(http.StatusInternalServerError, "save_subscription_failed", fmt.Errorf("failed to save notification details"))
	}
	return nil
}

func (s *notificationService) Subscribers(ctx context.Context) ([]int64, error) {
	list, err := s.subs.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]int64, len(list))
	for i, sub := range list {
		out[i] = sub.FID
	}
	return out, nil
}

func (s *notificationService) deliver(ctx context.Context, target domain.Subscriber, msg domain.Message) domain.DeliveryResult {
	ctx, span := observability.Tracer().Start(ctx, "notification.deliver")
	defer span.End()
	span.SetAttributes(attribute.Int64("fid", target.FID))

	start := time.Now()
	out := domain.DeliveryResult{FID: target.FID}
	res, err := s.push.Send(ctx, target.Subscription, msg)
	switch {
	case err != nil:
		out.State = domain.DeliveryError
		out.Detail = err.Error()
		var he *framepush.HTTPError
		if errors.As(err, &he) {
			s.log.Warn("push rejected", "user_id", target.FID, "status", he.StatusCode, "error", err)
		} else {
			s.log.Warn("push failed", "user_id", target.FID, "error", err)
		}
		span.SetStatus(codes.Error, err.Error())
	case res.RateLimited():
		out.State = domain.DeliveryRateLimited
		out.NotificationID = res.NotificationID
		s.log.Info("push rate limited", "user_id", target.FID)
	default:
		out.State = domain.DeliverySuccess
		out.NotificationID = res.NotificationID
	}
	span.SetAttributes(attribute.String("state", string(out.State)))
	observability.Current().ObserveDelivery(string(out.State), time.Since(start))
	return out
}
