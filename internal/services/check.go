package services

import (
	"context"
	"fmt"
	"time"

	"github.com/yungbote/apl-daily-backend/internal/domain"
	"github.com/yungbote/apl-daily-backend/internal/observability"
	"github.com/yungbote/apl-daily-backend/internal/platform/logger"
	"github.com/yungbote/apl-daily-backend/internal/repos"
)

// HasChanged reports whether cur differs from the last recorded pattern.
// Without a previous value everything counts as a change.
func HasChanged(prev, cur int, havePrev bool) bool {
	return !havePrev || prev != cur
}

type CheckResult struct {
	PatternID  int                    `json:"patternId"`
	PreviousID *int                   `json:"previousId,omitempty"`
	Changed    bool                   `json:"changed"`
	Report     *domain.DeliveryReport `json:"report,omitempty"`
}

type CheckService interface {
	// Run selects the pattern for now, notifies every subscriber if it differs
	// from the recorded one and records it. Individual delivery failures are
	// in the report; only store faults fail the run.
	Run(ctx context.Context, now time.Time) (*CheckResult, error)
}

type checkService struct {
	log      *logger.Logger
	patterns PatternService
	notify   NotificationService
	pointers repos.PointerRepo
	appURL   string
}

func NewCheckService(log *logger.Logger, patterns PatternService, notify NotificationService, pointers repos.PointerRepo, appURL string) CheckService {
	return &checkService{
		log:      log.With("service", "CheckService"),
		patterns: patterns,
		notify:   notify,
		pointers: pointers,
		appURL:   appURL,
	}
}

func (s *checkService) Run(ctx context.Context, now time.Time) (*CheckResult, error) {
	prev, havePrev, err := s.pointers.LastPatternID(ctx)
	if err != nil {
		observability.Current().IncCheckRun("failed")
		return nil, fmt.Errorf("read last pattern: %w", err)
	}

	p := s.patterns.Today(now)
	res := &CheckResult{PatternID: p.ID, Changed: HasChanged(prev, p.ID, havePrev)}
	if havePrev {
		res.PreviousID = &prev
	}

	if res.Changed {
		s.log.Info("pattern changed, notifying subscribers", "previous", prev, "current", p.ID)
		report, err := s.notify.DispatchAll(ctx, PatternMessage(p, s.appURL))
		if err != nil {
			observability.Current().IncCheckRun("failed")
			return nil, err
		}
		res.Report = &report
	} else {
		s.log.Debug("pattern unchanged", "current", p.ID)
	}

	// Persisted only after dispatch; a crash in between re-sends next run.
	if err := s.pointers.SetLastPatternID(ctx, p.ID); err != nil {
		observability.Current().IncCheckRun("failed")
		return nil, fmt.Errorf("record last pattern: %w", err)
	}

	if res.Changed {
		observability.Current().IncCheckRun("changed")
	} else {
		observability.Current().IncCheckRun("unchanged")
	}
	return res, nil
}

// PatternMessage is the daily announcement for p.
func PatternMessage(p domain.Pattern, appURL string) domain.Message {
	return domain.Message{
		Title:     p.Title,
		Body:      fmt.Sprintf("Check out Pattern! %d", p.ID),
		TargetURL: appURL,
	}
}
