package services

import (
	"context"
	"fmt"
	"time"

	"github.com/yungbote/apl-daily-backend/internal/catalog"
	"github.com/yungbote/apl-daily-backend/internal/domain"
	"github.com/yungbote/apl-daily-backend/internal/platform/logger"
	"github.com/yungbote/apl-daily-backend/internal/repos"
	"github.com/yungbote/apl-daily-backend/internal/selector"
)

type PatternService interface {
	// Today returns the plain daily pick for the UTC day of now.
	Today(now time.Time) domain.Pattern
	// Current returns today's pattern. With advanceRun it consumes the next
	// intra-day run number and returns that run's pick instead.
	Current(ctx context.Context, now time.Time, advanceRun bool) (domain.Pattern, error)
	ByID(id int) (domain.Pattern, bool)
	Next(id int) (domain.Pattern, bool)
	Prev(id int) (domain.Pattern, bool)
	All() []domain.Pattern
}

type patternService struct {
	log      *logger.Logger
	catalog  *catalog.Catalog
	selector *selector.Selector
	pointers repos.PointerRepo
}

// NewPatternService fails if the selector can produce an id the catalog does
// not hold.
func NewPatternService(log *logger.Logger, cat *catalog.Catalog, sel *selector.Selector, pointers repos.PointerRepo) (PatternService, error) {
	if err := sel.Validate(cat); err != nil {
		return nil, fmt.Errorf("selector and catalog disagree: %w", err)
	}
	return &patternService{
		log:      log.With("service", "PatternService"),
		catalog:  cat,
		selector: sel,
		pointers: pointers,
	}, nil
}

func (s *patternService) Today(now time.Time) domain.Pattern {
	return s.mustGet(s.selector.Select(now))
}

func (s *patternService) Current(ctx context.Context, now time.Time, advanceRun bool) (domain.Pattern, error) {
	if !advanceRun {
		return s.Today(now), nil
	}
	run, err := s.pointers.NextRun(ctx, now)
	if err != nil {
		return domain.Pattern{}, err
	}
	idx := s.selector.Index(now, run)
	if err := s.pointers.SetCurrentIndex(ctx, idx); err != nil {
		s.log.Warn("failed to record current index", "index", idx, "error", err)
	}
	s.log.Debug("advanced run", "run", run, "index", idx)
	return s.mustGet(s.selector.At(idx)), nil
}

func (s *patternService) ByID(id int) (domain.Pattern, bool) {
	return s.catalog.Get(id)
}

func (s *patternService) Next(id int) (domain.Pattern, bool) {
	next, ok := s.selector.Next(id)
	if !ok {
		return domain.Pattern{}, false
	}
	return s.catalog.Get(next)
}

func (s *patternService) Prev(id int) (domain.Pattern, bool) {
	prev, ok := s.selector.Prev(id)
	if !ok {
		return domain.Pattern{}, false
	}
	return s.catalog.Get(prev)
}

func (s *patternService) All() []domain.Pattern {
	return s.catalog.All()
}

// Validate at construction guarantees every selector output resolves.
func (s *patternService) mustGet(id int) domain.Pattern {
	p, ok := s.catalog.Get(id)
	if !ok {
		panic(fmt.Sprintf("pattern %d selected but missing from catalog", id))
	}
	return p
}
