package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/metrics"
	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/repository"
	"go.uber.org/zap"
)

// DefaultMatchHorizon на сколько вперёд проверяем занятость учителей
const DefaultMatchHorizon = 365 * 24 * time.Hour

// CandidateQuery еженедельное окно, которое ищет ученик
type CandidateQuery struct {
	Days      []time.Weekday
	StartTime model.WallClock
	Duration  time.Duration
	// Horizon 0 - значение сервиса
	Horizon time.Duration
}

// Validate окно внутри одних суток, длительность кратна минуте
func (q CandidateQuery) Validate() error {
	if len(q.Days) == 0 {
		return fmt.Errorf("%w: no days requested", model.ErrInvalidInterval)
	}
	for _, d := range q.Days {
		if d < time.Sunday || d > time.Saturday {
			return fmt.Errorf("%w: bad weekday %d", model.ErrInvalidInterval, d)
		}
	}
	if q.Duration <= 0 || q.Duration%time.Minute != 0 {
		return fmt.Errorf("%w: bad duration %s", model.ErrInvalidInterval, q.Duration)
	}
	if q.StartTime < 0 || q.StartTime >= model.EndOfDay {
		return fmt.Errorf("%w: bad start %s", model.ErrInvalidInterval, q.StartTime)
	}
	if end := q.StartTime.Add(q.Duration); end > model.EndOfDay {
		return fmt.Errorf("%w: window %s+%s crosses midnight", model.ErrInvalidInterval, q.StartTime, q.Duration)
	}
	if q.Horizon < 0 {
		return fmt.Errorf("%w: negative horizon", model.ErrInvalidInterval)
	}
	return nil
}

// MatcherService ищет учителей под еженедельное окно. Только чтение, без блокировок.
type MatcherService struct {
	store    repository.Store
	metrics  metrics.Recorder
	logger   *zap.Logger
	location *time.Location
	horizon  time.Duration
	now      func() time.Time
}

// NewMatcherService location - зона, в которой заданы окна доступности
func NewMatcherService(
	store repository.Store,
	recorder metrics.Recorder,
	logger *zap.Logger,
	location *time.Location,
	horizon time.Duration,
) *MatcherService {
	if location == nil {
		location = time.UTC
	}
	if horizon <= 0 {
		horizon = DefaultMatchHorizon
	}
	return &MatcherService{
		store:    store,
		metrics:  recorder,
		logger:   logger,
		location: location,
		horizon:  horizon,
		now:      time.Now,
	}
}

// FindCandidates учителя, у которых каждый запрошенный день покрыт окном доступности
// и ни одно повторение окна в горизонте не занято записью или отпуском.
// Результат отсортирован по возрастанию.
func (s *MatcherService) FindCandidates(ctx context.Context, query CandidateQuery) ([]int64, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	started := time.Now()
	start := query.StartTime
	end := query.StartTime.Add(query.Duration)
	repos := s.store.Repositories()

	owners, err := repos.Availability.FindCoveringOwners(ctx, query.Days, start, end)
	if err != nil {
		return nil, fmt.Errorf("find covering owners: %w", err)
	}
	if len(owners) == 0 {
		s.metrics.RecordCandidateSearch(0, time.Since(started))
		return []int64{}, nil
	}

	horizon := query.Horizon
	if horizon == 0 {
		horizon = s.horizon
	}
	now := s.now()
	occurrences := projectOccurrences(query.Days, start, end, now, now.Add(horizon), s.location)
	if len(occurrences) == 0 {
		s.metrics.RecordCandidateSearch(len(owners), time.Since(started))
		return owners, nil
	}

	from := occurrences[0].Start
	to := occurrences[len(occurrences)-1].End

	busy := make(map[int64][]model.TimeInterval, len(owners))

	slots, err := repos.Slots.ListCommittedByOwners(ctx, owners, from, to)
	if err != nil {
		return nil, fmt.Errorf("list committed slots: %w", err)
	}
	for _, slot := range slots {
		busy[slot.OwnerID] = append(busy[slot.OwnerID], slot.Interval)
	}

	offs, err := repos.TimeOffs.ListByOwners(ctx, owners, from, to)
	if err != nil {
		return nil, fmt.Errorf("list time offs: %w", err)
	}
	for _, off := range offs {
		busy[off.OwnerID] = append(busy[off.OwnerID], off.Interval)
	}

	candidates := make([]int64, 0, len(owners))
	for _, owner := range owners {
		if !model.AnyOverlap(occurrences, busy[owner]) {
			candidates = append(candidates, owner)
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i] < candidates[j] })

	s.metrics.RecordCandidateSearch(len(candidates), time.Since(started))
	s.logger.Debug("Candidates found",
		zap.Int("covering", len(owners)),
		zap.Int("free", len(candidates)),
		zap.Int("occurrences", len(occurrences)),
	)

	return candidates, nil
}

// projectOccurrences все повторения окна [start, end) по дням days,
// которые заканчиваются после now и начинаются до until
func projectOccurrences(days []time.Weekday, start, end model.WallClock, now, until time.Time, loc *time.Location) []model.TimeInterval {
	wanted := make(map[time.Weekday]bool, len(days))
	for _, d := range days {
		wanted[d] = true
	}

	local := now.In(loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	last := until.In(loc)

	var out []model.TimeInterval
	for !day.After(last) {
		if wanted[day.Weekday()] {
			occ, err := model.NewTimeInterval(start.On(day, loc), end.On(day, loc))
			if err == nil && occ.End.After(now) && occ.Start.Before(until) {
				out = append(out, occ)
			}
		}
		day = day.AddDate(0, 0, 1)
	}

	return out
}
