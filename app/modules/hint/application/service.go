package hintservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	hintdomain "github.com/medusa-ctf/medusa-backend/app/modules/hint/domain"
	hintdb "github.com/medusa-ctf/medusa-backend/app/modules/hint/infrastructure/repositories"
	"github.com/medusa-ctf/medusa-backend/pkg/clock"
	"github.com/medusa-ctf/medusa-backend/pkg/observability/attr"
	"github.com/medusa-ctf/medusa-backend/pkg/observability/metrics"
	"github.com/medusa-ctf/medusa-backend/pkg/observability/telemetry"
	"github.com/medusa-ctf/medusa-backend/pkg/results"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace"
)

// HintService implements the Service interface.
type HintService struct {
	repo    hintdb.Repository
	catalog *hintdomain.Catalog
	clock   clock.Clock
	logger  *slog.Logger
	metrics metrics.OperationMetrics
	tracer  trace.Tracer
}

// NewHintService creates a new HintService.
func NewHintService(
	repo hintdb.Repository,
	catalog *hintdomain.Catalog,
	clk clock.Clock,
	logger *slog.Logger,
	metrics metrics.OperationMetrics,
	tracer trace.Tracer,
) *HintService {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &HintService{
		repo:    repo,
		catalog: catalog,
		clock:   clk,
		logger:  logger,
		metrics: metrics,
		tracer:  tracer,
	}
}

var _ Service = (*HintService)(nil)

func withTelemetry[S any, F any](
	s *HintService,
	ctx context.Context,
	operationName string,
	identifier string,
	op telemetry.OperationFunc[S, F],
) (results.OperationResult[S, F], error) {
	return telemetry.Run(ctx, telemetry.Instrument{
		Service: "HintService",
		Logger:  s.logger,
		Metrics: s.metrics,
		Tracer:  s.tracer,
	}, operationName, identifier, op)
}

// Unlock pays for hint number of bucket. Hints unlock strictly in order and
// unlocking an already-unlocked hint returns it again at no extra cost.
func (s *HintService) Unlock(ctx context.Context, teamCode string, claimRound int, bucketName string, number int) (*UnlockResult, error) {
	result, err := withTelemetry(s, ctx, "Unlock", teamCode, func(ctx context.Context) (results.OperationResult[*UnlockResult, error], error) {
		bucket, err := hintdomain.ParseBucket(bucketName)
		if err != nil {
			return results.FailureResult[*UnlockResult, error](err), nil
		}
		if bucket.Round() != claimRound {
			return results.FailureResult[*UnlockResult, error](fmt.Errorf("%w: %s is a round %d bucket", hintdomain.ErrRoundMismatch, bucket, bucket.Round())), nil
		}
		hint, err := s.catalog.Get(bucket, number)
		if err != nil {
			return results.FailureResult[*UnlockResult, error](err), nil
		}

		var res *UnlockResult
		var failure error
		err = s.repo.RunInBucket(ctx, teamCode, string(bucket), func(ctx context.Context, db bun.IDB) error {
			res, failure = nil, nil

			unlocked, err := s.repo.ListByBucket(ctx, db, teamCode, string(bucket))
			if err != nil {
				return err
			}
			total := 0.0
			for _, u := range unlocked {
				total += u.Cost
			}

			for _, u := range unlocked {
				if u.Number == number {
					res = &UnlockResult{Hint: hint, AlreadyUnlocked: true, TotalPenalty: total}
					return nil
				}
			}
			if len(unlocked) != number-1 {
				failure = fmt.Errorf("%w: unlock hint %d of %s first", hintdomain.ErrOutOfOrder, len(unlocked)+1, bucket)
				return nil
			}

			if err := s.repo.Insert(ctx, db, &hintdb.HintUnlock{
				TeamCode:   teamCode,
				Bucket:     string(bucket),
				Number:     number,
				Cost:       hint.Cost,
				UnlockedAt: s.clock.Now(),
			}); err != nil {
				return err
			}
			res = &UnlockResult{Hint: hint, TotalPenalty: total + hint.Cost}
			return nil
		})
		if err != nil {
			if errors.Is(err, hintdb.ErrDuplicateKey) {
				// another process won the insert; the hint is unlocked either way
				total, sumErr := s.repo.SumCost(ctx, nil, teamCode, string(bucket), time.Time{})
				if sumErr != nil {
					return results.OperationResult[*UnlockResult, error]{}, fmt.Errorf("failed to sum hint cost: %w", sumErr)
				}
				return results.SuccessResult[*UnlockResult, error](&UnlockResult{Hint: hint, AlreadyUnlocked: true, TotalPenalty: total}), nil
			}
			return results.OperationResult[*UnlockResult, error]{}, fmt.Errorf("failed to unlock hint: %w", err)
		}
		if failure != nil {
			return results.FailureResult[*UnlockResult, error](failure), nil
		}

		if !res.AlreadyUnlocked {
			s.logger.InfoContext(ctx, "Hint unlocked",
				attr.ExtractCorrelationID(ctx),
				attr.TeamCode(teamCode),
				attr.String("bucket", string(bucket)),
				attr.Int("number", number),
				attr.Float64("cost", hint.Cost),
			)
		}
		return results.SuccessResult[*UnlockResult, error](res), nil
	})
	if err != nil {
		return nil, err
	}
	if result.IsFailure() {
		return nil, *result.Failure
	}
	return *result.Success, nil
}

// List reports the buckets of the caller's round.
func (s *HintService) List(ctx context.Context, teamCode string, claimRound int) ([]BucketView, error) {
	result, err := withTelemetry(s, ctx, "List", teamCode, func(ctx context.Context) (results.OperationResult[[]BucketView, error], error) {
		unlocks, err := s.repo.ListByTeam(ctx, nil, teamCode)
		if err != nil {
			return results.OperationResult[[]BucketView, error]{}, fmt.Errorf("failed to list unlocks: %w", err)
		}

		byBucket := make(map[hintdomain.Bucket][]hintdb.HintUnlock)
		for _, u := range unlocks {
			byBucket[hintdomain.Bucket(u.Bucket)] = append(byBucket[hintdomain.Bucket(u.Bucket)], u)
		}

		views := []BucketView{}
		for _, bucket := range hintdomain.Buckets {
			if bucket.Round() != claimRound || s.catalog.Len(bucket) == 0 {
				continue
			}
			v := BucketView{Bucket: bucket, Unlocked: []hintdomain.Hint{}}
			for _, u := range byBucket[bucket] {
				hint, err := s.catalog.Get(bucket, u.Number)
				if err != nil {
					// catalog shrank after the unlock; the paid cost still counts
					hint = hintdomain.Hint{Bucket: bucket, Number: u.Number}
				}
				hint.Cost = u.Cost
				v.Unlocked = append(v.Unlocked, hint)
				v.TotalPenalty += u.Cost
			}
			if next, err := s.catalog.Get(bucket, len(v.Unlocked)+1); err == nil {
				next.Text = ""
				v.Next = &next
			}
			views = append(views, v)
		}
		return results.SuccessResult[[]BucketView, error](views), nil
	})
	if err != nil {
		return nil, err
	}
	return *result.Success, nil
}

// SumPenalty is the hint penalty collaborator of the submission workflow.
// Unlocks after asOf are not charged, so rescoring an older attempt ignores
// hints bought later.
func (s *HintService) SumPenalty(ctx context.Context, teamCode string, round int, bucketName string, asOf time.Time) (float64, error) {
	bucket, err := hintdomain.ParseBucket(bucketName)
	if err != nil {
		return 0, err
	}
	if bucket.Round() != round {
		return 0, fmt.Errorf("%w: %s is a round %d bucket", hintdomain.ErrRoundMismatch, bucket, bucket.Round())
	}
	total, err := s.repo.SumCost(ctx, nil, teamCode, string(bucket), asOf)
	if err != nil {
		return 0, fmt.Errorf("failed to sum hint cost: %w", err)
	}
	return total, nil
}
