package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rosehill-valentines/ticket-sorter/internal/dto"
	"github.com/rosehill-valentines/ticket-sorter/internal/sorter"
	"github.com/rosehill-valentines/ticket-sorter/pkg/archive"
	appErrors "github.com/rosehill-valentines/ticket-sorter/pkg/errors"
	"github.com/rosehill-valentines/ticket-sorter/pkg/jobs"
	"github.com/rosehill-valentines/ticket-sorter/pkg/store"
)

// planStore is the persistence boundary SortService depends on, satisfied
// by both pkg/store.MemoryStore and pkg/store.RedisStore.
type planStore interface {
	Save(ctx context.Context, run store.Run, ttl time.Duration) error
	Load(ctx context.Context, runID string) (store.Run, error)
}

// runArchiver is the optional durable-audit boundary, satisfied by
// pkg/archive.Repository. Left nil, SortService simply skips archiving
// (spec.md's Non-goals exclude a full audit log; archiving is opt-in via
// ArchiveConfig.Enabled).
type runArchiver interface {
	Create(ctx context.Context, entry *archive.Entry) error
}

// SortService wraps the sorter engine with request validation, persistence,
// and metrics/logging, the same division of responsibility the rest of
// this codebase's services use between a repository, a validator, and a
// zap logger.
type SortService struct {
	store       planStore
	archiver    runArchiver
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	planTTL     time.Duration
	resortQueue *jobs.Queue
}

// resortJobPayload is the Job.Payload carried for a queued resort: the
// stored ticket batch plus the caller's new run configuration.
type resortJobPayload struct {
	runID   string
	tickets []sorter.TicketInput
	sortReq sorter.SortRequest
}

// NewSortService constructs a SortService, starting its own background
// resort queue (spec.md §6's `/resort` endpoint enqueues a background
// re-run rather than running it inline, matching the teacher's worker-pool
// job-queue pattern in pkg/jobs/queue.go).
func NewSortService(planStore planStore, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, planTTL time.Duration, queueCfg jobs.QueueConfig) *SortService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &SortService{store: planStore, metrics: metrics, validator: validate, logger: logger, planTTL: planTTL}
	queueCfg.Logger = logger
	s.resortQueue = jobs.NewQueue("resort", s.handleResortJob, queueCfg)
	s.resortQueue.Start(context.Background())
	return s
}

// Close stops the background resort queue, waiting for in-flight jobs to
// finish.
func (s *SortService) Close() {
	s.resortQueue.Stop()
}

func (s *SortService) handleResortJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(resortJobPayload)
	if !ok {
		return fmt.Errorf("resort queue: unexpected payload type %T", job.Payload)
	}
	_, err := s.execute(ctx, payload.runID, payload.tickets, payload.sortReq)
	return err
}

// WithArchiver attaches a durable audit-trail writer (spec.md's Non-goals
// exclude a full audit feature, but a deployment may opt in via
// ArchiveConfig.Enabled). Returns s for chaining at wiring time.
func (s *SortService) WithArchiver(a runArchiver) *SortService {
	s.archiver = a
	return s
}

// Run validates req, executes the sort engine over a freshly-generated run
// ID, persists the batch and outcome, and returns the rendered response.
func (s *SortService) Run(ctx context.Context, req dto.SortRequest) (*dto.SortResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid sort request")
	}

	tickets, itemErr := ticketInputsFromDTO(req.Tickets)
	if itemErr != nil {
		return nil, appErrors.Wrap(itemErr, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid ticket payload")
	}

	sortReq := sortRequestFromDTO(req)
	runID := uuid.NewString()
	return s.execute(ctx, runID, tickets, sortReq)
}

// Get loads a previously computed plan by run ID.
func (s *SortService) Get(ctx context.Context, runID string) (*dto.SortResponse, error) {
	run, err := s.store.Load(ctx, runID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrPlanNotFound, "sort plan not found")
	}
	return renderResponse(run, 0), nil
}

// Resort validates req and the stored batch it refers to, then enqueues a
// background re-run of the full sort over the stored tickets (spec.md's
// Non-goals exclude incremental resorting: the queued job always re-runs
// the whole batch, it never patches the existing plan). The caller polls
// Get for the updated result once the job completes.
func (s *SortService) Resort(ctx context.Context, runID string, req dto.ResortRequest) (*dto.ResortAcceptedResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid resort request")
	}

	existing, err := s.store.Load(ctx, runID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrPlanNotFound, "sort plan not found")
	}

	sortReq := sorter.SortRequest{
		NumSerenadingGroups:               req.NumSerenadingGroups,
		NumNonSerenadingGroups:            req.NumNonSerenadingGroups,
		MaxSerenadesPerClass:              req.MaxSerenadesPerClass,
		MaxNonSerenadesPerSerenadingClass: req.MaxNonSerenadesPerSerenadingClass,
		ExtraSpecialSerenades:             req.ExtraSpecialSerenades,
		EnforceDistribution:               req.EnforceDistribution,
	}

	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    "resort",
		Payload: resortJobPayload{runID: runID, tickets: existing.Tickets, sortReq: sortReq},
	}
	if err := s.resortQueue.Enqueue(job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue resort job")
	}

	return &dto.ResortAcceptedResponse{RunID: runID, Status: "queued"}, nil
}

func (s *SortService) execute(ctx context.Context, runID string, tickets []sorter.TicketInput, sortReq sorter.SortRequest) (*dto.SortResponse, error) {
	start := time.Now()
	plan, diags, err := sorter.Sort(tickets, sortReq)
	duration := time.Since(start)

	if err != nil {
		s.metrics.ObserveSortRun(duration, true, 0, 0)
		s.logger.Sugar().Errorw("sort run failed invariant check", "run_id", runID, "error", err)
		s.recordArchive(ctx, runID, len(tickets), 0, 0, true)
		return nil, appErrors.Wrap(err, appErrors.ErrSortInvariantViolation.Code, appErrors.ErrSortInvariantViolation.Status, "sort engine detected an invariant violation")
	}

	placedCount := countPlaced(plan)
	s.metrics.ObserveSortRun(duration, false, placedCount, len(diags))
	for _, d := range diags {
		s.metrics.ObserveDiagnostic(string(d.Code))
	}
	s.metrics.SetGroupBalanceRange(groupBalanceRange(plan))

	result := RunResult{Plan: plan, Stats: computeRunStats(plan), Diagnostics: diags}
	s.logger.Sugar().Infow("sort run statistics",
		"run_id", runID,
		"visits_per_period", result.Stats.VisitsPerPeriod,
		"tickets_per_item_type", result.Stats.TicketsPerItemType,
		"classroom_size_histogram", result.Stats.ClassroomSizeHisto,
		"serenading_groups", len(result.Stats.SerenadingGroups),
		"non_serenading_groups", len(result.Stats.NonSerenadingGroups),
	)

	run := store.Run{
		RunID:       runID,
		Tickets:     tickets,
		Request:     sortReq,
		Plan:        plan,
		Diagnostics: diags,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.Save(ctx, run, s.planTTL); err != nil {
		s.logger.Sugar().Errorw("failed to persist sort run", "run_id", runID, "error", err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist sort run")
	}

	s.recordArchive(ctx, runID, len(tickets), placedCount, len(diags), false)

	return renderResponse(run, duration), nil
}

// recordArchive writes an audit entry when an archiver is attached. Failures
// are logged, not returned: archiving is a side effect of a run that has
// already succeeded or been reported, not part of the caller-facing outcome.
func (s *SortService) recordArchive(ctx context.Context, runID string, ticketCount, placedCount, diagnosticCount int, invariantFailed bool) {
	if s.archiver == nil {
		return
	}
	entry := &archive.Entry{
		RunID:           runID,
		TicketCount:     ticketCount,
		PlacedCount:     placedCount,
		DiagnosticCount: diagnosticCount,
		InvariantFailed: invariantFailed,
	}
	if err := s.archiver.Create(ctx, entry); err != nil {
		s.logger.Sugar().Errorw("failed to archive sort run", "run_id", runID, "error", err)
	}
}

func countPlaced(plan *sorter.DeliveryPlan) int {
	count := 0
	for _, groups := range [][]sorter.DeliveryGroupPlan{plan.SerenadingGroups, plan.NonSerenadingGroups} {
		for _, g := range groups {
			for _, visits := range g.ByPeriod {
				for _, v := range visits {
					count += len(v.Tickets)
				}
			}
		}
	}
	return count
}

// groupBalanceRange returns the max-min spread of per-group ticket counts
// across both pools, the same statistic rebalanceGroups optimises for.
func groupBalanceRange(plan *sorter.DeliveryPlan) int {
	var counts []int
	for _, groups := range [][]sorter.DeliveryGroupPlan{plan.SerenadingGroups, plan.NonSerenadingGroups} {
		for _, g := range groups {
			total := 0
			for _, visits := range g.ByPeriod {
				for _, v := range visits {
					total += len(v.Tickets)
				}
			}
			counts = append(counts, total)
		}
	}
	if len(counts) == 0 {
		return 0
	}
	min, max := counts[0], counts[0]
	for _, c := range counts[1:] {
		if c < min {
			min = c
		}
		if c > max {
			max = c
		}
	}
	return max - min
}
