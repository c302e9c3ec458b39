package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/printforge/printforge/internal/clock"
	extradomain "github.com/printforge/printforge/internal/extra/domain"
	filamentdomain "github.com/printforge/printforge/internal/filament/domain"
	jobdomain "github.com/printforge/printforge/internal/job/domain"
	"github.com/printforge/printforge/internal/metrics"
	piecedomain "github.com/printforge/printforge/internal/piece/domain"
	"github.com/printforge/printforge/pkg/db/option"
	"github.com/printforge/printforge/pkg/db/pagination"
	"github.com/printforge/printforge/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Ledger  filamentdomain.Ledger
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	clock  clock.Clock
	ledger filamentdomain.Ledger
	obs    *metrics.Metrics

	repo      repository.Repository[jobdomain.Job]
	piecerepo repository.Repository[piecedomain.Piece]
	consrepo  repository.Repository[piecedomain.ConsumptionRecord]
	extrarepo repository.Repository[extradomain.ExtraApplied]
}

func New(p ServiceParam) *Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("job.service"),
		genID:  p.GenID,
		clock:  p.Clock,
		ledger: p.Ledger,
		obs:    p.Metrics,

		repo:      repository.ProvideStore[jobdomain.Job](p.DB),
		piecerepo: repository.ProvideStore[piecedomain.Piece](p.DB),
		consrepo:  repository.ProvideStore[piecedomain.ConsumptionRecord](p.DB),
		extrarepo: repository.ProvideStore[extradomain.ExtraApplied](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req jobdomain.CreateJobRequest) (jobdomain.Job, error) {
	clientName := strings.TrimSpace(req.ClientName)
	if clientName == "" {
		return jobdomain.Job{}, jobdomain.ErrInvalidClient
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return jobdomain.Job{}, jobdomain.ErrInvalidTitle
	}

	now := s.clock.Now()
	record := jobdomain.Job{
		ID:           s.genID.Generate(),
		ClientName:   clientName,
		ClientEmail:  strings.TrimSpace(req.ClientEmail),
		Title:        title,
		Status:       jobdomain.StatusQuoted,
		PaymentState: jobdomain.PaymentStateUnpaid,
		RequestedAt:  req.RequestedAt,
		DueAt:        req.DueAt,
		Metadata:     req.Metadata,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, &record); err != nil {
		return jobdomain.Job{}, err
	}

	return record, nil
}

func (s *Service) Update(ctx context.Context, id string, req jobdomain.UpdateJobRequest) (jobdomain.Job, error) {
	existing, err := s.getByID(ctx, id)
	if err != nil {
		return jobdomain.Job{}, err
	}

	if req.ClientName != nil {
		clientName := strings.TrimSpace(*req.ClientName)
		if clientName == "" {
			return jobdomain.Job{}, jobdomain.ErrInvalidClient
		}
		existing.ClientName = clientName
	}
	if req.ClientEmail != nil {
		existing.ClientEmail = strings.TrimSpace(*req.ClientEmail)
	}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return jobdomain.Job{}, jobdomain.ErrInvalidTitle
		}
		existing.Title = title
	}
	if req.RequestedAt != nil {
		existing.RequestedAt = req.RequestedAt
	}
	if req.DueAt != nil {
		existing.DueAt = req.DueAt
	}
	existing.UpdatedAt = s.clock.Now()

	updates := map[string]any{
		"client_name":  existing.ClientName,
		"client_email": existing.ClientEmail,
		"title":        existing.Title,
		"requested_at": existing.RequestedAt,
		"due_at":       existing.DueAt,
		"updated_at":   existing.UpdatedAt,
	}
	if err := s.repo.Update(ctx, existing.ID.String(), updates); err != nil {
		return jobdomain.Job{}, err
	}

	return *existing, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (jobdomain.Job, error) {
	record, err := s.getByID(ctx, id)
	if err != nil {
		return jobdomain.Job{}, err
	}
	return *record, nil
}

func (s *Service) List(ctx context.Context, req jobdomain.ListJobRequest) (jobdomain.ListJobResponse, error) {
	filter := &jobdomain.Job{}
	if req.Status != nil {
		filter.Status = *req.Status
	}
	filter.ClientName = strings.TrimSpace(req.ClientName)

	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = 25
	}

	options := []option.QueryOption{
		option.WithSortBy(option.QuerySortBy{Desc: true, Field: "created_at", Allow: map[string]bool{"created_at": true}}),
		option.WithLimit(pageSize + 1),
	}
	if req.CreatedFrom != nil {
		options = append(options, option.ApplyOperator(option.Condition{
			Field:    "created_at",
			Operator: option.GTE,
			Value:    *req.CreatedFrom,
		}))
	}
	if req.CreatedTo != nil {
		options = append(options, option.ApplyOperator(option.Condition{
			Field:    "created_at",
			Operator: option.LTE,
			Value:    *req.CreatedTo,
		}))
	}
	if req.PageToken != "" {
		cursor, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return jobdomain.ListJobResponse{}, jobdomain.ErrInvalidID
		}
		if cursor.CreatedAt != "" {
			before, err := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
			if err != nil {
				return jobdomain.ListJobResponse{}, jobdomain.ErrInvalidID
			}
			options = append(options, option.ApplyOperator(option.Condition{
				Field:    "created_at",
				Operator: option.LT,
				Value:    before,
			}))
		}
	}

	records, err := s.repo.Find(ctx, filter, options...)
	if err != nil {
		return jobdomain.ListJobResponse{}, err
	}

	records, pageInfo := pagination.BuildCursorPageInfo(records, pageSize, func(j *jobdomain.Job) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{
			ID:        j.ID.String(),
			CreatedAt: j.CreatedAt.Format(time.RFC3339Nano),
		})
		return token
	})

	jobs := make([]jobdomain.Job, 0, len(records))
	for _, record := range records {
		jobs = append(jobs, *record)
	}

	return jobdomain.ListJobResponse{PageInfo: pageInfo, Jobs: jobs}, nil
}

// Delete removes the job and everything it owns. Each piece's held mass is
// returned to its filament first, so the ledger stays conserved.
func (s *Service) Delete(ctx context.Context, id string) error {
	record, err := s.getByID(ctx, id)
	if err != nil {
		return err
	}

	pieces, err := s.piecerepo.Find(ctx, &piecedomain.Piece{JobID: record.ID})
	if err != nil {
		return err
	}

	for _, piece := range pieces {
		if err := s.ledger.ApplyDelta(ctx, piece.FilamentID, piece.TotalGrams()); err != nil {
			if !errors.Is(err, filamentdomain.ErrNotFound) {
				return err
			}
			s.log.Warn("skipping mass restoration for missing filament",
				zap.String("piece_id", piece.ID.String()),
				zap.String("filament_id", piece.FilamentID.String()),
			)
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, piece := range pieces {
			if err := s.consrepo.WithTrx(tx).DeleteWhere(ctx, &piecedomain.ConsumptionRecord{PieceID: piece.ID}); err != nil {
				return err
			}
		}
		if err := s.piecerepo.WithTrx(tx).DeleteWhere(ctx, &piecedomain.Piece{JobID: record.ID}); err != nil {
			return err
		}
		if err := s.extrarepo.WithTrx(tx).DeleteWhere(ctx, &extradomain.ExtraApplied{JobID: record.ID}); err != nil {
			return err
		}
		return s.repo.WithTrx(tx).Delete(ctx, record.ID.String())
	})
}

func (s *Service) getByID(ctx context.Context, id string) (*jobdomain.Job, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return nil, jobdomain.ErrInvalidID
	}

	record, err := s.repo.FindOne(ctx, &jobdomain.Job{ID: parsed})
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, jobdomain.ErrNotFound
	}
	return record, nil
}
