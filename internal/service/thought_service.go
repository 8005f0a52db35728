package service

import (
	"context"
	"time"

	"lifeflow-be/internal/dto"
	"lifeflow-be/internal/entity"
	"lifeflow-be/internal/repository/specification"
	"lifeflow-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type IThoughtService interface {
	Create(ctx context.Context, userId uuid.UUID, req *dto.CreateThoughtRequest) (*dto.CreateThoughtResponse, error)
	Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.ShowThoughtResponse, error)
	List(ctx context.Context, userId uuid.UUID) ([]*dto.ShowThoughtResponse, error)
	Update(ctx context.Context, userId uuid.UUID, req *dto.UpdateThoughtRequest) (*dto.UpdateThoughtResponse, error)
	Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error

	// ListAll returns every thought in creation order, unscoped by user.
	// Used by the processing daemon for candidate selection.
	ListAll(ctx context.Context) ([]*entity.Thought, error)
}

type thoughtService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewThoughtService(uowFactory unitofwork.RepositoryFactory) IThoughtService {
	return &thoughtService{
		uowFactory: uowFactory,
	}
}

func (s *thoughtService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreateThoughtRequest) (*dto.CreateThoughtResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	thought := entity.Thought{
		Id:           uuid.New(),
		Text:         req.Text,
		SemanticType: req.SemanticType,
		Tags:         req.Tags,
		Intensity:    req.Intensity,
		UserId:       userId,
		CreatedAt:    time.Now(),
	}

	if err := uow.ThoughtRepository().Create(ctx, &thought); err != nil {
		return nil, err
	}

	return &dto.CreateThoughtResponse{
		Id: thought.Id,
	}, nil
}

func (s *thoughtService) Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.ShowThoughtResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	thought, err := uow.ThoughtRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.OwnedByUser{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if thought == nil {
		return nil, nil // Not found
	}

	return toShowThought(thought), nil
}

func (s *thoughtService) List(ctx context.Context, userId uuid.UUID) ([]*dto.ShowThoughtResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	thoughts, err := uow.ThoughtRepository().FindAll(ctx,
		specification.OwnedByUser{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.ShowThoughtResponse, len(thoughts))
	for i, t := range thoughts {
		out[i] = toShowThought(t)
	}
	return out, nil
}

func (s *thoughtService) Update(ctx context.Context, userId uuid.UUID, req *dto.UpdateThoughtRequest) (*dto.UpdateThoughtResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	thought, err := uow.ThoughtRepository().FindOne(ctx,
		specification.ByID{ID: req.Id},
		specification.OwnedByUser{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if thought == nil {
		return nil, nil
	}

	thought.Text = req.Text
	thought.SemanticType = req.SemanticType
	thought.Tags = req.Tags
	thought.Intensity = req.Intensity

	if err := uow.ThoughtRepository().Update(ctx, thought); err != nil {
		return nil, err
	}

	return &dto.UpdateThoughtResponse{Id: thought.Id}, nil
}

func (s *thoughtService) Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	thought, err := uow.ThoughtRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.OwnedByUser{UserID: userId},
	)
	if err != nil {
		return err
	}
	if thought == nil {
		return nil
	}
	return uow.ThoughtRepository().Delete(ctx, id)
}

func (s *thoughtService) ListAll(ctx context.Context) ([]*entity.Thought, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.ThoughtRepository().FindAll(ctx,
		specification.OrderBy{Field: "created_at", Desc: false},
	)
}

func toShowThought(t *entity.Thought) *dto.ShowThoughtResponse {
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	return &dto.ShowThoughtResponse{
		Id:           t.Id,
		Text:         t.Text,
		SemanticType: t.SemanticType,
		Tags:         tags,
		Intensity:    t.Intensity,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}
