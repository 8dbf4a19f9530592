package category

import (
	"context"
	"errors"
	"strings"

	"github.com/6431503106/brselab/model"
	categoryrepo "github.com/6431503106/brselab/repository/category"
)

var (
	ErrNameRequired = errors.New("category name is required")
	ErrDuplicate    = errors.New("category already exists")
)

type Repo = categoryrepo.Repo

type Service interface {
	Create(ctx context.Context, name string) (*model.Category, error)
	List(ctx context.Context) ([]model.Category, error)
}

type service struct{ r Repo }

func New(r Repo) Service { return &service{r: r} }

func (s *service) Create(ctx context.Context, name string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	c := &model.Category{Name: name}
	err := s.r.Create(ctx, c)
	if errors.Is(err, categoryrepo.ErrDuplicate) {
		return nil, ErrDuplicate
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) List(ctx context.Context) ([]model.Category, error) {
	return s.r.List(ctx)
}
