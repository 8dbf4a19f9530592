package product

import (
	"context"
	"errors"

	"github.com/6431503106/brselab/model"
	categoryrepo "github.com/6431503106/brselab/repository/category"
	productrepo "github.com/6431503106/brselab/repository/product"
)

type ErrCode string

const (
	ErrNotFound        ErrCode = "NOT_FOUND"
	ErrBadCategory     ErrCode = "CATEGORY_NOT_FOUND"
	ErrAlreadyReviewed ErrCode = "ALREADY_REVIEWED"
	ErrBadInput        ErrCode = "BAD_INPUT"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

type Filter = productrepo.Filter

type Repo = productrepo.Repo

// CategoryReader checks category references before a product write.
type CategoryReader interface {
	ByID(ctx context.Context, id int64) (*model.Category, error)
}

type Service interface {
	Create(ctx context.Context, p *model.Product) error
	Update(ctx context.Context, p *model.Product) error
	Delete(ctx context.Context, id int64) error
	ByID(ctx context.Context, id int64) (*model.Product, error)
	List(ctx context.Context, f Filter) ([]model.Product, error)
	AddReview(ctx context.Context, rv *model.ProductReview) error
}

type service struct {
	r    Repo
	cats CategoryReader
}

func New(r Repo, cats CategoryReader) Service { return &service{r: r, cats: cats} }

func (s *service) validate(ctx context.Context, p *model.Product) error {
	if p.Name == "" || p.CategoryID == 0 || p.CountInStock < 0 {
		return makeErr(ErrBadInput)
	}
	if _, err := s.cats.ByID(ctx, p.CategoryID); err != nil {
		if errors.Is(err, categoryrepo.ErrNotFound) {
			return makeErr(ErrBadCategory)
		}
		return err
	}
	return nil
}

func (s *service) Create(ctx context.Context, p *model.Product) error {
	if err := s.validate(ctx, p); err != nil {
		return err
	}
	return s.r.Create(ctx, p)
}

func (s *service) Update(ctx context.Context, p *model.Product) error {
	if err := s.validate(ctx, p); err != nil {
		return err
	}
	return mapped(s.r.Update(ctx, p))
}

func (s *service) Delete(ctx context.Context, id int64) error {
	return mapped(s.r.Delete(ctx, id))
}

func (s *service) ByID(ctx context.Context, id int64) (*model.Product, error) {
	p, err := s.r.ByID(ctx, id)
	if err != nil {
		return nil, mapped(err)
	}
	return p, nil
}

func (s *service) List(ctx context.Context, f Filter) ([]model.Product, error) {
	return s.r.List(ctx, f)
}

func (s *service) AddReview(ctx context.Context, rv *model.ProductReview) error {
	if rv.Rating < 1 || rv.Rating > 5 {
		return makeErr(ErrBadInput)
	}
	err := s.r.AddReview(ctx, rv)
	if errors.Is(err, productrepo.ErrAlreadyReviewed) {
		return makeErr(ErrAlreadyReviewed)
	}
	return mapped(err)
}

func mapped(err error) error {
	if errors.Is(err, productrepo.ErrNotFound) {
		return makeErr(ErrNotFound)
	}
	return err
}
