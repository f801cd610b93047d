package usecase

import (
	"context"
	"sort"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"

	"taxdesk-backend/internal/domain"
	"taxdesk-backend/internal/logger"
	"taxdesk-backend/internal/validation"
)

type PackageRepo interface {
	Create(ctx context.Context, p *domain.Package) error
	Replace(ctx context.Context, id string, p *domain.Package) (bool, error)
	SoftDelete(ctx context.Context, id string) (bool, error)
	Get(ctx context.Context, id string) (*domain.Package, error)
	ListActive(ctx context.Context) ([]domain.Package, error)
	ListSummaries(ctx context.Context) ([]domain.PackageSummary, error)
}

type CatalogCache interface {
	Packages(ctx context.Context) ([]domain.Package, bool)
	StorePackages(ctx context.Context, pkgs []domain.Package)
	Invalidate(ctx context.Context)
}

type PackageService struct {
	Repo      PackageRepo
	Cache     CatalogCache
	Validator *validatorv10.Validate
	Log       *logger.Logger
}

func (s *PackageService) Create(ctx context.Context, actor domain.Actor, in domain.PackageInput) (*domain.Package, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	p, err := s.build(in)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	s.Log.Info("package created", "package_id", p.ID, "fields", len(p.Fields))
	return s.Repo.Get(ctx, p.ID)
}

func (s *PackageService) Update(ctx context.Context, actor domain.Actor, id string, in domain.PackageInput) (*domain.Package, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	p, err := s.build(in)
	if err != nil {
		return nil, err
	}
	found, err := s.Repo.Replace(ctx, id, p)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound("package")
	}
	s.invalidate(ctx)
	s.Log.Info("package updated", "package_id", id, "fields", len(p.Fields))
	return s.Repo.Get(ctx, id)
}

// Delete soft-deletes a package. Repeating it succeeds.
func (s *PackageService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	found, err := s.Repo.SoftDelete(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound("package")
	}
	s.invalidate(ctx)
	s.Log.Info("package deleted", "package_id", id)
	return nil
}

// Get returns nil for unknown and soft-deleted packages.
func (s *PackageService) Get(ctx context.Context, id string) (*domain.Package, error) {
	return s.Repo.Get(ctx, id)
}

func (s *PackageService) ListActive(ctx context.Context) ([]domain.Package, error) {
	if s.Cache != nil {
		if pkgs, ok := s.Cache.Packages(ctx); ok {
			return pkgs, nil
		}
	}
	pkgs, err := s.Repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if s.Cache != nil {
		s.Cache.StorePackages(ctx, pkgs)
	}
	return pkgs, nil
}

func (s *PackageService) Summaries(ctx context.Context, actor domain.Actor) ([]domain.PackageSummary, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.Repo.ListSummaries(ctx)
}

func (s *PackageService) invalidate(ctx context.Context) {
	if s.Cache != nil {
		s.Cache.Invalidate(ctx)
	}
}

// build validates the input and turns it into a package whose field
// orders are 0..n-1, keeping the submitted relative order.
func (s *PackageService) build(in domain.PackageInput) (*domain.Package, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Image = strings.TrimSpace(in.Image)
	in.Description = strings.TrimSpace(in.Description)
	for i := range in.Fields {
		in.Fields[i].FieldName = strings.TrimSpace(in.Fields[i].FieldName)
		in.Fields[i].FieldLabel = strings.TrimSpace(in.Fields[i].FieldLabel)
	}
	if err := s.Validator.Struct(in); err != nil {
		return nil, &ValidationError{Fields: validation.Fields(err)}
	}
	idx := make([]int, len(in.Fields))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return in.Fields[idx[a]].Order < in.Fields[idx[b]].Order })

	p := &domain.Package{
		Name:        in.Name,
		Image:       in.Image,
		Description: in.Description,
		Price:       in.Price,
		Fields:      make([]domain.PackageField, 0, len(in.Fields)),
	}
	for rank, i := range idx {
		f := in.Fields[i]
		pf := domain.PackageField{
			FieldName:  f.FieldName,
			FieldLabel: f.FieldLabel,
			FieldType:  f.FieldType,
			IsRequired: f.IsRequired,
			Order:      rank,
		}
		if f.FieldType == domain.FieldSelect {
			pf.Options = append([]string(nil), f.Options...)
		}
		p.Fields = append(p.Fields, pf)
	}
	return p, nil
}
