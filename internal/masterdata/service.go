package masterdata

import (
	"context"
	"fmt"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Service provides master-data lookups and light CRUD for the thin HTTP layer.
type Service struct {
	repo *Repository
}

// NewService constructs a masterdata service.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetProduct(ctx context.Context, id int64) (Product, error) {
	return s.repo.GetProduct(ctx, id)
}

func (s *Service) GetPartner(ctx context.Context, id int64) (Partner, error) {
	return s.repo.GetPartner(ctx, id)
}

func (s *Service) GetTax(ctx context.Context, id int64) (Tax, error) {
	return s.repo.GetTax(ctx, id)
}

func (s *Service) GetAccount(ctx context.Context, id int64) (Account, error) {
	return s.repo.GetAccount(ctx, id)
}

func (s *Service) CreateProduct(ctx context.Context, req CreateProductRequest) (Product, error) {
	if req.TaxID != nil {
		if _, err := s.repo.GetTax(ctx, *req.TaxID); err != nil {
			return Product{}, fmt.Errorf("%w: tax %d", shared.ErrReferential, *req.TaxID)
		}
	}
	p := Product{
		Code:             req.Code,
		Name:             req.Name,
		SalesPrice:       req.SalesPrice,
		PurchasePrice:    req.PurchasePrice,
		HSNCode:          req.HSNCode,
		TaxID:            req.TaxID,
		IncomeAccountID:  req.IncomeAccountID,
		ExpenseAccountID: req.ExpenseAccountID,
		IsActive:         true,
	}
	id, err := s.repo.CreateProduct(ctx, p)
	if err != nil {
		return Product{}, err
	}
	return s.repo.GetProduct(ctx, id)
}

func (s *Service) CreatePartner(ctx context.Context, req CreatePartnerRequest) (Partner, error) {
	p := Partner{
		Code:     req.Code,
		Name:     req.Name,
		Kind:     req.Kind,
		Email:    req.Email,
		Phone:    req.Phone,
		IsActive: true,
	}
	id, err := s.repo.CreatePartner(ctx, p)
	if err != nil {
		return Partner{}, err
	}
	return s.repo.GetPartner(ctx, id)
}

func (s *Service) CreateTax(ctx context.Context, req CreateTaxRequest) (Tax, error) {
	id, err := s.repo.CreateTax(ctx, Tax{Name: req.Name, Method: req.Method, Rate: req.Rate})
	if err != nil {
		return Tax{}, err
	}
	return s.repo.GetTax(ctx, id)
}

func (s *Service) CreateAccount(ctx context.Context, req CreateAccountRequest) (Account, error) {
	id, err := s.repo.CreateAccount(ctx, Account{Code: req.Code, Name: req.Name, Type: req.Type})
	if err != nil {
		return Account{}, err
	}
	return s.repo.GetAccount(ctx, id)
}

func (s *Service) ListProducts(ctx context.Context, params shared.ListParams) ([]Product, int, error) {
	return s.repo.ListProducts(ctx, params)
}

func (s *Service) ListPartners(ctx context.Context, kind PartnerKind, params shared.ListParams) ([]Partner, int, error) {
	return s.repo.ListPartners(ctx, kind, params)
}

func (s *Service) ListTaxes(ctx context.Context) ([]Tax, error) {
	return s.repo.ListTaxes(ctx)
}

func (s *Service) ListAccounts(ctx context.Context) ([]Account, error) {
	return s.repo.ListAccounts(ctx)
}
