package service

import (
	"context"

	"github.com/tm-acme-shop/acme-shop-storefront/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront/internal/repository"
)

const (
	newCollectionSize = 8
	popularSize       = 4
)

// CatalogService manages the product catalog.
type CatalogService struct {
	productRepo repository.ProductRepository
	logger      *logging.Logger
}

func NewCatalogService(productRepo repository.ProductRepository, logger *logging.Logger) *CatalogService {
	return &CatalogService{productRepo: productRepo, logger: logger}
}

func (s *CatalogService) AddProduct(ctx context.Context, req *models.AddProductRequest) (*models.Product, error) {
	if err := ValidateAddProductRequest(req); err != nil {
		return nil, err
	}
	return s.productRepo.Create(ctx, req)
}

func (s *CatalogService) RemoveProduct(ctx context.Context, id int) error {
	s.logger.Info("Removing product", logging.Fields{"product_id": id})
	return s.productRepo.Delete(ctx, id)
}

func (s *CatalogService) AllProducts(ctx context.Context) ([]*models.Product, error) {
	return s.productRepo.List(ctx)
}

// NewCollections returns the most recently added products.
func (s *CatalogService) NewCollections(ctx context.Context) ([]*models.Product, error) {
	return s.productRepo.Latest(ctx, newCollectionSize)
}

// PopularIn returns the first few products of a category.
func (s *CatalogService) PopularIn(ctx context.Context, category string) ([]*models.Product, error) {
	return s.productRepo.ListByCategory(ctx, category, popularSize)
}
