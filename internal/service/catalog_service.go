package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yogitridirgantara/POS-DR/internal/cache"
	"github.com/yogitridirgantara/POS-DR/internal/domain"
	"github.com/yogitridirgantara/POS-DR/internal/repository"
)

var (
	ErrInvalidProductName = errors.New("product name is required")
	ErrInvalidPrice       = errors.New("price must not be negative")
	ErrInvalidCategory    = errors.New("category must be food or beverage")
)

// CatalogService fronts the product store with a cache-aside read path. The
// product list rarely changes during a shift, so reads come from Redis and
// every mutation invalidates the cached list.
type CatalogService struct {
	repo  repository.ProductRepository
	cache cache.ProductCache
	sfg   singleflight.Group // Prevents cache stampede
}

func NewCatalogService(repo repository.ProductRepository, cache cache.ProductCache) *CatalogService {
	return &CatalogService{
		repo:  repo,
		cache: cache,
	}
}

// ListProducts returns the catalog sorted by name ascending.
func (s *CatalogService) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	// Use singleflight so concurrent cache misses trigger one repo query
	v, err, _ := s.sfg.Do("products", func() (interface{}, error) {
		products, err := s.cache.Get(ctx)
		if err == nil {
			return products, nil
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("cache get error: %v \n", err) // log cache error but continue
		}

		products, errGet := s.repo.GetAllProducts(ctx)
		if errGet != nil {
			return nil, errGet
		}

		go func() {
			errSet := s.cache.Set(context.Background(), products)
			if errSet != nil {
				log.Printf("cache set error: %v \n", errSet)
			}
		}()

		return products, nil
	})

	if err != nil {
		return nil, err
	}

	return v.([]*domain.Product), nil
}

// ListProductsByCategory filters the cached list on one menu category.
func (s *CatalogService) ListProductsByCategory(ctx context.Context, category domain.Category) ([]*domain.Product, error) {
	all, err := s.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]*domain.Product, 0, len(all))
	for _, p := range all {
		if p.Category == category {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return s.repo.GetProduct(ctx, id)
}

func (s *CatalogService) CreateProduct(ctx context.Context, p *domain.Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}

	if errCreate := s.repo.CreateProduct(ctx, p); errCreate != nil {
		log.Printf("repo create product error: %v \n", errCreate)
		return errCreate
	}

	s.invalidateCache()
	return nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, p *domain.Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}

	if errUpdate := s.repo.UpdateProduct(ctx, p); errUpdate != nil {
		log.Printf("repo update product error: %v \n", errUpdate)
		return errUpdate
	}

	s.invalidateCache()
	return nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	if errDelete := s.repo.DeleteProduct(ctx, id); errDelete != nil {
		log.Printf("repo delete product error: %v \n", errDelete)
		return errDelete
	}

	s.invalidateCache()
	return nil
}

func validateProduct(p *domain.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrInvalidProductName
	}
	if p.Price < 0 {
		return ErrInvalidPrice
	}
	category, ok := domain.ParseCategory(string(p.Category))
	if !ok {
		return ErrInvalidCategory
	}
	p.Category = category // store the normalized form
	return nil
}

func (s *CatalogService) invalidateCache() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx); err != nil {
		log.Printf("cache invalidate error: %v \n", err)
	}
}
