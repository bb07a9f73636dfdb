package repositories

import (
	"sync"

	"socialpost/app/models"

	"github.com/shopspring/decimal"
)

// ProductCatalog is an in-memory ProductRepository preserving catalog order.
type ProductCatalog struct {
	mutex    sync.RWMutex
	products []*models.Product
}

// NewProductCatalog creates a catalog holding the given products.
func NewProductCatalog(products ...models.Product) *ProductCatalog {
	c := &ProductCatalog{}
	for i := range products {
		p := products[i]
		c.products = append(c.products, &p)
	}
	return c
}

// DefaultProducts is the demo catalog shown before a shop is connected.
func DefaultProducts() []models.Product {
	return []models.Product{
		{ID: "1", Title: "Premium Wireless Headphones", Image: "https://via.placeholder.com/60x60?text=Headphones", Price: decimal.RequireFromString("199.99")},
		{ID: "2", Title: "Smart Fitness Watch", Image: "https://via.placeholder.com/60x60?text=Watch", Price: decimal.RequireFromString("299.99")},
		{ID: "3", Title: "Organic Cotton T-Shirt", Image: "https://via.placeholder.com/60x60?text=T-Shirt", Price: decimal.RequireFromString("29.99")},
		{ID: "4", Title: "Handcrafted Ceramic Mug", Image: "https://via.placeholder.com/60x60?text=Mug", Price: decimal.RequireFromString("19.99")},
	}
}

// List returns copies of every product.
func (c *ProductCatalog) List() ([]*models.Product, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	out := make([]*models.Product, 0, len(c.products))
	for _, p := range c.products {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

// GetByID retrieves a product by ID
func (c *ProductCatalog) GetByID(id string) (*models.Product, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	for _, p := range c.products {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}
