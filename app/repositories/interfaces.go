package repositories

import "socialpost/app/models"

// PostRepository defines the interface for post data access
type PostRepository interface {
	// Create stores the post and assigns its ID.
	Create(post *models.Post) error
	GetByID(id int) (*models.Post, error)
	// List returns every post in insertion order.
	List() ([]*models.Post, error)
	// Update runs mutate against the stored post and persists the result
	// atomically, bumping its version. The ID cannot be changed.
	Update(id int, mutate func(post *models.Post) error) (*models.Post, error)
	Delete(id int) error
}

// ProductRepository defines the interface for the product catalog
type ProductRepository interface {
	List() ([]*models.Product, error)
	GetByID(id string) (*models.Product, error)
}
