package mock

import (
	"sync"

	"socialpost/app/models"
	"socialpost/app/repositories"
)

// PostRepository is an in-memory repositories.PostRepository. Stored posts are
// copied on the way in and out so callers never share state with the store.
type PostRepository struct {
	posts  []*models.Post
	nextID int
	mutex  sync.RWMutex
}

func NewPostRepository() *PostRepository {
	return &PostRepository{nextID: 1}
}

func (m *PostRepository) Clear() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.posts = nil
	m.nextID = 1
}

func (m *PostRepository) Create(post *models.Post) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	post.ID = m.nextID
	m.nextID++
	m.posts = append(m.posts, post.Clone())
	return nil
}

func (m *PostRepository) GetByID(id int) (*models.Post, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	i := m.indexOf(id)
	if i < 0 {
		return nil, repositories.ErrNotFound
	}
	return m.posts[i].Clone(), nil
}

func (m *PostRepository) List() ([]*models.Post, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	posts := make([]*models.Post, 0, len(m.posts))
	for _, p := range m.posts {
		posts = append(posts, p.Clone())
	}
	return posts, nil
}

func (m *PostRepository) Update(id int, mutate func(post *models.Post) error) (*models.Post, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return nil, repositories.ErrNotFound
	}
	post := m.posts[i].Clone()
	if err := mutate(post); err != nil {
		return nil, err
	}
	post.ID = id
	post.Version = m.posts[i].Version + 1
	m.posts[i] = post
	return post.Clone(), nil
}

func (m *PostRepository) Delete(id int) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return repositories.ErrNotFound
	}
	m.posts = append(m.posts[:i], m.posts[i+1:]...)
	return nil
}

func (m *PostRepository) indexOf(id int) int {
	for i, p := range m.posts {
		if p.ID == id {
			return i
		}
	}
	return -1
}
