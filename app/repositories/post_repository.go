package repositories

import (
	"errors"
	"fmt"
	"sync"

	"socialpost/app/models"

	"github.com/dgraph-io/badger/v4"
)

// createRetries bounds how often Create retries a conflicting id allocation.
const createRetries = 10

// BadgerPostRepository implements PostRepository using BadgerDB
type BadgerPostRepository struct {
	db *badger.DB
	// createMu serialises id allocation so creates in this process never
	// conflict on the sequence key.
	createMu sync.Mutex
}

// NewBadgerPostRepository creates a new BadgerPostRepository
func NewBadgerPostRepository(db *badger.DB) *BadgerPostRepository {
	return &BadgerPostRepository{db: db}
}

// Create creates a new post and assigns its ID
func (r *BadgerPostRepository) Create(post *models.Post) error {
	r.createMu.Lock()
	defer r.createMu.Unlock()

	var err error
	for attempt := 0; attempt < createRetries; attempt++ {
		err = r.db.Update(func(txn *badger.Txn) error {
			id, err := getNextID(txn, PostSeqKey)
			if err != nil {
				return err
			}
			stored := *post
			stored.ID = id

			data, err := marshalEntity(&stored)
			if err != nil {
				return err
			}
			if err := txn.Set(postKey(id), data); err != nil {
				return err
			}
			post.ID = id
			return nil
		})
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
	}
	if err != nil {
		post.ID = 0
	}
	return translate(err)
}

// GetByID retrieves a post by ID
func (r *BadgerPostRepository) GetByID(id int) (*models.Post, error) {
	var post models.Post

	err := r.db.View(func(txn *badger.Txn) error {
		return readPost(txn, id, &post)
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// List retrieves all posts in insertion order
func (r *BadgerPostRepository) List() ([]*models.Post, error) {
	posts := []*models.Post{}
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(PostKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var post models.Post
			err := it.Item().Value(func(val []byte) error {
				return unmarshalEntity(val, &post)
			})
			if err != nil {
				return fmt.Errorf("failed to unmarshal post: %v", err)
			}
			posts = append(posts, &post)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// Update applies mutate to a stored post inside a single transaction
func (r *BadgerPostRepository) Update(id int, mutate func(post *models.Post) error) (*models.Post, error) {
	var post models.Post
	err := r.db.Update(func(txn *badger.Txn) error {
		if err := readPost(txn, id, &post); err != nil {
			return err
		}
		version := post.Version
		if err := mutate(&post); err != nil {
			return err
		}
		post.ID = id
		post.Version = version + 1

		data, err := marshalEntity(&post)
		if err != nil {
			return err
		}
		return txn.Set(postKey(id), data)
	})
	if err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

// Delete deletes a post by ID
func (r *BadgerPostRepository) Delete(id int) error {
	return translate(r.db.Update(func(txn *badger.Txn) error {
		key := postKey(id)

		// Verify post exists
		_, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		return txn.Delete(key)
	}))
}

func readPost(txn *badger.Txn, id int, post *models.Post) error {
	item, err := txn.Get(postKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return unmarshalEntity(val, post)
	})
}

// translate maps badger's transaction conflict onto ErrConflict.
func translate(err error) error {
	if errors.Is(err, badger.ErrConflict) {
		return ErrConflict
	}
	return err
}
