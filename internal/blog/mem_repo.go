package blog

import (
	"context"
	"strconv"
	"sync"
)

var _ blogRepo = (*MemRepo)(nil)

// MemRepo keeps blogs in memory. Used in tests and for local runs without a db.
type MemRepo struct {
	mutex  sync.Mutex
	posts  map[string]*Blog
	order  []string
	lastID int
}

func NewMemRepo() *MemRepo {
	return &MemRepo{
		posts: make(map[string]*Blog),
	}
}

func (r *MemRepo) All(_ context.Context) ([]*Blog, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	blogs := make([]*Blog, 0, len(r.order))
	for _, id := range r.order {
		b := *r.posts[id]
		blogs = append(blogs, &b)
	}
	return blogs, nil
}

func (r *MemRepo) Get(_ context.Context, id string) (*Blog, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, err := parseSerialID(id); err != nil {
		return nil, err
	}

	b, ok := r.posts[id]
	if !ok {
		return nil, ErrBlogNotFound
	}
	found := *b
	return &found, nil
}

func (r *MemRepo) Add(_ context.Context, blog *Blog) (*Blog, error) {
	if err := blog.Validate(); err != nil {
		return nil, err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.lastID++
	stored := *blog
	stored.ID = strconv.Itoa(r.lastID)
	r.posts[stored.ID] = &stored
	r.order = append(r.order, stored.ID)

	added := stored
	return &added, nil
}

func (r *MemRepo) Update(_ context.Context, id string, blog *Blog) (*Blog, error) {
	if err := blog.Validate(); err != nil {
		return nil, err
	}
	if _, err := parseSerialID(id); err != nil {
		return nil, err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.posts[id]; !ok {
		return nil, ErrBlogNotFound
	}

	stored := *blog
	stored.ID = id
	r.posts[id] = &stored

	updated := stored
	return &updated, nil
}

func (r *MemRepo) Delete(_ context.Context, id string) error {
	if _, err := parseSerialID(id); err != nil {
		return err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.posts[id]; !ok {
		return nil
	}

	delete(r.posts, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *MemRepo) Count(_ context.Context) (int, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.posts), nil
}
