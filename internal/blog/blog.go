package blog

import (
	"errors"
	"fmt"
)

var (
	ErrBlogNotFound = errors.New("blog not found")
	ErrInvalidID    = errors.New("invalid blog id")
	ErrValidation   = errors.New("blog validation failed")
	ErrTitleMissing = fmt.Errorf("%w: title missing", ErrValidation)
	ErrURLMissing   = fmt.Errorf("%w: url missing", ErrValidation)
)

type Blog struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	URL    string `json:"url"`
	Likes  int    `json:"likes"`
}

// Validate checks the fields every persisted blog must carry.
func (b *Blog) Validate() error {
	if b.Title == "" {
		return ErrTitleMissing
	}
	if b.URL == "" {
		return ErrURLMissing
	}
	return nil
}
