package blog

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/bloglist/internal/telemetry/tracing"
)

// manual caching of statements not needed:
// https://github.com/jackc/pgx/wiki/Automatic-Prepared-Statement-Caching

var _ blogRepo = (*PsqlRepo)(nil)

// PsqlSchema creates the table PsqlRepo works against.
const PsqlSchema = `
CREATE TABLE IF NOT EXISTS public.blog
(
    id     SERIAL PRIMARY KEY,
    title  VARCHAR NOT NULL,
    author VARCHAR NOT NULL DEFAULT '',
    url    VARCHAR NOT NULL,
    likes  INTEGER NOT NULL DEFAULT 0
);
`

// PsqlRepo is the postgres backed alternative to Repo.
// Ids are serial integers rendered as decimal strings.
type PsqlRepo struct {
	db *pgxpool.Pool
}

func NewPsqlRepo(db *pgxpool.Pool) *PsqlRepo {
	return &PsqlRepo{
		db: db,
	}
}

func parseSerialID(id string) (int, error) {
	n, err := strconv.Atoi(id)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %s", ErrInvalidID, id)
	}
	return n, nil
}

func (r *PsqlRepo) All(ctx context.Context) ([]*Blog, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "blogPsqlRepo.All")
	defer span.End()

	rows, err := r.db.Query(
		ctx,
		`SELECT id, title, author, url, likes FROM blog ORDER BY id ASC;`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blogs := make([]*Blog, 0)
	for rows.Next() {
		b, err := scanBlog(rows)
		if err != nil {
			return nil, err
		}
		blogs = append(blogs, b)
	}

	return blogs, rows.Err()
}

func (r *PsqlRepo) Get(ctx context.Context, id string) (*Blog, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "blogPsqlRepo.Get")
	span.SetAttributes(attribute.String("id", id))
	defer span.End()

	serialID, err := parseSerialID(id)
	if err != nil {
		return nil, err
	}

	row := r.db.QueryRow(
		ctx,
		`SELECT id, title, author, url, likes FROM blog WHERE id = $1;`,
		serialID,
	)
	b, err := scanBlog(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBlogNotFound
		}
		return nil, err
	}
	return b, nil
}

func (r *PsqlRepo) Add(ctx context.Context, blog *Blog) (*Blog, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "blogPsqlRepo.Add")
	defer span.End()

	if err := blog.Validate(); err != nil {
		return nil, err
	}

	var id int
	if err := r.db.QueryRow(
		ctx,
		`INSERT INTO blog (title, author, url, likes) VALUES ($1, $2, $3, $4) RETURNING id;`,
		blog.Title, blog.Author, blog.URL, blog.Likes,
	).Scan(&id); err != nil {
		return nil, fmt.Errorf("insert blog: %w", err)
	}

	return &Blog{
		ID:     strconv.Itoa(id),
		Title:  blog.Title,
		Author: blog.Author,
		URL:    blog.URL,
		Likes:  blog.Likes,
	}, nil
}

func (r *PsqlRepo) Update(ctx context.Context, id string, blog *Blog) (*Blog, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "blogPsqlRepo.Update")
	span.SetAttributes(attribute.String("id", id))
	defer span.End()

	if err := blog.Validate(); err != nil {
		return nil, err
	}

	serialID, err := parseSerialID(id)
	if err != nil {
		return nil, err
	}

	row := r.db.QueryRow(
		ctx,
		`
			UPDATE blog SET title = $1, author = $2, url = $3, likes = $4
			WHERE id = $5
			RETURNING id, title, author, url, likes;
		`,
		blog.Title, blog.Author, blog.URL, blog.Likes, serialID,
	)
	updated, err := scanBlog(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBlogNotFound
		}
		return nil, fmt.Errorf("update blog %s: %w", id, err)
	}
	return updated, nil
}

func (r *PsqlRepo) Delete(ctx context.Context, id string) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "blogPsqlRepo.Delete")
	span.SetAttributes(attribute.String("id", id))
	defer span.End()

	serialID, err := parseSerialID(id)
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, `DELETE FROM blog WHERE id = $1`, serialID)
	if err != nil {
		return fmt.Errorf("delete blog %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		log.Tracef("blog %s not deleted, not found", id)
	}
	return nil
}

func (r *PsqlRepo) Count(ctx context.Context) (int, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "blogPsqlRepo.Count")
	defer span.End()

	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM blog`).Scan(&count); err != nil {
		return -1, err
	}
	return count, nil
}

func scanBlog(row pgx.Row) (*Blog, error) {
	var id int
	var b Blog
	if err := row.Scan(&id, &b.Title, &b.Author, &b.URL, &b.Likes); err != nil {
		return nil, err
	}
	b.ID = strconv.Itoa(id)
	return &b, nil
}
