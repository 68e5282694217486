package blog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/bloglist/internal/telemetry/metrics"
	"github.com/2beens/bloglist/internal/telemetry/tracing"
	"github.com/2beens/bloglist/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=repo_mocks_test.go -package=blog_test

type blogRepo interface {
	All(ctx context.Context) ([]*Blog, error)
	Get(ctx context.Context, id string) (*Blog, error)
	Add(ctx context.Context, blog *Blog) (*Blog, error)
	Update(ctx context.Context, id string, blog *Blog) (*Blog, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// blogRequest is the accepted request body. Pointers tell a missing field
// apart from a zero value.
type blogRequest struct {
	Title  *string `json:"title"`
	Author *string `json:"author"`
	URL    *string `json:"url"`
	Likes  *int    `json:"likes"`
}

func (req blogRequest) toBlog() *Blog {
	b := &Blog{}
	if req.Title != nil {
		b.Title = *req.Title
	}
	if req.Author != nil {
		b.Author = *req.Author
	}
	if req.URL != nil {
		b.URL = *req.URL
	}
	if req.Likes != nil {
		b.Likes = *req.Likes
	}
	return b
}

type Handler struct {
	repo    blogRepo
	metrics *metrics.Manager
}

func NewHandler(repo blogRepo, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:    repo,
		metrics: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/api/blogs", handler.HandleList).Methods("GET").Name("list-blogs")
	router.HandleFunc("/api/blogs", handler.HandleAdd).Methods("POST", "OPTIONS").Name("new-blog")
	router.HandleFunc("/api/blogs/{id}", handler.HandleGet).Methods("GET").Name("get-blog")
	router.HandleFunc("/api/blogs/{id}", handler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-blog")
	router.HandleFunc("/api/blogs/{id}", handler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-blog")
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.blogs.list")
	defer span.End()

	blogs, err := handler.repo.All(ctx)
	if err != nil {
		log.Errorf("list blogs: %s", err)
		pkg.WriteJSONError(w, "failed to get blogs", http.StatusInternalServerError)
		return
	}
	if blogs == nil {
		blogs = []*Blog{}
	}

	pkg.WriteJSONResponse(w, blogs, http.StatusOK)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.blogs.get")
	defer span.End()

	id := mux.Vars(r)["id"]
	span.SetAttributes(attribute.String("id", id))

	b, err := handler.repo.Get(ctx, id)
	if err != nil {
		handler.writeRepoError(w, "get blog", id, err)
		return
	}

	pkg.WriteJSONResponse(w, b, http.StatusOK)
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.blogs.new")
	defer span.End()

	req, ok := decodeBlogRequest(w, r)
	if !ok {
		return
	}

	if req.Title == nil || *req.Title == "" {
		pkg.WriteJSONError(w, "title missing", http.StatusBadRequest)
		return
	}
	if req.URL == nil || *req.URL == "" {
		pkg.WriteJSONError(w, "url missing", http.StatusBadRequest)
		return
	}
	// missing likes are defaulted to 0 by toBlog
	if req.Likes != nil && *req.Likes < 0 {
		pkg.WriteJSONError(w, "likes cannot be negative", http.StatusBadRequest)
		return
	}

	added, err := handler.repo.Add(ctx, req.toBlog())
	if err != nil {
		handler.writeRepoError(w, "add blog", "", err)
		return
	}

	if handler.metrics != nil {
		handler.metrics.CounterBlogsCreated.Inc()
	}
	log.Debugf("new blog added: %s [%s]", added.ID, added.Title)

	pkg.WriteJSONResponse(w, added, http.StatusCreated)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.blogs.update")
	defer span.End()

	id := mux.Vars(r)["id"]
	span.SetAttributes(attribute.String("id", id))

	req, ok := decodeBlogRequest(w, r)
	if !ok {
		return
	}

	// full overwrite: every field not sent is reset to its zero value
	updated, err := handler.repo.Update(ctx, id, req.toBlog())
	if err != nil {
		handler.writeRepoError(w, "update blog", id, err)
		return
	}

	log.Debugf("blog updated: %s", updated.ID)
	pkg.WriteJSONResponse(w, updated, http.StatusOK)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.blogs.delete")
	defer span.End()

	id := mux.Vars(r)["id"]
	span.SetAttributes(attribute.String("id", id))

	if err := handler.repo.Delete(ctx, id); err != nil {
		handler.writeRepoError(w, "delete blog", id, err)
		return
	}

	if handler.metrics != nil {
		handler.metrics.CounterBlogsDeleted.Inc()
	}

	w.WriteHeader(http.StatusNoContent)
}

func decodeBlogRequest(w http.ResponseWriter, r *http.Request) (blogRequest, bool) {
	var req blogRequest
	if !strings.HasPrefix(r.Header.Get("Content-Type"), pkg.ContentType.JSON) {
		pkg.WriteJSONError(w, "invalid content type", http.StatusBadRequest)
		return req, false
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		log.Tracef("blog request, unmarshal json: %s", err)
		pkg.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return req, false
	}

	return req, true
}

func (handler *Handler) writeRepoError(w http.ResponseWriter, op, id string, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		pkg.WriteJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrInvalidID):
		pkg.WriteJSONError(w, "malformed id", http.StatusBadRequest)
	case errors.Is(err, ErrBlogNotFound):
		pkg.WriteJSONError(w, "blog not found", http.StatusNotFound)
	default:
		log.Errorf("%s [%s]: %s", op, id, err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
	}
}
