package blog

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/bloglist/internal/telemetry/tracing"
)

const CollectionName = "blogs"

var _ blogRepo = (*Repo)(nil)

// blogDocument is the stored shape of a blog. It never leaves this file;
// everything returned to callers is converted with toBlog.
type blogDocument struct {
	ID     primitive.ObjectID `bson:"_id"`
	Title  string             `bson:"title"`
	Author string             `bson:"author"`
	URL    string             `bson:"url"`
	Likes  int                `bson:"likes"`
}

func (d *blogDocument) toBlog() *Blog {
	return &Blog{
		ID:     d.ID.Hex(),
		Title:  d.Title,
		Author: d.Author,
		URL:    d.URL,
		Likes:  d.Likes,
	}
}

// Repo keeps blogs in a single mongo collection.
type Repo struct {
	collection *mongo.Collection
}

func NewRepo(db *mongo.Database) *Repo {
	return &Repo{
		collection: db.Collection(CollectionName),
	}
}

func parseObjectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %s", ErrInvalidID, id)
	}
	return oid, nil
}

func (r *Repo) All(ctx context.Context) ([]*Blog, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "blogRepo.All")
	defer span.End()

	cursor, err := r.collection.Find(
		ctx,
		bson.D{},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("find blogs: %w", err)
	}

	var docs []blogDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode blogs: %w", err)
	}

	blogs := make([]*Blog, 0, len(docs))
	for i := range docs {
		blogs = append(blogs, docs[i].toBlog())
	}
	return blogs, nil
}

func (r *Repo) Get(ctx context.Context, id string) (*Blog, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "blogRepo.Get")
	span.SetAttributes(attribute.String("id", id))
	defer span.End()

	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	var doc blogDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrBlogNotFound
		}
		return nil, fmt.Errorf("find blog %s: %w", id, err)
	}

	return doc.toBlog(), nil
}

func (r *Repo) Add(ctx context.Context, blog *Blog) (*Blog, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "blogRepo.Add")
	defer span.End()

	if err := blog.Validate(); err != nil {
		return nil, err
	}

	doc := blogDocument{
		ID:     primitive.NewObjectID(),
		Title:  blog.Title,
		Author: blog.Author,
		URL:    blog.URL,
		Likes:  blog.Likes,
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert blog: %w", err)
	}

	log.Tracef("blog %s added", doc.ID.Hex())

	return doc.toBlog(), nil
}

// Update overwrites title, author, url and likes of the blog with the given id.
// The id itself is never changed.
func (r *Repo) Update(ctx context.Context, id string, blog *Blog) (*Blog, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "blogRepo.Update")
	span.SetAttributes(attribute.String("id", id))
	defer span.End()

	if err := blog.Validate(); err != nil {
		return nil, err
	}

	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	var doc blogDocument
	err = r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{
			"title":  blog.Title,
			"author": blog.Author,
			"url":    blog.URL,
			"likes":  blog.Likes,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrBlogNotFound
		}
		return nil, fmt.Errorf("update blog %s: %w", id, err)
	}

	return doc.toBlog(), nil
}

// Delete removes the blog if it exists. Deleting a missing blog is not an error.
func (r *Repo) Delete(ctx context.Context, id string) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "blogRepo.Delete")
	span.SetAttributes(attribute.String("id", id))
	defer span.End()

	oid, err := parseObjectID(id)
	if err != nil {
		return err
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete blog %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		log.Tracef("blog %s not deleted, not found", id)
	}

	return nil
}

func (r *Repo) Count(ctx context.Context) (int, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "blogRepo.Count")
	defer span.End()

	count, err := r.collection.CountDocuments(ctx, bson.D{})
	if err != nil {
		return -1, fmt.Errorf("count blogs: %w", err)
	}
	return int(count), nil
}
