package db

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const mongoConnectTimeout = 10 * time.Second

type NewMongoClientParams struct {
	URI     string
	AppName string
}

// NewMongoClient connects to mongo and pings the primary. The returned client
// is shared by the whole process and must be closed with DisconnectMongo.
func NewMongoClient(ctx context.Context, params NewMongoClientParams) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(params.URI).
		SetAppName(params.AppName).
		SetConnectTimeout(mongoConnectTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		if dErr := client.Disconnect(context.Background()); dErr != nil {
			log.Errorf("disconnect mongo after failed ping: %s", dErr)
		}
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	log.Debugf("connected to mongo, app [%s]", params.AppName)
	return client, nil
}

func DisconnectMongo(ctx context.Context, client *mongo.Client) error {
	if client == nil {
		return nil
	}
	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongo: %w", err)
	}
	return nil
}
