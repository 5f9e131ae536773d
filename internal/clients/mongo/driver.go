package mongo

import (
	"context"

	"github.com/samber/oops"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// driver is the seam between the client singleton and the mongo driver,
// so Init and Shutdown can be exercised without a server.
type driver interface {
	Connect(ctx context.Context, opts *options.ClientOptions) (*mongo.Client, error)
	Ping(ctx context.Context, cli *mongo.Client) error
	Disconnect(ctx context.Context, cli *mongo.Client) error
}

// credentialStoreDriver talks to the server that holds the users collection.
type credentialStoreDriver struct{}

func (credentialStoreDriver) Connect(_ context.Context, opts *options.ClientOptions) (*mongo.Client, error) {
	cli, err := mongo.Connect(opts)
	if err != nil {
		return nil, oops.In("credential-store").Code("MONGO_CONNECT").Wrap(err)
	}
	return cli, nil
}

// Ping requires the primary: every user write goes there.
func (credentialStoreDriver) Ping(ctx context.Context, cli *mongo.Client) error {
	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		return oops.In("credential-store").Code("MONGO_PING").Wrap(err)
	}
	return nil
}

func (credentialStoreDriver) Disconnect(ctx context.Context, cli *mongo.Client) error {
	if err := cli.Disconnect(ctx); err != nil {
		return oops.In("credential-store").Code("MONGO_DISCONNECT").Wrap(err)
	}
	return nil
}
