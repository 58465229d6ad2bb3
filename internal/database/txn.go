package database

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// TxRunner executes a function inside a single commit/rollback scope.
// Repositories take the context they are given, so everything called with
// the transaction's context lands in the same atomic unit.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type MongoTxRunner struct {
	client *mongo.Client
}

func NewTxRunner(db *MongodbDB) TxRunner {
	return &MongoTxRunner{client: db.Client}
}

func (r *MongoTxRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}
