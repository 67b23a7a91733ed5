// Package mongostore implements totp.Store on MongoDB with mongo-driver/v2.
//
// Users are documents in the secrets collection keyed by _id. Consumed time
// steps are documents in the used codes collection guarded by a unique index
// on (user, interval), created by EnsureIndexes.
package mongostore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	mongox "github.com/dmitrymomot/totpauth/pkg/mongo"
	"github.com/dmitrymomot/totpauth/pkg/totp"
)

const (
	SecretsCollection   = "totp_secrets"
	UsedCodesCollection = "totp_used_codes"
)

type secretDoc struct {
	User        string     `bson:"_id"`
	Secret      string     `bson:"secret"`
	Attempts    int        `bson:"attempts"`
	LockedUntil *time.Time `bson:"locked_until,omitempty"`
}

type usedCodeDoc struct {
	User     string `bson:"user"`
	Interval int64  `bson:"interval"`
}

// Store is a totp.Store backed by two MongoDB collections.
type Store struct {
	secrets *mongo.Collection
	used    *mongo.Collection
}

var _ totp.Store = (*Store)(nil)

// New returns a store on SecretsCollection and UsedCodesCollection of db.
// Call EnsureIndexes once before serving verifications.
func New(db *mongo.Database) *Store {
	return &Store{
		secrets: db.Collection(SecretsCollection),
		used:    db.Collection(UsedCodesCollection),
	}
}

// EnsureIndexes creates the unique (user, interval) index replay prevention
// depends on. It is idempotent.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.used.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user", Value: 1}, {Key: "interval", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("user_interval_unique"),
	})
	if err != nil {
		return errors.Join(totp.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Store) TryGetSecret(ctx context.Context, user string) (totp.UserState, bool, error) {
	var doc secretDoc
	err := s.secrets.FindOne(ctx, bson.D{{Key: "_id", Value: user}}).Decode(&doc)
	if mongox.IsNotFoundError(err) {
		return totp.UserState{}, false, nil
	}
	if err != nil {
		return totp.UserState{}, false, errors.Join(totp.ErrStoreUnavailable, err)
	}
	return doc.state(), true, nil
}

func (s *Store) CreateSecret(ctx context.Context, user, secret string) error {
	_, err := s.secrets.InsertOne(ctx, secretDoc{User: user, Secret: secret})
	if mongox.IsDuplicateKeyError(err) {
		return totp.ErrAlreadyEnrolled
	}
	if err != nil {
		return errors.Join(totp.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Store) CodeWasUsed(ctx context.Context, user string, interval int64) (bool, error) {
	n, err := s.used.CountDocuments(ctx,
		bson.D{{Key: "user", Value: user}, {Key: "interval", Value: interval}},
		options.Count().SetLimit(1),
	)
	if err != nil {
		return false, errors.Join(totp.ErrStoreUnavailable, err)
	}
	return n > 0, nil
}

func (s *Store) AddUsedCode(ctx context.Context, user string, interval int64) error {
	_, err := s.used.InsertOne(ctx, usedCodeDoc{User: user, Interval: interval})
	if mongox.IsDuplicateKeyError(err) {
		return totp.ErrCodeAlreadyUsed
	}
	if err != nil {
		return errors.Join(totp.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Store) CleanupUsedCodes(ctx context.Context, user string, before int64) error {
	_, err := s.used.DeleteMany(ctx, bson.D{
		{Key: "user", Value: user},
		{Key: "interval", Value: bson.D{{Key: "$lt", Value: before}}},
	})
	if err != nil {
		return errors.Join(totp.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Store) IncrementAttempts(ctx context.Context, user string) (int, error) {
	var doc secretDoc
	err := s.secrets.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: user}},
		bson.D{{Key: "$inc", Value: bson.D{{Key: "attempts", Value: 1}}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if mongox.IsNotFoundError(err) {
		return 0, totp.ErrNotEnrolled
	}
	if err != nil {
		return 0, errors.Join(totp.ErrStoreUnavailable, err)
	}
	return doc.Attempts, nil
}

func (s *Store) ResetAttempts(ctx context.Context, user string) error {
	return s.update(ctx, user, bson.D{
		{Key: "$set", Value: bson.D{{Key: "attempts", Value: 0}}},
		{Key: "$unset", Value: bson.D{{Key: "locked_until", Value: ""}}},
	})
}

func (s *Store) LockAccount(ctx context.Context, user string, until time.Time) error {
	return s.update(ctx, user, bson.D{
		{Key: "$set", Value: bson.D{{Key: "locked_until", Value: until}}},
	})
}

func (s *Store) update(ctx context.Context, user string, update bson.D) error {
	res, err := s.secrets.UpdateOne(ctx, bson.D{{Key: "_id", Value: user}}, update)
	if err != nil {
		return errors.Join(totp.ErrStoreUnavailable, err)
	}
	if res.MatchedCount == 0 {
		return totp.ErrNotEnrolled
	}
	return nil
}

func (d secretDoc) state() totp.UserState {
	state := totp.UserState{SecretKey: d.Secret, Attempts: d.Attempts}
	if d.LockedUntil != nil {
		state.LockedUntil = *d.LockedUntil
	}
	return state
}
