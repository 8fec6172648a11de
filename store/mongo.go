// Package store provides the MongoDB-backed credential store adapter.
package store

import (
	"context"
	"regexp"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"golang.org/x/sync/singleflight"

	ident "github.com/lanternhq/go-ident"
)

const usersCollection = "users"

// Config holds the connection settings.
type Config struct {
	URI      string
	Database string
	// ConnectTimeout bounds the initial dial and index setup.
	ConnectTimeout time.Duration
}

// Mongo implements ident.UserStore. Connect is idempotent and single-flight:
// concurrent first callers share one dial instead of racing to open
// duplicate connections.
type Mongo struct {
	cfg   Config
	group singleflight.Group

	mu     sync.RWMutex
	client *mongo.Client
	users  *mongo.Collection
}

var _ ident.UserStore = (*Mongo)(nil)

// New returns an unconnected store handle.
func New(cfg Config) *Mongo {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	return &Mongo{cfg: cfg}
}

// Connect dials the server, verifies reachability, and ensures the unique
// email index. Subsequent calls reuse the established connection.
func (m *Mongo) Connect(ctx context.Context) error {
	_, err, _ := m.group.Do("connect", func() (any, error) {
		m.mu.RLock()
		connected := m.client != nil
		m.mu.RUnlock()
		if connected {
			return nil, nil
		}

		dialCtx, cancel := context.WithTimeout(ctx, m.cfg.ConnectTimeout)
		defer cancel()

		client, err := mongo.Connect(options.Client().ApplyURI(m.cfg.URI))
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "mongo connect failed")
		}

		if err := client.Ping(dialCtx, readpref.Primary()); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "mongo ping failed")
		}

		users := client.Database(m.cfg.Database).Collection(usersCollection)

		// Uniqueness of the lowercased email is enforced here, not in the
		// flows; concurrent registrations resolve through this constraint.
		_, err = users.Indexes().CreateOne(dialCtx, mongo.IndexModel{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		})
		if err != nil {
			_ = client.Disconnect(context.Background())
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "mongo index setup failed")
		}

		m.mu.Lock()
		m.client = client
		m.users = users
		m.mu.Unlock()

		return nil, nil
	})
	return err
}

// Close releases the underlying connection pool.
func (m *Mongo) Close(ctx context.Context) error {
	m.mu.Lock()
	client := m.client
	m.client = nil
	m.users = nil
	m.mu.Unlock()

	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}

// Ping reports server reachability.
func (m *Mongo) Ping(ctx context.Context) error {
	client, _, err := m.handles()
	if err != nil {
		return err
	}
	return client.Ping(ctx, readpref.Primary())
}

// CreateUser persists a new record, stamping timestamps and assigning the
// identifier. A duplicate email surfaces as ident.ErrEmailTaken.
func (m *Mongo) CreateUser(ctx context.Context, user *ident.User) (*ident.User, error) {
	_, users, err := m.handles()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	record := *user
	record.ID = bson.NewObjectID()
	record.CreatedAt = now
	record.UpdatedAt = now

	if _, err := users.InsertOne(ctx, &record); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ident.ErrEmailTaken
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "mongo insert user failed")
	}

	return &record, nil
}

// FindUserByEmail looks up a record by its normalized email.
func (m *Mongo) FindUserByEmail(ctx context.Context, email string) (*ident.User, error) {
	_, users, err := m.handles()
	if err != nil {
		return nil, err
	}

	var user ident.User
	if err := users.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return nil, m.lookupError(err, "mongo find user by email failed")
	}
	return &user, nil
}

// FindUserByID looks up a record by its hex identifier. A malformed
// identifier behaves as not found rather than an internal failure.
func (m *Mongo) FindUserByID(ctx context.Context, id string) (*ident.User, error) {
	_, users, err := m.handles()
	if err != nil {
		return nil, err
	}

	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, notFoundError()
	}

	var user ident.User
	if err := users.FindOne(ctx, bson.M{"_id": oid}).Decode(&user); err != nil {
		return nil, m.lookupError(err, "mongo find user by id failed")
	}
	return &user, nil
}

// UpdateUserProfile applies a partial update and returns the new record.
func (m *Mongo) UpdateUserProfile(ctx context.Context, id string, update ident.ProfileUpdate) (*ident.User, error) {
	_, users, err := m.handles()
	if err != nil {
		return nil, err
	}

	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, notFoundError()
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	unset := bson.M{}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Organization != nil {
		if *update.Organization == "" {
			unset["organization"] = ""
		} else {
			set["organization"] = *update.Organization
		}
	}

	change := bson.M{"$set": set}
	if len(unset) > 0 {
		change["$unset"] = unset
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user ident.User
	if err := users.FindOneAndUpdate(ctx, bson.M{"_id": oid}, change, opts).Decode(&user); err != nil {
		return nil, m.lookupError(err, "mongo update user profile failed")
	}
	return &user, nil
}

// ListUsers returns one page of records, newest first, plus the total count
// for the same filter.
func (m *Mongo) ListUsers(ctx context.Context, q ident.ListQuery) ([]*ident.User, int64, error) {
	_, users, err := m.handles()
	if err != nil {
		return nil, 0, err
	}

	filter := searchFilter(q.Search)

	total, err := users.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, goerrors.Wrap(err, goerrors.CategoryInternal, "mongo count users failed")
	}

	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(q.Offset())).
		SetLimit(int64(q.Limit))

	cursor, err := users.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, 0, goerrors.Wrap(err, goerrors.CategoryInternal, "mongo list users failed")
	}
	defer cursor.Close(ctx)

	var records []*ident.User
	if err := cursor.All(ctx, &records); err != nil {
		return nil, 0, goerrors.Wrap(err, goerrors.CategoryInternal, "mongo decode users failed")
	}

	return records, total, nil
}

// searchFilter matches name, email, or organization case-insensitively.
// The term is quoted so user input cannot inject pattern syntax.
func searchFilter(search string) bson.M {
	if search == "" {
		return bson.M{}
	}

	pattern := regexp.QuoteMeta(search)
	re := bson.M{"$regex": pattern, "$options": "i"}
	return bson.M{"$or": []bson.M{
		{"name": re},
		{"email": re},
		{"organization": re},
	}}
}

func (m *Mongo) handles() (*mongo.Client, *mongo.Collection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.client == nil {
		return nil, nil, goerrors.New("store is not connected", goerrors.CategoryInternal)
	}
	return m.client, m.users, nil
}

func (m *Mongo) lookupError(err error, message string) error {
	if goerrors.Is(err, mongo.ErrNoDocuments) {
		return notFoundError()
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, message)
}

func notFoundError() error {
	return goerrors.New("user not found", goerrors.CategoryNotFound).
		WithCode(goerrors.CodeNotFound)
}
