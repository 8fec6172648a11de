package ident_test

import (
	"context"
	"sort"
	"strings"
	"sync"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/v2/bson"

	ident "github.com/lanternhq/go-ident"
)

// MockUserStore implements ident.UserStore for flow tests.
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) CreateUser(ctx context.Context, user *ident.User) (*ident.User, error) {
	args := m.Called(ctx, user)
	if u := args.Get(0); u != nil {
		return u.(*ident.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserStore) FindUserByEmail(ctx context.Context, email string) (*ident.User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*ident.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserStore) FindUserByID(ctx context.Context, id string) (*ident.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*ident.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserStore) UpdateUserProfile(ctx context.Context, id string, update ident.ProfileUpdate) (*ident.User, error) {
	args := m.Called(ctx, id, update)
	if u := args.Get(0); u != nil {
		return u.(*ident.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserStore) ListUsers(ctx context.Context, q ident.ListQuery) ([]*ident.User, int64, error) {
	args := m.Called(ctx, q)
	var users []*ident.User
	if u := args.Get(0); u != nil {
		users = u.([]*ident.User)
	}
	return users, int64(args.Int(1)), args.Error(2)
}

func (m *MockUserStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockVerifier implements ident.HumanVerifier.
type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(ctx context.Context, token, remoteIP string) error {
	args := m.Called(ctx, token, remoteIP)
	return args.Error(0)
}

// acceptAllVerifier passes every challenge token.
func acceptAllVerifier() ident.HumanVerifier {
	return ident.HumanVerifierFunc(func(context.Context, string, string) error {
		return nil
	})
}

func storeNotFound() error {
	return goerrors.New("user not found", goerrors.CategoryNotFound).
		WithCode(goerrors.CodeNotFound)
}

// memStore is an in-memory UserStore used by the HTTP controller tests.
type memStore struct {
	mu    sync.Mutex
	users map[string]*ident.User // keyed by hex id
}

func newMemStore() *memStore {
	return &memStore{users: map[string]*ident.User{}}
}

func (s *memStore) CreateUser(_ context.Context, user *ident.User) (*ident.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email {
			return nil, ident.ErrEmailTaken
		}
	}

	record := *user
	record.ID = bson.NewObjectID()
	s.users[record.ID.Hex()] = &record
	return &record, nil
}

func (s *memStore) FindUserByEmail(_ context.Context, email string) (*ident.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			record := *u
			return &record, nil
		}
	}
	return nil, storeNotFound()
}

func (s *memStore) FindUserByID(_ context.Context, id string) (*ident.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[id]; ok {
		record := *u
		return &record, nil
	}
	return nil, storeNotFound()
}

func (s *memStore) UpdateUserProfile(_ context.Context, id string, update ident.ProfileUpdate) (*ident.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, storeNotFound()
	}
	if update.Name != nil {
		u.Name = *update.Name
	}
	if update.Organization != nil {
		u.Organization = *update.Organization
	}
	record := *u
	return &record, nil
}

func (s *memStore) ListUsers(_ context.Context, q ident.ListQuery) ([]*ident.User, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*ident.User
	needle := strings.ToLower(q.Search)
	for _, u := range s.users {
		if needle == "" ||
			strings.Contains(strings.ToLower(u.Name), needle) ||
			strings.Contains(strings.ToLower(u.Email), needle) ||
			strings.Contains(strings.ToLower(u.Organization), needle) {
			record := *u
			matched = append(matched, &record)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].ID.Hex() < matched[j].ID.Hex()
	})

	total := int64(len(matched))
	start := q.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + q.Limit
	if end > len(matched) {
		end = len(matched)
	}

	return matched[start:end], total, nil
}

func (s *memStore) Ping(context.Context) error {
	return nil
}

// reset drops every record, simulating subjects deleted out from under a
// still-valid session token.
func (s *memStore) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = map[string]*ident.User{}
}
