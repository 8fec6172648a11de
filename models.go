package ident

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// User is the persisted account record. The password hash never serializes
// to JSON; API responses go through Public.
type User struct {
	ID           bson.ObjectID `bson:"_id,omitempty" json:"-"`
	Name         string        `bson:"name" json:"name"`
	Email        string        `bson:"email" json:"email"`
	PasswordHash string        `bson:"password_hash" json:"-"`
	Organization string        `bson:"organization,omitempty" json:"organization,omitempty"`
	Verified     bool          `bson:"is_verified" json:"is_verified"`
	CreatedAt    time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `bson:"updated_at" json:"updated_at"`
}

// PublicUser is the client-facing projection of a User.
type PublicUser struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Organization string    `json:"organization,omitempty"`
	IsVerified   bool      `json:"isVerified"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Public strips credentials and internal fields from the record.
func (u *User) Public() *PublicUser {
	if u == nil {
		return nil
	}
	return &PublicUser{
		ID:           u.ID.Hex(),
		Name:         u.Name,
		Email:        u.Email,
		Organization: u.Organization,
		IsVerified:   u.Verified,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// ProfileUpdate is a partial update; nil fields are left untouched. An empty
// Organization pointer value clears the field.
type ProfileUpdate struct {
	Name         *string
	Organization *string
}

// ListQuery selects a page of users. Search matches name, email, and
// organization case-insensitively.
type ListQuery struct {
	Page   int
	Limit  int
	Search string
}

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// Sanitize clamps paging values into usable ranges.
func (q *ListQuery) Sanitize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultPageLimit
	}
	if q.Limit > maxPageLimit {
		q.Limit = maxPageLimit
	}
}

// Offset returns the number of records to skip for the current page.
func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// Pagination describes the page window returned by the listing endpoint.
type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalUsers  int64 `json:"totalUsers"`
	HasNext     bool  `json:"hasNext"`
	HasPrev     bool  `json:"hasPrev"`
}

// NewPagination computes the window for a sanitized query and a total count.
func NewPagination(q ListQuery, total int64) Pagination {
	totalPages := int((total + int64(q.Limit) - 1) / int64(q.Limit))
	return Pagination{
		CurrentPage: q.Page,
		TotalPages:  totalPages,
		TotalUsers:  total,
		HasNext:     q.Page < totalPages,
		HasPrev:     q.Page > 1,
	}
}
