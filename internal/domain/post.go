package domain

import (
	"context"
	"encoding/json"
	"time"
)

type Post struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	AuthorID  int64     `json:"authorId"`
	CreatedAt time.Time `json:"createdAt"`
	Published bool      `json:"published"`
}

// PostIDPolicy decides how the post store numbers new posts.
type PostIDPolicy string

const (
	// PostIDPolicyLength assigns len(posts)+1. Ids may repeat after deletions.
	PostIDPolicyLength PostIDPolicy = "length"
	// PostIDPolicySequence assigns ids from a counter that never goes back.
	PostIDPolicySequence PostIDPolicy = "sequence"
)

func (p PostIDPolicy) Valid() bool {
	return p == PostIDPolicyLength || p == PostIDPolicySequence
}

// ProtectedPostFields lists the keys a patch may never touch, in the order
// they are checked.
var ProtectedPostFields = []string{"id", "authorId", "createdAt"}

type PostRepository interface {
	FindAll(ctx context.Context) ([]*Post, error)
	FindByID(ctx context.Context, id int64) (*Post, error)
	Create(ctx context.Context, post *Post) error
	Update(ctx context.Context, post *Post) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

type PostService interface {
	CreatePost(ctx context.Context, body map[string]json.RawMessage) (*Post, error)
	PatchPost(ctx context.Context, rawID string, body map[string]json.RawMessage) (*Post, error)
	DeletePost(ctx context.Context, rawID, rawUserID string) error
}
