package article

import (
	"errors"
	"slices"
)

var (
	ErrNotFound       = errors.New("article not found")
	ErrAlreadyUpvoted = errors.New("article already upvoted by this user")
)

// DefaultSeed lists the articles the site ships with.
var DefaultSeed = []string{"learn-node", "learn-react", "mongodb"}

// Article is the persisted per-article metadata. Name is unique across the
// collection; Upvotes always equals len(UpvoterIDs).
type Article struct {
	Name       string    `json:"name" bson:"name"`
	Upvotes    int       `json:"upvotes" bson:"upvotes"`
	UpvoterIDs []string  `json:"upvoterIds" bson:"upvoterIds"`
	Comments   []Comment `json:"comments" bson:"comments"`
}

// Comment is embedded in an Article. PostedBy is free text supplied by the
// caller and is not tied to the verified uid.
type Comment struct {
	PostedBy string `json:"postedBy" bson:"postedBy"`
	Text     string `json:"text" bson:"text"`
}

// New returns an empty article with the given name.
func New(name string) *Article {
	return &Article{Name: name, UpvoterIDs: []string{}, Comments: []Comment{}}
}

// Normalize replaces missing sets on legacy documents with empty ones.
func (a *Article) Normalize() *Article {
	if a.UpvoterIDs == nil {
		a.UpvoterIDs = []string{}
	}
	if a.Comments == nil {
		a.Comments = []Comment{}
	}
	return a
}

// HasUpvoted reports whether uid is already in the upvoter set.
func (a *Article) HasUpvoted(uid string) bool {
	return slices.Contains(a.UpvoterIDs, uid)
}

// Clone returns a deep copy so callers never share slices with a store.
func (a *Article) Clone() *Article {
	c := *a
	c.UpvoterIDs = append([]string{}, a.UpvoterIDs...)
	c.Comments = append([]Comment{}, a.Comments...)
	return &c
}
