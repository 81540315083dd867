// Package entity holds the read-only catalog entities returned by search.
package entity

import (
	"time"

	"github.com/kailas-cloud/discovery/internal/domain/category"
)

// Visibility values shared by tools and lists.
const (
	VisibilityPublic   = "public"
	VisibilityUnlisted = "unlisted"
	VisibilityPrivate  = "private"
)

// StatusCompleted is the only submission status exposed to search.
const StatusCompleted = "completed"

// Entity is anything a category adapter can return.
type Entity interface {
	EntityID() int64
	Category() category.Category
	Document() Document
}

// Document is the flattened text view used to build generation context.
type Document struct {
	Title       string
	Description string
	Type        string
	URL         string
	Tags        []string
	Tools       []string
}

// Tool is a catalogued developer tool.
type Tool struct {
	ID          int64     `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description" yaml:"description"`
	URL         string    `json:"url,omitempty" yaml:"url"`
	Visibility  string    `json:"visibility" yaml:"visibility"`
	Tags        []string  `json:"tags,omitempty" yaml:"tags"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// EntityID implements Entity.
func (t Tool) EntityID() int64 { return t.ID }

// Category implements Entity.
func (Tool) Category() category.Category { return category.Tools }

// Document implements Entity.
func (t Tool) Document() Document {
	return Document{Title: t.Name, Description: t.Description, Type: "tool", URL: t.URL, Tags: t.Tags}
}

// Submission is a user-submitted article or resource.
type Submission struct {
	ID          int64     `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description" yaml:"description"`
	URL         string    `json:"url,omitempty" yaml:"url"`
	Type        string    `json:"submission_type" yaml:"submission_type"`
	Status      string    `json:"status" yaml:"status"`
	Author      string    `json:"author,omitempty" yaml:"author"`
	Tags        []string  `json:"tags,omitempty" yaml:"tags"`
	Tools       []string  `json:"tools,omitempty" yaml:"tools"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// EntityID implements Entity.
func (s Submission) EntityID() int64 { return s.ID }

// Category implements Entity.
func (Submission) Category() category.Category { return category.Submissions }

// Document implements Entity.
func (s Submission) Document() Document {
	return Document{
		Title: s.Title, Description: s.Description, Type: s.Type,
		URL: s.URL, Tags: s.Tags, Tools: s.Tools,
	}
}

// Tag is a topic label.
type Tag struct {
	ID        int64     `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// EntityID implements Entity.
func (t Tag) EntityID() int64 { return t.ID }

// Category implements Entity.
func (Tag) Category() category.Category { return category.Tags }

// Document implements Entity.
func (t Tag) Document() Document { return Document{Title: t.Name, Type: "tag"} }

// User is a registered account.
type User struct {
	ID        int64     `json:"id" yaml:"id"`
	Username  string    `json:"username" yaml:"username"`
	Bio       string    `json:"bio,omitempty" yaml:"bio"`
	Deleted   bool      `json:"-" yaml:"deleted"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// EntityID implements Entity.
func (u User) EntityID() int64 { return u.ID }

// Category implements Entity.
func (User) Category() category.Category { return category.Users }

// Document implements Entity.
func (u User) Document() Document { return Document{Title: u.Username, Description: u.Bio, Type: "user"} }

// List is a user-curated collection.
type List struct {
	ID         int64     `json:"id" yaml:"id"`
	Name       string    `json:"name" yaml:"name"`
	Owner      string    `json:"owner" yaml:"owner"`
	Visibility string    `json:"visibility" yaml:"visibility"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
}

// EntityID implements Entity.
func (l List) EntityID() int64 { return l.ID }

// Category implements Entity.
func (List) Category() category.Category { return category.Lists }

// Document implements Entity.
func (l List) Document() Document { return Document{Title: l.Name, Description: "by " + l.Owner, Type: "list"} }
