package models

import "time"

// Post is a blog/news entry managed from the admin backend.
type Post struct {
	ID          string
	Title       string
	Slug        string
	Excerpt     string
	Content     string
	Tags        []string
	Published   bool
	PublishedAt *time.Time
	AuthorID    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Service is a service offering shown on the marketing site. SortOrder
// controls the display position on the public page.
type Service struct {
	ID          string
	Title       string
	Slug        string
	Description string
	Content     string
	Icon        string
	Features    []string
	SortOrder   int
	Published   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ContactSubmission is a message sent through the public contact form.
type ContactSubmission struct {
	ID        string
	Name      string
	Email     string
	Subject   string
	Message   string
	Read      bool
	CreatedAt time.Time
}
