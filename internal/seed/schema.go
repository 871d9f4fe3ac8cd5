package seed

import "time"

// Entry is one bookmark in the seed file.
type Entry struct {
	Title     string    `yaml:"title"`
	URL       string    `yaml:"url"`
	CreatedAt time.Time `yaml:"created_at"`
}

// OwnerBlock groups the bookmarks of one user.
type OwnerBlock struct {
	Owner     string  `yaml:"owner"`
	Bookmarks []Entry `yaml:"bookmarks"`
}

// File is the root structure of the seed YAML:
//
//	- owner: <user id>
//	  bookmarks:
//	    - title: A
//	      url: https://a.example
//	      created_at: 2024-01-01T00:00:00Z
type File []OwnerBlock
