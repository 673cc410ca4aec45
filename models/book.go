package models

import "time"

type Book struct {
	ID              int64     `json:"id" db:"id"`
	Title           string    `json:"title" db:"title"`
	Author          string    `json:"author" db:"author"`
	ISBN            string    `json:"isbn" db:"isbn"`
	PublishedDate   time.Time `json:"published_date" db:"published_date"`
	CopiesAvailable int       `json:"copies_available" db:"copies_available"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

type BookRequest struct {
	Title           string `json:"title"`
	Author          string `json:"author"`
	ISBN            string `json:"isbn"`
	PublishedDate   string `json:"published_date"` // YYYY-MM-DD
	CopiesAvailable int    `json:"copies_available"`
}

// CatalogFilter carries the query parameters of the catalog listing.
type CatalogFilter struct {
	Search        string // matches title or author
	Author        string
	ISBN          string
	AvailableOnly bool
	Ordering      string // one of title, author, published_date, created_at; "-" prefix for descending
	Page          int
	PageSize      int
}

// CatalogPage is the paginated catalog response.
type CatalogPage struct {
	Books    []Book `json:"books"`
	Total    int    `json:"total"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}
