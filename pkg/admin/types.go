package admin

import "time"

// Celebrity is a celebrity profile managed by administrators.
type Celebrity struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug,omitempty"`
	Profession  string    `json:"profession,omitempty"`
	Nationality string    `json:"nationality,omitempty"`
	Bio         string    `json:"bio,omitempty"`
	Image       string    `json:"image,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

// Movie is a film linked to celebrity looks.
type Movie struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	ReleaseYear int       `json:"releaseYear,omitempty"`
	Genres      []string  `json:"genres,omitempty"`
	Director    string    `json:"director,omitempty"`
	Poster      string    `json:"poster,omitempty"`
	Celebrities []string  `json:"celebrities,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

// Review is a user review awaiting or past moderation.
type Review struct {
	ID        string    `json:"_id"`
	User      string    `json:"user,omitempty"`
	Target    string    `json:"target,omitempty"`
	Rating    float64   `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	Status    string    `json:"status,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// User is a platform account as seen by administrators.
type User struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"isActive"`
	PlanID    string    `json:"planId,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// UserUpdate holds the fields an administrator may change on a user.
type UserUpdate struct {
	Name     *string `json:"name,omitempty"`
	Role     *string `json:"role,omitempty"`
	IsActive *bool   `json:"isActive,omitempty"`
}

// NewAdmin is the input for creating an administrator account.
type NewAdmin struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ListOptions filter and paginate a listing.
type ListOptions struct {
	Search string
	Page   int
	Limit  int
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// List is one page of records.
type List[T any] struct {
	Items      []T
	Pagination Pagination
}
