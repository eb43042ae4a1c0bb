package models

import (
	"strings"
	"time"
)

// UserRole decides what a caller may see and do.
type UserRole string

const (
	RoleStudent    UserRole = "STUDENT"
	RoleAdmin      UserRole = "ADMIN"
	RoleSupervisor UserRole = "SUPERVISOR"
)

// Valid reports whether the role is one of the supported roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleStudent, RoleAdmin, RoleSupervisor:
		return true
	default:
		return false
	}
}

// ParseRole accepts a role name in any case.
func ParseRole(raw string) (UserRole, bool) {
	role := UserRole(strings.ToUpper(strings.TrimSpace(raw)))
	return role, role.Valid()
}

// User is a row of the users table. Identifier is the NIM for students and
// the staff number or login name for everyone else.
type User struct {
	ID           string     `db:"id" json:"id"`
	Identifier   string     `db:"identifier" json:"identifier"`
	Email        *string    `db:"email" json:"email,omitempty"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// DisplayName falls back to the identifier when no full name is set.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.FullName != "" {
		return u.FullName
	}
	return u.Identifier
}

// EmailValue returns the email or an empty string.
func (u *User) EmailValue() string {
	if u == nil || u.Email == nil {
		return ""
	}
	return *u.Email
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// UserFilter is the admin user listing query.
type UserFilter struct {
	Role      *UserRole
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Normalize clamps paging to 1..MaxPageSize, lowercases the search term and
// defaults the order to newest first.
func (f UserFilter) Normalize() UserFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize <= 0 || f.PageSize > MaxPageSize {
		f.PageSize = DefaultPageSize
	}
	f.Search = strings.ToLower(strings.TrimSpace(f.Search))
	if f.SortBy == "" {
		f.SortBy = "created_at"
	}
	f.SortOrder = strings.ToUpper(f.SortOrder)
	if f.SortOrder != "ASC" {
		f.SortOrder = "DESC"
	}
	return f
}

// Offset is the number of rows skipped before the current page.
func (f UserFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
}

// NewPagination fills TotalPages from the row count.
func NewPagination(page, pageSize, total int) *Pagination {
	p := &Pagination{Page: page, PageSize: pageSize, TotalCount: total}
	if pageSize > 0 {
		p.TotalPages = (total + pageSize - 1) / pageSize
	}
	return p
}
