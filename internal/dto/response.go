package dto

import "strings"

// ── list query ──

const (
	defaultPage  = 1
	defaultLimit = 20
	maxLimit     = 100
)

// ListQuery query parameters shared by every list endpoint
type ListQuery struct {
	Page      int    `form:"page"      json:"page,omitempty"      binding:"omitempty,min=1"`
	Limit     int    `form:"limit"     json:"limit,omitempty"     binding:"omitempty,min=1,max=100"`
	Search    string `form:"search"    json:"search,omitempty"    binding:"omitempty,max=100"`
	SortBy    string `form:"sortBy"    json:"sortBy,omitempty"    binding:"omitempty,max=40"`
	SortOrder string `form:"sortOrder" json:"sortOrder,omitempty" binding:"omitempty,oneof=asc desc ASC DESC"`
}

// GetPage page number, 1 by default
func (q *ListQuery) GetPage() int {
	if q.Page <= 0 {
		return defaultPage
	}
	return q.Page
}

// GetLimit page size, 20 by default and capped at 100
func (q *ListQuery) GetLimit() int {
	if q.Limit <= 0 {
		return defaultLimit
	}
	if q.Limit > maxLimit {
		return maxLimit
	}
	return q.Limit
}

// GetOffset row offset of the current page
func (q *ListQuery) GetOffset() int {
	return (q.GetPage() - 1) * q.GetLimit()
}

// GetSortOrder "asc" or "desc" (default)
func (q *ListQuery) GetSortOrder() string {
	if strings.EqualFold(q.SortOrder, "asc") {
		return "asc"
	}
	return "desc"
}

// GetSearch trimmed search text
func (q *ListQuery) GetSearch() string {
	return strings.TrimSpace(q.Search)
}

// ── shared responses ──

// MessageResponse bare acknowledgement
type MessageResponse struct {
	Message string `json:"message"`
}
