package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrInvalidSortField sortBy outside the entity's whitelist
var ErrInvalidSortField = errors.New("unsupported sort field")

// ListParams page window and ordering of a list query
type ListParams struct {
	Offset    int
	Limit     int
	SortBy    string
	SortOrder string // asc | desc
}

// sortColumns API sort key → qualified SQL column
type sortColumns map[string]string

// listPage runs the count + page query shared by every list endpoint. scope
// applies the entity filters; sortBy must be a key of sorts, empty means
// created_at.
func listPage[T any](
	ctx context.Context,
	db *gorm.DB,
	p ListParams,
	sorts sortColumns,
	scope func(*gorm.DB) *gorm.DB,
	preloads ...string,
) ([]T, int64, error) {
	sortKey := p.SortBy
	if sortKey == "" {
		sortKey = "created_at"
	}
	column, ok := sorts[sortKey]
	if !ok {
		return nil, 0, ErrInvalidSortField
	}
	direction := "DESC"
	if strings.EqualFold(p.SortOrder, "asc") {
		direction = "ASC"
	}

	var items []T
	var total int64

	q := db.WithContext(ctx).Model(new(T))
	if scope != nil {
		q = scope(q)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []T{}, 0, nil
	}

	for _, rel := range preloads {
		q = q.Preload(rel)
	}

	// id as tie-breaker keeps pages stable when the sort column has duplicates
	err := q.Order(column + " " + direction).
		Order(tableOf(column) + "id " + direction).
		Offset(p.Offset).Limit(p.Limit).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// tableOf "users." for "users.created_at"
func tableOf(column string) string {
	if i := strings.IndexByte(column, '.'); i >= 0 {
		return column[:i+1]
	}
	return ""
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern escapes LIKE wildcards and wraps s for a contains match
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// prefixPattern escapes LIKE wildcards for a starts-with match
func prefixPattern(s string) string {
	return likeEscaper.Replace(s) + "%"
}
