package models

import "strings"

// ListOptions carries pagination and sorting from a request.
type ListOptions struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Normalize fills defaults: page 1, limit 10, newest first.
func (o ListOptions) Normalize() ListOptions {
	if o.Page < 1 {
		o.Page = DefaultPage
	}
	if o.Limit < 1 {
		o.Limit = DefaultLimit
	}
	if o.Limit > MaxLimit {
		o.Limit = MaxLimit
	}
	if o.SortBy == "" {
		o.SortBy = "createdAt"
	}
	if strings.EqualFold(o.SortOrder, "asc") {
		o.SortOrder = "asc"
	} else {
		o.SortOrder = "desc"
	}
	return o
}

// Offset returns the number of rows to skip.
func (o ListOptions) Offset() int {
	return (o.Page - 1) * o.Limit
}

// PageMeta describes a page of results.
type PageMeta struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Page is a paginated result.
type Page[T any] struct {
	Meta PageMeta `json:"meta"`
	Data []T      `json:"data"`
}

// NewPage builds a page, never returning a nil data slice.
func NewPage[T any](items []T, total int, opts ListOptions) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Meta: PageMeta{Total: total, Page: opts.Page, Limit: opts.Limit},
		Data: items,
	}
}
