// Package repository provides a thin generic store over gorm for the
// query-by-example lookups the billing core performs.
package repository

import "context"

type Repository[T any] interface {
	// FindOne returns (nil, nil) when no row matches.
	FindOne(ctx context.Context, query *T) (*T, error)
	Count(ctx context.Context, query *T) (int64, error)
}
