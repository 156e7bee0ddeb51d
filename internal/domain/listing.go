package domain

import (
	"slices"
	"strings"
)

// SortKey names the field a product listing is ordered by.
type SortKey string

const (
	SortByDateAdded   SortKey = "dateAdded"
	SortByDateUpdated SortKey = "dateUpdated"
	SortByPrice       SortKey = "price"
	SortByName        SortKey = "name"
)

// SortOrder is the listing direction.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// ListOptions controls the console listing. The zero value lists everything
// newest first.
type ListOptions struct {
	Search string
	SortBy SortKey
	Order  SortOrder
}

// ParseListOptions builds ListOptions from raw query values, replacing
// unknown sort keys and orders with the defaults.
func ParseListOptions(search, sortBy, order string) ListOptions {
	opts := ListOptions{
		Search: strings.TrimSpace(search),
		SortBy: SortKey(sortBy),
		Order:  SortOrder(order),
	}
	switch opts.SortBy {
	case SortByDateAdded, SortByDateUpdated, SortByPrice, SortByName:
	default:
		opts.SortBy = SortByDateAdded
	}
	switch opts.Order {
	case OrderAsc, OrderDesc:
	default:
		opts.Order = OrderDesc
	}
	return opts
}

// ApplyListOptions filters products by a case-insensitive name match and
// sorts the result. The input slice is left untouched.
func ApplyListOptions(products []Product, opts ListOptions) []Product {
	opts = ParseListOptions(opts.Search, string(opts.SortBy), string(opts.Order))
	needle := strings.ToLower(opts.Search)

	out := make([]Product, 0, len(products))
	for _, p := range products {
		if needle == "" || strings.Contains(strings.ToLower(p.Name), needle) {
			out = append(out, p)
		}
	}

	slices.SortStableFunc(out, func(a, b Product) int {
		var c int
		switch opts.SortBy {
		case SortByName:
			c = strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		case SortByPrice:
			switch {
			case a.Price < b.Price:
				c = -1
			case a.Price > b.Price:
				c = 1
			}
		case SortByDateUpdated:
			c = a.DateUpdated.Compare(b.DateUpdated)
		default:
			c = a.DateAdded.Compare(b.DateAdded)
		}
		if opts.Order == OrderDesc {
			c = -c
		}
		return c
	})
	return out
}
