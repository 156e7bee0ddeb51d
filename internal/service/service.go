// Package service defines the product data-access capability shared by every
// backend.
package service

import (
	"context"
	"log/slog"

	"github.com/utafrali/catalog-admin/internal/domain"
	apperrors "github.com/utafrali/catalog-admin/pkg/errors"
)

// ProductService is the capability every backend implements. Absent products
// are not errors: GetProduct and UpdateProduct return (nil, nil) and
// DeleteProduct returns (false, nil). Any other failure is an
// *apperrors.AppError built by Fail.
type ProductService interface {
	GetProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, input domain.ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id string, input domain.ProductUpdateInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) (bool, error)
}

// Op names a ProductService operation.
type Op string

const (
	OpList   Op = "list"
	OpGet    Op = "get"
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

var messages = map[Op]string{
	OpList:   "failed to fetch products, please try again later",
	OpGet:    "failed to fetch product, please try again later",
	OpCreate: "failed to create product, please try again later",
	OpUpdate: "failed to update product, please try again later",
	OpDelete: "failed to delete product, please try again later",
}

// Message returns the user-facing failure message for op.
func (op Op) Message() string {
	if msg, ok := messages[op]; ok {
		return msg
	}
	return "the operation could not be completed, please try again later"
}

// Fail logs cause and returns the uniform failure for op. The cause is not
// attached to the returned error.
func Fail(ctx context.Context, logger *slog.Logger, backend string, op Op, cause error, attrs ...any) error {
	if logger != nil {
		attrs = append([]any{
			slog.String("backend", backend),
			slog.String("operation", string(op)),
			slog.String("error", cause.Error()),
		}, attrs...)
		logger.ErrorContext(ctx, "product operation failed", attrs...)
	}
	return apperrors.OperationFailed(op.Message())
}
