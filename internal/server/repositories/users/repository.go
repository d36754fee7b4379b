// Package users declares and implements storage of MarkPDF accounts.
package users

import (
	"context"

	"github.com/al0nec0der/MarkPDF/internal/server/models"
)

type Repository interface {
	// Create inserts user and fills in its ID and CreatedAt. A taken
	// username yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
}
