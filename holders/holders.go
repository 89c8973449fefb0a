package holders

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type Holder struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash []byte
	Role         Role
	CreatedAt    time.Time
}

type Repository interface {
	CreateHolder(ctx context.Context, holder Holder) error
	GetHolder(ctx context.Context, id uuid.UUID) (Holder, error)
	GetHolderByEmail(ctx context.Context, email string) (Holder, error)
}

// New builds a holder with a freshly hashed password. Emails are stored
// lowercased so uniqueness is case-insensitive.
func New(name string, email string, password string, role Role) (Holder, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Holder{}, NewInvalidCredentialsError("Failed to hash password", err)
	}

	return Holder{
		ID:           uuid.New(),
		Name:         name,
		Email:        strings.ToLower(email),
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

func (h Holder) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword(h.PasswordHash, []byte(password)) == nil
}
