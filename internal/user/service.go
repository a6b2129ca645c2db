package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/wichananm65/pet-shop-admin/internal/database"
	"github.com/wichananm65/pet-shop-admin/internal/resource"
)

type Service = resource.Service[User]

// Names keeps the original users contract: bare list and a "message" error key.
var Names = resource.Names{Path: "users", Plural: "users", Singular: "user", ErrorKey: "message", BareList: true}

func NewService(repo resource.Repository[User], cache resource.Cache[User]) *Service {
	return resource.NewService(repo, cache, resource.WithCheck(checkPets))
}

func NewHandler(svc *Service) *resource.Handler[User] {
	return resource.NewHandler(svc, Names)
}

func NewMemoryRepository(seed ...User) *resource.MemoryRepository[User] {
	return resource.NewMemoryRepository(seed, func(u User) User {
		u.CreatedAt = database.Now()
		return u
	})
}

func checkPets(_ context.Context, u User) error {
	fields := map[string]string{}
	for i, pet := range u.Pets.V {
		var verr *resource.ValidationError
		if err := resource.Validate(pet); errors.As(err, &verr) {
			for k, msg := range verr.Fields {
				fields[fmt.Sprintf("pets[%d].%s", i, k)] = msg
			}
		}
	}
	if len(fields) > 0 {
		return &resource.ValidationError{Fields: fields}
	}
	return nil
}

// AdminChecker answers authorization questions from the users table.
type AdminChecker struct {
	svc *Service
}

func NewAdminChecker(svc *Service) *AdminChecker {
	return &AdminChecker{svc: svc}
}

func (a *AdminChecker) IsAdmin(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	u, err := a.svc.Get(ctx, id)
	if errors.Is(err, resource.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return u.IsAdmin, nil
}

// EnsureAdmin creates or promotes the bootstrap admin account.
func EnsureAdmin(ctx context.Context, svc *Service, id string) (User, error) {
	u, err := svc.Get(ctx, id)
	switch {
	case errors.Is(err, resource.ErrNotFound):
		return svc.Create(ctx, User{ID: id, FirstName: "Store", LastName: "Admin", IsAdmin: true})
	case err != nil:
		return User{}, err
	case u.IsAdmin:
		return u, nil
	}
	u.IsAdmin = true
	return svc.Update(ctx, u, u.Version)
}
