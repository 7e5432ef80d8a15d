package services

import (
	"context"
	"time"

	"github.com/yoockh/yoosocial/internal/repositories"
	"github.com/yoockh/yoosocial/internal/utils"
)

type UserService interface {
	// RequireUsers fails with NotFound naming the first unknown id.
	RequireUsers(ctx context.Context, userIDs ...string) error
}

type userService struct {
	users   repositories.UserDirectory
	timeout time.Duration
}

func NewUserService(users repositories.UserDirectory, timeout time.Duration) UserService {
	return &userService{users: users, timeout: timeout}
}

func (s *userService) RequireUsers(ctx context.Context, userIDs ...string) error {
	const op = "UserService.RequireUsers"

	for _, id := range userIDs {
		if id == "" {
			return utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
		}
	}
	if len(userIDs) == 0 {
		return nil
	}
	missing, err := utils.CallStore(ctx, s.timeout, op, func(ctx context.Context) ([]string, error) {
		return s.users.MissingUsers(ctx, userIDs)
	})
	if err != nil {
		return utils.Wrap(utils.CodeInternal, op, "failed to check users", err)
	}
	if len(missing) > 0 {
		return utils.E(utils.CodeNotFound, op, "user not found: "+missing[0], nil)
	}
	return nil
}
