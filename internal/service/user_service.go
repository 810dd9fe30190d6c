package service

import (
	"context"

	"campusfind/internal/models"
	"campusfind/internal/repository"
	"campusfind/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// UserService provides account business logic.
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService returns a new UserService.
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// SignupInput is the input for creating an account.
type SignupInput struct {
	StudentID string
	Password  string
	Nickname  string
	Email     string
}

// Signup validates the input, rejects duplicates and stores the account with
// a bcrypt-hashed credential.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	if err := validation.ValidateStudentID(in.StudentID); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateNickname(in.Nickname); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	if existing, err := s.userRepo.GetByStudentID(ctx, in.StudentID); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, models.NewConflictError("Student ID already registered")
	}
	if existing, err := s.userRepo.GetByNickname(ctx, in.Nickname); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, models.NewConflictError("Nickname already taken")
	}
	if existing, err := s.userRepo.GetByEmail(ctx, in.Email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, models.NewConflictError("Email already registered")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		StudentID: in.StudentID,
		Password:  string(hashed),
		Nickname:  in.Nickname,
		Email:     in.Email,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate verifies (studentID, password) and returns the user. An
// unknown student ID and a wrong password are indistinguishable to the caller.
func (s *UserService) Authenticate(ctx context.Context, studentID, password string) (*models.User, error) {
	user, err := s.userRepo.GetByStudentID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	return user, nil
}

// Get returns the user by ID.
func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", id)
	}
	return user, nil
}

// UpdateProfileInput carries profile mutations; empty fields are ignored.
type UpdateProfileInput struct {
	Nickname string
	Password string
}

// UpdateProfile changes the caller's nickname and/or password.
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, in UpdateProfileInput) (*models.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Nickname != "" && in.Nickname != user.Nickname {
		if err := validation.ValidateNickname(in.Nickname); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		if existing, err := s.userRepo.GetByNickname(ctx, in.Nickname); err != nil {
			return nil, err
		} else if existing != nil {
			return nil, models.NewConflictError("Nickname already taken")
		}
		user.Nickname = in.Nickname
	}

	if in.Password != "" {
		if err := validation.ValidatePassword(in.Password); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		user.Password = string(hashed)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
