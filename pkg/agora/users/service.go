package users

import (
	"context"
	"errors"
	"strings"

	"github.com/mikepea/agora/pkg/agora/apperr"
	"github.com/mikepea/agora/pkg/agora/auth"
	"github.com/mikepea/agora/pkg/agora/models"
	"github.com/mikepea/agora/pkg/agora/store"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Service implements the user operations over the store.
type Service struct {
	store *store.Store
}

// NewService creates a users service.
func NewService(s *store.Store) *Service {
	return &Service{store: s}
}

// NormalizeName turns a path-friendly name into its stored form:
// underscores become spaces and every word is capitalized.
func NormalizeName(raw string) string {
	words := strings.Fields(strings.ReplaceAll(raw, "_", " "))
	return cases.Title(language.Und).String(strings.Join(words, " "))
}

// Get returns the profile of user id, with post count.
func (s *Service) Get(ctx context.Context, id uint) (*store.UserProfile, error) {
	profile, err := s.store.Users.Profile(ctx, store.ProfileQuery{By: store.Eq(store.UserCol.ID, id), CountPosts: true})
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "Failed to fetch user")
	}
	if profile == nil {
		return nil, apperr.NotFoundf("The user %d was not found.", id)
	}
	return profile, nil
}

// GetByName looks a user up by normalized display name.
func (s *Service) GetByName(ctx context.Context, raw string) (*store.UserProfile, error) {
	name := NormalizeName(raw)
	profile, err := s.store.Users.Profile(ctx, store.ProfileQuery{By: store.Eq(store.UserCol.Name, name), CountPosts: true})
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "Failed to fetch user")
	}
	if profile == nil {
		return nil, apperr.NotFoundf("The user %s was not found.", name)
	}
	return profile, nil
}

// CreateInput is a registration request.
type CreateInput struct {
	Name     string
	Email    string
	Password string
}

// Create registers a user and returns its profile.
func (s *Service) Create(ctx context.Context, in CreateInput) (*store.UserProfile, error) {
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "Failed to process password")
	}

	user := models.User{Name: NormalizeName(in.Name), Email: in.Email, PasswordHash: hash}
	if err := s.store.Users.Create(ctx, &user); err != nil {
		return nil, writeError(err, in.Email)
	}
	return store.ProfileOf(&user, 0), nil
}

// ReplaceInput carries every mutable user field.
type ReplaceInput struct {
	Name     string
	Email    string
	Password string
}

// Replace overwrites the caller's own account.
func (s *Service) Replace(ctx context.Context, caller *models.User, id uint, in ReplaceInput) error {
	if err := checkOwner(caller, id); err != nil {
		return err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return apperr.Wrap(apperr.Internal, err, "Failed to process password")
	}
	return s.update(ctx, id, in.Email,
		store.Set(store.UserCol.Name, NormalizeName(in.Name)),
		store.Set(store.UserCol.Email, in.Email),
		store.Set(store.UserCol.PasswordHash, hash),
	)
}

// PatchInput carries the fields a partial update may change. Nil means
// leave unchanged.
type PatchInput struct {
	Name  *string
	Email *string
}

// Patch updates some of the caller's fields. Supplying all of them is
// rejected in favour of Replace.
func (s *Service) Patch(ctx context.Context, caller *models.User, id uint, in PatchInput) error {
	if err := checkOwner(caller, id); err != nil {
		return err
	}

	var sets []store.Assignment[models.User]
	email := ""
	if in.Name != nil {
		sets = append(sets, store.Set(store.UserCol.Name, NormalizeName(*in.Name)))
	}
	if in.Email != nil {
		email = *in.Email
		sets = append(sets, store.Set(store.UserCol.Email, email))
	}
	switch len(sets) {
	case 0:
		return apperr.Validationf("No fields to update.")
	case 2:
		return apperr.Validationf("To update all the fields make a PUT request.")
	}
	return s.update(ctx, id, email, sets...)
}

func (s *Service) update(ctx context.Context, id uint, email string, sets ...store.Assignment[models.User]) error {
	n, err := s.store.Users.Update(ctx, store.Eq(store.UserCol.ID, id), sets...)
	if err != nil {
		return writeError(err, email)
	}
	if n == 0 {
		return apperr.NotFoundf("User with ID %d was not found.", id)
	}
	return nil
}

// Delete removes the caller's account by id.
func (s *Service) Delete(ctx context.Context, caller *models.User, id uint) error {
	if err := checkOwner(caller, id); err != nil {
		return err
	}
	n, err := s.store.Users.Delete(ctx, store.Eq(store.UserCol.ID, id))
	if err != nil {
		return apperr.Wrap(apperr.WriteFault, err, "Failed to delete user")
	}
	if n == 0 {
		return apperr.NotFoundf("User with ID %d was not found.", id)
	}
	return nil
}

// DeleteByName removes the caller's account by display name. The name must
// belong to the caller; other users sharing it are untouched. A name that
// is not the caller's is forbidden whether or not anyone holds it.
func (s *Service) DeleteByName(ctx context.Context, caller *models.User, raw string) error {
	name := NormalizeName(raw)
	if caller.Name != name {
		return forbidden()
	}

	n, err := s.store.Users.Delete(ctx, store.Eq(store.UserCol.ID, caller.ID), store.Eq(store.UserCol.Name, name))
	if err != nil {
		return apperr.Wrap(apperr.WriteFault, err, "Failed to delete user")
	}
	if n == 0 {
		return apperr.NotFoundf("The user %s was not found.", name)
	}
	return nil
}

func checkOwner(caller *models.User, id uint) error {
	if caller.ID != id {
		return forbidden()
	}
	return nil
}

func forbidden() error {
	return apperr.Forbiddenf("Not authorized to perform requested action.")
}

func writeError(err error, email string) error {
	switch {
	case errors.Is(err, store.ErrConflict):
		return apperr.Wrap(apperr.Conflict, err, "User with email: %s already exists.", email)
	case store.IsWriteFault(err):
		return apperr.Wrap(apperr.WriteFault, err, "Failed to save user")
	default:
		return apperr.Wrap(apperr.Internal, err, "Failed to save user")
	}
}
