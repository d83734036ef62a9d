package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bekzat-dev/tournament-app/models"
	"github.com/bekzat-dev/tournament-app/repositories"
	"github.com/bekzat-dev/tournament-app/storage"
	"github.com/google/uuid"
)

type ProfileService interface {
	CreateProfile(ctx context.Context, userID int, input CreateProfileInput) (*models.Profile, error)
	ListProfiles(ctx context.Context, userID int) ([]models.Profile, error)
	UpdateProfile(ctx context.Context, profileID, userID int, input UpdateProfileInput) (*models.Profile, error)
	DeleteProfile(ctx context.Context, profileID, userID int) error
	UploadAvatar(ctx context.Context, profileID, userID int, file io.Reader, contentType string) (*models.Profile, error)
}

type CreateProfileInput struct {
	Name string  `json:"name"`
	Bio  *string `json:"bio"`
}

type UpdateProfileInput struct {
	Name *string `json:"name"`
	Bio  *string `json:"bio"`
}

type profileService struct {
	profileRepo repositories.ProfileRepository
	uploader    storage.FileUploader
}

func NewProfileService(profileRepo repositories.ProfileRepository, uploader storage.FileUploader) ProfileService {
	return &profileService{
		profileRepo: profileRepo,
		uploader:    uploader,
	}
}

func (s *profileService) CreateProfile(ctx context.Context, userID int, input CreateProfileInput) (*models.Profile, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrProfileNameRequired
	}

	profile := &models.Profile{
		UserID: userID,
		Name:   name,
		Bio:    input.Bio,
	}

	if err := s.profileRepo.Create(ctx, profile); err != nil {
		if errors.Is(err, repositories.ErrProfileUserInvalid) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	return profile, nil
}

func (s *profileService) ListProfiles(ctx context.Context, userID int) ([]models.Profile, error) {
	profiles, err := s.profileRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles for user %d: %w", userID, err)
	}
	populateProfileListAvatarURLs(profiles, s.uploader)
	return profiles, nil
}

func (s *profileService) UpdateProfile(ctx context.Context, profileID, userID int, input UpdateProfileInput) (*models.Profile, error) {
	profile, err := s.profileRepo.GetByIDForUser(ctx, profileID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile %d: %w", profileID, err)
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrProfileNameRequired
		}
		profile.Name = name
	}
	if input.Bio != nil {
		profile.Bio = input.Bio
	}

	if err := s.profileRepo.Update(ctx, profile); err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to update profile %d: %w", profileID, err)
	}

	populateProfileAvatarURL(profile, s.uploader)
	return profile, nil
}

func (s *profileService) DeleteProfile(ctx context.Context, profileID, userID int) error {
	profile, err := s.profileRepo.GetByIDForUser(ctx, profileID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return ErrProfileNotFound
		}
		return fmt.Errorf("failed to get profile %d: %w", profileID, err)
	}

	if err := s.profileRepo.Delete(ctx, profileID, userID); err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return ErrProfileNotFound
		}
		return fmt.Errorf("failed to delete profile %d: %w", profileID, err)
	}

	// Аватар чистится в лучшем случае: запись уже удалена.
	if profile.AvatarKey != nil && *profile.AvatarKey != "" {
		_ = s.uploader.Delete(ctx, *profile.AvatarKey)
	}

	return nil
}

func (s *profileService) UploadAvatar(ctx context.Context, profileID, userID int, file io.Reader, contentType string) (*models.Profile, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return nil, ErrUnsupportedAvatarType
	}

	profile, err := s.profileRepo.GetByIDForUser(ctx, profileID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile %d: %w", profileID, err)
	}

	key := fmt.Sprintf("avatars/%d/%s", profileID, uuid.NewString())
	if _, err := s.uploader.Upload(ctx, key, contentType, file); err != nil {
		return nil, fmt.Errorf("failed to upload avatar for profile %d: %w", profileID, err)
	}

	oldKey := profile.AvatarKey
	if err := s.profileRepo.UpdateAvatarKey(ctx, profileID, &key); err != nil {
		_ = s.uploader.Delete(ctx, key)
		return nil, fmt.Errorf("failed to store avatar key for profile %d: %w", profileID, err)
	}

	if oldKey != nil && *oldKey != "" {
		_ = s.uploader.Delete(ctx, *oldKey)
	}

	profile.AvatarKey = &key
	populateProfileAvatarURL(profile, s.uploader)
	return profile, nil
}
