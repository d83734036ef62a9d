package services

import (
	"github.com/bekzat-dev/tournament-app/models"
	"github.com/bekzat-dev/tournament-app/storage"
)

func populateProfileAvatarURL(profile *models.Profile, uploader storage.FileUploader) {
	if profile == nil || uploader == nil {
		return
	}
	if profile.AvatarKey != nil && *profile.AvatarKey != "" {
		url := uploader.GetPublicURL(*profile.AvatarKey)
		if url != "" {
			profile.AvatarURL = &url
		}
	}
}

func populateProfileListAvatarURLs(profiles []models.Profile, uploader storage.FileUploader) {
	for i := range profiles {
		populateProfileAvatarURL(&profiles[i], uploader)
	}
}
