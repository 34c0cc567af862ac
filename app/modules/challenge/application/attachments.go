package challengeservice

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	authdomain "github.com/Black-And-White-Club/ctf-platform/app/modules/auth/domain"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/apperr"
)

var (
	ErrNoAttachment       = apperr.NotFound("No attachment available for this challenge!")
	ErrAttachmentNotFound = apperr.NotFound("Attachment file not found!")
)

// Attachment resolves the file to send for a challenge download. Only the
// base name of the stored filename is used, so the path never leaves the
// attachments directory.
func (s *ChallengeService) Attachment(ctx context.Context, caller authdomain.Identity, id int64) (*AttachmentFile, error) {
	c, err := s.visibleChallenge(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if c.AttachmentFilename == "" || s.config.AttachmentsDir == "" {
		return nil, ErrNoAttachment
	}

	name := filepath.Base(filepath.Clean("/" + c.AttachmentFilename))
	if name == "/" || name == "." || name == ".." {
		return nil, ErrAttachmentNotFound
	}
	path := filepath.Join(s.config.AttachmentsDir, name)

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrAttachmentNotFound
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, ErrAttachmentNotFound
	}
	return &AttachmentFile{Path: path, Filename: name}, nil
}
