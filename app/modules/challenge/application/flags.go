package challengeservice

import (
	"strings"

	challengedomain "github.com/Black-And-White-Club/ctf-platform/app/modules/challenge/domain"
	"github.com/Black-And-White-Club/ctf-platform/app/shared/apperr"
)

// GenerateFlag creates a random flag. An empty prefix uses the configured one.
func (s *ChallengeService) GenerateFlag(prefix string, length int) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = s.config.FlagPrefix
	}
	if length < 0 || length > challengedomain.MaxFlagLength {
		return "", apperr.Validation("Flag length must be between 1 and %d!", challengedomain.MaxFlagLength)
	}
	return challengedomain.GenerateFlag(prefix, length)
}

// ValidateFlag checks a flag against PREFIX{payload}.
func (s *ChallengeService) ValidateFlag(flag, prefix string) FlagCheck {
	flag = strings.TrimSpace(flag)
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = s.config.FlagPrefix
	}
	return FlagCheck{
		Flag:  flag,
		Valid: challengedomain.ValidateFlagFormat(flag, prefix),
		Hash:  challengedomain.HashFlag(flag),
	}
}
