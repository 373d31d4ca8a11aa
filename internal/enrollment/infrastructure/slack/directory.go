package slack

import (
	"context"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/meetbridge/internal/enrollment/application"
	"github.com/slack-go/slack"
)

// Directory resolves users to the email on their Slack profile.
type Directory struct {
	api *slack.Client
}

// NewDirectory creates a Directory.
func NewDirectory(api *slack.Client) *Directory {
	return &Directory{api: api}
}

// ContactAddress returns the profile email of userID. Lookup failures and
// empty emails both wrap application.ErrContactUnavailable.
func (d *Directory) ContactAddress(ctx context.Context, userID string) (string, error) {
	user, err := d.api.GetUserInfoContext(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("%w: users.info %s: %v", application.ErrContactUnavailable, userID, err)
	}
	email := strings.TrimSpace(user.Profile.Email)
	if email == "" {
		return "", fmt.Errorf("%w: user %s has no email", application.ErrContactUnavailable, userID)
	}
	return email, nil
}
