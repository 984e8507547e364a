package auth

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// Gate resolves the caller of a request from its authorization value.
// An empty value yields common.ErrNoAuthorization; anything else that does
// not validate as an unexpired access token yields the codec's error.
// Both the HTTP middleware and the gRPC interceptor are built on it.
func Gate(codec *AccessCodec, header string, now time.Time) (*models.CurrentUser, error) {
	if strings.TrimSpace(header) == "" {
		return nil, common.ErrNoAuthorization
	}

	claims, err := codec.Validate(header, now, true)
	if err != nil {
		return nil, err
	}

	return &models.CurrentUser{UserID: claims.UserID, UserName: claims.UserName}, nil
}
