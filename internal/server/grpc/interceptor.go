package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// protectedMethods need a caller identity.
var protectedMethods = map[string]bool{
	methodWhoAmI: true,
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {

	if protectedMethods[info.FullMethod] {

		var header string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			values := md.Get(common.AuthorizationHeaderName)
			if len(values) > 0 {
				header = values[0]
			}
		}

		current, err := auth.Gate(s.codec, header, time.Now())
		if err != nil {
			if errors.Is(err, common.ErrNoAuthorization) {
				return nil, status.Error(codes.Unauthenticated, "missing token")
			}
			return nil, status.Error(codes.Unauthenticated, "unauthorized")
		}

		ctx = context.WithValue(ctx, currentUserKey, *current)

	}

	return handler(ctx, req)
}

func currentUserFromContext(ctx context.Context) (models.CurrentUser, bool) {
	u, ok := ctx.Value(currentUserKey).(models.CurrentUser)
	return u, ok
}
