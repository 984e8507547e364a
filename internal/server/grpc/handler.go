package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	serviceName       = "authkeeper.auth.v1.AuthInternalService"
	methodValidate    = "/" + serviceName + "/ValidateToken"
	methodWhoAmI      = "/" + serviceName + "/WhoAmI"
	validateTokenName = "ValidateToken"
	whoAmIName        = "WhoAmI"
)

// AuthInternalService is implemented by GRPCServer. Messages are
// structpb.Struct so no generated code is needed.
type AuthInternalService interface {
	ValidateToken(context.Context, *structpb.Struct) (*structpb.Struct, error)
	WhoAmI(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func Register(server grpc.ServiceRegistrar, svc AuthInternalService) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*AuthInternalService)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: validateTokenName,
				Handler:    unaryHandler(methodValidate, svc.ValidateToken),
			},
			{
				MethodName: whoAmIName,
				Handler:    unaryHandler(methodWhoAmI, svc.WhoAmI),
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "authkeeper/auth/v1/auth_internal.proto",
	}, svc)
}

// ValidateToken reports the claims of an unexpired access token. Any
// failure is Unauthenticated with the same message.
func (s *GRPCServer) ValidateToken(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	token := req.GetFields()["token"].GetStringValue()
	if token == "" {
		return nil, status.Error(codes.InvalidArgument, "missing token")
	}

	claims, err := s.codec.Validate(token, time.Now(), true)
	if err != nil {
		s.logger.Debug(ctx, "token rejected", "error", err.Error())
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	}

	resp, err := structpb.NewStruct(map[string]any{
		"valid":      true,
		"user_id":    claims.UserID,
		"username":   claims.UserName,
		"expires_at": claims.ExpiresAt.Unix(),
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "build response: %v", err)
	}
	return resp, nil
}

// WhoAmI returns the identity the interceptor resolved from the
// authorization metadata.
func (s *GRPCServer) WhoAmI(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	current, ok := currentUserFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}

	resp, err := structpb.NewStruct(map[string]any{
		"user_id":  current.UserID,
		"username": current.UserName,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "build response: %v", err)
	}
	return resp, nil
}

func unaryHandler(fullMethod string, call func(context.Context, *structpb.Struct) (*structpb.Struct, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := &structpb.Struct{}
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(ctx, req)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			typed, ok := req.(*structpb.Struct)
			if !ok {
				return nil, status.Error(codes.InvalidArgument, "invalid request type")
			}
			return call(ctx, typed)
		}
		return interceptor(ctx, req, info, handler)
	}
}
