package interceptors

import (
	"context"
	"fmt"
	"runtime/debug"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"ngandee-matcher/internal/logging"
)

// RecoveryInterceptor returns a gRPC unary interceptor that recovers from panics
func RecoveryInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				stackTrace := string(debug.Stack())

				logger := logging.GetGlobalLogger()
				logger.Error("gRPC handler panic recovered", map[string]interface{}{
					"method":      info.FullMethod,
					"panic":       fmt.Sprintf("%v", r),
					"stack_trace": stackTrace,
					"type":        "grpc_panic",
				})

				err = status.Errorf(codes.Internal, "internal server error: %v", r)
				resp = nil
			}
		}()

		return handler(ctx, req)
	}
}

// StreamRecoveryInterceptor returns a gRPC streaming interceptor that recovers from panics
func StreamRecoveryInterceptor() grpc.StreamServerInterceptor {
	return func(
		srv interface{},
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) (err error) {
		defer func() {
			if r := recover(); r != nil {
				stackTrace := string(debug.Stack())

				logger := logging.GetGlobalLogger()
				logger.Error("gRPC stream handler panic recovered", map[string]interface{}{
					"method":      info.FullMethod,
					"panic":       fmt.Sprintf("%v", r),
					"stack_trace": stackTrace,
					"type":        "grpc_stream_panic",
				})

				err = status.Errorf(codes.Internal, "internal server error: %v", r)
			}
		}()

		return handler(srv, ss)
	}
}

// PanicRecoveryHandler is a customizable panic recovery handler
type PanicRecoveryHandler func(p interface{}) error

// RecoveryInterceptorWithHandler returns a gRPC unary interceptor with custom panic handler
func RecoveryInterceptorWithHandler(recoveryHandler PanicRecoveryHandler) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				stackTrace := string(debug.Stack())

				logger := logging.GetGlobalLogger()
				logger.Error("gRPC handler panic recovered", map[string]interface{}{
					"method":      info.FullMethod,
					"panic":       fmt.Sprintf("%v", r),
					"stack_trace": stackTrace,
					"type":        "grpc_panic",
				})

				if recoveryHandler != nil {
					err = recoveryHandler(r)
				} else {
					err = status.Errorf(codes.Internal, "internal server error: %v", r)
				}
				resp = nil
			}
		}()

		return handler(ctx, req)
	}
}

// DefaultPanicRecoveryHandler is the default panic recovery handler
func DefaultPanicRecoveryHandler() PanicRecoveryHandler {
	return func(p interface{}) error {
		return status.Errorf(codes.Internal, "internal server error: %v", p)
	}
}
