package logger

import (
	"context"
	"path"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// requestIDMetadataKey carries the request id across gRPC hops
const requestIDMetadataKey = "x-request-id"

// GRPCInterceptorOptions configures the gRPC interceptor
type GRPCInterceptorOptions struct {
	// SkipMethods is a list of methods to skip logging (e.g., "/grpc.health.v1.Health/Check")
	SkipMethods []string
}

// UnaryServerInterceptor returns a unary server interceptor for logging
func UnaryServerInterceptor(l *Logger, opts GRPCInterceptorOptions) grpc.UnaryServerInterceptor {
	skip := make(map[string]bool, len(opts.SkipMethods))
	for _, m := range opts.SkipMethods {
		skip[m] = true
	}

	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		requestID := extractRequestID(ctx)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx = ToContext(WithRequestID(ctx, requestID), l)

		if skip[info.FullMethod] {
			return handler(ctx, req)
		}

		start := time.Now()
		resp, err := handler(ctx, req)

		st, _ := status.FromError(err)
		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("service", path.Dir(info.FullMethod)[1:]),
			zap.String("rpc", path.Base(info.FullMethod)),
			zap.Duration("latency", time.Since(start)),
			zap.String("code", st.Code().String()),
		}
		if err != nil {
			fields = append(fields, zap.String("message", st.Message()))
		}

		switch st.Code() {
		case codes.OK:
			l.Info("gRPC call", fields...)
		case codes.Canceled, codes.DeadlineExceeded, codes.NotFound, codes.InvalidArgument:
			l.Warn("gRPC call", fields...)
		default:
			l.Error("gRPC call", fields...)
		}

		return resp, err
	}
}

// UnaryRecoveryInterceptor turns handler panics into codes.Internal
func UnaryRecoveryInterceptor(l *Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				l.Error("gRPC panic recovered",
					zap.String("method", info.FullMethod),
					zap.Any("error", r),
					zap.Stack("stacktrace"),
				)
				err = status.Error(codes.Internal, "internal error")
			}
		}()
		return handler(ctx, req)
	}
}

// extractRequestID extracts request ID from incoming metadata
func extractRequestID(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if values := md.Get(requestIDMetadataKey); len(values) > 0 {
		return values[0]
	}
	return ""
}
