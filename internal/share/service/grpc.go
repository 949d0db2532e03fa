package service

import (
	"context"
	"time"

	"github.com/lk2023060901/tomato-share/internal/pkg/metrics"
	"github.com/lk2023060901/tomato-share/internal/share/biz"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// FileServiceName gRPC 服务名
const FileServiceName = "tomatoshare.v1.FileService"

const getFileInfoMethod = "/" + FileServiceName + "/GetFileInfo"

// FileServiceServer 文件查询服务，请求与响应使用 protobuf 内置类型
type FileServiceServer interface {
	GetFileInfo(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
}

// RegisterFileServiceServer 注册到 gRPC server
func RegisterFileServiceServer(s grpc.ServiceRegistrar, srv FileServiceServer) {
	s.RegisterService(&fileServiceDesc, srv)
}

var fileServiceDesc = grpc.ServiceDesc{
	ServiceName: FileServiceName,
	HandlerType: (*FileServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetFileInfo",
			Handler:    getFileInfoHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "tomatoshare/v1/file.proto",
}

func getFileInfoHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FileServiceServer).GetFileInfo(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: getFileInfoMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(FileServiceServer).GetFileInfo(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// FileServiceClient gRPC 客户端
type FileServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewFileServiceClient(cc grpc.ClientConnInterface) *FileServiceClient {
	return &FileServiceClient{cc: cc}
}

func (c *FileServiceClient) GetFileInfo(ctx context.Context, id string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getFileInfoMethod, wrapperspb.String(id), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// GRPCFileService FileServiceServer 的实现
type GRPCFileService struct {
	transfer *biz.FileTransferClient
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewGRPCFileService(transfer *biz.FileTransferClient, m *metrics.Metrics, logger *zap.Logger) *GRPCFileService {
	return &GRPCFileService{transfer: transfer, metrics: m, logger: logger.Named("grpc")}
}

func (s *GRPCFileService) GetFileInfo(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	id := req.GetValue()
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}

	record := s.transfer.GetFileInfo(ctx, id)
	s.metrics.ObserveLookup(record != nil)
	if record == nil {
		return nil, status.Errorf(codes.NotFound, "file %s not found", id)
	}

	viewer := biz.NewViewer(record)
	out, err := structpb.NewStruct(map[string]interface{}{
		"id":         record.ID,
		"name":       record.Name,
		"url":        record.URL,
		"size":       float64(record.Size),
		"mime_type":  record.MimeType,
		"created_at": record.CreatedAt.UTC().Format(time.RFC3339),
		"viewer": map[string]interface{}{
			"kind":      string(viewer.Kind),
			"embed_url": viewer.EmbedURL,
			"size":      viewer.SizeLabel,
		},
	})
	if err != nil {
		s.logger.Error("build response failed", zap.String("id", id), zap.Error(err))
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}
