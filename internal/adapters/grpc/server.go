package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/application"
)

// ModerationInternalService is the service-to-service surface. M36-risk-service
// reads moderation summaries from here when scoring sellers; other internal
// callers can pre-check text without going through the public gateway.
type ModerationInternalService interface {
	GetModerationSummary(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CheckContent(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type ModerationInternalServer struct {
	service *application.Service
}

func NewModerationInternalServer(service *application.Service) *ModerationInternalServer {
	return &ModerationInternalServer{service: service}
}

func Register(server grpc.ServiceRegistrar, svc ModerationInternalService) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: "viralforge.moderation.v1.ModerationInternalService",
		HandlerType: (*ModerationInternalService)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "GetModerationSummary",
				Handler:    getModerationSummaryHandler(svc),
			},
			{
				MethodName: "CheckContent",
				Handler:    checkContentHandler(svc),
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "mesh/contracts/proto/moderation/v1/moderation_internal.proto",
	}, svc)
}

func (s *ModerationInternalServer) GetModerationSummary(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID := stringField(req, "user_id")
	if userID == "" {
		return nil, status.Error(codes.InvalidArgument, "missing user_id")
	}

	summary, err := s.service.GetModerationSummary(ctx, userID)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "get moderation summary: %v", err)
	}

	resp, err := structpb.NewStruct(map[string]any{
		"user_id":         summary.UserID,
		"score":           summary.Score,
		"level":           summary.Level,
		"violation_count": summary.ViolationCount,
		"report_count":    summary.ReportCount,
		"recent_flags":    summary.RecentFlags,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "build response: %v", err)
	}
	return resp, nil
}

func (s *ModerationInternalServer) CheckContent(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	content := stringField(req, "content")
	authorID := stringField(req, "author_id")
	if content == "" || authorID == "" {
		return nil, status.Error(codes.InvalidArgument, "missing content or author_id")
	}

	res, err := s.service.Evaluate(ctx, application.EvaluateRequest{
		Content:  content,
		AuthorID: authorID,
		Context: application.RequestContext{
			SourceID: stringField(req, "source_id"),
			Kind:     stringField(req, "kind"),
		},
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "evaluate content: %v", err)
	}

	categories := make([]any, 0, len(res.Verdict.Categories))
	for _, c := range res.Verdict.Categories {
		categories = append(categories, c)
	}
	resp, err := structpb.NewStruct(map[string]any{
		"allowed":                 res.Verdict.Allowed,
		"severity":                string(res.Verdict.Severity),
		"categories":              categories,
		"confidence":              res.Verdict.Confidence,
		"reason":                  res.Verdict.Reason,
		"action_kind":             string(res.Action.Kind),
		"action_duration_seconds": res.Action.DurationSeconds,
		"action_reason":           res.Action.Reason,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "build response: %v", err)
	}
	return resp, nil
}

func stringField(req *structpb.Struct, name string) string {
	val := req.GetFields()[name]
	if val == nil {
		return ""
	}
	return val.GetStringValue()
}

func getModerationSummaryHandler(svc ModerationInternalService) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := &structpb.Struct{}
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return svc.GetModerationSummary(ctx, req)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/viralforge.moderation.v1.ModerationInternalService/GetModerationSummary",
		}
		handler := func(ctx context.Context, req any) (any, error) {
			typed, ok := req.(*structpb.Struct)
			if !ok {
				return nil, status.Error(codes.InvalidArgument, "invalid request type")
			}
			return svc.GetModerationSummary(ctx, typed)
		}
		return interceptor(ctx, req, info, handler)
	}
}

func checkContentHandler(svc ModerationInternalService) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := &structpb.Struct{}
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return svc.CheckContent(ctx, req)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/viralforge.moderation.v1.ModerationInternalService/CheckContent",
		}
		handler := func(ctx context.Context, req any) (any, error) {
			typed, ok := req.(*structpb.Struct)
			if !ok {
				return nil, status.Error(codes.InvalidArgument, "invalid request type")
			}
			return svc.CheckContent(ctx, typed)
		}
		return interceptor(ctx, req, info, handler)
	}
}
