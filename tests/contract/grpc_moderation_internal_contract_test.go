package contract

import (
	"context"
	"testing"
	"time"

	grpcadapter "github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/adapters/grpc"
	"github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/domain"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestGetModerationSummaryContract(t *testing.T) {
	t.Parallel()

	audit := &contractAudit{}
	now := time.Now().UTC()
	audit.seedViolations("seller-7", 5, now.Add(-time.Hour))
	audit.seedViolations("seller-7", 1, now.Add(-30*24*time.Hour))
	audit.seedReports("seller-7", 2, now.Add(-time.Hour))
	server := grpcadapter.NewModerationInternalServer(newContractServiceWith(audit))

	req, err := structpb.NewStruct(map[string]any{"user_id": "seller-7"})
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := server.GetModerationSummary(context.Background(), req)
	if err != nil {
		t.Fatalf("get moderation summary failed: %v", err)
	}

	fields := resp.GetFields()
	if got := fields["user_id"].GetStringValue(); got != "seller-7" {
		t.Fatalf("unexpected user_id %q", got)
	}
	// 6 violations and 2 reports leave the seller at score 50.
	if got := int(fields["score"].GetNumberValue()); got != 50 {
		t.Fatalf("expected score 50, got %d", got)
	}
	if got := fields["level"].GetStringValue(); got != string(domain.LevelNormal) {
		t.Fatalf("expected normal level, got %q", got)
	}
	if got := int(fields["violation_count"].GetNumberValue()); got != 6 {
		t.Fatalf("expected 6 violations, got %d", got)
	}
	if got := int(fields["report_count"].GetNumberValue()); got != 2 {
		t.Fatalf("expected 2 reports, got %d", got)
	}
	if got := int(fields["recent_flags"].GetNumberValue()); got != 5 {
		t.Fatalf("expected 5 recent flags, got %d", got)
	}
}

func TestGetModerationSummaryRejectsMissingUserID(t *testing.T) {
	t.Parallel()

	server := grpcadapter.NewModerationInternalServer(newContractService())
	_, err := server.GetModerationSummary(context.Background(), &structpb.Struct{})
	if err == nil {
		t.Fatalf("expected invalid argument error")
	}
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected invalid argument, got %s", status.Code(err))
	}
}

func TestCheckContentContract(t *testing.T) {
	t.Parallel()

	server := grpcadapter.NewModerationInternalServer(newContractService())

	req, err := structpb.NewStruct(map[string]any{
		"content":   "that badword again",
		"author_id": "author-g",
		"source_id": "stream-1",
		"kind":      "chat",
	})
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := server.CheckContent(context.Background(), req)
	if err != nil {
		t.Fatalf("check content failed: %v", err)
	}

	fields := resp.GetFields()
	if fields["allowed"].GetBoolValue() {
		t.Fatalf("expected content to be rejected")
	}
	if got := fields["severity"].GetStringValue(); got != string(domain.SeverityMedium) {
		t.Fatalf("expected medium severity, got %q", got)
	}
	if got := fields["action_kind"].GetStringValue(); got != string(domain.ActionMute) {
		t.Fatalf("expected mute action, got %q", got)
	}
	if got := int(fields["action_duration_seconds"].GetNumberValue()); got != domain.MuteSeconds {
		t.Fatalf("expected %ds duration, got %d", domain.MuteSeconds, got)
	}

	allowedReq, err := structpb.NewStruct(map[string]any{
		"content":   "lovely craftsmanship on this table",
		"author_id": "author-g",
	})
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	allowedResp, err := server.CheckContent(context.Background(), allowedReq)
	if err != nil {
		t.Fatalf("check content failed: %v", err)
	}
	if !allowedResp.GetFields()["allowed"].GetBoolValue() {
		t.Fatalf("expected clean content to pass")
	}
	if got := allowedResp.GetFields()["action_kind"].GetStringValue(); got != string(domain.ActionAllow) {
		t.Fatalf("expected allow action, got %q", got)
	}
}

func TestCheckContentRejectsMissingFields(t *testing.T) {
	t.Parallel()

	server := grpcadapter.NewModerationInternalServer(newContractService())

	req, err := structpb.NewStruct(map[string]any{"content": "hello"})
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if _, err := server.CheckContent(context.Background(), req); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}
