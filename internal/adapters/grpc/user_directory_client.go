package grpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/ports"
)

const banUserMethod = "/viralforge.profile.v1.ProfileInternalService/BanUser"

// UserDirectoryClient executes bans against the profile service, which owns
// account state for the whole mesh. Requests are struct-encoded the same way
// the mesh's internal servers register their methods, so no generated stubs
// are needed here.
type UserDirectoryClient struct {
	conn *grpc.ClientConn
}

func NewUserDirectoryClient(endpoint string) (*UserDirectoryClient, error) {
	conn, err := grpc.NewClient(endpoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial profile grpc: %w", err)
	}
	return &UserDirectoryClient{conn: conn}, nil
}

func (c *UserDirectoryClient) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Ban implements ports.UserDirectory.
func (c *UserDirectoryClient) Ban(ctx context.Context, userID, reason string) error {
	req, err := structpb.NewStruct(map[string]any{
		"user_id": userID,
		"reason":  reason,
	})
	if err != nil {
		return fmt.Errorf("build ban request: %w", err)
	}
	resp := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, banUserMethod, req, resp); err != nil {
		return fmt.Errorf("invoke ban user: %w", err)
	}
	return nil
}

var _ ports.UserDirectory = (*UserDirectoryClient)(nil)
