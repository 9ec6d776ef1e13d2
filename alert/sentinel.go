package alert

import (
	"context"
	"fmt"
	"maps"

	"github.com/code19m/errx"
	sentinelpb "github.com/code19m/sentinel/pb"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// SentinelProvider sends alerts to a Sentinel service over gRPC.
type SentinelProvider struct {
	cfg            Config
	serviceName    string
	serviceVersion string

	client sentinelpb.SentinelServiceClient
	conn   *grpc.ClientConn
}

// NewSentinelProvider creates the gRPC client for cfg. The connection is established
// lazily on the first alert. A disabled cfg yields a provider that sends nothing.
func NewSentinelProvider(cfg Config, serviceName, serviceVersion string) (*SentinelProvider, error) {
	if cfg.Disable {
		return &SentinelProvider{cfg: cfg}, nil
	}

	conn, err := grpc.NewClient(
		fmt.Sprintf("%s:%d", cfg.SentinelHost, cfg.SentinelPort),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	)
	if err != nil {
		return nil, errx.Wrap(err, errx.WithDetails(errx.D{
			"sentinel_host": cfg.SentinelHost,
			"sentinel_port": cfg.SentinelPort,
		}))
	}

	return &SentinelProvider{
		cfg:            cfg,
		serviceName:    serviceName,
		serviceVersion: serviceVersion,
		client:         sentinelpb.NewSentinelServiceClient(conn),
		conn:           conn,
	}, nil
}

// SendError reports one error to Sentinel within cfg.SendTimeout. The caller's
// cancellation does not abort delivery. details is not modified.
func (sp *SentinelProvider) SendError(
	ctx context.Context,
	errCode, msg, operation string,
	details map[string]string,
) error {
	if sp.cfg.Disable {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sp.cfg.SendTimeout)
	defer cancel()

	sent := make(map[string]string, len(details)+1)
	maps.Copy(sent, details)
	sent["service_version"] = sp.serviceVersion

	_, err := sp.client.SendError(ctx, &sentinelpb.ErrorInfo{
		Code:      errCode,
		Message:   msg,
		Service:   sp.serviceName,
		Operation: operation,
		Details:   sent,
	})
	return errx.Wrap(err, errx.WithDetails(errx.D{"error_code": errCode, "operation": operation}))
}

// Close releases the gRPC connection.
func (sp *SentinelProvider) Close() error {
	if sp.conn != nil {
		return errx.Wrap(sp.conn.Close())
	}
	return nil
}
