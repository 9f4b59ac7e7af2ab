package grpc

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

func startBufServer(t *testing.T, services ...string) (*bufconn.Listener, func(string, grpc_health_v1.HealthCheckResponse_ServingStatus)) {
	t.Helper()
	lis := bufconn.Listen(1 << 16)
	srv := gogrpc.NewServer()
	hs := RegisterHealth(srv, services...)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)
	return lis, hs.SetServingStatus
}

func bufDialOptions(lis *bufconn.Listener) []gogrpc.DialOption {
	return []gogrpc.DialOption{
		gogrpc.WithTransportCredentials(insecure.NewCredentials()),
		gogrpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	}
}

func TestDialWaitsForServing(t *testing.T) {
	lis, _ := startBufServer(t)
	conn, err := Dial(context.Background(), "passthrough:///bufnet", 2*time.Second, nil, bufDialOptions(lis)...)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	_ = conn.Close()
}

func TestDialReportsHealthStage(t *testing.T) {
	lis, set := startBufServer(t)
	set("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	_, err := Dial(context.Background(), "passthrough:///bufnet", 300*time.Millisecond, nil, bufDialOptions(lis)...)
	var dialErr *DialError
	if !errors.As(err, &dialErr) {
		t.Fatalf("err = %v, want *DialError", err)
	}
	if dialErr.Stage != DialStageHealth {
		t.Fatalf("stage = %q, want %q", dialErr.Stage, DialStageHealth)
	}
}

func TestWaitForHealthTransitionsToServing(t *testing.T) {
	lis, set := startBufServer(t, "spinvault.ledger.v1.LedgerService")
	set("spinvault.ledger.v1.LedgerService", grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	conn, err := gogrpc.NewClient("passthrough:///bufnet", bufDialOptions(lis)...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer conn.Close()

	go func() {
		time.Sleep(150 * time.Millisecond)
		set("spinvault.ledger.v1.LedgerService", grpc_health_v1.HealthCheckResponse_SERVING)
	}()

	var logs []string
	logf := func(format string, args ...any) { logs = append(logs, format) }
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := WaitForHealth(ctx, conn, "spinvault.ledger.v1.LedgerService", logf); err != nil {
		t.Fatalf("wait for health: %v", err)
	}
	if len(logs) == 0 {
		t.Fatal("expected waiting log lines before SERVING")
	}
}

func TestWaitForHealthRejectsNilConn(t *testing.T) {
	if err := WaitForHealth(context.Background(), nil, "", nil); err == nil {
		t.Fatal("expected error for nil connection")
	}
}

func TestDialErrorFormatting(t *testing.T) {
	err := &DialError{Stage: DialStageConnect, Err: errors.New("boom")}
	if !strings.Contains(err.Error(), "gRPC connect") {
		t.Fatalf("Error() = %q", err.Error())
	}
	var nilErr *DialError
	if nilErr.Error() == "" || nilErr.Unwrap() != nil {
		t.Fatal("nil DialError should format and unwrap to nil")
	}
}
