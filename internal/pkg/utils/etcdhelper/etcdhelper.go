// Package etcdhelper provides an etcd client for tests.
//
// Tests are connected to the etcd instance defined by the UNIT_ETCD_ENDPOINT
// environment variable and are skipped when it is not set.
// Each test runs in a random namespace, so tests can run in parallel.
package etcdhelper

import (
	"context"
	"os"
	"time"

	"github.com/gofrs/uuid/v5"
	etcd "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/fleetinit/fleetinit/internal/pkg/service/common/etcdclient"
)

type testOrBenchmark interface {
	Cleanup(f func())
	Skipf(format string, args ...any)
	Fatalf(format string, args ...any)
}

func ClientForTest(t testOrBenchmark) *etcd.Client {
	ctx := context.Background()

	if os.Getenv("UNIT_ETCD_ENABLED") == "false" {
		t.Skipf("etcd test is disabled by UNIT_ETCD_ENABLED=false")
	}

	endpoint := os.Getenv("UNIT_ETCD_ENDPOINT")
	if endpoint == "" {
		t.Skipf("etcd test is disabled, UNIT_ETCD_ENDPOINT is not set")
	}

	client, err := etcd.New(etcd.Config{
		Context:              ctx,
		Endpoints:            []string{endpoint},
		DialTimeout:          2 * time.Second,
		DialKeepAliveTimeout: 2 * time.Second,
		DialKeepAliveTime:    10 * time.Second,
		Username:             os.Getenv("UNIT_ETCD_USERNAME"), // optional
		Password:             os.Getenv("UNIT_ETCD_PASSWORD"), // optional
		Logger:               zap.NewNop(),
		DialOptions: []grpc.DialOption{
			grpc.WithBlock(), // wait for the connection
			grpc.WithReturnConnectionError(),
		},
	})
	if err != nil {
		t.Fatalf("cannot create etcd client: %s", err)
	}

	// Isolate the test in a random namespace, clear it at the end
	namespace := "test-" + uuid.Must(uuid.NewV4()).String() + "/"
	etcdclient.UseNamespace(client, namespace)
	t.Cleanup(func() {
		_, _ = client.Delete(ctx, "", etcd.WithPrefix())
		_ = client.Close()
	})

	return client
}
