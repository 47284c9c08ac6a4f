package grpcserver_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"jobmate/harvester-service/internal/grpcserver"
	"jobmate/harvester-service/internal/lifecycle"
	"jobmate/harvester-service/internal/model"
	"jobmate/harvester-service/internal/store"
	"jobmate/harvester-service/internal/supervisor"
)

type fakeController struct {
	outcome lifecycle.StopOutcome
}

func (f *fakeController) Start(context.Context, model.RunConfig) (int, error) { return 555, nil }

func (f *fakeController) Stop(context.Context, int, string) (lifecycle.StopOutcome, error) {
	return f.outcome, nil
}

func (f *fakeController) RequestStop(context.Context, string) error { return nil }

type nameNamer struct{}

func (nameNamer) Platform(cfg model.RunConfig) (string, error) { return cfg.Name, nil }

func dial(t *testing.T, outcome lifecycle.StopOutcome) *grpcserver.Client {
	t.Helper()
	ctx := context.Background()
	mem := store.NewMemory()
	require.NoError(t, mem.Write(ctx, model.RunProgress{Platform: "Live", Total: 3, Current: 1, Status: model.StatusRunning}))
	require.NoError(t, mem.SetProcessHandle(ctx, "Live", 12))
	require.NoError(t, mem.Write(ctx, model.RunProgress{Platform: "Done", Status: model.StatusCompleted}))
	require.NoError(t, mem.Save(ctx, model.JobRecord{JobID: 8, Position: "Analyst"}))
	svc := supervisor.NewService(mem, mem, &fakeController{outcome: outcome}, nameNamer{}, nil)

	lis := bufconn.Listen(1 << 20)
	gs := grpc.NewServer()
	grpcserver.Register(gs, grpcserver.NewServer(svc))
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return grpcserver.NewClient(conn)
}

func TestPing(t *testing.T) {
	c := dial(t, lifecycle.StopStopped)

	ts, err := c.Ping(context.Background())

	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), ts.AsTime(), time.Minute)
}

func TestListRuns(t *testing.T) {
	c := dial(t, lifecycle.StopStopped)

	out, err := c.ListRuns(context.Background(), "running")
	require.NoError(t, err)
	runs := out.Fields["runs"].GetListValue().GetValues()
	require.Len(t, runs, 1)
	run := runs[0].GetStructValue().AsMap()
	assert.Equal(t, "Live", run["platform"])
	assert.Equal(t, true, run["stoppable"])

	_, err = c.ListRuns(context.Background(), "bogus")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestStartRun(t *testing.T) {
	c := dial(t, lifecycle.StopStopped)
	ctx := context.Background()

	req, err := structpb.NewStruct(map[string]any{"name": "New", "url": "https://new", "company_id": 4, "save": true})
	require.NoError(t, err)
	out, err := c.StartRun(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "New", out.Fields["platform"].GetStringValue())
	assert.Equal(t, float64(555), out.Fields["pid"].GetNumberValue())

	busy, err := structpb.NewStruct(map[string]any{"name": "Live", "url": "https://live"})
	require.NoError(t, err)
	_, err = c.StartRun(ctx, busy)
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	missing, err := structpb.NewStruct(map[string]any{"source": "not-in-catalog"})
	require.NoError(t, err)
	_, err = c.StartRun(ctx, missing)
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestStopRun_Outcomes(t *testing.T) {
	cases := []struct {
		outcome lifecycle.StopOutcome
		code    codes.Code
	}{
		{lifecycle.StopStopped, codes.OK},
		{lifecycle.StopNotFound, codes.NotFound},
		{lifecycle.StopDenied, codes.PermissionDenied},
	}
	for _, tc := range cases {
		t.Run(tc.outcome.String(), func(t *testing.T) {
			c := dial(t, tc.outcome)
			_, err := c.StopRun(context.Background(), "Live", false)
			assert.Equal(t, tc.code, status.Code(err))
		})
	}
}

func TestStopRun_Errors(t *testing.T) {
	c := dial(t, lifecycle.StopStopped)
	ctx := context.Background()

	_, err := c.StopRun(ctx, "", false)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = c.StopRun(ctx, "Done", false)
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	_, err = c.StopRun(ctx, "Ghost", false)
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestQueryJobs(t *testing.T) {
	c := dial(t, lifecycle.StopStopped)

	out, err := c.QueryJobs(context.Background(), 5)

	require.NoError(t, err)
	jobs := out.Fields["jobs"].GetListValue().GetValues()
	require.Len(t, jobs, 1)
	assert.Equal(t, "Analyst", jobs[0].GetStructValue().Fields["jobposition"].GetStringValue())
}
