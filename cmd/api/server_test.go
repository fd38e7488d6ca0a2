package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/api/dashboardv1"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/api/dashboardv1/dashboardv1connect"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/classification"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/client"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/parser"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/domain/ingest/repository"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/pkg/config"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/pkg/interceptors"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/pkg/metrics"
)

const testSecret = "server-test-secret"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{
			RateLimitPerSecond: 1000,
			RateLimitBurst:     1000,
			MaxRequestBytes:    64 * 1024,
			AllowedOrigins:     []string{"https://dashboard.example"},
		},
		Auth: config.AuthConfig{JWTSecret: testSecret, AdminRole: "admin"},
		Ingest: config.IngestConfig{
			SecondaryCurrency: "SGD",
			ChunkSlots:        8,
			ChunkIdleTimeout:  time.Minute,
			SweepSchedule:     "@every 1m",
			ChunkThreshold:    32 * 1024,
		},
		Storage: config.StorageConfig{Type: "local", LocalPath: t.TempDir()},
	}
}

func newTestServer(t *testing.T) (*httptest.Server, *Dependencies) {
	t.Helper()
	deps := &Dependencies{
		Config:       testConfig(t),
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics:      metrics.New(),
		DatasetRepo:  repository.NewMemoryDatasetRepository(),
		MappingStore: classification.NewMemoryStore(),
	}
	require.NoError(t, deps.initServices(context.Background()))
	deps.initHandlers()

	srv := httptest.NewServer(deps.routes())
	t.Cleanup(srv.Close)
	return srv, deps
}

func token(t *testing.T, role string) string {
	t.Helper()
	tok, err := interceptors.IssueToken([]byte(testSecret), "user-"+role, role, "acme", time.Hour)
	require.NoError(t, err)
	return tok
}

func withToken[T any](msg *T, tok string) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+tok)
	return req
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := srv.Client().Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+dashboardv1connect.IngestServiceUploadProcedure, nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://dashboard.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "authorization,content-type")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "https://dashboard.example", resp.Header.Get("Access-Control-Allow-Origin"))
}

// pnlRows builds a P&L export large enough to need chunking under the test
// request limit.
func pnlRows(n int) []parser.Record {
	rows := make([]parser.Record, 0, n+2)
	rows = append(rows,
		parser.RecordOf("Account", "Sales", "Jan 2024", 1000, "Feb 2024", 1200),
		parser.RecordOf("Account", "Rent", "Jan 2024", -300, "Feb 2024", -300),
	)
	for i := 0; i < n; i++ {
		rows = append(rows, parser.RecordOf("Account", "Consulting Sub-ledger Line With A Long Name "+string(rune('A'+i%26)), "Jan 2024", 1, "Feb 2024", 1))
	}
	return rows
}

func TestEndToEnd(t *testing.T) {
	srv, deps := newTestServer(t)
	ctx := context.Background()
	member, admin := token(t, "member"), token(t, "admin")

	ingest := dashboardv1connect.NewIngestServiceClient(client.NewHTTPClient(srv.Client()), srv.URL)
	classes := dashboardv1connect.NewClassificationServiceClient(srv.Client(), srv.URL)
	reports := dashboardv1connect.NewReportingServiceClient(srv.Client(), srv.URL)

	// Bank statement through the single upload path.
	_, err := ingest.Upload(ctx, withToken(&v1.UploadRequest{
		FileType: "transactions",
		Data: []parser.Record{
			parser.RecordOf("Date", "2024-01-01", "Description", "Opening", "Debit", 1000, "Credit", ""),
			parser.RecordOf("Date", "2024-01-05", "Description", "Sale", "Debit", 200, "Credit", ""),
			parser.RecordOf("Date", "2024-01-10", "Description", "Rent", "Debit", "", "Credit", 150),
		},
	}, member))
	require.NoError(t, err)

	summary, err := reports.TransactionSummary(ctx, withToken(&v1.TransactionSummaryRequest{}, member))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1050).Equal(summary.Msg.Summary.Closing))

	// A P&L export above the request limit goes through the chunked path.
	uploader := client.NewUploader(ingest, deps.Logger).
		WithToken(member).
		WithThreshold(deps.Config.Ingest.ChunkThreshold)
	res, err := uploader.Upload(ctx, "pnl", pnlRows(2000))
	require.NoError(t, err)
	assert.Equal(t, client.ModeChunked, res.Mode)
	assert.Equal(t, 2002, res.Dataset.Records)

	pnl, err := reports.ProfitAndLoss(ctx, withToken(&v1.ProfitAndLossRequest{}, member))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(2200).Equal(pnl.Msg.Report.Total.Revenue))
	assert.NotEmpty(t, pnl.Msg.Report.Unknown)

	// Members cannot replace the mapping; admins can, and reports follow.
	mapping := map[string]string{"Sales": "Qual Revenue", "Rent": "Admin Cost"}
	for i := 0; i < 26; i++ {
		mapping["Consulting Sub-ledger Line With A Long Name "+string(rune('A'+i))] = "Other Revenue"
	}
	_, err = classes.ReplaceMapping(ctx, withToken(&v1.ReplaceMappingRequest{Mapping: mapping}, member))
	assert.Equal(t, connect.CodePermissionDenied, connect.CodeOf(err))

	replaced, err := classes.ReplaceMapping(ctx, withToken(&v1.ReplaceMappingRequest{Mapping: mapping}, admin))
	require.NoError(t, err)
	assert.Equal(t, int64(2), replaced.Msg.Version)

	pnl, err = reports.ProfitAndLoss(ctx, withToken(&v1.ProfitAndLossRequest{}, member))
	require.NoError(t, err)
	assert.Empty(t, pnl.Msg.Report.Unknown)
	assert.True(t, decimal.NewFromInt(6200).Equal(pnl.Msg.Report.Total.Revenue), pnl.Msg.Report.Total.Revenue.String())

	// Oversized single requests are refused with resource_exhausted.
	_, err = ingest.Upload(ctx, withToken(&v1.UploadRequest{FileType: "pnl", Data: pnlRows(2000)}, member))
	assert.Equal(t, connect.CodeResourceExhausted, connect.CodeOf(err))
}
