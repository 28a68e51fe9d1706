package apihttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tidemark/internal/ledger"
	"tidemark/internal/market/snapshot"
)

type fakeSnapshots struct {
	snap *snapshot.Snapshot
	err  error
}

func (f *fakeSnapshots) Build(_ context.Context, symbol string) (*snapshot.Snapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := *f.snap
	out.Symbol = symbol
	return &out, nil
}

type fakeLedger struct {
	records []ledger.DecisionRecord
	stats   ledger.Statistics
}

func (f *fakeLedger) ReadRecent(n int) ([]ledger.DecisionRecord, error) {
	if len(f.records) > n {
		return f.records[len(f.records)-n:], nil
	}
	return f.records, nil
}

func (f *fakeLedger) ComputeStatistics() (ledger.Statistics, error) {
	return f.stats, nil
}

func newTestServer(t *testing.T, snapshots SnapshotProvider, reader LedgerReader) *httptest.Server {
	t.Helper()
	srv, err := NewServer(ServerConfig{Snapshots: snapshots, Ledger: reader, Lookback: 5})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp.StatusCode
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, &fakeSnapshots{snap: &snapshot.Snapshot{CurrentPrice: 1}}, &fakeLedger{})
	var body map[string]string
	status := getJSON(t, ts.URL+"/healthz", &body)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestMarketSnapshotEndpoint(t *testing.T) {
	ts := newTestServer(t, &fakeSnapshots{snap: &snapshot.Snapshot{CurrentPrice: 123.45}}, &fakeLedger{})

	var snap snapshot.Snapshot
	status := getJSON(t, ts.URL+"/api/market/BTCUSDT", &snap)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "BTCUSDT", snap.Symbol)
	assert.Equal(t, 123.45, snap.CurrentPrice)
}

func TestMarketSnapshotInsufficientData(t *testing.T) {
	buildErr := fmt.Errorf("%w: no current price for NEWUSDT", snapshot.ErrInsufficientData)
	ts := newTestServer(t, &fakeSnapshots{err: buildErr}, &fakeLedger{})

	var body map[string]string
	status := getJSON(t, ts.URL+"/api/market/NEWUSDT", &body)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body["error"], "NEWUSDT")
}

func TestMarketSnapshotUpstreamFailure(t *testing.T) {
	ts := newTestServer(t, &fakeSnapshots{err: errors.New("connection reset")}, &fakeLedger{})

	var body map[string]string
	status := getJSON(t, ts.URL+"/api/market/BTCUSDT", &body)
	assert.Equal(t, http.StatusBadGateway, status)
}

func TestMarketReportEndpoint(t *testing.T) {
	ts := newTestServer(t, &fakeSnapshots{snap: &snapshot.Snapshot{CurrentPrice: 100}}, &fakeLedger{})

	resp, err := http.Get(ts.URL + "/api/market/BTCUSDT/report")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
}

func TestPerformanceEndpoint(t *testing.T) {
	reader := &fakeLedger{records: []ledger.DecisionRecord{
		{Success: true, Decisions: []ledger.DecisionAction{
			{Action: ledger.ActionOpenLong, Symbol: "BTCUSDT", Quantity: 2, Leverage: 5, Price: 100, Success: true},
		}},
		{Success: true, Decisions: []ledger.DecisionAction{
			{Action: ledger.ActionCloseLong, Symbol: "BTCUSDT", Quantity: 2, Price: 110, Timestamp: 1000, Success: true},
		}},
	}}
	ts := newTestServer(t, &fakeSnapshots{snap: &snapshot.Snapshot{CurrentPrice: 1}}, reader)

	var body struct {
		TotalTrades int `json:"total_trades"`
	}
	status := getJSON(t, ts.URL+"/api/performance?lookback=2", &body)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, body.TotalTrades)
}

func TestStatisticsEndpoint(t *testing.T) {
	reader := &fakeLedger{stats: ledger.Statistics{TotalCycles: 3, SuccessfulCycles: 2, FailedCycles: 1}}
	ts := newTestServer(t, &fakeSnapshots{snap: &snapshot.Snapshot{CurrentPrice: 1}}, reader)

	var stats ledger.Statistics
	status := getJSON(t, ts.URL+"/api/statistics", &stats)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, reader.stats, stats)
}

func TestRecentDecisionsEndpoint(t *testing.T) {
	reader := &fakeLedger{records: []ledger.DecisionRecord{
		{CycleNumber: 1}, {CycleNumber: 2}, {CycleNumber: 3},
	}}
	ts := newTestServer(t, &fakeSnapshots{snap: &snapshot.Snapshot{CurrentPrice: 1}}, reader)

	var body struct {
		Count   int                     `json:"count"`
		Records []ledger.DecisionRecord `json:"records"`
	}
	status := getJSON(t, ts.URL+"/api/decisions/recent?n=2", &body)
	assert.Equal(t, http.StatusOK, status)
	require.Equal(t, 2, body.Count)
	assert.Equal(t, int64(2), body.Records[0].CycleNumber)
	assert.Equal(t, int64(3), body.Records[1].CycleNumber)
}

func TestNewServerRequiresDependencies(t *testing.T) {
	_, err := NewServer(ServerConfig{})
	assert.Error(t, err)
}
