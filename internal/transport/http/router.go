package apihttp

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tidemark/internal/ledger"
	"tidemark/internal/market/snapshot"
	"tidemark/internal/perf"
)

// SnapshotProvider 是路由对快照构建器的最小依赖。
type SnapshotProvider interface {
	Build(ctx context.Context, symbol string) (*snapshot.Snapshot, error)
}

// LedgerReader 是路由对决策账本的最小依赖。
type LedgerReader interface {
	ReadRecent(n int) ([]ledger.DecisionRecord, error)
	ComputeStatistics() (ledger.Statistics, error)
}

// Router 暴露行情快照与绩效查询接口。
type Router struct {
	snapshots SnapshotProvider
	ledger    LedgerReader
	lookback  int
}

func NewRouter(snapshots SnapshotProvider, ledgerReader LedgerReader, lookback int) *Router {
	if lookback <= 0 {
		lookback = 50
	}
	return &Router{snapshots: snapshots, ledger: ledgerReader, lookback: lookback}
}

// Register 将接口挂载到给定分组下。
func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	if r.snapshots != nil {
		group.GET("/market/:symbol", r.handleSnapshot)
		group.GET("/market/:symbol/report", r.handleSnapshotReport)
	}
	if r.ledger != nil {
		group.GET("/performance", r.handlePerformance)
		group.GET("/statistics", r.handleStatistics)
		group.GET("/decisions/recent", r.handleRecentDecisions)
	}
}

func (r *Router) handleSnapshot(c *gin.Context) {
	snap, ok := r.buildSnapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (r *Router) handleSnapshotReport(c *gin.Context) {
	snap, ok := r.buildSnapshot(c)
	if !ok {
		return
	}
	c.String(http.StatusOK, snapshot.Render(snap))
}

func (r *Router) buildSnapshot(c *gin.Context) (*snapshot.Snapshot, bool) {
	symbol := c.Param("symbol")
	snap, err := r.snapshots.Build(c.Request.Context(), symbol)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, snapshot.ErrInsufficientData) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"symbol": symbol, "error": err.Error()})
		return nil, false
	}
	return snap, true
}

func (r *Router) handlePerformance(c *gin.Context) {
	lookback := queryInt(c, "lookback", r.lookback)
	analysis, err := perf.AnalyzeLedger(r.ledger, lookback)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, analysis)
}

func (r *Router) handleStatistics(c *gin.Context) {
	stats, err := r.ledger.ComputeStatistics()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (r *Router) handleRecentDecisions(c *gin.Context) {
	n := queryInt(c, "n", 10)
	if n <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "n must be positive"})
		return
	}
	records, err := r.ledger.ReadRecent(n)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if records == nil {
		records = []ledger.DecisionRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(records), "records": records})
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
