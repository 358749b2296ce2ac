package api

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"quantsim/internal/aggregate"
	"quantsim/internal/config"
	"quantsim/internal/engine"
	"quantsim/internal/export"
	"quantsim/internal/infrastructure"
	"quantsim/internal/model"
	"quantsim/internal/optimize"
	"quantsim/internal/push"
	"quantsim/internal/strategy"
)

type Handler struct {
	provider  engine.CandleProvider
	runs      *engine.RunRepository
	publisher *push.ResultPublisher
	cfg       config.Config
	logger    *zap.Logger
}

func NewHandler(provider engine.CandleProvider, runs *engine.RunRepository, publisher *push.ResultPublisher, cfg config.Config, logger *zap.Logger) *Handler {
	return &Handler{
		provider:  provider,
		runs:      runs,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
	}
}

func normalizeSymbol(symbol string) string {
	symbol = strings.ReplaceAll(strings.ToUpper(symbol), "-", "")
	return strings.ReplaceAll(symbol, "/", "")
}

// backtestRequest is shared by the backtest, optimize and walk-forward
// endpoints; the latter two add their own fields.
type backtestRequest struct {
	Exchange       string             `json:"exchange"`
	Symbol         string             `json:"symbol" binding:"required"`
	Timeframe      model.Timeframe    `json:"timeframe" binding:"required"`
	StrategyType   string             `json:"strategy_type" binding:"required"`
	Params         map[string]float64 `json:"params"`
	StartTime      time.Time          `json:"start_time" binding:"required"`
	EndTime        time.Time          `json:"end_time" binding:"required"`
	AggregateTo    model.Timeframe    `json:"aggregate_to"`
	ExportDir      string             `json:"export_dir"`
	InitialBalance *float64           `json:"initial_balance"`
	StopLossPct    float64            `json:"stop_loss_pct"`
	TakeProfitPct  float64            `json:"take_profit_pct"`
	MaxLossPct     float64            `json:"max_loss_per_trade_pct"`
}

func (h *Handler) buildConfig(req backtestRequest) model.BacktestConfig {
	initial := h.cfg.InitialBalance
	if req.InitialBalance != nil {
		initial = *req.InitialBalance
	}
	cfg := model.DefaultConfig(decimal.NewFromFloat(initial))
	cfg.TakerFeeRate = decimal.NewFromFloat(h.cfg.TakerFeeRate)
	cfg.MakerFeeRate = decimal.NewFromFloat(h.cfg.MakerFeeRate)
	cfg.SlippageRate = decimal.NewFromFloat(h.cfg.SlippageRate)
	cfg.StopLossPct = decimal.NewFromFloat(req.StopLossPct)
	cfg.TakeProfitPct = decimal.NewFromFloat(req.TakeProfitPct)
	cfg.MaxLossPerTrade = decimal.NewFromFloat(req.MaxLossPct)
	return cfg
}

func (h *Handler) loadCandles(c *gin.Context, req backtestRequest) ([]model.Candle, bool) {
	if !req.Timeframe.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported timeframe"})
		return nil, false
	}
	candles, err := h.provider.Candles(c.Request.Context(),
		req.Exchange, normalizeSymbol(req.Symbol), req.Timeframe, req.StartTime, req.EndTime)
	if err != nil {
		h.logger.Error("failed to load candles", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load candles"})
		return nil, false
	}
	if len(candles) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no candles in range"})
		return nil, false
	}

	// Stored series can be rolled up to a coarser timeframe before the run.
	switch req.AggregateTo {
	case "":
	case model.TF1d:
		candles, err = aggregate.Daily(candles)
	case "1w":
		candles, err = aggregate.Weekly(candles)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "aggregate_to supports 1d or 1w"})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	return candles, true
}

func (h *Handler) GetCandles(c *gin.Context) {
	symbol := normalizeSymbol(c.Param("symbol"))
	tf := model.Timeframe(c.DefaultQuery("timeframe", "1h"))
	if !tf.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported timeframe"})
		return
	}

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -7)
	candles, err := h.provider.Candles(c.Request.Context(), c.Query("exchange"), symbol, tf, start, end)
	if err != nil {
		h.logger.Error("failed to query candles", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, candles)
}

func (h *Handler) RunBacktest(c *gin.Context) {
	var req backtestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	candles, ok := h.loadCandles(c, req)
	if !ok {
		return
	}

	strat, err := strategy.New(req.StrategyType, req.Params)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	started := time.Now()
	result, err := engine.NewBacktester(strat, req.Params, h.buildConfig(req), h.logger).Run(candles)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	infrastructure.BacktestsRun.WithLabelValues(result.StrategyName).Inc()
	infrastructure.BacktestLatency.WithLabelValues(result.StrategyName).Observe(time.Since(started).Seconds())

	if h.runs != nil {
		if _, err := h.runs.SaveRun(c.Request.Context(), result); err != nil {
			h.logger.Warn("failed to persist run summary", zap.Error(err))
		}
	}
	h.publisher.PublishBacktest(result)

	if req.ExportDir != "" {
		if err := h.exportResult(req.ExportDir, result); err != nil {
			h.logger.Warn("failed to export result files", zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, result)
}

// exportResult writes trades.csv, equity.csv and result.json under dir.
func (h *Handler) exportResult(dir string, res *model.BacktestResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{"trades.csv", func(w io.Writer) error { return export.WriteTradesCSV(w, res.Trades) }},
		{"equity.csv", func(w io.Writer) error { return export.WriteEquityCSV(w, res.EquityCurve) }},
		{"result.json", func(w io.Writer) error { return export.WriteResultJSON(w, res) }},
	}
	for _, f := range files {
		out, err := os.Create(filepath.Join(dir, f.name))
		if err != nil {
			return err
		}
		if err := f.write(out); err != nil {
			out.Close()
			return err
		}
		if err := out.Close(); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) RunOptimization(c *gin.Context) {
	var req struct {
		backtestRequest
		Grid   model.ParameterGrid `json:"grid" binding:"required"`
		Metric string              `json:"metric"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Metric == "" {
		req.Metric = model.MetricTotalReturn
	}

	candles, ok := h.loadCandles(c, req.backtestRequest)
	if !ok {
		return
	}

	search := &optimize.GridSearch{
		StrategyType: req.StrategyType,
		Grid:         req.Grid,
		Metric:       req.Metric,
		Config:       h.buildConfig(req.backtestRequest),
		Workers:      h.cfg.OptimizerWorkers,
		Logger:       h.logger,
	}
	result, err := search.Run(c.Request.Context(), candles)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.publisher.PublishOptimization(normalizeSymbol(req.Symbol), result)

	c.JSON(http.StatusOK, result)
}

func (h *Handler) RunWalkForward(c *gin.Context) {
	var req struct {
		backtestRequest
		Grid            model.ParameterGrid `json:"grid" binding:"required"`
		Metric          string              `json:"metric"`
		InSampleMonths  int                 `json:"in_sample_months" binding:"required"`
		OutSampleMonths int                 `json:"out_sample_months" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Metric == "" {
		req.Metric = model.MetricTotalReturn
	}

	candles, ok := h.loadCandles(c, req.backtestRequest)
	if !ok {
		return
	}

	wf := &optimize.WalkForward{
		StrategyType:    req.StrategyType,
		Grid:            req.Grid,
		Metric:          req.Metric,
		Config:          h.buildConfig(req.backtestRequest),
		InSampleMonths:  req.InSampleMonths,
		OutSampleMonths: req.OutSampleMonths,
		Workers:         h.cfg.OptimizerWorkers,
		Logger:          h.logger,
	}
	result, err := wf.Run(c.Request.Context(), candles)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.publisher.PublishWalkForward(normalizeSymbol(req.Symbol), result)

	c.JSON(http.StatusOK, result)
}

func (h *Handler) RunMultiPeriod(c *gin.Context) {
	var req struct {
		backtestRequest
		Eras []model.HistoricalEra `json:"eras" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	candles, ok := h.loadCandles(c, req.backtestRequest)
	if !ok {
		return
	}

	mp := &optimize.MultiPeriod{
		StrategyType: req.StrategyType,
		Params:       req.Params,
		Config:       h.buildConfig(req.backtestRequest),
		Eras:         req.Eras,
		Logger:       h.logger,
	}
	result, err := mp.Run(c.Request.Context(), candles)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) ListRuns(c *gin.Context) {
	if h.runs == nil {
		c.JSON(http.StatusOK, []engine.RunSummary{})
		return
	}
	runs, err := h.runs.RecentRuns(c.Request.Context(), 100)
	if err != nil {
		h.logger.Error("failed to list runs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, runs)
}
