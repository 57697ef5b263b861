package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ppiankov/inclusify/internal/history"
	"github.com/ppiankov/inclusify/internal/logging"
	"github.com/ppiankov/inclusify/internal/model"
	"github.com/ppiankov/inclusify/internal/score"
)

type errorResponse struct {
	Error string `json:"error"`
}

type analyzeRequest struct {
	Text     string `json:"text"`
	Segments bool   `json:"segments"`
}

type analyzeResponse struct {
	model.Analysis
	Segments []model.Segment `json:"segments,omitempty"`
	Score    model.Score     `json:"score"`
}

type rulesResponse struct {
	Version     int              `json:"version"`
	Fingerprint string           `json:"fingerprint"`
	Rules       []model.TermRule `json:"rules"`
}

func (s *Server) analyze(c *gin.Context) {
	// JSON escaping can expand text, so the body limit is looser than the text limit
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, int64(s.cfg.MaxTextBytes)*2+64<<10)

	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
			return
		}
		c.JSON(http.StatusBadRequest, errorResponse{Error: "malformed JSON: " + err.Error()})
		return
	}
	if len(req.Text) > s.cfg.MaxTextBytes {
		c.JSON(http.StatusRequestEntityTooLarge, errorResponse{
			Error: "text exceeds " + strconv.Itoa(s.cfg.MaxTextBytes) + " bytes",
		})
		return
	}

	report, err := s.pipeline.AnalyzeText(c.Request.Context(), req.Text, model.Source{Kind: model.SourceText, Name: "api"})
	if err != nil {
		s.logger.Error("analysis failed", logging.Err(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "analysis failed"})
		return
	}
	s.metrics.ObserveAnalysis(report.Analysis.Counts)

	resp := analyzeResponse{Analysis: report.Analysis, Score: report.Score}
	if req.Segments {
		resp.Segments = report.Segments
		if resp.Segments == nil {
			resp.Segments = []model.Segment{}
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) rules(c *gin.Context) {
	table := s.pipeline.Engine().Table()
	c.JSON(http.StatusOK, rulesResponse{
		Version:     table.Version(),
		Fingerprint: table.Fingerprint(),
		Rules:       table.Rules(),
	})
}

func (s *Server) stats(c *gin.Context) {
	top := score.DefaultTopTerms
	if v := c.Query("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "top must be a non-negative integer"})
			return
		}
		top = n
	}

	stats, err := s.history.Stats(top)
	if errors.Is(err, history.ErrDisabled) {
		c.JSON(http.StatusNotFound, errorResponse{Error: "history disabled"})
		return
	}
	if err != nil {
		s.logger.Error("stats failed", logging.Err(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "stats unavailable"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"rules":  s.pipeline.Engine().Table().Len(),
	})
}
