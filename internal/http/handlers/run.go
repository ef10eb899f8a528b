package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	repos "github.com/studyforge/curriculum-backend/internal/data/repos/curriculum"
	"github.com/studyforge/curriculum-backend/internal/http/response"
	"github.com/studyforge/curriculum-backend/internal/pkg/dbctx"
	"github.com/studyforge/curriculum-backend/internal/platform/logger"
)

type RunHandler struct {
	log  *logger.Logger
	runs repos.IngestionRunRepo
}

func NewRunHandler(log *logger.Logger, runs repos.IngestionRunRepo) *RunHandler {
	return &RunHandler{log: log.With("handler", "RunHandler"), runs: runs}
}

func (h *RunHandler) ListRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	rows, err := h.runs.ListRecent(dbctx.Context{Ctx: c.Request.Context()}, limit)
	if err != nil {
		h.log.Error("ListRuns failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "load_runs_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"runs": rows})
}
