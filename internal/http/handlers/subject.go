package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	redisclient "github.com/studyforge/curriculum-backend/internal/clients/redis"
	repos "github.com/studyforge/curriculum-backend/internal/data/repos/curriculum"
	types "github.com/studyforge/curriculum-backend/internal/domain/curriculum"
	"github.com/studyforge/curriculum-backend/internal/http/response"
	"github.com/studyforge/curriculum-backend/internal/pkg/dbctx"
	"github.com/studyforge/curriculum-backend/internal/platform/logger"
	"github.com/studyforge/curriculum-backend/internal/validation"
)

type SubjectHandler struct {
	log       *logger.Logger
	subjects  repos.SubjectRepo
	topics    repos.TopicRepo
	validator *validation.Validator
	reports   *redisclient.ReportCache
}

func NewSubjectHandler(log *logger.Logger, subjects repos.SubjectRepo, topics repos.TopicRepo, validator *validation.Validator, reports *redisclient.ReportCache) *SubjectHandler {
	return &SubjectHandler{
		log:       log.With("handler", "SubjectHandler"),
		subjects:  subjects,
		topics:    topics,
		validator: validator,
		reports:   reports,
	}
}

func (h *SubjectHandler) ListSubjects(c *gin.Context) {
	subjects, err := h.subjects.ListCurrent(dbctx.Context{Ctx: c.Request.Context()})
	if err != nil {
		h.log.Error("ListSubjects failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "load_subjects_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"subjects": subjects})
}

// TreeNode is a topic with its children nested, for display consumers.
type TreeNode struct {
	ID       uuid.UUID   `json:"id"`
	Code     string      `json:"code"`
	Name     string      `json:"name"`
	Level    int         `json:"level"`
	Children []*TreeNode `json:"children,omitempty"`
}

func (h *SubjectHandler) GetSubjectTree(c *gin.Context) {
	subjectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_subject_id", err)
		return
	}
	dbc := dbctx.Context{Ctx: c.Request.Context()}

	subject, err := h.subjects.GetByID(dbc, subjectID)
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "subject_not_found", err)
		return
	}
	topics, err := h.topics.ListBySubjectID(dbc, subjectID)
	if err != nil {
		h.log.Error("GetSubjectTree failed", "subject_id", subjectID, "error", err)
		response.RespondError(c, http.StatusInternalServerError, "load_topics_failed", err)
		return
	}
	response.RespondOK(c, gin.H{
		"subject": subject,
		"tree":    buildTree(topics),
	})
}

func (h *SubjectHandler) GetSubjectReport(c *gin.Context) {
	subjectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_subject_id", err)
		return
	}

	if h.reports != nil {
		if raw, err := h.reports.Get(c.Request.Context(), subjectID); err == nil && raw != nil {
			var cached validation.Report
			if err := json.Unmarshal(raw, &cached); err == nil {
				response.RespondOK(c, gin.H{"report": cached, "cached": true})
				return
			}
		}
	}

	report, err := h.validator.ValidateSubject(c.Request.Context(), subjectID)
	if err != nil {
		h.log.Error("GetSubjectReport failed", "subject_id", subjectID, "error", err)
		response.RespondError(c, http.StatusInternalServerError, "validate_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"report": report, "cached": false})
}

// buildTree nests topics by parent pointer; orphans and roots surface at
// the top level, in sort order.
func buildTree(topics []*types.Topic) []*TreeNode {
	nodes := make(map[uuid.UUID]*TreeNode, len(topics))
	for _, t := range topics {
		nodes[t.ID] = &TreeNode{ID: t.ID, Code: t.Code, Name: t.Name, Level: t.Level}
	}
	roots := []*TreeNode{}
	for _, t := range topics {
		n := nodes[t.ID]
		if t.ParentTopicID != nil {
			if parent, ok := nodes[*t.ParentTopicID]; ok {
				parent.Children = append(parent.Children, n)
				continue
			}
		}
		roots = append(roots, n)
	}
	return roots
}
