package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	draftdomain "github.com/smallbiznis/flowdesk/internal/draft/domain"
	"github.com/smallbiznis/flowdesk/internal/draft/session"
)

type editorSessionResponse struct {
	SessionID string                `json:"session_id"`
	State     session.State         `json:"state"`
	Document  draftdomain.Document  `json:"document"`
	Candidate *draftdomain.Document `json:"candidate,omitempty"`
}

func sessionResponse(m *session.Manager) editorSessionResponse {
	return editorSessionResponse{
		SessionID: m.ID(),
		State:     m.State(),
		Document:  m.Snapshot(),
		Candidate: m.Candidate(),
	}
}

// OpenEditorSession starts a new editor session. A previous session, if any,
// is closed. When a recoverable draft exists the response carries it as the
// candidate and the session waits for a resolve call.
func (s *Server) OpenEditorSession(c *gin.Context) {
	m, _, err := s.editor.Open(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": sessionResponse(m)})
}

func (s *Server) GetEditorSession(c *gin.Context) {
	m, ok := s.activeSession(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": sessionResponse(m)})
}

type resolveDraftRequest struct {
	Resume *bool `json:"resume"`
}

func (s *Server) ResolveDraftChoice(c *gin.Context) {
	m, ok := s.activeSession(c)
	if !ok {
		return
	}

	var req resolveDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Resume == nil {
		AbortWithError(c, newValidationError("resume", "invalid_resume", "resume is required"))
		return
	}

	if err := m.ResolveDraftChoice(c.Request.Context(), *req.Resume); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": sessionResponse(m)})
}

func (s *Server) ApplyEdit(c *gin.Context) {
	m, ok := s.activeSession(c)
	if !ok {
		return
	}

	var patch session.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	doc, err := m.ApplyEdit(c.Request.Context(), patch)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": doc})
}

func (s *Server) CommitEditorSession(c *gin.Context) {
	m, ok := s.activeSession(c)
	if !ok {
		return
	}

	invoice, err := m.Commit(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": invoice})
}

func (s *Server) CloseEditorSession(c *gin.Context) {
	if _, ok := s.activeSession(c); !ok {
		return
	}
	s.editor.Close()

	c.Status(http.StatusNoContent)
}

func (s *Server) activeSession(c *gin.Context) (*session.Manager, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		AbortWithError(c, invalidRequestError())
		return nil, false
	}
	m, err := s.editor.Active(id)
	if err != nil {
		AbortWithError(c, err)
		return nil, false
	}
	return m, true
}
