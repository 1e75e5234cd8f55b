package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleCreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Error:   fmt.Sprintf("invalid request: %v", err),
		})
		return
	}

	created, err := s.orchestrator.StartSession(c.Request.Context(), req.OwnerID, req.Name, req.Description, req.Context)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: sessionView(created)})
}

func (s *Server) handleGetSession(c *gin.Context) {
	loaded, err := s.orchestrator.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: sessionView(loaded)})
}

// handleListSessions lists sessions for ?owner=, or all active sessions when
// no owner is given.
func (s *Server) handleListSessions(c *gin.Context) {
	ctx := c.Request.Context()

	if owner := c.Query("owner"); owner != "" {
		sessions, err := s.orchestrator.ListSessionsByOwner(ctx, owner)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, APIResponse{Success: true, Data: sessionViews(sessions)})
		return
	}

	sessions, err := s.orchestrator.ListActiveSessions(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: sessionViews(sessions)})
}

func (s *Server) handleEndSession(c *gin.Context) {
	ended, err := s.orchestrator.EndSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: sessionView(ended)})
}

func (s *Server) handlePauseSession(c *gin.Context) {
	paused, err := s.orchestrator.PauseSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: sessionView(paused)})
}

func (s *Server) handleResumeSession(c *gin.Context) {
	resumed, err := s.orchestrator.ResumeSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: sessionView(resumed)})
}

// handleSendMessage runs one chat turn. Generation failures degrade to the
// fallback answer inside the orchestrator, so a 200 here does not guarantee
// a fresh completion.
func (s *Server) handleSendMessage(c *gin.Context) {
	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Error:   fmt.Sprintf("invalid request: %v", err),
		})
		return
	}

	sessionID := c.Param("id")
	answer, err := s.orchestrator.ProcessUserMessage(c.Request.Context(), sessionID, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    MessageResponse{SessionID: sessionID, Response: answer},
	})
}

func (s *Server) handleGenerate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Error:   fmt.Sprintf("invalid request: %v", err),
		})
		return
	}

	answer, err := s.orchestrator.GenerateResponse(c.Request.Context(), req.Input, req.Context)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: MessageResponse{Response: answer}})
}
