package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"copilot/internal/skills"
)

// handleListSkills lists skill definitions, optionally filtered by
// ?active=, ?service= and ?type=.
func (s *Server) handleListSkills(c *gin.Context) {
	ctx := c.Request.Context()

	var listed []*skills.Skill
	var err error
	switch {
	case c.Query("service") != "":
		listed, err = s.registry.GetByService(ctx, c.Query("service"))
	case c.Query("type") != "":
		listed, err = s.registry.GetByType(ctx, c.Query("type"))
	default:
		listed, err = s.registry.GetAll(ctx)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	if raw := c.Query("active"); raw != "" {
		want, parseErr := strconv.ParseBool(raw)
		if parseErr != nil {
			c.JSON(http.StatusBadRequest, APIResponse{
				Success: false,
				Error:   fmt.Sprintf("invalid active filter: %v", parseErr),
			})
			return
		}
		filtered := listed[:0]
		for _, skill := range listed {
			if skill.Active == want {
				filtered = append(filtered, skill)
			}
		}
		listed = filtered
	}

	views := make([]SkillView, 0, len(listed))
	for _, skill := range listed {
		views = append(views, skillView(skill))
	}
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: views})
}

func (s *Server) handleAvailableSkills(c *gin.Context) {
	names, err := s.orchestrator.ListSkills(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: names})
}

// handleExecuteSkill runs a skill and relays the raw downstream body. When
// the downstream is exhausted the body is its structured error payload, so
// the caller still receives usable JSON alongside the 502.
func (s *Server) handleExecuteSkill(c *gin.Context) {
	var req ExecuteSkillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Error:   fmt.Sprintf("invalid request: %v", err),
		})
		return
	}

	body, err := s.orchestrator.ExecuteSkill(c.Request.Context(), c.Param("name"), req.Parameters)
	if err != nil {
		if body != "" {
			c.Data(http.StatusBadGateway, "application/json", []byte(body))
			return
		}
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", []byte(body))
}

func (s *Server) handleValidateSkill(c *gin.Context) {
	executable := s.orchestrator.ValidateSkill(c.Request.Context(), c.Param("name"))
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    gin.H{"skill": c.Param("name"), "executable": executable},
	})
}
