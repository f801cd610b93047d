package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taxdesk-backend/internal/domain"
)

func (s *Server) handleListPackages(c *gin.Context) {
	pkgs, err := s.packages.ListActive(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	s.json(c, http.StatusOK, pkgs)
}

func (s *Server) handleGetPackage(c *gin.Context) {
	p, err := s.packages.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if p == nil {
		s.err(c, http.StatusNotFound, "NotFound", "package not found")
		return
	}
	s.json(c, http.StatusOK, p)
}

func (s *Server) handleAdminPackages(c *gin.Context) {
	list, err := s.packages.Summaries(c.Request.Context(), actorOf(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	s.json(c, http.StatusOK, list)
}

func (s *Server) handleCreatePackage(c *gin.Context) {
	var in domain.PackageInput
	if err := c.ShouldBindJSON(&in); err != nil {
		s.err(c, http.StatusBadRequest, "BadRequest", "invalid json")
		return
	}
	p, err := s.packages.Create(c.Request.Context(), actorOf(c), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.json(c, http.StatusCreated, p)
}

func (s *Server) handleUpdatePackage(c *gin.Context) {
	var in domain.PackageInput
	if err := c.ShouldBindJSON(&in); err != nil {
		s.err(c, http.StatusBadRequest, "BadRequest", "invalid json")
		return
	}
	p, err := s.packages.Update(c.Request.Context(), actorOf(c), c.Param("id"), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.json(c, http.StatusOK, p)
}

func (s *Server) handleDeletePackage(c *gin.Context) {
	if err := s.packages.Delete(c.Request.Context(), actorOf(c), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
