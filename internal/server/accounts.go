package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taxdesk-backend/internal/usecase"
)

func (s *Server) handleRegister(c *gin.Context) {
	var req usecase.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		s.err(c, http.StatusBadRequest, "BadRequest", "invalid json")
		return
	}
	u, err := s.auth.Register(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.json(c, http.StatusCreated, u)
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		s.err(c, http.StatusBadRequest, "BadRequest", "invalid json")
		return
	}
	token, u, err := s.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.json(c, http.StatusOK, gin.H{"token": token, "user": u})
}

func (s *Server) handleMe(c *gin.Context) {
	u, err := s.users.Me(c.Request.Context(), actorOf(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	s.json(c, http.StatusOK, u)
}

func (s *Server) handleUpdateMe(c *gin.Context) {
	var req usecase.ProfileInput
	if err := c.ShouldBindJSON(&req); err != nil {
		s.err(c, http.StatusBadRequest, "BadRequest", "invalid json")
		return
	}
	u, err := s.users.UpdateMe(c.Request.Context(), actorOf(c), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.json(c, http.StatusOK, u)
}

func (s *Server) handleListUsers(c *gin.Context) {
	list, err := s.users.ListCustomers(c.Request.Context(), actorOf(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	s.json(c, http.StatusOK, list)
}

func (s *Server) handleDeleteUser(c *gin.Context) {
	if err := s.users.Delete(c.Request.Context(), actorOf(c), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
