package handler

import (
	"github.com/gin-gonic/gin"

	"plantao/backend/internal/api/middleware"
	"plantao/backend/pkg/response"
)

// MustGetUserID reads the caller id injected by JWTAuth.
// On false a 401 has already been written and the handler should return.
func MustGetUserID(c *gin.Context) (string, bool) {
	return mustGetString(c, middleware.ContextUserID)
}

// MustGetRole reads the caller role injected by JWTAuth.
func MustGetRole(c *gin.Context) (string, bool) {
	return mustGetString(c, middleware.ContextRole)
}

func mustGetString(c *gin.Context, key string) (string, bool) {
	v, exists := c.Get(key)
	if !exists {
		response.Unauthorized(c, 10002, "não autenticado")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "não autenticado")
		return "", false
	}
	return s, true
}

// pathID reads a required path parameter, writing a 400 when it is empty.
func pathID(c *gin.Context, name, label string) (string, bool) {
	id := c.Param(name)
	if id == "" {
		response.BadRequest(c, 10001, label+" não pode ser vazio")
		return "", false
	}
	return id, true
}
