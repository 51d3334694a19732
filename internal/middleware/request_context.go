package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stwalsh4118/dossier/api/internal/models"
)

// Gin context keys.
const (
	RequestIDKey = "request_id"
	ActorKey     = "actor"
	LoggerKey    = "logger"
)

// Headers set by the upstream proxy. The actor headers are trusted as-is:
// authentication happens at the gateway.
const (
	RequestIDHeader  = "X-Request-ID"
	ActorIDHeader    = "X-Actor-ID"
	ActorEmailHeader = "X-Actor-Email"
	ActorRolesHeader = "X-Actor-Roles"
)

// RequestID propagates the caller's request ID or generates one, and echoes
// it in the response headers.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set(RequestIDKey, requestID)
		c.Writer.Header().Set(RequestIDHeader, requestID)

		c.Next()
	}
}

// GetRequestID retrieves the request ID from the Gin context.
// Returns an empty string if not found.
func GetRequestID(c *gin.Context) string {
	if requestID, exists := c.Get(RequestIDKey); exists {
		if id, ok := requestID.(string); ok {
			return id
		}
	}
	return ""
}

// Actor builds the acting identity from the gateway headers. A request
// without X-Actor-ID carries the zero Actor, which is unauthenticated.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ActorKey, models.Actor{
			ID:    strings.TrimSpace(c.GetHeader(ActorIDHeader)),
			Email: strings.TrimSpace(c.GetHeader(ActorEmailHeader)),
			Roles: parseRoles(c.GetHeader(ActorRolesHeader)),
		})
		c.Next()
	}
}

// GetActor retrieves the actor from the Gin context.
// Returns the zero Actor if not found.
func GetActor(c *gin.Context) models.Actor {
	if v, exists := c.Get(ActorKey); exists {
		if actor, ok := v.(models.Actor); ok {
			return actor
		}
	}
	return models.Actor{}
}

// parseRoles splits a comma-separated role list, normalizing case.
func parseRoles(header string) []string {
	if header == "" {
		return nil
	}

	var roles []string
	for _, part := range strings.Split(header, ",") {
		if role := strings.ToLower(strings.TrimSpace(part)); role != "" {
			roles = append(roles, role)
		}
	}
	return roles
}
