package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"fitforge/internal/apperrors"
	"fitforge/internal/middleware"
	"fitforge/internal/services"
)

// respondError writes err with the status of its taxonomy code. Internal
// causes are logged and never sent to the client.
func respondError(c *gin.Context, err error) {
	appErr := apperrors.From(err)
	if appErr.HTTPCode >= http.StatusInternalServerError {
		logrus.WithError(err).WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"request_id": c.GetString("request_id"),
		}).Error("request failed")
	}
	c.AbortWithStatusJSON(appErr.HTTPCode, appErr)
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, apperrors.Validation("Invalid request payload", err.Error()))
		return false
	}
	return true
}

func bindQuery(c *gin.Context, dst any) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		respondError(c, apperrors.Validation("Invalid query parameters", err.Error()))
		return false
	}
	return true
}

func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondError(c, apperrors.Validation("Invalid "+name, nil))
		return 0, false
	}
	return uint(id), true
}

func queryInt(c *gin.Context, name string) int {
	n, _ := strconv.Atoi(c.Query(name))
	return n
}

// actor reads the caller set by middleware.RequireAuth.
func actor(c *gin.Context) (services.Actor, bool) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		respondError(c, apperrors.ErrUnauthorized)
		return services.Actor{}, false
	}
	return services.Actor{UserID: claims.UserID, Email: claims.Email, Role: claims.Role}, true
}
