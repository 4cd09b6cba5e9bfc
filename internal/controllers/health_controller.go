package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"fitforge/internal/apperrors"
)

func Health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			respondError(c, apperrors.Unavailable("Database unreachable"))
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	}
}
