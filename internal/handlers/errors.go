package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/thereayou/voxus/internal/services"
)

var statusByCode = map[string]int{
	services.CodeNotFound:        http.StatusNotFound,
	services.CodeForbidden:       http.StatusForbidden,
	services.CodeConflict:        http.StatusConflict,
	services.CodeAlreadyMember:   http.StatusConflict,
	services.CodeInvalidArgument: http.StatusBadRequest,
	services.CodeUploadFailed:    http.StatusBadGateway,
	services.CodeUnavailable:     http.StatusServiceUnavailable,
}

// respondError переводит ошибку ядра в HTTP-ответ {"code","error"}
func respondError(c *gin.Context, err error) {
	code := services.Code(err)
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}

	msg := err.Error()
	if status >= http.StatusInternalServerError {
		c.Error(err)
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		if status == http.StatusInternalServerError {
			msg = "internal error"
		}
	}

	c.JSON(status, gin.H{"code": code, "error": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"code": services.CodeInvalidArgument, "error": msg})
}

// paramUUID разбирает uuid из пути, при ошибке сам отвечает 400
func paramUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
