package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/conselho-tutelar/atendimento-service/internal/middleware"
	"github.com/conselho-tutelar/atendimento-service/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const msgInternalError = "Erro interno do servidor."

// ChangeNotifier is told when cases or users change so live dashboards can
// refresh.
type ChangeNotifier interface {
	Notify(ctx context.Context)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context) {}

func notifierOrNop(n ChangeNotifier) ChangeNotifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}

// RespondError writes a {"message": ...} error body.
func RespondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"message": message})
}

// LogAndRespondError logs err with the request logger and writes message.
func LogAndRespondError(c *gin.Context, status int, err error, message string) {
	logger := middleware.Logger(c)
	if status >= http.StatusInternalServerError {
		logger.Error(message, zap.Error(err))
	} else {
		logger.Debug(message, zap.Error(err))
	}
	RespondError(c, status, message)
}

// respondValidation writes 400 with the validation message when err is a
// validation error and reports whether it did.
func respondValidation(c *gin.Context, err error) bool {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		RespondError(c, http.StatusBadRequest, verr.Message)
		return true
	}
	return false
}
