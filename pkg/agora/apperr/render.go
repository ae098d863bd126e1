package apperr

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/mikepea/agora/pkg/agora/observability"
	"github.com/moogar0880/problems"
)

// Respond writes err as an application/problem+json document and aborts
// the handler chain. Unclassified errors become a generic 500 and their
// cause is only logged.
func Respond(c *gin.Context, err error) {
	var e *Error
	if !errors.As(err, &e) {
		e = Wrap(Internal, err, "Internal server error")
	}

	status := e.Kind.Status()
	if status >= 500 {
		observability.Logger(c).Error("request failed",
			slog.String("kind", e.Kind.String()),
			slog.String("error", err.Error()),
		)
	}

	problem := problems.NewDetailedProblem(status, e.Message)
	problem.Instance = c.Request.URL.Path
	if e.Kind == Unauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	c.Header("Content-Type", problems.ProblemMediaType)
	c.AbortWithStatusJSON(status, problem)
}
