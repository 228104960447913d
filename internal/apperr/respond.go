package apperr

import (
	"errors"

	"github.com/gin-gonic/gin"

	"moviehub/internal/logging"
)

// Respond writes err as {"message": ..., "errors": {...}} with the status of
// its kind. Unrecognised errors become a 500 carrying the raw message.
func Respond(c *gin.Context, err error) {
	_ = c.Error(err)

	var ae *Error
	if !errors.As(err, &ae) {
		logging.Get().Error().Err(err).Str("path", c.FullPath()).Msg("unhandled error")
		c.AbortWithStatusJSON(KindInternal.Status(), gin.H{
			"message": err.Error(),
			"errors":  gin.H{},
		})
		return
	}

	fields := ae.Fields
	if fields == nil {
		fields = map[string]string{}
	}
	msg := ae.Message
	if ae.Kind == KindInternal && ae.Err != nil {
		msg = ae.Error()
		logging.Get().Error().Err(ae.Err).Str("path", c.FullPath()).Msg(ae.Message)
	}
	c.AbortWithStatusJSON(ae.Kind.Status(), gin.H{
		"message": msg,
		"errors":  fields,
	})
}
