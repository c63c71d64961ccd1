// Package httpapi holds the gin handlers for the public booking pages and the staff API.
// Handlers stay thin: bind and validate input, call a service, write JSON.
package httpapi

import (
	"errors"
	"math"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"missedcall/internal/apperr"
	"missedcall/internal/timegrid"
	"missedcall/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type errorBody struct {
	Error   apperr.Kind  `json:"error"`
	Message string       `json:"message"`
	Details []fieldError `json:"details,omitempty"`
}

// writeError maps err to its status and reason code. Business rejections
// are logged at debug only.
func writeError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	log := logger.FromGin(c)
	switch {
	case kind == apperr.KindGatewayFailure:
		log.Warn("request failed at gateway", "err", err)
	case !apperr.Expected(kind):
		log.Error("request failed", "err", err)
	default:
		log.Debug("request rejected", "kind", string(kind), "err", err)
	}
	if wait, ok := apperr.RetryAfter(err); ok {
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
	}
	c.AbortWithStatusJSON(apperr.HTTPStatus(kind), errorBody{Error: kind, Message: apperr.Message(err)})
}

var setupValidator sync.Once

// registerValidations makes field errors report json names and adds the hhmm tag.
func registerValidations() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		_, err := timegrid.ToMinutes(fl.Field().String())
		return err == nil
	})
}

// bindJSON decodes and validates the body into dst. On failure it writes a
// VALIDATION envelope and returns false.
func bindJSON(c *gin.Context, dst any) bool {
	setupValidator.Do(registerValidations)

	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}
	body := errorBody{Error: apperr.KindValidation, Message: "invalid request body"}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		body.Message = "request validation failed"
		for _, fe := range verrs {
			body.Details = append(body.Details, fieldError{Field: fe.Field(), Message: describe(fe)})
		}
	}
	logger.FromGin(c).Debug("request body rejected", "err", err)
	c.AbortWithStatusJSON(http.StatusBadRequest, body)
	return false
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "hhmm":
		return "must be HH:MM"
	case "datetime":
		return "must be " + fe.Param()
	case "email":
		return "must be an email address"
	case "max":
		return "must be at most " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return "is invalid"
	}
}
