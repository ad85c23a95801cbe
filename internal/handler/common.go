package handler

import (
	"errors"
	"net/http"
	"strconv"

	"event-lifecycle/internal/model"
	apperrors "event-lifecycle/pkg/app_errors"
	"event-lifecycle/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const actorKey = "actor"

// 穩定的機器可讀錯誤代號
const (
	KindNotFound           = "NOT_FOUND"
	KindForbidden          = "FORBIDDEN"
	KindUnauthorized       = "UNAUTHORIZED"
	KindInvalidState       = "INVALID_STATE"
	KindAlreadyCheckedIn   = "ALREADY_CHECKED_IN"
	KindAlreadyRegistered  = "ALREADY_REGISTERED"
	KindCapacityExceeded   = "CAPACITY_EXCEEDED"
	KindStockExceeded      = "STOCK_EXCEEDED"
	KindValidationError    = "VALIDATION_ERROR"
	KindStorageUnavailable = "STORAGE_UNAVAILABLE"
	KindInternal           = "INTERNAL"
)

func BindJson(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		Fail(c, http.StatusBadRequest, KindValidationError, "Invalid request format")
		return err
	}
	return nil
}

func BindQuery(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindQuery(obj); err != nil {
		Fail(c, http.StatusBadRequest, KindValidationError, "Invalid request format")
		return err
	}
	return nil
}

// ParamUUID 解析路徑上的 uuid 參數，失敗時直接回應 400
func ParamUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		Fail(c, http.StatusBadRequest, KindValidationError, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// OK 統一回應格式 {ok, data}
func OK(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{"ok": true, "data": data})
}

// Fail 統一回應格式 {ok, error_kind, message}
func Fail(c *gin.Context, statusCode int, kind, message string) {
	c.JSON(statusCode, gin.H{"ok": false, "error_kind": kind, "message": message})
}

// ActorMiddleware 從上游認證服務放進 header 的身分組出 Actor，內容照單全收
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, role := c.GetHeader("X-User-Id"), model.Role(c.GetHeader("X-User-Role"))
		actorID, err := strconv.Atoi(id)
		if err != nil || actorID <= 0 || !role.IsValid() {
			Fail(c, http.StatusUnauthorized, KindUnauthorized, "Missing or invalid identity")
			c.Abort()
			return
		}
		c.Set(actorKey, model.Actor{ID: actorID, Role: role})
		c.Next()
	}
}

func GetActor(c *gin.Context) model.Actor {
	return c.MustGet(actorKey).(model.Actor)
}

// HandleError 把業務錯誤翻成穩定的 error kind；
// 未知錯誤視為儲存層故障回 503，適合客戶端重試
func HandleError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))

	var checkedIn *apperrors.AlreadyCheckedInError
	if errors.As(err, &checkedIn) {
		// 非致命：附上既有簽到資訊給前端顯示
		log.Info("Already checked in")
		c.JSON(http.StatusConflict, gin.H{
			"ok":         false,
			"error_kind": KindAlreadyCheckedIn,
			"message":    "Registration already checked in",
			"data": gin.H{
				"attended_at": checkedIn.AttendedAt,
				"scanned_by":  checkedIn.ScannedBy,
				"scan_method": checkedIn.ScanMethod,
			},
		})
		return
	}

	switch {
	case errors.Is(err, apperrors.ErrEventNotFound):
		log.Warn("Event not found")
		Fail(c, http.StatusNotFound, KindNotFound, "Event not found")
	case errors.Is(err, apperrors.ErrRegistrationNotFound):
		log.Warn("Registration not found")
		Fail(c, http.StatusNotFound, KindNotFound, "Registration not found")
	case errors.Is(err, apperrors.ErrForbidden):
		log.Warn("Forbidden")
		Fail(c, http.StatusForbidden, KindForbidden, "Not allowed")
	case errors.Is(err, apperrors.ErrInvalidState):
		log.Warn("Invalid state")
		Fail(c, http.StatusConflict, KindInvalidState, "Operation not allowed in current state")
	case errors.Is(err, apperrors.ErrAlreadyRegistered):
		log.Warn("Already registered")
		Fail(c, http.StatusConflict, KindAlreadyRegistered, "Already registered for this event")
	case errors.Is(err, apperrors.ErrCapacityExceeded):
		log.Warn("Capacity exceeded")
		Fail(c, http.StatusConflict, KindCapacityExceeded, "Event capacity exceeded")
	case errors.Is(err, apperrors.ErrStockExceeded):
		log.Warn("Stock exceeded")
		Fail(c, http.StatusConflict, KindStockExceeded, "Insufficient stock")
	case errors.Is(err, apperrors.ErrInvalidInput):
		log.Warn("Invalid input")
		Fail(c, http.StatusBadRequest, KindValidationError, "Invalid input")
	case errors.Is(err, apperrors.ErrInternalServerError):
		log.Error("Internal error")
		Fail(c, http.StatusInternalServerError, KindInternal, "Internal server error")
	default:
		// 走到這裡的都是 store/collaborator 的傳輸層錯誤
		log.Error("Storage unavailable")
		Fail(c, http.StatusServiceUnavailable, KindStorageUnavailable, "Storage unavailable, retry later")
	}
}
