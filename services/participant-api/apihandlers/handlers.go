package apihandlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	studyDB "github.com/bridge-framework/bridge-backend/pkg/db/study"
	"github.com/bridge-framework/bridge-backend/pkg/scheduling"
	"github.com/bridge-framework/bridge-backend/pkg/utils"
)

func HealthCheckHandle(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type HttpEndpoints struct {
	tokenSignKey       string
	tokenExpiresIn     time.Duration
	schedulingService  *scheduling.SchedulingService
	studyDBConn        *studyDB.StudyDBService
	allowedInstanceIDs []string
	managementAPIKeys  []string
	defaultWindowDays  int
}

func NewHTTPHandler(
	tokenSignKey string,
	tokenExpiresIn time.Duration,
	schedulingService *scheduling.SchedulingService,
	studyDBConn *studyDB.StudyDBService,
	allowedInstanceIDs []string,
	managementAPIKeys []string,
	defaultWindowDays int,
) *HttpEndpoints {
	return &HttpEndpoints{
		tokenSignKey:       tokenSignKey,
		tokenExpiresIn:     tokenExpiresIn,
		schedulingService:  schedulingService,
		studyDBConn:        studyDBConn,
		allowedInstanceIDs: allowedInstanceIDs,
		managementAPIKeys:  managementAPIKeys,
		defaultWindowDays:  defaultWindowDays,
	}
}

func (h *HttpEndpoints) isInstanceAllowed(instanceID string) bool {
	return utils.ContainsString(h.allowedInstanceIDs, instanceID)
}
