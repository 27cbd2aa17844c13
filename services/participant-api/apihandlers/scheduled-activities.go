package apihandlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	mw "github.com/bridge-framework/bridge-backend/pkg/apihelpers/middlewares"
	jwthandling "github.com/bridge-framework/bridge-backend/pkg/jwt-handling"
	"github.com/bridge-framework/bridge-backend/pkg/scheduling"
	schedulingTypes "github.com/bridge-framework/bridge-backend/pkg/scheduling/types"
)

func (h *HttpEndpoints) AddSchedulingServiceAPI(rg *gin.RouterGroup) {
	schedulingGroup := rg.Group("/scheduling/:studyKey")

	activitiesGroup := schedulingGroup.Group("/activities")
	activitiesGroup.Use(mw.GetAndValidateParticipantJWT(h.tokenSignKey))
	{
		activitiesGroup.GET("", h.getScheduledActivities)
		activitiesGroup.POST("", mw.RequirePayload(), h.updateScheduledActivities)
	}

	// participant teardown, not exposed to participants themselves
	adminGroup := schedulingGroup.Group("/participants/:healthCode/activities")
	adminGroup.Use(mw.HasValidAPIKey(h.managementAPIKeys))
	{
		adminGroup.DELETE("", h.deleteScheduledActivitiesForParticipant)
	}
}

func (h *HttpEndpoints) getScheduledActivities(c *gin.Context) {
	token := c.MustGet("validatedToken").(*jwthandling.ParticipantClaims)

	studyKey := c.Param("studyKey")
	if !h.isInstanceAllowed(token.InstanceID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "instance not allowed"})
		return
	}

	tz := time.UTC
	if tzName := c.DefaultQuery("tz", ""); tzName != "" {
		loc, err := time.LoadLocation(tzName)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown time zone"})
			return
		}
		tz = loc
	}

	daysAhead := h.defaultWindowDays
	if value := c.DefaultQuery("daysAhead", ""); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid daysAhead"})
			return
		}
		daysAhead = parsed
	}

	now := time.Now().In(tz)
	sctx := schedulingTypes.NewScheduleContextBuilder().
		WithTimeZone(tz).
		WithStartsOn(now).
		WithEndsOn(now.AddDate(0, 0, daysAhead)).
		WithAccountCreatedOn(time.Unix(token.AccountCreatedAt, 0)).
		WithCriteriaContext(schedulingTypes.CriteriaContext{
			InstanceID: token.InstanceID,
			StudyKey:   studyKey,
			HealthCode: token.HealthCode,
			UserGroups: token.UserGroups,
			ClientInfo: clientInfoFromRequest(c),
		}).
		Build()

	activities, err := h.schedulingService.GetScheduledActivities(sctx)
	if err != nil {
		h.writeSchedulingError(c, err, "error computing scheduled activities")
		return
	}
	c.JSON(http.StatusOK, gin.H{"activities": activities})
}

func (h *HttpEndpoints) updateScheduledActivities(c *gin.Context) {
	token := c.MustGet("validatedToken").(*jwthandling.ParticipantClaims)

	studyKey := c.Param("studyKey")
	if !h.isInstanceAllowed(token.InstanceID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "instance not allowed"})
		return
	}

	var req struct {
		Activities []*schedulingTypes.ScheduledActivity `json:"activities"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("failed to bind request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.schedulingService.UpdateScheduledActivities(token.InstanceID, studyKey, token.HealthCode, req.Activities)
	if err != nil {
		h.writeSchedulingError(c, err, "error updating scheduled activities")
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "activities updated"})
}

func (h *HttpEndpoints) deleteScheduledActivitiesForParticipant(c *gin.Context) {
	instanceID := c.DefaultQuery("instanceID", "")
	if !h.isInstanceAllowed(instanceID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "instance not allowed"})
		return
	}

	studyKey := c.Param("studyKey")
	healthCode := c.Param("healthCode")

	err := h.schedulingService.DeleteScheduledActivitiesForParticipant(instanceID, studyKey, healthCode)
	if err != nil {
		h.writeSchedulingError(c, err, "error deleting scheduled activities")
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "activities deleted"})
}

func (h *HttpEndpoints) writeSchedulingError(c *gin.Context, err error, logMsg string) {
	var validationErr *scheduling.ValidationError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Message})
	case errors.Is(err, scheduling.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		slog.Error(logMsg, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": logMsg})
	}
}

func clientInfoFromRequest(c *gin.Context) schedulingTypes.ClientInfo {
	info := schedulingTypes.ClientInfo{
		AppName: c.GetHeader("X-App-Name"),
		OSName:  c.GetHeader("X-OS-Name"),
	}
	if version, err := strconv.Atoi(c.GetHeader("X-App-Version")); err == nil {
		info.AppVersion = version
	}
	return info
}
