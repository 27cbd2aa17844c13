package apihandlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	mw "github.com/bridge-framework/bridge-backend/pkg/apihelpers/middlewares"
	jwthandling "github.com/bridge-framework/bridge-backend/pkg/jwt-handling"
	schedulingTypes "github.com/bridge-framework/bridge-backend/pkg/scheduling/types"
)

// Management endpoints to maintain the scheduling configuration of a
// study. Guarded by API key, not participant tokens.
func (h *HttpEndpoints) AddStudyManagementAPI(rg *gin.RouterGroup) {
	managementGroup := rg.Group("/study-management/:studyKey")
	managementGroup.Use(mw.HasValidAPIKey(h.managementAPIKeys))
	{
		managementGroup.POST("/schedule-plans", mw.RequirePayload(), h.saveSchedulePlan)
		managementGroup.GET("/schedule-plans/:planGuid", h.getSchedulePlan)
		managementGroup.DELETE("/schedule-plans/:planGuid", h.deleteSchedulePlan)
		managementGroup.POST("/compound-activity-definitions", mw.RequirePayload(), h.saveCompoundActivityDefinition)
		managementGroup.DELETE("/compound-activity-definitions/:taskId", h.deleteCompoundActivityDefinition)
		managementGroup.POST("/upload-schemas", mw.RequirePayload(), h.createUploadSchemaRevision)
		managementGroup.POST("/surveys", mw.RequirePayload(), h.saveSurveyVersion)
		managementGroup.POST("/participants/:healthCode/events", mw.RequirePayload(), h.publishActivityEvent)
		managementGroup.POST("/participant-tokens", mw.RequirePayload(), h.issueParticipantToken)
	}
}

func (h *HttpEndpoints) issueParticipantToken(c *gin.Context) {
	instanceID, studyKey, ok := h.managementContext(c)
	if !ok {
		return
	}

	var req struct {
		ParticipantID    string   `json:"participantId"`
		HealthCode       string   `json:"healthCode"`
		UserGroups       []string `json:"userGroups"`
		AccountCreatedAt int64    `json:"accountCreatedAt"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("failed to bind request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.HealthCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "healthCode is required"})
		return
	}

	token, err := jwthandling.GenerateNewParticipantToken(
		h.tokenExpiresIn,
		req.ParticipantID,
		instanceID,
		studyKey,
		req.HealthCode,
		req.UserGroups,
		req.AccountCreatedAt,
		h.tokenSignKey,
	)
	if err != nil {
		slog.Error("error generating participant token", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error generating participant token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"accessToken": token, "expiresIn": h.tokenExpiresIn.Seconds()})
}

func (h *HttpEndpoints) managementContext(c *gin.Context) (instanceID string, studyKey string, ok bool) {
	instanceID = c.DefaultQuery("instanceID", "")
	if !h.isInstanceAllowed(instanceID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "instance not allowed"})
		return "", "", false
	}
	return instanceID, c.Param("studyKey"), true
}

func (h *HttpEndpoints) saveSchedulePlan(c *gin.Context) {
	instanceID, studyKey, ok := h.managementContext(c)
	if !ok {
		return
	}

	var plan schedulingTypes.SchedulePlan
	if err := c.ShouldBindJSON(&plan); err != nil {
		slog.Error("failed to bind request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	saved, err := h.studyDBConn.SaveSchedulePlan(instanceID, studyKey, plan)
	if err != nil {
		slog.Error("error saving schedule plan", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error saving schedule plan"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedulePlan": saved})
}

func (h *HttpEndpoints) getSchedulePlan(c *gin.Context) {
	instanceID, studyKey, ok := h.managementContext(c)
	if !ok {
		return
	}

	plan, err := h.studyDBConn.GetSchedulePlanByGUID(instanceID, studyKey, c.Param("planGuid"))
	if err != nil {
		h.writeSchedulingError(c, err, "error fetching schedule plan")
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedulePlan": plan})
}

func (h *HttpEndpoints) deleteSchedulePlan(c *gin.Context) {
	instanceID, studyKey, ok := h.managementContext(c)
	if !ok {
		return
	}

	err := h.studyDBConn.DeleteSchedulePlan(instanceID, studyKey, c.Param("planGuid"))
	if err != nil {
		h.writeSchedulingError(c, err, "error deleting schedule plan")
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "schedule plan deleted"})
}

func (h *HttpEndpoints) saveCompoundActivityDefinition(c *gin.Context) {
	instanceID, studyKey, ok := h.managementContext(c)
	if !ok {
		return
	}

	var def schedulingTypes.CompoundActivityDefinition
	if err := c.ShouldBindJSON(&def); err != nil {
		slog.Error("failed to bind request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if def.TaskID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "taskId is required"})
		return
	}

	saved, err := h.studyDBConn.SaveCompoundActivityDefinition(instanceID, studyKey, def)
	if err != nil {
		slog.Error("error saving compound activity definition", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error saving compound activity definition"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"compoundActivityDefinition": saved})
}

func (h *HttpEndpoints) deleteCompoundActivityDefinition(c *gin.Context) {
	instanceID, studyKey, ok := h.managementContext(c)
	if !ok {
		return
	}

	err := h.studyDBConn.DeleteCompoundActivityDefinition(instanceID, studyKey, c.Param("taskId"))
	if err != nil {
		h.writeSchedulingError(c, err, "error deleting compound activity definition")
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "compound activity definition deleted"})
}

// publishActivityEvent records a custom anchor event for a participant,
// e.g. a study milestone schedules can anchor on. Events are write-once.
func (h *HttpEndpoints) publishActivityEvent(c *gin.Context) {
	instanceID, studyKey, ok := h.managementContext(c)
	if !ok {
		return
	}

	var req struct {
		EventKey  string    `json:"eventKey"`
		Timestamp time.Time `json:"timestamp"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("failed to bind request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.EventKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "eventKey is required"})
		return
	}
	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now()
	}

	err := h.studyDBConn.PublishActivityEvent(instanceID, studyKey, c.Param("healthCode"), req.EventKey, req.Timestamp)
	if err != nil {
		slog.Error("error publishing activity event", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error publishing activity event"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "event recorded"})
}

func (h *HttpEndpoints) createUploadSchemaRevision(c *gin.Context) {
	instanceID, studyKey, ok := h.managementContext(c)
	if !ok {
		return
	}

	var schema schedulingTypes.UploadSchema
	if err := c.ShouldBindJSON(&schema); err != nil {
		slog.Error("failed to bind request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if schema.SchemaID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "schemaId is required"})
		return
	}

	saved, err := h.studyDBConn.CreateUploadSchemaRevision(instanceID, studyKey, schema)
	if err != nil {
		slog.Error("error creating upload schema revision", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error creating upload schema revision"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"uploadSchema": saved})
}

func (h *HttpEndpoints) saveSurveyVersion(c *gin.Context) {
	instanceID, studyKey, ok := h.managementContext(c)
	if !ok {
		return
	}

	var survey schedulingTypes.Survey
	if err := c.ShouldBindJSON(&survey); err != nil {
		slog.Error("failed to bind request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	saved, err := h.studyDBConn.SaveSurveyVersion(instanceID, studyKey, survey)
	if err != nil {
		slog.Error("error saving survey version", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error saving survey version"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"survey": saved})
}
