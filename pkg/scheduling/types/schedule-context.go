package types

import "time"

type ClientInfo struct {
	AppName    string `json:"appName,omitempty"`
	AppVersion int    `json:"appVersion,omitempty"`
	OSName     string `json:"osName,omitempty"`
}

// CriteriaContext identifies the participant and caller a scheduling
// computation runs for.
type CriteriaContext struct {
	InstanceID string
	StudyKey   string
	HealthCode string
	UserGroups []string
	ClientInfo ClientInfo
}

// ScheduleContext is the immutable input of one scheduling computation.
// Build and derive instances through ScheduleContextBuilder.
type ScheduleContext struct {
	TimeZone         *time.Location
	InitialTimeZone  *time.Location
	StartsOn         time.Time
	EndsOn           time.Time
	AccountCreatedOn time.Time
	Events           map[string]time.Time
	Criteria         CriteriaContext
}

type ScheduleContextBuilder struct {
	ctx ScheduleContext
}

func NewScheduleContextBuilder() *ScheduleContextBuilder {
	return &ScheduleContextBuilder{}
}

// WithContext copies all fields of an existing context so single fields can
// be overridden afterwards.
func (b *ScheduleContextBuilder) WithContext(ctx ScheduleContext) *ScheduleContextBuilder {
	b.ctx = ctx
	return b
}

func (b *ScheduleContextBuilder) WithTimeZone(tz *time.Location) *ScheduleContextBuilder {
	b.ctx.TimeZone = tz
	return b
}

func (b *ScheduleContextBuilder) WithInitialTimeZone(tz *time.Location) *ScheduleContextBuilder {
	b.ctx.InitialTimeZone = tz
	return b
}

func (b *ScheduleContextBuilder) WithStartsOn(t time.Time) *ScheduleContextBuilder {
	b.ctx.StartsOn = t
	return b
}

func (b *ScheduleContextBuilder) WithEndsOn(t time.Time) *ScheduleContextBuilder {
	b.ctx.EndsOn = t
	return b
}

func (b *ScheduleContextBuilder) WithAccountCreatedOn(t time.Time) *ScheduleContextBuilder {
	b.ctx.AccountCreatedOn = t
	return b
}

func (b *ScheduleContextBuilder) WithEvents(events map[string]time.Time) *ScheduleContextBuilder {
	b.ctx.Events = events
	return b
}

func (b *ScheduleContextBuilder) WithCriteriaContext(criteria CriteriaContext) *ScheduleContextBuilder {
	b.ctx.Criteria = criteria
	return b
}

// Build returns the assembled context. The events map is copied so the
// built context cannot be changed through the original map.
func (b *ScheduleContextBuilder) Build() ScheduleContext {
	ctx := b.ctx
	if b.ctx.Events != nil {
		ctx.Events = make(map[string]time.Time, len(b.ctx.Events))
		for k, v := range b.ctx.Events {
			ctx.Events[k] = v
		}
	}
	if ctx.TimeZone == nil {
		ctx.TimeZone = time.UTC
	}
	if ctx.InitialTimeZone == nil {
		ctx.InitialTimeZone = ctx.TimeZone
	}
	return ctx
}
