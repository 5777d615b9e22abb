package main

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gymtrack/internal/attendance"
	"gymtrack/internal/auth"
	"gymtrack/internal/kiosk"
	"gymtrack/internal/member"
)

func (a *app) registerRoutes(r *gin.Engine) {
	r.POST("/v1/devices/register", a.handleDeviceRegister)

	v1 := r.Group("/v1", auth.Require(a.cfg.JWTSigningKey, a.cfg.JWTIssuer))

	v1.GET("/members", a.handleListMembers)
	v1.POST("/members", a.handleCreateMember)
	v1.GET("/members/:id", a.handleGetMember)
	v1.PUT("/members/:id", a.handleUpdateMember)
	v1.DELETE("/members/:id", a.handleDeleteMember)
	v1.POST("/members/:id/photo", a.handleMemberPhoto)
	v1.GET("/plans", a.handlePlans)

	v1.POST("/attendance/presence", a.handlePresence)
	v1.POST("/attendance/backfill", a.handleBackfill)
	v1.GET("/attendance/active", a.handleActive)
	v1.GET("/attendance/history", a.handleHistory)
	v1.DELETE("/attendance/records/:id", a.handleDeleteRecord)
	v1.GET("/attendance/occupancy", a.handleOccupancy)
	v1.GET("/attendance/banner", a.handleBanner)

	v1.POST("/kiosk/start", a.handleKioskStart)
	v1.POST("/kiosk/stop", a.handleKioskStop)
	v1.GET("/kiosk/state", a.handleKioskState)

	v1.POST("/notifications/send", a.handleNotifySend)
	v1.GET("/notifications/expiring", a.handleNotifyExpiring)
	v1.POST("/notifications/expiring/run", a.handleNotifyExpiringRun)
	v1.GET("/notifications/history", a.handleNotifyHistory)

	v1.GET("/dashboard/stats", a.handleDashboardStats)
}

func (a *app) handleHealthz(c *gin.Context) {
	redisHealthy := a.redis.Healthy(c.Request.Context())
	status := http.StatusOK
	if !redisHealthy && a.cfg.QueueBackend != "memory" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy})
}

func (a *app) handleDeviceRegister(c *gin.Context) {
	var req struct {
		DeviceID string `json:"device_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tokens, err := auth.Issue(req.DeviceID, auth.RoleDevice, a.cfg.JWTIssuer, a.cfg.JWTSigningKey, a.cfg.AccessTTL, a.cfg.RefreshTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"expires_at":    tokens.AccessExp.Unix(),
	})
}

// -------- Members --------

func (a *app) handleListMembers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"members": a.registry.List()})
}

func (a *app) handleGetMember(c *gin.Context) {
	m, err := a.registry.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "member not found"})
		return
	}
	c.JSON(http.StatusOK, m)
}

func (a *app) handleCreateMember(c *gin.Context) {
	var m member.Member
	if err := c.ShouldBindJSON(&m); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	created, err := a.registry.Create(m)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (a *app) handleUpdateMember(c *gin.Context) {
	var m member.Member
	if err := c.ShouldBindJSON(&m); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m.ID = c.Param("id")
	updated, err := a.registry.Update(m)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "member not found"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (a *app) handleDeleteMember(c *gin.Context) {
	if err := a.registry.Delete(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "member not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// handleMemberPhoto uploads a reference photo used as the face
// identification candidate image.
func (a *app) handleMemberPhoto(c *gin.Context) {
	if a.cdn == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image storage not configured"})
		return
	}
	id := c.Param("id")
	if _, err := a.registry.Get(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "member not found"})
		return
	}

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field required"})
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "read file failed"})
		return
	}

	result, err := a.cdn.UploadMemberPhoto(id, data)
	if err != nil {
		a.log.Error("photo upload failed", "memberId", id, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "image upload failed"})
		return
	}
	if err := a.registry.SetFoto(id, result.SecureURL); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "member not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": result.SecureURL, "bytes": result.Bytes})
}

func (a *app) handlePlans(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"plans": a.registry.Plans()})
}

// -------- Attendance --------

func (a *app) handlePresence(c *gin.Context) {
	var req struct {
		MemberID string `json:"member_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := a.att.HandlePresence(req.MemberID, attendance.ModeManual)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if res == nil {
		// Unknown member: deliberate silent no-op.
		c.JSON(http.StatusAccepted, gin.H{"status": "ignored"})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (a *app) handleBackfill(c *gin.Context) {
	var req struct {
		MemberID string `json:"member_id" binding:"required"`
		CheckIn  string `json:"check_in" binding:"required"` // HH:MM, today
		CheckOut string `json:"check_out"`                   // optional HH:MM
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := a.registry.Get(req.MemberID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "member not found"})
		return
	}

	checkIn, err := todayAt(req.CheckIn)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "check_in must be HH:MM"})
		return
	}
	var checkOut *time.Time
	if req.CheckOut != "" {
		t, err := todayAt(req.CheckOut)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "check_out must be HH:MM"})
			return
		}
		checkOut = &t
	}

	rec := a.att.Ledger().Backfill(req.MemberID, checkIn, checkOut)
	c.JSON(http.StatusCreated, rec)
}

func todayAt(hhmm string) (time.Time, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, err
	}
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location()), nil
}

func (a *app) handleActive(c *gin.Context) {
	now := time.Now()
	records := a.att.Ledger().Active()
	items := make([]gin.H, 0, len(records))
	for _, r := range records {
		items = append(items, gin.H{"record": r, "durationMinutes": r.DurationMinutes(now)})
	}
	c.JSON(http.StatusOK, gin.H{"records": items})
}

func (a *app) handleHistory(c *gin.Context) {
	now := time.Now()
	records := a.att.Ledger().History()
	items := make([]gin.H, 0, len(records))
	for _, r := range records {
		items = append(items, gin.H{"record": r, "durationMinutes": r.DurationMinutes(now)})
	}
	c.JSON(http.StatusOK, gin.H{"records": items})
}

func (a *app) handleDeleteRecord(c *gin.Context) {
	fromActive := c.Query("active") == "true"
	if !a.att.Ledger().Remove(c.Param("id"), fromActive) {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *app) handleOccupancy(c *gin.Context) {
	c.JSON(http.StatusOK, a.att.Occupancy())
}

func (a *app) handleBanner(c *gin.Context) {
	b := a.att.Banner()
	if b == nil {
		c.JSON(http.StatusOK, gin.H{"banner": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"banner": b})
}

// -------- Kiosk --------

func (a *app) handleKioskStart(c *gin.Context) {
	var req struct {
		Mode string `json:"mode"`
	}
	_ = c.ShouldBindJSON(&req)
	mode := kiosk.SubModeFace
	if req.Mode == string(kiosk.SubModeQR) {
		mode = kiosk.SubModeQR
	}
	a.kiosk.Start(mode)
	c.JSON(http.StatusOK, a.kiosk.View())
}

func (a *app) handleKioskStop(c *gin.Context) {
	a.kiosk.Stop()
	c.JSON(http.StatusOK, a.kiosk.View())
}

func (a *app) handleKioskState(c *gin.Context) {
	c.JSON(http.StatusOK, a.kiosk.View())
}

// -------- Notifications --------

func (a *app) handleNotifySend(c *gin.Context) {
	var req struct {
		MemberID string `json:"member_id" binding:"required"`
		Tipo     string `json:"tipo" binding:"required"`
		Tono     string `json:"tono"`
		Mensaje  string `json:"mensaje"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := a.hub.Send(c.Request.Context(), req.MemberID, req.Tipo, req.Tono, req.Mensaje)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "log": entry})
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (a *app) handleNotifyExpiring(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"members": a.hub.ExpiringIn(3)})
}

func (a *app) handleNotifyExpiringRun(c *gin.Context) {
	queued, err := a.hub.RunExpiringAutomation(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "queued": queued})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"queued": queued})
}

func (a *app) handleNotifyHistory(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"history": a.hub.History()})
}

// -------- Dashboard --------

func (a *app) handleDashboardStats(c *gin.Context) {
	members := a.registry.List()
	var activos, vencidos int
	var ingresos float64
	for _, m := range members {
		switch m.Status {
		case member.StatusActivo:
			activos++
			ingresos += 350
		case member.StatusVencido:
			vencidos++
		}
	}

	stats := gin.H{
		"total":     len(members),
		"activos":   activos,
		"vencidos":  vencidos,
		"ingresos":  ingresos,
		"occupancy": a.att.Occupancy(),
	}

	statsJSON, _ := json.Marshal(stats)
	summary, err := a.ai.AnalyticsSummary(c.Request.Context(), string(statsJSON))
	if err != nil {
		a.log.Warn("analytics summary failed", "error", err)
		summary = "No se pudo generar el análisis en este momento."
	}
	stats["aiSummary"] = summary

	c.JSON(http.StatusOK, stats)
}
