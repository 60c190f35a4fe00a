package records

import (
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"famhealth-backend/extract"
	"famhealth-backend/login"
	"famhealth-backend/members"
	"famhealth-backend/quota"
	"famhealth-backend/ranges"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	repo    *Repository
	members *members.Repository
	quota   *quota.Validator
}

func NewHandler(repo *Repository, mem *members.Repository, q *quota.Validator) *Handler {
	return &Handler{repo: repo, members: mem, quota: q}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/members/:id/reports", h.upload)
	r.GET("/members/:id/reports", h.list)
	r.DELETE("/members/:id/reports/:reportID", h.delete)
	r.GET("/members/:id/observations", h.observations)
	r.GET("/members/:id/trends", h.trend)
}

func (h *Handler) ownedMember(c *gin.Context) (*members.Member, bool) {
	user, ok := login.UserFromRequest(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return nil, false
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return nil, false
	}
	m, err := h.members.ByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	if m == nil || m.UserID != user.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": "member not found"})
		return nil, false
	}
	return m, true
}

// upload receives a PDF lab report plus its report_date, extracts markers
// and stores one observation per marker with a reference-range snapshot.
func (h *Handler) upload(c *gin.Context) {
	m, ok := h.ownedMember(c)
	if !ok {
		return
	}
	upFile, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if strings.ToLower(filepath.Ext(upFile.Filename)) != ".pdf" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only PDF files are supported"})
		return
	}
	if upFile.Size <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty file"})
		return
	}
	dateStr := c.PostForm("report_date")
	reportDate, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "report_date must be YYYY-MM-DD"})
		return
	}
	if reportDate.After(time.Now()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "report_date cannot be in the future"})
		return
	}
	if h.quota != nil {
		if err := h.quota.ValidateAndConsume(c.Request.Context(), c, "report_upload"); err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
	}

	tmpDir := "./tmp"
	_ = os.MkdirAll(tmpDir, 0o755)
	tmp := filepath.Join(tmpDir, uuid.NewString()+".pdf")
	if err := c.SaveUploadedFile(upFile, tmp); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store file"})
		return
	}
	defer os.Remove(tmp)

	markers, err := extract.ExtractPDF(tmp)
	if err != nil {
		log.Printf("[records][upload] extraction failed member_id=%d file=%s err=%v", m.ID, upFile.Filename, err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "could not read PDF"})
		return
	}

	obs := make([]Observation, 0, len(markers))
	for _, mk := range markers {
		o := Observation{Marker: mk.Name, Value: mk.Value, Unit: mk.Unit}
		if rng := ranges.Get(mk.Name, m.Gender); rng != nil {
			min, max := rng.Min, rng.Max
			o.RefMin = &min
			o.RefMax = &max
			o.RefUnit = rng.Unit
			o.Abnormal = ranges.IsAbnormal(mk.Name, mk.Value, m.Gender)
		}
		obs = append(obs, o)
	}

	rep := &Report{MemberID: m.ID, FileName: upFile.Filename, ReportDate: reportDate}
	if err := h.repo.CreateReport(rep, obs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	log.Printf("[records][upload] member_id=%d report_id=%d markers=%d", m.ID, rep.ID, len(obs))
	c.JSON(http.StatusCreated, gin.H{"report": rep, "observations": obs})
}

func (h *Handler) list(c *gin.Context) {
	m, ok := h.ownedMember(c)
	if !ok {
		return
	}
	reports, err := h.repo.ReportsByMember(m.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": reports})
}

func (h *Handler) delete(c *gin.Context) {
	m, ok := h.ownedMember(c)
	if !ok {
		return
	}
	reportID, err := strconv.Atoi(c.Param("reportID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report id"})
		return
	}
	if err := h.repo.DeleteReport(reportID, m.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// parseWindow reads optional from/to query params, defaulting to all history.
func parseWindow(c *gin.Context) (time.Time, time.Time, bool) {
	from := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Now()
	if v := c.Query("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be YYYY-MM-DD"})
			return from, to, false
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be YYYY-MM-DD"})
			return from, to, false
		}
		to = t.Add(24*time.Hour - time.Second)
	}
	return from, to, true
}

func (h *Handler) observations(c *gin.Context) {
	m, ok := h.ownedMember(c)
	if !ok {
		return
	}
	from, to, ok := parseWindow(c)
	if !ok {
		return
	}
	obs, err := h.repo.FindObservations(m.ID, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": obs})
}

func (h *Handler) trend(c *gin.Context) {
	m, ok := h.ownedMember(c)
	if !ok {
		return
	}
	marker := strings.TrimSpace(c.Query("marker"))
	if marker == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "marker is required"})
		return
	}
	from, to, ok := parseWindow(c)
	if !ok {
		return
	}
	points, err := h.repo.Trend(m.ID, marker, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := gin.H{"marker": marker, "points": points}
	if rng := ranges.Get(marker, m.Gender); rng != nil {
		out["reference"] = gin.H{"min": rng.Min, "max": rng.Max, "unit": rng.Unit}
	}
	c.JSON(http.StatusOK, out)
}
