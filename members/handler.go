package members

import (
	"net/http"
	"strconv"
	"time"

	"famhealth-backend/login"
	"famhealth-backend/quota"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	repo  *Repository
	quota *quota.Validator
}

func NewHandler(r *Repository, q *quota.Validator) *Handler { return &Handler{repo: r, quota: q} }

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/members", h.list)
	r.POST("/members", h.create)
	r.GET("/members/:id", h.get)
	r.PUT("/members/:id", h.update)
	r.DELETE("/members/:id", h.delete)
}

type memberPayload struct {
	Name               string `json:"name"`
	DateOfBirth        string `json:"date_of_birth"`
	Gender             string `json:"gender"`
	Relationship       string `json:"relationship"`
	ExistingConditions string `json:"existing_conditions"`
}

func validGender(g string) bool {
	switch g {
	case "Male", "Female", "Other":
		return true
	}
	return false
}

func (h *Handler) list(c *gin.Context) {
	user, ok := login.UserFromRequest(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	list, err := h.repo.ListByUser(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

func (h *Handler) create(c *gin.Context) {
	user, ok := login.UserFromRequest(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	var p memberPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if p.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	if p.Gender == "" {
		p.Gender = "Other"
	}
	if !validGender(p.Gender) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "gender must be Male, Female or Other"})
		return
	}
	var dob *time.Time
	if p.DateOfBirth != "" {
		t, err := time.Parse("2006-01-02", p.DateOfBirth)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date_of_birth must be YYYY-MM-DD"})
			return
		}
		dob = &t
	}
	if h.quota != nil {
		if err := h.quota.ValidateAndConsume(c.Request.Context(), c, "member_create"); err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
	}
	m := &Member{
		UserID:             user.ID,
		Name:               p.Name,
		DateOfBirth:        dob,
		Gender:             p.Gender,
		Relationship:       p.Relationship,
		ExistingConditions: p.ExistingConditions,
	}
	if err := h.repo.Create(m); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, m)
}

// Owned resolves a member id from the request path and checks the caller owns it.
func (h *Handler) Owned(c *gin.Context) (*Member, bool) {
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
	m, err := h.repo.ByID(id)
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

func (h *Handler) get(c *gin.Context) {
	m, ok := h.Owned(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) update(c *gin.Context) {
	m, ok := h.Owned(c)
	if !ok {
		return
	}
	var p memberPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if p.Name != "" {
		m.Name = p.Name
	}
	if p.Gender != "" {
		if !validGender(p.Gender) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "gender must be Male, Female or Other"})
			return
		}
		m.Gender = p.Gender
	}
	if p.DateOfBirth != "" {
		t, err := time.Parse("2006-01-02", p.DateOfBirth)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date_of_birth must be YYYY-MM-DD"})
			return
		}
		m.DateOfBirth = &t
	}
	if p.Relationship != "" {
		m.Relationship = p.Relationship
	}
	if p.ExistingConditions != "" {
		m.ExistingConditions = p.ExistingConditions
	}
	if err := h.repo.Update(m); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) delete(c *gin.Context) {
	m, ok := h.Owned(c)
	if !ok {
		return
	}
	if err := h.repo.Delete(m.ID, m.UserID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
