// internal/api/users.go
package api

import (
	"net/http"
	"strings"
	"time"

	"matrix-core/internal/analysis"
	"matrix-core/internal/matching"
	"matrix-core/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type registerUserRequest struct {
	Email          string `json:"email" binding:"required,email"`
	UserType       string `json:"user_type" binding:"required,oneof=customer contractor producer"`
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	Region         string `json:"region"`
	CompanyName    string `json:"company_name"`
	Specialization string `json:"specialization"`
}

func (s *Server) registerUser(c *gin.Context) {
	var req registerUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err.Error())
		return
	}

	now := time.Now().UTC()
	u := &models.User{
		ID:                 uuid.NewString(),
		UserType:           matching.UserRole(req.UserType),
		Email:              strings.ToLower(strings.TrimSpace(req.Email)),
		IsActive:           true,
		VerificationStatus: string(matching.VerificationPending),
		Profile: models.UserProfile{
			Name:           req.Name,
			Phone:          req.Phone,
			Region:         req.Region,
			CompanyName:    req.CompanyName,
			Specialization: req.Specialization,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.deps.Users.Create(c.Request.Context(), u); err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"user_id": u.ID, "user": u})
}

func (s *Server) getProfile(c *gin.Context) {
	u, err := s.deps.Users.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{
		"user":                 u,
		"profile_completeness": u.Profile.Completeness(),
	})
}

func (s *Server) updateProfile(c *gin.Context) {
	var update models.ProfileUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		s.badRequest(c, err.Error())
		return
	}
	u, changed, err := s.deps.Users.UpdateProfile(c.Request.Context(), c.Param("id"), update)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{
		"user":                 u,
		"updated_fields":       changed,
		"profile_completeness": u.Profile.Completeness(),
	})
}

type addRequestBody struct {
	RequestType string                 `json:"request_type"`
	Message     string                 `json:"message" binding:"required"`
	RequestData map[string]interface{} `json:"request_data"`
	Source      string                 `json:"source"`
}

func (s *Server) addRequest(c *gin.Context) {
	var body addRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.badRequest(c, err.Error())
		return
	}
	if body.Source == "" {
		body.Source = models.SourceAPI
	}
	if !models.IsValidSource(body.Source) {
		s.badRequest(c, "unknown source: "+body.Source)
		return
	}
	if body.RequestType == "" {
		body.RequestType = string(matching.IntentPartnerSearch)
	}
	if body.RequestData == nil {
		body.RequestData = map[string]interface{}{}
	}

	req := &models.UserRequest{
		ID:          uuid.NewString(),
		UserID:      c.Param("id"),
		RequestType: body.RequestType,
		Message:     body.Message,
		RequestData: body.RequestData,
		Source:      body.Source,
		Status:      models.RequestStatusNew,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.deps.Users.AddRequest(c.Request.Context(), req); err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, gin.H{"request_id": req.ID, "request": req})
}

func (s *Server) listRequests(c *gin.Context) {
	reqs, err := s.deps.Users.ListRequests(c.Request.Context(), c.Param("id"), queryInt(c, "limit", 0))
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"requests": reqs, "total": len(reqs)})
}

func (s *Server) userStats(c *gin.Context) {
	stats, err := s.deps.Users.Stats(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"stats": stats})
}

// userRecommendations analyzes the most recent request of the user, filling
// gaps in the request data from the profile.
func (s *Server) userRecommendations(c *gin.Context) {
	ctx := c.Request.Context()
	u, err := s.deps.Users.GetByID(ctx, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	latest, err := s.deps.Users.LatestRequest(ctx, u.ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	if latest == nil {
		respond(c, http.StatusOK, gin.H{
			"user_id":         u.ID,
			"recommendations": []matching.Recommendation{},
			"message":         "У пользователя пока нет запросов",
		})
		return
	}

	result, err := s.deps.Analysis.Analyze(ctx, analysis.Request{
		UserID:      u.ID,
		RequestID:   latest.ID,
		UserRole:    u.UserType,
		Message:     latest.Message,
		KnownFields: knownFieldsFor(latest, u.Profile),
		Source:      latest.Source,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{
		"user_id":         u.ID,
		"request_id":      latest.ID,
		"analysis_id":     result.AnalysisID,
		"recommendations": result.Recommendations,
		"analysis":        result,
	})
}

func knownFieldsFor(req *models.UserRequest, profile models.UserProfile) map[string]interface{} {
	known := map[string]interface{}{}
	if data, ok := req.RequestData["user_data"].(map[string]interface{}); ok {
		for k, v := range data {
			known[k] = v
		}
	} else {
		for k, v := range req.RequestData {
			known[k] = v
		}
	}

	fallback := map[string]string{
		"region":         profile.Region,
		"specialization": profile.Specialization,
		"budget_range":   profile.BudgetRange,
		"timeline":       profile.PreferredTimeline,
	}
	for k, v := range fallback {
		if _, ok := known[k]; !ok && v != "" {
			known[k] = v
		}
	}
	return known
}
