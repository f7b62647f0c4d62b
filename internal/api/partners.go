// internal/api/partners.go
package api

import (
	"net/http"
	"strings"

	"matrix-core/internal/matching"
	"matrix-core/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type registerPartnerBody struct {
	CompanyName     string   `json:"company_name" binding:"required"`
	Email           string   `json:"email" binding:"required,email"`
	UserType        string   `json:"user_type" binding:"required,oneof=contractor producer"`
	UserID          string   `json:"user_id"`
	LegalName       string   `json:"legal_name"`
	Phone           string   `json:"phone"`
	TaxID           string   `json:"tax_id"`
	YearsOnMarket   int      `json:"years_on_market" binding:"min=0"`
	Specializations []string `json:"specializations"`
	Services        []string `json:"services"`
	Regions         []string `json:"regions"`
	WillingToTravel bool     `json:"willing_to_travel"`
	CurrentWorkload int      `json:"current_workload"`
	MinOrderSize    float64  `json:"min_order_size" binding:"min=0"`
	UrgencyLevel    int      `json:"urgency_level" binding:"min=0,max=10"`
	FlexiblePricing bool     `json:"flexible_pricing"`
}

func (s *Server) registerPartner(c *gin.Context) {
	var body registerPartnerBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.badRequest(c, err.Error())
		return
	}
	ctx := c.Request.Context()

	p := models.NewPartner(uuid.NewString(), strings.TrimSpace(body.CompanyName), strings.ToLower(strings.TrimSpace(body.Email)), body.UserType)
	p.UserID = body.UserID
	p.LegalName = body.LegalName
	p.Phone = body.Phone
	p.YearsOnMarket = body.YearsOnMarket
	p.WillingToTravel = body.WillingToTravel
	p.MinOrderSize = body.MinOrderSize
	p.UrgencyLevel = body.UrgencyLevel
	p.FlexiblePricing = body.FlexiblePricing
	if body.Specializations != nil {
		p.Specializations = body.Specializations
	}
	if body.Services != nil {
		p.Services = body.Services
	}
	if body.Regions != nil {
		p.Regions = body.Regions
	}
	if err := p.SetWorkload(body.CurrentWorkload); err != nil {
		s.badRequest(c, err.Error())
		return
	}

	var verification interface{}
	if inn := strings.TrimSpace(body.TaxID); inn != "" {
		res, err := s.deps.TaxID.Verify(ctx, inn)
		if err != nil {
			s.fail(c, err)
			return
		}
		p.TaxID = inn
		if res.IsActive {
			p.VerificationStatus = matching.VerificationVerified
			if p.LegalName == "" {
				p.LegalName = res.CompanyName
			}
		}
		verification = res
	}

	if err := s.deps.Partners.CreatePartner(ctx, p); err != nil {
		s.fail(c, err)
		return
	}
	if s.deps.Index != nil {
		if err := s.deps.Index.IndexPartner(ctx, p); err != nil {
			s.logger.Warn("partner indexing failed", map[string]interface{}{
				"partnerId": p.ID,
				"error":     err,
			})
		}
	}

	out := gin.H{"partner_id": p.ID, "partner": p}
	if verification != nil {
		out["tax_verification"] = verification
	}
	respond(c, http.StatusCreated, out)
}

type searchBody struct {
	matching.SearchCriteria
	Query  string `json:"query"`
	SortBy string `json:"sort_by" binding:"omitempty,oneof=relevance urgency capacity"`
	Limit  int    `json:"limit" binding:"min=0"`
}

func (s *Server) searchPartners(c *gin.Context) {
	var body searchBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.badRequest(c, err.Error())
		return
	}
	ctx := c.Request.Context()

	var ids []string
	if q := strings.TrimSpace(body.Query); q != "" && s.deps.Index != nil {
		found, err := s.deps.Index.SearchIDs(ctx, q, 0)
		if err != nil {
			s.fail(c, err)
			return
		}
		ids = found
		if ids == nil {
			ids = []string{}
		}
	}

	hits, total, err := s.deps.Partners.SearchPartners(ctx, body.SearchCriteria, ids, body.SortBy, body.Limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{
		"partners":     hits,
		"total_found":  total,
		"returned":     len(hits),
		"search_query": body,
	})
}

func (s *Server) crisisBoard(c *gin.Context) {
	board, err := s.deps.Analysis.CrisisBoard(c.Request.Context(), queryInt(c, "limit", 0))
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"partners": board, "total": len(board)})
}

func (s *Server) getPartner(c *gin.Context) {
	p, err := s.deps.Partners.GetPartner(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"partner": p})
}

type updatePartnerBody struct {
	CompanyName     *string   `json:"company_name"`
	LegalName       *string   `json:"legal_name"`
	Phone           *string   `json:"phone"`
	YearsOnMarket   *int      `json:"years_on_market"`
	Specializations *[]string `json:"specializations"`
	Services        *[]string `json:"services"`
	Regions         *[]string `json:"regions"`
	WillingToTravel *bool     `json:"willing_to_travel"`
	CurrentWorkload *int      `json:"current_workload"`
	MinOrderSize    *float64  `json:"min_order_size"`
	UrgencyLevel    *int      `json:"urgency_level" binding:"omitempty,min=0,max=10"`
	FlexiblePricing *bool     `json:"flexible_pricing"`
	IsActive        *bool     `json:"is_active"`
}

func (b updatePartnerBody) apply(p *models.Partner) error {
	if b.CompanyName != nil {
		p.CompanyName = *b.CompanyName
	}
	if b.LegalName != nil {
		p.LegalName = *b.LegalName
	}
	if b.Phone != nil {
		p.Phone = *b.Phone
	}
	if b.YearsOnMarket != nil {
		p.YearsOnMarket = *b.YearsOnMarket
	}
	if b.Specializations != nil {
		p.Specializations = *b.Specializations
	}
	if b.Services != nil {
		p.Services = *b.Services
	}
	if b.Regions != nil {
		p.Regions = *b.Regions
	}
	if b.WillingToTravel != nil {
		p.WillingToTravel = *b.WillingToTravel
	}
	if b.MinOrderSize != nil {
		p.MinOrderSize = *b.MinOrderSize
	}
	if b.UrgencyLevel != nil {
		p.UrgencyLevel = *b.UrgencyLevel
	}
	if b.FlexiblePricing != nil {
		p.FlexiblePricing = *b.FlexiblePricing
	}
	if b.IsActive != nil {
		p.IsActive = *b.IsActive
	}
	if b.CurrentWorkload != nil {
		return p.SetWorkload(*b.CurrentWorkload)
	}
	return nil
}

func (s *Server) updatePartner(c *gin.Context) {
	var body updatePartnerBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.badRequest(c, err.Error())
		return
	}
	ctx := c.Request.Context()

	p, err := s.deps.Partners.GetPartner(ctx, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := body.apply(p); err != nil {
		s.badRequest(c, err.Error())
		return
	}
	if err := s.deps.Partners.UpdatePartner(ctx, p); err != nil {
		s.fail(c, err)
		return
	}
	if s.deps.Index != nil {
		if err := s.deps.Index.IndexPartner(ctx, p); err != nil {
			s.logger.Warn("partner reindexing failed", map[string]interface{}{
				"partnerId": p.ID,
				"error":     err,
			})
		}
	}
	respond(c, http.StatusOK, gin.H{"partner": p})
}

type workloadBody struct {
	Workload *int `json:"workload" binding:"required"`
}

func (s *Server) updateWorkload(c *gin.Context) {
	var body workloadBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.badRequest(c, err.Error())
		return
	}
	capacity, err := s.deps.Partners.UpdateWorkload(c.Request.Context(), c.Param("id"), *body.Workload)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{
		"partner_id":         c.Param("id"),
		"current_workload":   *body.Workload,
		"available_capacity": capacity,
	})
}

func (s *Server) partnerStats(c *gin.Context) {
	stats, err := s.deps.Partners.PartnerStats(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"stats": stats})
}
