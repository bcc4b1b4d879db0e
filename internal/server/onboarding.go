package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/koverhq/kover/internal/authorization"
	onboardingdomain "github.com/koverhq/kover/internal/onboarding/domain"
	plandomain "github.com/koverhq/kover/internal/plan/domain"
)

type ProvisionRequest struct {
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	Rooms        int     `json:"rooms"`
	City         string  `json:"city"`
	CountryID    int64   `json:"country_id"`
	CurrencyID   int64   `json:"currency_id"`
	LanguageID   int64   `json:"language_id"`
	Website      *string `json:"website"`
	Role         string  `json:"role"`
	BillingCycle string  `json:"billing_cycle"`
}

type provisionResponse struct {
	CompanyID      string `json:"company_id"`
	TeamID         string `json:"team_id"`
	SubscriptionID string `json:"subscription_id"`
	PlanTag        string `json:"plan_tag"`
}

func (s *Server) Provision(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req ProvisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.provisioner.Provision(c.Request.Context(), user.ID, onboardingdomain.OnboardingForm{
		Name:         req.Name,
		Type:         req.Type,
		Rooms:        req.Rooms,
		City:         req.City,
		CountryID:    req.CountryID,
		CurrencyID:   req.CurrencyID,
		LanguageID:   req.LanguageID,
		Website:      req.Website,
		Role:         req.Role,
		BillingCycle: req.BillingCycle,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, provisionResponse{
		CompanyID:      result.Company.ID.String(),
		TeamID:         result.Team.ID.String(),
		SubscriptionID: result.Subscription.ID.String(),
		PlanTag:        result.PlanTag,
	})
}

func (s *Server) WebsiteCheck(c *gin.Context) {
	website := strings.TrimSpace(c.Query("website"))
	if website == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	taken, err := s.provisioner.WebsiteExists(c.Request.Context(), website)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"website": website, "available": !taken})
}

func (s *Server) OnboardingOptions(c *gin.Context) {
	ctx := c.Request.Context()

	countries, err := s.refrepo.ListCountries(ctx)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	currencies, err := s.refrepo.ListCurrencies(ctx)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	languages, err := s.refrepo.ListLanguages(ctx)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	plans, err := s.planSvc.List(ctx)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	type planOption struct {
		Tag        string `json:"tag"`
		Name       string `json:"name"`
		Tier       string `json:"tier"`
		Cycle      string `json:"cycle"`
		AmountCent int64  `json:"amount_cent"`
		Currency   string `json:"currency"`
		TrialDays  int    `json:"trial_days"`
	}
	planOptions := make([]planOption, 0, len(plans))
	for _, p := range plans {
		planOptions = append(planOptions, planOption{
			Tag:        p.Tag,
			Name:       p.Name,
			Tier:       p.Tier,
			Cycle:      p.Cycle,
			AmountCent: p.AmountCent,
			Currency:   p.Currency,
			TrialDays:  p.TrialDays,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"countries":  countries,
		"currencies": currencies,
		"languages":  languages,
		"plans":      planOptions,
		"cycles":     []string{plandomain.CycleMonthly, plandomain.CycleYearly},
		"types":      []string{"hotel", "hostel", "guesthouse", "apartment", "resort"},
		"roles":      []string{authorization.RoleOwner, authorization.RoleManager, authorization.RoleStaff},
	})
}

func (s *Server) CurrentSubscription(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	if user.TeamID == nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	sub, err := s.subscriptionSvc.GetByTeam(c.Request.Context(), *user.TeamID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":            sub.ID.String(),
		"team_id":       sub.TeamID.String(),
		"plan_id":       sub.PlanID.String(),
		"status":        sub.Status,
		"trial_ends_at": sub.TrialEndsAt,
		"start_at":      sub.StartAt,
	})
}
