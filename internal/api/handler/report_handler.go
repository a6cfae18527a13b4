package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/revtrack/revenue-tracker/pkg/rbac"
)

// ReportHandler exposes the reporting scope of the caller. Report generation
// itself lives outside this service; this endpoint tells the console which
// entities a report request may cover.
type ReportHandler struct{}

func NewReportHandler() *ReportHandler { return &ReportHandler{} }

type reportScopeResponse struct {
	Role           rbac.Role `json:"role"`
	AllEntities    bool      `json:"all_entities"`
	AffiliationIDs []string  `json:"affiliation_ids"`
}

// Scope handles GET /reports/scope. Admin and lead only.
//
// @Summary      Reporting scope of the caller
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  reportScopeResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /reports/scope [get]
func (h *ReportHandler) Scope(c echo.Context) error {
	account, err := currentAccount(c)
	if err != nil {
		return err
	}
	ids := account.AffiliationIDs
	if ids == nil {
		ids = []string{}
	}
	return c.JSON(http.StatusOK, reportScopeResponse{
		Role:           account.Role,
		AllEntities:    account.Role == rbac.RoleAdmin,
		AffiliationIDs: ids,
	})
}
