package http

import (
	"github.com/gofiber/fiber/v2"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Refresher KPIRefresher
	Query     KPIQuerier
	JWTSecret string
	JWTIssuer string
}

// Router registra las rutas de la API. Todas las rutas de KPI requieren Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")
	h := NewKPIHandler(deps.Refresher, deps.Query)

	kpi := api.Group("/kpi", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))
	admin := RequireRole(RoleAdmin)
	self := RequireSelfOrAdmin("employeeId")

	kpi.Post("/refresh-all", admin, h.RefreshAll)
	kpi.Get("/refresh-status", admin, h.RefreshStatus)

	kpi.Get("/sales/:employeeId", self, h.GetSales)
	kpi.Post("/sales/:employeeId/refresh", self, h.RefreshOne)

	kpi.Get("/admin", admin, h.GetAdmin)
	kpi.Post("/admin/refresh", admin, h.RefreshAll)
	kpi.Get("/admin/sales-concentration/detail", admin, h.GetConcentrationDetail)
	kpi.Get("/admin/ranking/:type", admin, h.GetRanking)
}
