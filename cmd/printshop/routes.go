package main

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	authapi "printshop-backend/http-server/auth"
	getclients "printshop-backend/http-server/clients/get"
	saveclients "printshop-backend/http-server/clients/save"
	upclients "printshop-backend/http-server/clients/update"
	getemployees "printshop-backend/http-server/employees/get"
	saveemployees "printshop-backend/http-server/employees/save"
	upemployees "printshop-backend/http-server/employees/update"
	report_excel "printshop-backend/http-server/generate-report/generate-excel"
	insightsget "printshop-backend/http-server/insights/get"
	getorders "printshop-backend/http-server/orders/get"
	saveorders "printshop-backend/http-server/orders/save"
	statusorders "printshop-backend/http-server/orders/status"
	uporders "printshop-backend/http-server/orders/update"
	getproducts "printshop-backend/http-server/products/get"
	saveproducts "printshop-backend/http-server/products/save"
	upproducts "printshop-backend/http-server/products/update"
	"printshop-backend/internal/config"
	mwauth "printshop-backend/internal/middleware/auth"
	generate_excel "printshop-backend/internal/service/generate-excel"
	"printshop-backend/internal/service/insights"
	"printshop-backend/internal/storage/mysql"
)

func routes(cfg *config.Config, log *slog.Logger, storage *mysql.Storage, reports *insights.Service, gen *generate_excel.GenerateExcelService) *chi.Mux {
	router := chi.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	router.Use(corsHandler.Handler)

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	bearer := mwauth.Bearer(cfg.JWTSecret)

	// login and the refresh-cookie routes stay open, /me needs a token
	authRouter := chi.NewRouter()
	authRouter.Post("/login", authapi.Login(log, cfg, storage))
	authRouter.Post("/refresh", authapi.Refresh(log, cfg, storage))
	authRouter.Post("/logout", authapi.Logout(log, storage))
	authRouter.With(bearer).Get("/me", authapi.Me(log, storage))
	router.Mount("/api/auth", authRouter)

	apiRouter := chi.NewRouter()
	apiRouter.Use(bearer)

	apiRouter.Get("/orders", getorders.GetOrders(log, storage))
	apiRouter.Get("/orders/{id}", getorders.GetOrder(log, storage))
	apiRouter.Post("/orders", saveorders.SaveOrder(log, storage))
	apiRouter.Put("/orders/{id}", uporders.UpdateOrder(log, storage))
	apiRouter.Delete("/orders/{id}", uporders.DeleteOrder(log, storage))
	apiRouter.Patch("/orders/{id}/status", statusorders.UpdateOrderStatus(log, storage))
	apiRouter.Patch("/orders/{id}/items/{itemID}/status", statusorders.UpdateItemStatus(log, storage))

	apiRouter.Get("/insights/orders", insightsget.OrderInsights(log, reports))
	apiRouter.Get("/insights/employees", insightsget.EmployeeInsights(log, reports))
	apiRouter.Get("/insights/clients", insightsget.ClientInsights(log, reports))
	apiRouter.Get("/insights/products", insightsget.ProductInsights(log, reports))
	apiRouter.Get("/insights/financial", insightsget.FinancialInsights(log, reports))
	apiRouter.Get("/insights/audit", insightsget.AuditInsights(log, reports))
	apiRouter.Get("/insights/dashboard", insightsget.DashboardInsights(log, reports))

	apiRouter.Get("/report/excel", report_excel.GenerateReportExcel(log, gen))

	apiRouter.Get("/clients", getclients.GetClients(log, storage))
	apiRouter.Get("/clients/{id}", getclients.GetClient(log, storage))
	apiRouter.Post("/clients", saveclients.SaveClient(log, storage))
	apiRouter.Put("/clients/{id}", upclients.UpdateClient(log, storage))
	apiRouter.Delete("/clients/{id}", upclients.DeleteClient(log, storage))

	apiRouter.Get("/products", getproducts.GetProducts(log, storage))
	apiRouter.Get("/products/{id}", getproducts.GetProduct(log, storage))
	apiRouter.Post("/products", saveproducts.SaveProduct(log, storage))
	apiRouter.Put("/products/{id}", upproducts.UpdateProduct(log, storage))
	apiRouter.Delete("/products/{id}", upproducts.DeleteProduct(log, storage))

	// staff management is admin only
	employeeRouter := chi.NewRouter()
	employeeRouter.Use(mwauth.RequireAdmin)
	employeeRouter.Get("/", getemployees.GetEmployees(log, storage))
	employeeRouter.Get("/{id}", getemployees.GetEmployee(log, storage))
	employeeRouter.Post("/", saveemployees.SaveEmployee(log, storage))
	employeeRouter.Put("/{id}", upemployees.UpdateEmployee(log, storage))
	employeeRouter.Delete("/{id}", upemployees.DeleteEmployee(log, storage))
	apiRouter.Mount("/employees", employeeRouter)

	router.Mount("/api", apiRouter)

	return router
}
