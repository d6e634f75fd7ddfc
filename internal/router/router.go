package router

import (
	"time"

	"fabriq/internal/config"
	"fabriq/internal/handler"
	"fabriq/internal/middleware"
	"fabriq/internal/model"
	"fabriq/internal/repository"
	"fabriq/internal/service"
	"fabriq/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, dispatcher *worker.Dispatcher) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	bomRepo := repository.NewBOMRepository(db)
	shortageRepo := repository.NewShortageRepository(db)
	productionRepo := repository.NewProductionRepository(db)
	dispatchRepo := repository.NewDispatchRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)
	partyRepo := repository.NewPartyRepository(db)
	poRepo := repository.NewPurchaseOrderRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	productSvc := service.NewProductService(productRepo, movementRepo, rdb)
	tracker := service.NewShortageTracker(shortageRepo)
	bomSvc := service.NewBOMService(bomRepo, productRepo, productionRepo, movementRepo, tracker, cfg, dispatcher)
	productionSvc := service.NewProductionService(productionRepo, bomRepo, productRepo, movementRepo, cfg)
	dispatchSvc := service.NewDispatchService(dispatchRepo, productionRepo, productRepo, movementRepo)
	partySvc := service.NewPartyService(partyRepo)
	poSvc := service.NewPurchaseOrderService(poRepo, partyRepo, productRepo, cfg.PDFStoragePath, dispatcher)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	productsH := handler.NewProductsHandler(productSvc)
	bomH := handler.NewBOMHandler(bomSvc)
	productionH := handler.NewProductionHandler(productionSvc)
	dispatchH := handler.NewDispatchHandler(dispatchSvc)
	partiesH := handler.NewPartiesHandler(partySvc)
	poH := handler.NewPurchaseOrdersHandler(poSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/api/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	api := r.Group("/api", jwtMW)
	{
		anyRole := middleware.RequireRole(model.RoleAdmin, model.RoleSupervisor, model.RoleInventory)
		adminOnly := middleware.RequireRole(model.RoleAdmin)
		adminOrSupervisor := middleware.RequireRole(model.RoleAdmin, model.RoleSupervisor)
		adminOrInventory := middleware.RequireRole(model.RoleAdmin, model.RoleInventory)

		bom := api.Group("/bom")
		{
			bom.POST("", adminOrSupervisor, bomH.Create)
			bom.GET("/all", anyRole, bomH.ListApproved)
			bom.GET("/unapproved", adminOnly, bomH.ListUnapproved)
			bom.GET("/autobom", adminOrSupervisor, bomH.AutoClone)
			bom.GET("/finished-good/:id", anyRole, bomH.ListByFinishedGood)
			bom.GET("/weekly", anyRole, bomH.Weekly)
			bom.GET("/inventory-shortages", anyRole, bomH.Shortages)
			bom.GET("/raw-materials/unapproved", adminOnly, bomH.UnapprovedRawMaterials)
			bom.POST("/raw-materials/approve", adminOnly, bomH.ApproveRawMaterial)
			bom.GET("/inventory/raw-materials/unapproved", adminOrInventory, bomH.InventoryUnapprovedRawMaterials)
			bom.POST("/inventory/raw-materials/approve", adminOrInventory, bomH.InventoryApproveRawMaterial)
			bom.GET("/:id", anyRole, bomH.Details)
			bom.PUT("/:id", adminOrSupervisor, bomH.Update)
			bom.DELETE("/:id", adminOnly, bomH.Remove)
		}

		proc := api.Group("/production-process")
		{
			proc.POST("", adminOrSupervisor, productionH.Create)
			proc.GET("/all", anyRole, productionH.List)
			proc.GET("/done/:id", adminOrSupervisor, productionH.MarkDone)
			proc.PUT("/start-production", adminOrSupervisor, productionH.StartProduction)
			proc.PUT("/allocation", adminOrSupervisor, productionH.RequestAllocation)
			proc.PUT("/inventory-in-transit", adminOrInventory, productionH.InventoryInTransit)
			proc.PUT("/update-status", adminOrSupervisor, productionH.Update)
			proc.PUT("/override-status", adminOnly, productionH.OverrideStatus)
			proc.GET("/:id", anyRole, productionH.Details)
			proc.DELETE("/:id", adminOnly, productionH.Remove)
		}

		disp := api.Group("/dispatch")
		{
			disp.POST("", adminOrSupervisor, dispatchH.Create)
			disp.GET("/all", anyRole, dispatchH.List)
			disp.GET("/:id", anyRole, dispatchH.Details)
			disp.PUT("/:id", adminOrSupervisor, dispatchH.Update)
			disp.DELETE("/:id", adminOnly, dispatchH.Remove)
		}

		prods := api.Group("/products")
		{
			prods.GET("", anyRole, productsH.List)
			prods.GET("/:id", anyRole, productsH.Details)
			prods.GET("/:id/movements", anyRole, productsH.Movements)
			prods.POST("", adminOrSupervisor, productsH.Create)
			prods.PUT("/:id", adminOrSupervisor, productsH.Update)
			prods.PUT("/:id/stock", adminOrInventory, productsH.AdjustStock)
			prods.DELETE("/:id", adminOnly, productsH.Deactivate)
		}

		parties := api.Group("/parties")
		{
			parties.GET("", anyRole, partiesH.List)
			parties.GET("/:id", anyRole, partiesH.Details)
			parties.POST("", adminOrSupervisor, partiesH.Create)
			parties.PUT("/:id", adminOrSupervisor, partiesH.Update)
			parties.DELETE("/:id", adminOnly, partiesH.Remove)
		}

		po := api.Group("/purchase-orders")
		{
			po.GET("", anyRole, poH.List)
			po.GET("/:id", anyRole, poH.Details)
			po.POST("", adminOrSupervisor, poH.Create)
			po.PUT("/:id", adminOrSupervisor, poH.Update)
			po.GET("/:id/document", anyRole, poH.Document)
			po.POST("/:id/send", adminOrSupervisor, poH.Send)
		}

		users := api.Group("/auth/users", adminOnly)
		{
			users.POST("", authH.CreateUser)
			users.GET("", authH.ListUsers)
			users.PUT("/:id", authH.UpdateUser)
			users.PUT("/:id/reactivate", authH.ReactivateUser)
			users.DELETE("/:id", authH.DeactivateUser)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
