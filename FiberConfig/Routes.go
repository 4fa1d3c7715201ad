package FiberConfig

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"Chronos/Assignments"
	"Chronos/Config"
	"Chronos/Controllers"
	"Chronos/Identity"
	"Chronos/Models"
	"Chronos/Reports"
	"Chronos/Screenshots"
	"Chronos/Sessions"
	"Chronos/email"
	"Chronos/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/template/html"
	"gorm.io/gorm"
)

// Dependencies are the services the HTTP layer is wired to.
type Dependencies struct {
	Config      *Config.Config
	DB          *gorm.DB
	Directory   *Identity.Directory
	Graph       *Assignments.Graph
	Tracker     *Sessions.Tracker
	Screenshots *Screenshots.Store
	Reports     *Reports.View
	Views       *html.Engine
}

func NewDependencies(cfg *Config.Config, db *gorm.DB, mailer Identity.Mailer, views *html.Engine) *Dependencies {
	tokens := Identity.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	return &Dependencies{
		Config:      cfg,
		DB:          db,
		Directory:   Identity.NewDirectory(db, tokens, mailer, cfg.BcryptCost),
		Graph:       Assignments.NewGraph(db),
		Tracker:     Sessions.NewTracker(db),
		Screenshots: Screenshots.NewStore(db, cfg.UploadDir),
		Reports:     Reports.NewView(db),
		Views:       views,
	}
}

// NewApp builds the Fiber app with middleware and routes mounted.
func NewApp(deps *Dependencies) *fiber.App {
	views := deps.Views
	if views == nil {
		views = email.Views(deps.Config.TemplatesDir)
	}
	app := fiber.New(fiber.Config{
		Views:        views,
		ErrorHandler: middleware.ErrorHandler,
		BodyLimit:    Screenshots.MaxUploadBytes + 1<<20,
	})

	app.Use(fiberrecover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(deps.Config.LogDir))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     deps.Config.AllowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With",
		AllowCredentials: deps.Config.AllowedOrigins != "*",
		MaxAge:           300,
	}))

	SetupRoutes(app, deps)
	return app
}

func SetupRoutes(app *fiber.App, deps *Dependencies) {
	authController := Controllers.NewAuthController(deps.Directory, deps.Config.DesktopDownloadURL)
	authController.SecureCookie = deps.Config.IsProduction()
	employeeController := Controllers.NewEmployeeController(deps.Directory, deps.Graph)
	projectController := Controllers.NewProjectController(deps.Graph)
	taskController := Controllers.NewTaskController(deps.Graph)
	timeTrackingController := Controllers.NewTimeTrackingController(deps.Tracker, deps.Reports)
	screenshotController := Controllers.NewScreenshotController(deps.Screenshots, deps.Directory)
	logController := Controllers.NewLogController(filepath.Join(deps.Config.LogDir, "requests.log"))

	employee := middleware.Verify(deps.Directory, Models.PermissionEmployee)
	manager := middleware.Verify(deps.Directory, Models.PermissionManager)
	admin := middleware.Verify(deps.Directory, Models.PermissionAdmin)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "time": time.Now().UTC()})
	})
	app.Get("/verify-email", authController.VerifyEmailPage)
	app.Static("/uploads", deps.Config.UploadDir, fiber.Static{CacheDuration: 10 * time.Second})

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authController.Register)
	auth.Post("/verify-email", authController.VerifyEmail)
	auth.Post("/login", authController.Login)
	auth.Post("/logout", authController.Logout)
	auth.Put("/update-password", employee, authController.UpdatePassword)

	// Employee routes
	employees := api.Group("/employees")
	employees.Get("/profile/me", employee, employeeController.GetProfile)
	employees.Put("/profile/me", employee, employeeController.UpdateProfile)
	employees.Get("/", manager, employeeController.GetEmployees)
	employees.Get("/:id", manager, employeeController.GetEmployee)
	employees.Post("/", admin, employeeController.CreateEmployee)
	employees.Put("/:id", admin, employeeController.UpdateEmployee)
	employees.Delete("/:id", admin, employeeController.DeactivateEmployee)

	// Project routes
	projects := api.Group("/projects")
	projects.Get("/employee/me", employee, projectController.GetMyProjects)
	projects.Get("/", manager, projectController.GetProjects)
	projects.Get("/:id", manager, projectController.GetProject)
	projects.Post("/", manager, projectController.CreateProject)
	projects.Put("/:id", manager, projectController.UpdateProject)
	projects.Delete("/:id", manager, projectController.DeactivateProject)

	// Task routes, fixed paths before /:id
	tasks := api.Group("/tasks")
	tasks.Get("/employee/me", employee, taskController.GetMyTasks)
	tasks.Get("/project/:projectId", employee, taskController.GetTasksByProject)
	tasks.Get("/", manager, taskController.GetTasks)
	tasks.Get("/:id", employee, taskController.GetTask)
	tasks.Post("/", manager, taskController.CreateTask)
	tasks.Put("/:id", manager, taskController.UpdateTask)
	tasks.Delete("/:id", manager, taskController.DeactivateTask)
	tasks.Post("/:id/employees", manager, taskController.AssignEmployees)

	// Time tracking routes
	tracking := api.Group("/time-tracking")
	tracking.Post("/start", employee, timeTrackingController.StartTracking)
	tracking.Put("/stop/:sessionId", employee, timeTrackingController.StopTracking)
	tracking.Get("/current", employee, timeTrackingController.GetCurrent)
	tracking.Get("/logs", employee, timeTrackingController.GetMyLogs)
	tracking.Get("/all", manager, timeTrackingController.GetAllLogs)
	tracking.Get("/all/export", manager, timeTrackingController.ExportAllLogs)
	tracking.Put("/:id", manager, timeTrackingController.UpdateTimeLog)
	tracking.Delete("/:id", manager, timeTrackingController.DeleteTimeLog)

	// Screenshot routes
	screenshots := api.Group("/screenshots")
	screenshots.Post("/", employee, screenshotController.StoreScreenshot)
	screenshots.Post("/upload", employee, screenshotController.UploadScreenshot)
	screenshots.Get("/me", employee, screenshotController.GetMyScreenshots)
	screenshots.Get("/timelog/:sessionId", employee, screenshotController.GetSessionScreenshots)
	screenshots.Get("/employee/:employeeId", manager, screenshotController.GetEmployeeScreenshots)
	screenshots.Delete("/:id", manager, screenshotController.DeleteScreenshot)

	// Request log routes
	logs := api.Group("/logs", admin)
	logs.Get("/", logController.GetLogs)
	logs.Get("/stats", logController.GetLogStats)
	logs.Get("/path/:path", logController.GetLogsByPath)
}

// FiberConfig serves the app on the configured port until ctx is cancelled.
func FiberConfig(ctx context.Context, deps *Dependencies) error {
	app := NewApp(deps)

	go func() {
		<-ctx.Done()
		log.Println("Shutting down server...")
		if err := app.Shutdown(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}()

	log.Printf("Server Up on :%s", deps.Config.Port)
	return app.Listen(":" + deps.Config.Port)
}
