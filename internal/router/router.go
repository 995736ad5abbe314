package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"taskforge/internal/auth"
	"taskforge/internal/config"
	apperrors "taskforge/internal/errors"
	"taskforge/internal/handler"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	jwtService *auth.JWTService,
	authHandler *handler.AuthHandler,
	taskHandler *handler.TaskHandler,
	agentHandler *handler.AgentHandler,
	chatHandler *handler.ChatHandler,
) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.CORSOrigin},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
	}))

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/logout", authHandler.Logout)

	// Secured routes (require JWT authentication). Every failure mode of
	// the middleware surfaces the same vague 401.
	secured := api.Group("", echojwt.WithConfig(echojwt.Config{
		SigningKey:  jwtService.Secret(),
		TokenLookup: "header:" + echo.HeaderAuthorization,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(auth.Claims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			httpErr := apperrors.MapErrorToHTTP(apperrors.ErrUnauthenticated)
			return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
		},
	}))

	secured.GET("/auth/me", authHandler.Me)

	// Direct task routes
	secured.GET("/tasks", taskHandler.List)
	secured.POST("/tasks", taskHandler.Create)
	secured.GET("/tasks/:id", taskHandler.Get)
	secured.PUT("/tasks/:id", taskHandler.Update)
	secured.PATCH("/tasks/:id/toggle", taskHandler.Toggle)
	secured.DELETE("/tasks/:id", taskHandler.Delete)

	// Agent routes mirror the task surface through the tool façade
	secured.GET("/agent/tasks", agentHandler.List)
	secured.POST("/agent/tasks", agentHandler.Create)
	secured.GET("/agent/tasks/:id", agentHandler.Read)
	secured.PUT("/agent/tasks/:id", agentHandler.Update)
	secured.PATCH("/agent/tasks/:id/toggle", agentHandler.Toggle)
	secured.DELETE("/agent/tasks/:id", agentHandler.Delete)

	// Chat command layer
	secured.POST("/chat", chatHandler.Chat)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
