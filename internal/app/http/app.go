package httpapp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	jwtlib "parish_portal/internal/lib/jwt"
	custommw "parish_portal/internal/middleware"
	httprouters "parish_portal/internal/transport/http"
	"parish_portal/internal/transport/http/dto/response"

	"github.com/arl/statsviz"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

type Config struct {
	Host          string
	Port          string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	IdleTimeout   time.Duration
	JWTSecret     []byte
	SessionSecret string
	SecureCookies bool
	AllowOrigins  []string
	// RateLimit запросов в секунду с одного IP на публичные формы; 0 - без ограничения.
	RateLimit float64
	RateBurst int
}

type Server struct {
	m       *http.ServeMux
	log     *slog.Logger
	e       *echo.Echo
	routers *httprouters.Routers
	cfg     Config
}

func New(log *slog.Logger, cfg Config, routers *httprouters.Routers) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout
	e.Server.IdleTimeout = cfg.IdleTimeout

	validate := validator.New()
	e.Validator = &CustomValidator{validator: validate}

	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/api/v1/admin",
		HttpOnly: true,
		Secure:   cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	e.Use(session.Middleware(store))

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))

	corsCfg := middleware.DefaultCORSConfig
	if len(cfg.AllowOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.AllowOrigins
		corsCfg.AllowCredentials = true
	}
	e.Use(middleware.CORSWithConfig(corsCfg))
	e.Use(middleware.Recover())
	e.Use(custommw.PrometheusMetrics)

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogLatency:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request",
				slog.String("URI", v.URI),
				slog.Int("status", v.Status),
				slog.String("remote ip", v.RemoteIP),
				slog.String("request_id", v.RequestID),
				slog.Duration("latency", v.Latency),
			)

			return nil
		},
	}))

	mux := http.NewServeMux()
	err := statsviz.Register(mux)
	if err != nil {
		log.Info("Statsviz start with error", slog.Any("error:", err.Error()))
	}

	return &Server{
		m:       mux,
		log:     log,
		e:       e,
		routers: routers,
		cfg:     cfg,
	}
}

// Handler для тестов через httptest.
func (s *Server) Handler() http.Handler {
	return s.e
}

func (s *Server) MustRun() {
	const op = "http.Server.MustRun"

	s.log.Info(op, slog.String("Start", "server"), slog.String("addr", s.addr()))

	if err := s.Start(); err != nil {
		panic(err)
	}
}

func (s *Server) Start() error {
	const op = "http.Server.Start"

	if err := s.e.Start(s.addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s server stopped: %w", op, err)
	}

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	const op = "http.Server.Stop"

	optCtx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	s.log.Info("stopping", slog.String("op", op))

	if err := s.e.Shutdown(optCtx); err != nil {
		return fmt.Errorf("%s could not shutdown server gracefuly: %w", op, err)
	}

	return nil
}

func (s *Server) addr() string {
	return net.JoinHostPort(s.cfg.Host, s.cfg.Port)
}

// adminOnlyMiddleware пропускает только токены с ролью администратора.
func (s *Server) adminOnlyMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := c.Get("user").(*jwt.Token)
		if !ok {
			return c.JSON(http.StatusUnauthorized, response.ErrAuthenticationFailed.WithDetails("token required"))
		}

		claims, ok := token.Claims.(*jwtlib.Claims)
		if !ok || claims.Role != jwtlib.RoleAdmin {
			return c.JSON(http.StatusForbidden, response.ErrForbidden)
		}

		return next(c)
	}
}

// adminSessionMiddleware для ссылок, открываемых браузером без заголовка Authorization.
func (s *Server) adminSessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, err := session.Get(httprouters.SessionName, c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, response.ErrAuthenticationFailed.WithDetails("session required"))
		}

		login, ok := sess.Values[httprouters.SessionAdminKey].(string)
		if !ok || login == "" {
			return c.JSON(http.StatusUnauthorized, response.ErrAuthenticationFailed.WithDetails("authentication required"))
		}

		return next(c)
	}
}

func (s *Server) rateLimiter() echo.MiddlewareFunc {
	if s.cfg.RateLimit <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(s.cfg.RateLimit),
		Burst:     max(s.cfg.RateBurst, 1),
		ExpiresIn: 3 * time.Minute,
	})

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			return c.JSON(http.StatusTooManyRequests, response.ErrTooManyRequests)
		},
		ErrorHandler: func(c echo.Context, _ error) error {
			return c.JSON(http.StatusForbidden, response.ErrForbidden.WithDetails("cannot identify client"))
		},
	})
}

func (s *Server) BuildRouters() {
	limited := s.rateLimiter()

	s.e.GET("/health", s.routers.Health)
	s.e.GET("/sitemap.xml", s.routers.Sitemap)
	s.e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.e.Group("/api/v1")
	{
		api.GET("/notices", s.routers.ListNotices)
		api.GET("/notices/:slug", s.routers.GetNotice)
		api.GET("/blog", s.routers.ListBlogPosts)
		api.GET("/blog/:slug", s.routers.GetBlogPost)
		api.GET("/events", s.routers.ListEvents)
		api.GET("/events/:slug", s.routers.GetEvent)
		api.POST("/events/:id/registrations", s.routers.RegisterForEvent, limited)
		api.GET("/ministries", s.routers.ListMinistries)
		api.GET("/mass-times", s.routers.MassSchedule)
		api.GET("/clergy", s.routers.ListClergy)
		api.GET("/parish-info", s.routers.ParishInfo)
		api.POST("/contact", s.routers.SubmitContact, limited)
		api.POST("/feedback", s.routers.SubmitFeedback, limited)

		debug := s.e.Group("/debug")
		{
			debug.GET("/statsviz/", echo.WrapHandler(s.m))
			debug.GET("/statsviz/*", echo.WrapHandler(s.m))
		}

		swagger := s.e.Group("/swag")
		{
			swagger.GET("/swagger/*", echoSwagger.WrapHandler)
		}

		api.POST("/admin/login", s.routers.AdminLogin, limited)
		api.GET("/admin/registrations/export", s.routers.ExportRegistrations, s.adminSessionMiddleware)

		adminGroup := api.Group("/admin")
		adminGroup.Use(echojwt.WithConfig(echojwt.Config{
			SigningKey: s.cfg.JWTSecret,
			NewClaimsFunc: func(echo.Context) jwt.Claims {
				return new(jwtlib.Claims)
			},
			ErrorHandler: func(c echo.Context, _ error) error {
				return c.JSON(http.StatusUnauthorized, response.ErrAuthenticationFailed.WithDetails("invalid or missing token"))
			},
		}), s.adminOnlyMiddleware)
		{
			adminGroup.GET("/events/stats", s.routers.RegistrationStats)
			adminGroup.GET("/events/:id/registrations", s.routers.EventRegistrations)
			adminGroup.GET("/registrations/:id", s.routers.GetRegistration)
			adminGroup.POST("/registrations/:id/cancel", s.routers.CancelRegistration)
			adminGroup.POST("/registrations/import", s.routers.ImportRegistrations)
			adminGroup.DELETE("/registrations", s.routers.ClearRegistrations)
		}
	}
}
