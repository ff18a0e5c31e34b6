package main

import (
	"context"
	"errors"
	"expvar"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"critiq/internal/accesscontrol"
	"critiq/internal/auth"
	"critiq/internal/mailer"
	"critiq/internal/ratelimiter"
	"critiq/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

type application struct {
	config        config
	store         store.Storage
	logger        *zap.SugaredLogger
	mailer        mailer.Client
	authenticator auth.Authenticator
	rateLimiter   ratelimiter.Limiter
}

type config struct {
	addr        string
	db          dbConfig
	env         string
	apiURL      string
	mail        mailConfig
	auth        authConfig
	rateLimiter ratelimiter.Config
}

type authConfig struct {
	basic basicConfig
	token tokenConfig
}

type tokenConfig struct {
	secret string
	exp    time.Duration
	iss    string
}

type basicConfig struct {
	user string
	pass string
}

type mailConfig struct {
	exp       time.Duration
	fromEmail string
	smtp      smtpConfig
}

type smtpConfig struct {
	host     string
	port     int
	username string
	password string
}

type dbConfig struct {
	addr        string
	maxConns    int32
	maxIdleTime string
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(app.RateLimiterMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.With(app.BasicAuthMiddleware()).Get("/health", app.healthCheckHandler)
		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", app.signupHandler)
			r.Post("/token", app.createTokenHandler)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", app.listCategoriesHandler)
			r.With(app.AuthTokenMiddleware, app.RequireCapability(accesscontrol.CanManageCatalog)).Post("/", app.createCategoryHandler)
			r.With(app.AuthTokenMiddleware, app.RequireCapability(accesscontrol.CanManageCatalog)).Delete("/{slug}", app.deleteCategoryHandler)
		})

		r.Route("/genres", func(r chi.Router) {
			r.Get("/", app.listGenresHandler)
			r.With(app.AuthTokenMiddleware, app.RequireCapability(accesscontrol.CanManageCatalog)).Post("/", app.createGenreHandler)
			r.With(app.AuthTokenMiddleware, app.RequireCapability(accesscontrol.CanManageCatalog)).Delete("/{slug}", app.deleteGenreHandler)
		})

		r.Route("/titles", func(r chi.Router) {
			r.Get("/", app.listTitlesHandler)
			r.With(app.AuthTokenMiddleware, app.RequireCapability(accesscontrol.CanManageCatalog)).Post("/", app.createTitleHandler)

			r.Route("/{titleID}", func(r chi.Router) {
				r.Use(app.titleContextMiddleware)

				r.Get("/", app.getTitleHandler)
				r.With(app.AuthTokenMiddleware, app.RequireCapability(accesscontrol.CanManageCatalog)).Patch("/", app.updateTitleHandler)
				r.With(app.AuthTokenMiddleware, app.RequireCapability(accesscontrol.CanManageCatalog)).Delete("/", app.deleteTitleHandler)

				r.Route("/reviews", func(r chi.Router) {
					r.Get("/", app.listReviewsHandler)
					r.With(app.AuthTokenMiddleware).Post("/", app.createReviewHandler)

					r.Route("/{reviewID}", func(r chi.Router) {
						r.Use(app.reviewContextMiddleware)

						r.Get("/", app.getReviewHandler)
						r.With(app.AuthTokenMiddleware).Patch("/", app.updateReviewHandler)
						r.With(app.AuthTokenMiddleware).Delete("/", app.deleteReviewHandler)

						r.Route("/comments", func(r chi.Router) {
							r.Get("/", app.listCommentsHandler)
							r.With(app.AuthTokenMiddleware).Post("/", app.createCommentHandler)

							r.Route("/{commentID}", func(r chi.Router) {
								r.Use(app.commentContextMiddleware)

								r.Get("/", app.getCommentHandler)
								r.With(app.AuthTokenMiddleware).Patch("/", app.updateCommentHandler)
								r.With(app.AuthTokenMiddleware).Delete("/", app.deleteCommentHandler)
							})
						})
					})
				})
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)

			r.Get("/me", app.getCurrentUserHandler)
			r.Patch("/me", app.updateCurrentUserHandler)

			r.With(app.RequireCapability(accesscontrol.CanManageUsers)).Get("/", app.listUsersHandler)
			r.With(app.RequireCapability(accesscontrol.CanManageUsers)).Post("/", app.createUserHandler)
			r.With(app.RequireCapability(accesscontrol.CanManageUsers)).Get("/{username}", app.getUserHandler)
			r.With(app.RequireCapability(accesscontrol.CanManageUsers)).Patch("/{username}", app.updateUserHandler)
			r.With(app.RequireCapability(accesscontrol.CanManageUsers)).Delete("/{username}", app.deleteUserHandler)
		})
	})

	return r
}

func (app *application) run(mux http.Handler) error {
	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}
