package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	authmw "github.com/jobiai/jobiai-assess/internal/auth/middleware"
	"github.com/jobiai/jobiai-assess/internal/candidacy"
	"github.com/jobiai/jobiai-assess/internal/gateway"
	"github.com/jobiai/jobiai-assess/internal/notify"
	"github.com/jobiai/jobiai-assess/internal/quiz"
	"github.com/jobiai/jobiai-assess/internal/rbac"
	"github.com/jobiai/jobiai-assess/internal/session"
	"github.com/jobiai/jobiai-assess/internal/users"
)

type Deps struct {
	Auth          *authmw.AuthService
	Users         *users.Store
	Quizzes       quiz.Store
	Candidacies   candidacy.Store
	Local         *gateway.Local
	Sessions      *session.Manager
	Notifications notify.Store
	Hub           *notify.Hub
	Notifier      StatusNotifier
	DB            Pinger
	// Events backs GET /events; nil leaves the route out.
	Events EventReader

	EnableSignup bool
	// RolesFromDB re-reads the caller's role on every request.
	RolesFromDB bool
	CORSOrigins []string
	Timeout     time.Duration
	Log         *zap.Logger
}

func NewRouter(d Deps) http.Handler {
	if d.Timeout <= 0 {
		d.Timeout = 30 * time.Second
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", HealthzHandler)
	r.Get("/readyz", ReadyzHandler(d.DB))

	r.Group(func(pub chi.Router) {
		pub.Use(middleware.Timeout(d.Timeout))
		pub.Post("/auth/login", authmw.LoginHandler(d.Auth, d.Users))
		if d.EnableSignup {
			pub.Post("/auth/signup", SignupHandler(d.Users, d.Auth))
		}
	})

	authed := func(pr chi.Router) {
		pr.Use(authmw.JWTMiddleware(d.Auth))
		if d.RolesFromDB {
			pr.Use(authmw.AttachRoleFromDB(d.Users, false))
		}
	}

	// Websocket upgrades live outside the request timeout.
	r.Group(func(pr chi.Router) {
		authed(pr)
		pr.Get("/notifications/ws", NotificationsWSHandler(d.Hub))
	})

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		authed(pr)
		pr.Use(middleware.Timeout(d.Timeout))

		pr.Post("/users/change-password", ChangePasswordHandler(d.Users))
		pr.With(rbac.Require(rbac.PermUsersList)).Get("/users", ListUsersHandler(d.Users))
		pr.With(rbac.RequireAll(rbac.PermUsersList, rbac.PermUsersUpdateRole)).Put("/users/{userID}/role", UpdateUserRoleHandler(d.Users))

		if d.Events != nil {
			pr.With(rbac.Require(rbac.PermEventsView)).Get("/events", ListEventsHandler(d.Events))
		}

		pr.Route("/quizzes", func(qr chi.Router) {
			qr.With(rbac.Require(rbac.PermQuizCreate)).Post("/", CreateQuizHandler(d.Quizzes))
			qr.With(rbac.Require(rbac.PermQuizView)).Get("/", ListQuizzesHandler(d.Quizzes))
			qr.With(rbac.Require(rbac.PermQuizView)).Get("/job/{jobID}", ListQuizzesByJobHandler(d.Quizzes))
			qr.With(rbac.Require(rbac.PermQuizView)).Get("/{quizID}", GetQuizHandler(d.Quizzes))
			qr.With(rbac.Require(rbac.PermQuizUpdate)).Put("/{quizID}", UpdateQuizHandler(d.Quizzes))
			qr.With(rbac.Require(rbac.PermQuizDelete)).Delete("/{quizID}", DeleteQuizHandler(d.Quizzes))

			qr.With(rbac.Require(rbac.PermResponseCreate)).Post("/{quizID}/responses", CreateResponseHandler(d.Local))
			qr.With(rbac.Require(rbac.PermResponseViewAll)).Get("/{quizID}/responses", ListResponsesHandler(d.Quizzes))
			qr.With(rbac.Require(rbac.PermResponseViewAll)).Get("/{quizID}/responses/export.xlsx", ExportResponsesXLSXHandler(d.Quizzes))
			qr.With(rbac.RequireAny(rbac.PermResponseViewOwn, rbac.PermResponseViewAll),
				rbac.RequireOwnerOr(rbac.PermResponseViewAll, ownsParam("candidateID"))).
				Get("/{quizID}/responses/{candidateID}", GetResponseHandler(d.Quizzes))
			qr.With(rbac.Require(rbac.PermResponseViewAll)).
				Get("/{quizID}/responses/{candidateID}/report.pdf", ResponsePDFHandler(d.Quizzes))
		})

		pr.Route("/candidacies", func(cr chi.Router) {
			cr.With(rbac.Require(rbac.PermCandidacyCreate)).Post("/apply", ApplyHandler(d.Local))
			cr.With(rbac.Require(rbac.PermCandidacyViewOwn)).Get("/", MyCandidaciesHandler(d.Candidacies))
			cr.With(rbac.Require(rbac.PermCandidacyViewAll)).Get("/job/{jobID}", JobCandidaciesHandler(d.Candidacies))
			cr.With(rbac.Require(rbac.PermCandidacyUpdate)).Put("/{id}", UpdateCandidacyHandler(d.Candidacies, d.Notifier))
			cr.With(rbac.Require(rbac.PermCandidacyDelete)).Delete("/{id}", DeleteCandidacyHandler(d.Candidacies))
		})

		pr.Route("/sessions", func(sr chi.Router) {
			sr.Use(rbac.Require(rbac.PermSessionRun))
			sr.Post("/", StartSessionHandler(d.Sessions))
			sr.Get("/{id}", GetSessionHandler(d.Sessions))
			sr.Put("/{id}/answer", AnswerHandler(d.Sessions))
			sr.Post("/{id}/next", NextHandler(d.Sessions))
			sr.Post("/{id}/previous", PreviousHandler(d.Sessions))
			sr.Post("/{id}/submit", SubmitSessionHandler(d.Sessions, d.Log))
			sr.Delete("/{id}", CloseSessionHandler(d.Sessions))
		})

		pr.Get("/notifications", ListNotificationsHandler(d.Notifications))
		pr.Get("/notifications/unread-count", UnreadCountHandler(d.Notifications))
		pr.Post("/notifications/{id}/read", MarkReadHandler(d.Notifications))
		pr.Delete("/notifications/{id}", DeleteNotificationHandler(d.Notifications))
	})

	return r
}
