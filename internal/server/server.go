// Package server wires the HTTP boundary: routing, session checks and
// transport-level error mapping.
package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/jjoyayroo/alphathreads/internal/auth"
	"github.com/jjoyayroo/alphathreads/internal/infrastructure/blobstore"
	"github.com/jjoyayroo/alphathreads/internal/service"
)

const sessionCookieName = auth.CookieName

// Server is the HTTP front of the application.
type Server struct {
	engine        *gin.Engine
	log           zerolog.Logger
	sessions      *auth.Manager
	verifier      auth.IdentityVerifier
	events        *auth.Events
	gateway       *service.GenerationService
	persister     *service.PersistenceService
	gallery       *service.GalleryService
	files         *blobstore.Store
	metrics       *Metrics
	secureCookies bool
}

// Options carries the collaborators the server routes requests to.
type Options struct {
	Log           zerolog.Logger
	Sessions      *auth.Manager
	Verifier      auth.IdentityVerifier
	Events        *auth.Events
	Gateway       *service.GenerationService
	Persister     *service.PersistenceService
	Gallery       *service.GalleryService
	Files         *blobstore.Store
	PublicBaseURL string
}

// New assembles the router.
func New(opts Options) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		log:           opts.Log,
		sessions:      opts.Sessions,
		verifier:      opts.Verifier,
		events:        opts.Events,
		gateway:       opts.Gateway,
		persister:     opts.Persister,
		gallery:       opts.Gallery,
		files:         opts.Files,
		metrics:       NewMetrics(),
		secureCookies: strings.HasPrefix(opts.PublicBaseURL, "https://"),
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestLogger(), s.metrics.Middleware())

	engine.GET("/healthz", s.handleHealthz)
	engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	engine.POST("/api/auth/session", s.handleSignIn)
	engine.DELETE("/api/auth/session", s.handleSignOut)
	engine.GET("/signin", s.redirectAuthenticated(), s.handleSignInPage)

	protected := engine.Group("/", s.requireSession())
	protected.GET("/", s.handleIndex)
	protected.POST("/api/generate", s.handleGenerate)
	protected.GET("/api/images", s.handleListImages)
	protected.GET("/files/:owner/:name", s.handleFile)

	s.engine = engine
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

const indexPage = `<!doctype html>
<html>
<head><title>alphathreads</title></head>
<body>
<h1>alphathreads</h1>
<p>POST /api/generate with {"prompt": "...", "model": "flux"} to create an image.</p>
<p>GET /api/images lists your gallery.</p>
</body>
</html>
`

const signinPage = `<!doctype html>
<html>
<head><title>Sign in</title></head>
<body>
<h1>Sign in</h1>
<p>POST your identity token to /api/auth/session to start a session.</p>
</body>
</html>
`
