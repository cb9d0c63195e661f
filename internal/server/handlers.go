package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jjoyayroo/alphathreads/internal/auth"
	"github.com/jjoyayroo/alphathreads/internal/domain"
)

// handleGenerate runs the full generate-then-persist sequence for the
// session user.
func (s *Server) handleGenerate(c *gin.Context) {
	var req domain.GenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	// Trim once here so the generated and the persisted prompt are the
	// same text.
	req.Prompt = strings.TrimSpace(req.Prompt)

	ownerID := currentUserID(c)

	result, err := s.gateway.Generate(c.Request.Context(), req.Prompt, req.Model)
	if err != nil {
		s.metrics.RecordGeneration(req.Model, "error")
		status, msg := statusForError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}
	s.metrics.RecordGeneration(req.Model, "ok")

	rec, err := s.persister.Persist(c.Request.Context(), result, req.Prompt, req.Model, ownerID)
	if err != nil {
		s.log.Error().Err(err).Str("owner_id", ownerID).Msg("persist failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save generated image"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"output": rec.StorageURL,
		"image":  rec,
	})
}

// handleListImages returns the session user's gallery, newest first.
func (s *Server) handleListImages(c *gin.Context) {
	images, err := s.gallery.ListFor(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.log.Error().Err(err).Msg("gallery read failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load images"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"images": images})
}

// handleSignIn exchanges an identity-provider assertion for a session
// cookie.
func (s *Server) handleSignIn(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	identity, err := s.verifier.Verify(c.Request.Context(), req.Token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid identity assertion"})
		return
	}

	session, err := s.sessions.Issue(identity.UserID, identity.Email)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to issue session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start session"})
		return
	}

	c.SetCookie(sessionCookieName, session, int(s.sessions.TTL().Seconds()), "/", "", s.secureCookies, true)
	s.events.Publish(auth.Event{UserID: identity.UserID, SignedIn: true, At: time.Now()})

	c.JSON(http.StatusOK, gin.H{"user_id": identity.UserID})
}

// handleSignOut clears the session cookie. Clearing an already-invalid
// session is a no-op.
func (s *Server) handleSignOut(c *gin.Context) {
	if claims, err := s.sessions.Verify(sessionToken(c)); err == nil {
		s.events.Publish(auth.Event{UserID: claims.UserID, SignedIn: false, At: time.Now()})
	}

	c.SetCookie(sessionCookieName, "", -1, "/", "", s.secureCookies, true)
	c.Status(http.StatusNoContent)
}

// handleFile serves a stored artifact. Only the owning session may read it;
// anything else looks like a missing file.
func (s *Server) handleFile(c *gin.Context) {
	owner := c.Param("owner")
	name := c.Param("name")

	if owner != currentUserID(c) {
		c.Status(http.StatusNotFound)
		return
	}

	path, err := s.files.Path(owner, name)
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	c.File(path)
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexPage))
}

func (s *Server) handleSignInPage(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(signinPage))
}

// statusForError maps the failure taxonomy to HTTP: input errors are the
// caller's fault, configuration problems stay opaque, everything else
// surfaces with its message.
func statusForError(err error) (int, string) {
	switch {
	case domain.IsInputError(err):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrMissingCredential):
		return http.StatusInternalServerError, "server configuration error"
	default:
		return http.StatusInternalServerError, err.Error()
	}
}
