// Package router wires the HTTP surface: link management, the public
// redirect, the auth endpoints and the diagnostic routes. Handlers decode the
// request, read the session once, call into the service and translate the
// error taxonomy to HTTP statuses. Rendering stays external; handlers emit
// the JSON context a renderer would consume.
package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"tinylink/internal/access"
	"tinylink/internal/auth"
	"tinylink/internal/authenticator"
	"tinylink/internal/gzippedhttp"
	"tinylink/internal/ipchecker"
	"tinylink/internal/logger"
	"tinylink/internal/models"
	"tinylink/internal/service"
)

// Router holds the handler dependencies.
type Router struct {
	svc       *service.Service
	auth      authenticator.Authenticator
	ipChecker *ipchecker.IPChecker
	validate  *validator.Validate
}

// New builds the chi router with the full middleware chain and route table.
func New(
	svc *service.Service,
	authHandler authenticator.Authenticator,
	ipChecker *ipchecker.IPChecker,
) *chi.Mux {
	h := &Router{
		svc:       svc,
		auth:      authHandler,
		ipChecker: ipChecker,
		validate:  validator.New(),
	}

	router := chi.NewRouter()
	router.Use(logger.WithLoggingHTTPMiddleware)
	router.Use(gzippedhttp.GzipResponse)
	router.Use(methodOverride)
	router.Use(authHandler.WithSession)

	router.Get(`/u/{short}`, h.getRedirect)
	router.Get(`/urls.json`, h.getAllLinks)

	router.Route(`/urls`, func(router chi.Router) {
		router.Get(`/`, h.getUserLinks)
		router.Get(`/new`, h.getNewLinkContext)
		router.Post(`/`, h.postCreateLink)
		router.Get(`/{short}`, h.getLinkDetails)
		router.Put(`/{short}`, h.updateLink)
		router.Post(`/{short}`, h.updateLink)
		router.Delete(`/{short}/delete`, h.deleteLink)
		router.Post(`/{short}/delete`, h.deleteLink)
	})

	router.Get(`/login`, h.getLoginContext)
	router.Post(`/login`, h.postLogin)
	router.Post(`/logout`, h.postLogout)
	router.Get(`/register`, h.getRegisterContext)
	router.Post(`/register`, h.postRegister)

	router.Get(`/ping`, h.getPing)
	router.Get(`/internal/stats`, h.getInternalStats)

	return router
}

// methodOverride rewrites a POST into the method named by the `_method` form
// field or the X-HTTP-Method-Override header. HTML forms only support GET
// and POST, so the edit and delete forms tunnel PUT and DELETE through POST.
func methodOverride(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		if request.Method == http.MethodPost {
			override := request.Header.Get("X-HTTP-Method-Override")
			if override == "" && strings.HasPrefix(request.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
				if err := request.ParseForm(); err == nil {
					override = request.PostForm.Get("_method")
				}
			}

			switch strings.ToUpper(override) {
			case http.MethodPut:
				request.Method = http.MethodPut
			case http.MethodDelete:
				request.Method = http.MethodDelete
			}
		}

		h.ServeHTTP(response, request)
	}

	return http.HandlerFunc(middleware)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrMissingField),
		errors.Is(err, models.ErrDuplicateEmail):
		return http.StatusBadRequest

	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, models.ErrUnauthenticated),
		errors.Is(err, models.ErrForbidden),
		errors.Is(err, models.ErrUserNotFound),
		errors.Is(err, models.ErrInvalidPassword):
		return http.StatusForbidden
	}

	return http.StatusInternalServerError
}

func (h *Router) writeError(response http.ResponseWriter, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		logger.Log.Errorln("request failed:", zap.Error(err))
		http.Error(response, "internal error", status)
		return
	}

	http.Error(response, err.Error(), status)
}

func writeJSON(response http.ResponseWriter, status int, payload interface{}) {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(status)
	if err := json.NewEncoder(response).Encode(payload); err != nil {
		logger.Log.Debugln("encoding response:", zap.Error(err))
	}
}

func (h *Router) linkResponse(link *models.Link, withVisits bool) models.LinkResponse {
	resp := models.LinkResponse{
		ShortCode:          link.ShortCode,
		ShortURL:           h.svc.ShortURL(link.ShortCode),
		LongURL:            link.LongURL,
		OwnerID:            link.OwnerID,
		VisitCount:         link.VisitCount,
		UniqueVisitorCount: link.UniqueVisitorCount,
	}
	if withVisits {
		resp.Visits = link.Visits
	}

	return resp
}

// formValue reads a single field from a JSON body or an urlencoded form,
// depending on the request's Content-Type.
func (h *Router) formValue(request *http.Request, jsonTarget interface{}, extract func() string, formField string) string {
	if strings.HasPrefix(request.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(request.Body).Decode(jsonTarget); err != nil {
			return ""
		}
		if err := h.validate.Struct(jsonTarget); err != nil {
			return ""
		}
		return extract()
	}

	if err := request.ParseForm(); err != nil {
		return ""
	}

	return request.PostForm.Get(formField)
}

func (h *Router) credentials(request *http.Request) (email, password string) {
	if strings.HasPrefix(request.Header.Get("Content-Type"), "application/json") {
		var body models.CredentialsRequest
		if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
			return "", ""
		}
		return body.Email, body.Password
	}

	if err := request.ParseForm(); err != nil {
		return "", ""
	}

	return request.PostForm.Get("email"), request.PostForm.Get("password")
}

// getRedirect serves GET /u/{short}: it resolves the target, lazily mints
// the visitor identity, records the visit and redirects. The existence check
// always precedes any use of the record, and the visitor id is minted before
// the visit is recorded or the uniqueness counting would be wrong.
func (h *Router) getRedirect(response http.ResponseWriter, request *http.Request) {
	short := chi.URLParam(request, "short")

	link, err := h.svc.GetLink(request.Context(), short)
	if err != nil {
		h.writeError(response, err)
		return
	}

	sess := auth.SessionFromContext(request.Context())
	if sess.VisitorID == "" {
		sess.VisitorID = h.svc.NewVisitorID()
		if err := h.auth.IssueSession(response, sess); err != nil {
			h.writeError(response, err)
			return
		}
	}

	if _, err := h.svc.RecordVisit(request.Context(), short, sess.VisitorID, time.Now()); err != nil {
		h.writeError(response, err)
		return
	}

	http.Redirect(response, request, link.LongURL, http.StatusTemporaryRedirect)
}

// getUserLinks serves GET /urls: the caller's links with their stats.
func (h *Router) getUserLinks(response http.ResponseWriter, request *http.Request) {
	sess := auth.SessionFromContext(request.Context())
	if err := access.RequireAuthenticated(sess); err != nil {
		h.writeError(response, err)
		return
	}

	links, err := h.svc.ListLinksByOwner(request.Context(), sess.UserID)
	if err != nil {
		h.writeError(response, err)
		return
	}

	result := make([]models.LinkResponse, 0, len(links))
	for _, link := range links {
		result = append(result, h.linkResponse(link, false))
	}

	writeJSON(response, http.StatusOK, result)
}

// getNewLinkContext serves GET /urls/new: the creation form context.
func (h *Router) getNewLinkContext(response http.ResponseWriter, request *http.Request) {
	sess := auth.SessionFromContext(request.Context())
	if err := access.RequireAuthenticated(sess); err != nil {
		h.writeError(response, err)
		return
	}

	writeJSON(response, http.StatusOK, map[string]string{
		"user_id": sess.UserID,
		"action":  "/urls",
		"field":   "longURL",
	})
}

// postCreateLink serves POST /urls.
func (h *Router) postCreateLink(response http.ResponseWriter, request *http.Request) {
	sess := auth.SessionFromContext(request.Context())
	if err := access.RequireAuthenticated(sess); err != nil {
		h.writeError(response, err)
		return
	}

	var body models.CreateLinkRequest
	longURL := h.formValue(request, &body, func() string { return body.LongURL }, "longURL")

	link, err := h.svc.CreateLink(request.Context(), sess.UserID, longURL)
	if err != nil {
		h.writeError(response, err)
		return
	}

	writeJSON(response, http.StatusCreated, h.linkResponse(link, false))
}

// getLinkDetails serves GET /urls/{short}: details and the visit log,
// visible to the owner only.
func (h *Router) getLinkDetails(response http.ResponseWriter, request *http.Request) {
	sess := auth.SessionFromContext(request.Context())
	short := chi.URLParam(request, "short")

	link, err := h.svc.GetLinkForOwner(request.Context(), short, sess)
	if err != nil {
		h.writeError(response, err)
		return
	}

	writeJSON(response, http.StatusOK, h.linkResponse(link, true))
}

// updateLink serves PUT /urls/{short} and its POST form alias.
func (h *Router) updateLink(response http.ResponseWriter, request *http.Request) {
	sess := auth.SessionFromContext(request.Context())
	short := chi.URLParam(request, "short")

	var body models.UpdateLinkRequest
	newURL := h.formValue(request, &body, func() string { return body.NewURL }, "newUrl")

	if err := h.svc.UpdateLinkTarget(request.Context(), short, newURL, sess); err != nil {
		h.writeError(response, err)
		return
	}

	link, err := h.svc.GetLink(request.Context(), short)
	if err != nil {
		h.writeError(response, err)
		return
	}

	writeJSON(response, http.StatusOK, h.linkResponse(link, false))
}

// deleteLink serves DELETE /urls/{short}/delete and its POST form alias.
func (h *Router) deleteLink(response http.ResponseWriter, request *http.Request) {
	sess := auth.SessionFromContext(request.Context())
	short := chi.URLParam(request, "short")

	if err := h.svc.DeleteLink(request.Context(), short, sess); err != nil {
		h.writeError(response, err)
		return
	}

	response.WriteHeader(http.StatusNoContent)
}

// getLoginContext serves GET /login.
func (h *Router) getLoginContext(response http.ResponseWriter, request *http.Request) {
	writeJSON(response, http.StatusOK, map[string]interface{}{
		"form":   "login",
		"fields": []string{"email", "password"},
	})
}

// postLogin authenticates the credentials and attaches the user to the
// session cookie. The anonymous visitor identity, when present, survives
// the login.
func (h *Router) postLogin(response http.ResponseWriter, request *http.Request) {
	email, password := h.credentials(request)

	usr, err := h.svc.AuthenticateUser(request.Context(), email, password)
	if err != nil {
		h.writeError(response, err)
		return
	}

	sess := auth.SessionFromContext(request.Context())
	sess.UserID = usr.ID
	if err := h.auth.IssueSession(response, sess); err != nil {
		h.writeError(response, err)
		return
	}

	writeJSON(response, http.StatusOK, models.UserResponse{ID: usr.ID, Email: usr.Email})
}

// postLogout clears the session cookie entirely.
func (h *Router) postLogout(response http.ResponseWriter, request *http.Request) {
	h.auth.ClearSession(response)
	response.WriteHeader(http.StatusNoContent)
}

// getRegisterContext serves GET /register.
func (h *Router) getRegisterContext(response http.ResponseWriter, request *http.Request) {
	writeJSON(response, http.StatusOK, map[string]interface{}{
		"form":   "register",
		"fields": []string{"email", "password"},
	})
}

// postRegister creates the account and logs it in.
func (h *Router) postRegister(response http.ResponseWriter, request *http.Request) {
	email, password := h.credentials(request)

	usr, err := h.svc.RegisterUser(request.Context(), email, password)
	if err != nil {
		h.writeError(response, err)
		return
	}

	sess := auth.SessionFromContext(request.Context())
	sess.UserID = usr.ID
	if err := h.auth.IssueSession(response, sess); err != nil {
		h.writeError(response, err)
		return
	}

	writeJSON(response, http.StatusCreated, models.UserResponse{ID: usr.ID, Email: usr.Email})
}

// getAllLinks serves GET /urls.json: the whole store as a keyed mapping.
func (h *Router) getAllLinks(response http.ResponseWriter, request *http.Request) {
	all, err := h.svc.AllLinks(request.Context())
	if err != nil {
		h.writeError(response, err)
		return
	}

	writeJSON(response, http.StatusOK, all)
}

// getPing serves GET /ping: the storage health check.
func (h *Router) getPing(response http.ResponseWriter, request *http.Request) {
	if err := h.svc.Ping(request.Context()); err != nil {
		h.writeError(response, err)
		return
	}

	response.WriteHeader(http.StatusOK)
}

// getInternalStats serves GET /internal/stats for the trusted subnet.
func (h *Router) getInternalStats(response http.ResponseWriter, request *http.Request) {
	clientIP, err := h.ipChecker.GetClientIP(request)
	if err != nil || !h.ipChecker.Check(clientIP) {
		response.WriteHeader(http.StatusForbidden)
		return
	}

	stats, err := h.svc.GetInternalStats(request.Context())
	if err != nil {
		h.writeError(response, err)
		return
	}

	writeJSON(response, http.StatusOK, stats)
}
