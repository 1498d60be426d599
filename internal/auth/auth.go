// Package auth transports the session over a signed JWT cookie and exposes
// middleware that decodes it into a session.Session for handlers. The token
// carries both the authenticated user id and the anonymous visitor id; either
// may be empty.
package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"tinylink/internal/logger"
	"tinylink/internal/session"
	"tinylink/internal/user"
)

type userKeeper interface {
	GetUserByID(ctx context.Context, userID string) (*user.User, bool, error)
}

// Auth issues, clears and verifies session cookies.
type Auth struct {
	db         userKeeper
	cookieName string
	signingKey []byte
}

// Claims are the JWT claims of a session cookie.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string `json:"user_id,omitempty"`
	VisitorID string `json:"visitor_id,omitempty"`
}

type contextKey string

const sessionContextKey contextKey = "session"

// New creates an Auth with the given user lookup, cookie name and HS256
// signing key.
func New(db userKeeper, cookieName string, signingKey []byte) *Auth {
	return &Auth{
		db:         db,
		cookieName: cookieName,
		signingKey: signingKey,
	}
}

// WithSession decodes the session cookie (or Authorization header) into a
// session.Session and stores it in the request context. Requests without a
// valid token proceed with a zero-value session. A user id whose account no
// longer resolves is dropped, so a stale cookie degrades to an anonymous
// session instead of leaking a dead identity.
func (a *Auth) WithSession(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		sess := a.sessionFromRequest(request)

		if sess.UserID != "" {
			_, found, err := a.db.GetUserByID(request.Context(), sess.UserID)
			if err != nil {
				logger.Log.Debugln("user lookup failed while decoding session:", zap.Error(err))
				response.WriteHeader(http.StatusInternalServerError)
				return
			}
			if !found {
				sess.UserID = ""
			}
		}

		ctx := context.WithValue(request.Context(), sessionContextKey, sess)
		h.ServeHTTP(response, request.WithContext(ctx))
	}

	return http.HandlerFunc(middleware)
}

// SessionFromContext returns the session placed by WithSession, or a
// zero-value session when the middleware did not run.
func SessionFromContext(ctx context.Context) session.Session {
	sess, _ := ctx.Value(sessionContextKey).(session.Session)

	return sess
}

// IssueSession signs the session into a JWT and sets it as the session
// cookie. The token is mirrored in the Authorization header for
// non-browser clients.
func (a *Auth) IssueSession(response http.ResponseWriter, sess session.Session) error {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID: uuid.NewString(),
		},
		UserID:    sess.UserID,
		VisitorID: sess.VisitorID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(a.signingKey)
	if err != nil {
		return err
	}

	response.Header().Set("Authorization", tokenString)
	http.SetCookie(response, &http.Cookie{
		Name:  a.cookieName,
		Value: tokenString,
		Path:  "/",
	})

	return nil
}

// ClearSession expires the session cookie, dropping both the user and the
// visitor identity.
func (a *Auth) ClearSession(response http.ResponseWriter) {
	http.SetCookie(response, &http.Cookie{
		Name:   a.cookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}

func (a *Auth) sessionFromRequest(request *http.Request) session.Session {
	tokenString := request.Header.Get("Authorization")
	if tokenString == "" {
		cookie, err := request.Cookie(a.cookieName)
		if err != nil {
			return session.Session{}
		}
		tokenString = cookie.Value
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return a.signingKey, nil
		},
	)
	if err != nil || !token.Valid {
		return session.Session{}
	}

	return session.Session{
		UserID:    claims.UserID,
		VisitorID: claims.VisitorID,
	}
}
