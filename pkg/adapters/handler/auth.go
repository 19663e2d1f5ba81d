package handler

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/wadjakorntonsri/go-deeplink-qr/pkg/config"
)

const (
	authCookie    = "auth_token"
	stateCookie   = "oauthstate"
	tokenIssuer   = "deeplink-qr"
	tokenLifetime = 24 * time.Hour
	userInfoURL   = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// AuthHandler signs admins in with Google and issues a session cookie that
// guards the link management API.
type AuthHandler struct {
	oauthConfig   *oauth2.Config
	jwtSecret     []byte
	frontendURL   string
	allowedEmails []string
	isProduction  bool
	log           *zap.Logger
}

type GoogleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

func NewAuthHandler(cfg *config.Config, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
			},
			Endpoint: google.Endpoint,
		},
		jwtSecret:     []byte(cfg.JWTSecret),
		frontendURL:   cfg.FrontendURL,
		allowedEmails: cfg.AllowedEmails,
		isProduction:  cfg.AppEnv == "production",
		log:           log,
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state, err := h.setStateCookie(w)
	if err != nil {
		h.log.Error("Failed to generate oauth state", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, h.oauthConfig.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	oauthState, err := r.Cookie(stateCookie)
	if err != nil || r.FormValue("state") != oauthState.Value {
		h.log.Warn("OAuth callback with invalid state")
		http.Error(w, "invalid oauth state", http.StatusBadRequest)
		return
	}

	token, err := h.oauthConfig.Exchange(r.Context(), r.FormValue("code"))
	if err != nil {
		h.log.Warn("OAuth code exchange failed", zap.Error(err))
		http.Error(w, "code exchange failed", http.StatusUnauthorized)
		return
	}

	resp, err := h.oauthConfig.Client(r.Context(), token).Get(userInfoURL)
	if err != nil {
		h.log.Error("Failed getting user info", zap.Error(err))
		http.Error(w, "failed getting user info", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	var user GoogleUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		h.log.Error("Failed decoding user info", zap.Error(err))
		http.Error(w, "failed decoding user info", http.StatusBadGateway)
		return
	}

	if !user.VerifiedEmail || (len(h.allowedEmails) > 0 && !slices.Contains(h.allowedEmails, user.Email)) {
		h.log.Warn("Login rejected", zap.String("email", user.Email))
		http.Error(w, "Access denied: your email is not in the allowlist", http.StatusForbidden)
		return
	}

	tokenString, expires, err := h.issueToken(user.Email)
	if err != nil {
		h.log.Error("Failed signing JWT", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, h.cookie(authCookie, tokenString, expires))
	h.log.Info("Login successful", zap.String("email", user.Email))
	http.Redirect(w, r, h.frontendURL, http.StatusTemporaryRedirect)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.cookie(authCookie, "", time.Now().Add(-1*time.Hour)))
	http.Redirect(w, r, h.frontendURL, http.StatusTemporaryRedirect)
}

func (h *AuthHandler) issueToken(email string) (string, time.Time, error) {
	expires := time.Now().Add(tokenLifetime)
	claims := &jwt.RegisteredClaims{
		Subject:   email,
		Issuer:    tokenIssuer,
		ExpiresAt: jwt.NewNumericDate(expires),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.jwtSecret)
	return signed, expires, err
}

func (h *AuthHandler) setStateCookie(w http.ResponseWriter) (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	state := base64.URLEncoding.EncodeToString(b)
	http.SetCookie(w, h.cookie(stateCookie, state, time.Now().Add(20*time.Minute)))
	return state, nil
}

func (h *AuthHandler) cookie(name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Expires:  expires,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
	}
}
