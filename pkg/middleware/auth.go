package middleware

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"opd-queue/internal/data/entity"
	"opd-queue/internal/data/repository"
	"opd-queue/pkg/utils"

	"go.uber.org/zap"
)

type authenticator struct {
	sessionRepo repository.SessionRepository
	userRepo    repository.UserRepository
	logger      *zap.Logger
}

// bearerToken extracts the token of an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) (string, bool) {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// resolve loads the active user behind token. A nil user with nil error means rejected.
func (a *authenticator) resolve(r *http.Request, token string) (*entity.User, error) {
	session, err := a.sessionRepo.FindValidSession(r.Context(), token)
	if err != nil || session == nil || !session.IsValid(time.Now()) {
		return nil, err
	}

	user, err := a.userRepo.FindByID(r.Context(), session.UserID)
	if err != nil || user == nil || !user.IsActive || user.IsDeleted() {
		return nil, err
	}
	return user, nil
}

func (a *authenticator) authenticate(w http.ResponseWriter, r *http.Request, token string) (*http.Request, bool) {
	user, err := a.resolve(r, token)
	if err != nil {
		a.logger.Error("Failed to validate session", zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
		return nil, false
	}
	if user == nil {
		a.logger.Warn("Invalid or expired session", zap.String("path", r.URL.Path))
		utils.ResponseUnauthorized(w, "Invalid or expired session")
		return nil, false
	}

	ctx := utils.SetUserContext(r.Context(), user.ID, string(user.Role))
	return r.WithContext(ctx), true
}

// AuthSession requires a valid bearer session and stores the user id and role in the context.
func AuthSession(sessionRepo repository.SessionRepository, userRepo repository.UserRepository, logger *zap.Logger) func(http.Handler) http.Handler {
	a := &authenticator{sessionRepo: sessionRepo, userRepo: userRepo, logger: logger}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				utils.ResponseUnauthorized(w, "Missing authorization token")
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				utils.ResponseUnauthorized(w, "Invalid token format. Use: Bearer <token>")
				return
			}

			r, ok = a.authenticate(w, r, token)
			if !ok {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole rejects authenticated users whose role is not listed. Mount after AuthSession.
func RequireRole(logger *zap.Logger, roles ...entity.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := utils.GetUserIDFromContext(r.Context())
			if !ok {
				utils.ResponseUnauthorized(w, "Authentication required")
				return
			}

			role, _ := utils.GetRoleFromContext(r.Context())
			if !slices.Contains(roles, entity.UserRole(role)) {
				logger.Warn("Role check failed",
					zap.String("user_id", userID.String()),
					zap.String("role", role),
					zap.String("path", r.URL.Path),
				)
				utils.ResponseForbidden(w, "Access denied for role "+role)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
