package auth

import (
	"log/slog"
	"mime"
	"net/http"

	"github.com/frahmantamala/rbac-admin/internal"
	"github.com/frahmantamala/rbac-admin/internal/transport"
	"github.com/frahmantamala/rbac-admin/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// Login accepts an OAuth2 password-style form or a JSON body.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	dto, err := h.decodeLogin(r)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	tokens, err := h.Service.Authenticate(r.Context(), dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	h.WriteJSON(w, http.StatusOK, tokens)
}

func (h *Handler) decodeLogin(r *http.Request) (LoginDTO, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(1 << 20); err != nil && err != http.ErrNotMultipart {
			return LoginDTO{}, internal.NewValidationError("invalid form body", internal.ErrCodeValidationFailed).WithCause(err)
		}
		return LoginDTO{
			Username: r.PostFormValue("username"),
			Password: r.PostFormValue("password"),
		}, nil
	default:
		var dto LoginDTO
		if err := h.DecodeJSON(r, &dto); err != nil {
			return LoginDTO{}, err
		}
		return dto, nil
	}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var dto RegisterDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	u, err := h.Service.Register(r.Context(), dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, ToUserResponse(u))
}

// Logout only confirms the token is still valid. Tokens are stateless, so the
// client discarding it is the whole logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token := h.ExtractTokenFromHeader(r)
	if token == "" {
		h.WriteAppError(w, r, internal.ErrUnauthenticated)
		return
	}

	if _, err := h.Service.CurrentUser(r.Context(), token); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
