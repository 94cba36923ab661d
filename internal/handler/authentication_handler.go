package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"farm-auth-server/internal/apperr"
	"farm-auth-server/internal/model/requestresponse"
	"farm-auth-server/internal/ports"
	"farm-auth-server/internal/security"
	"farm-auth-server/internal/service"
)

type AuthenticationHandler struct {
	ports.AuthenticationService
}

func NewAuthenticationHandler(authenticationService *service.AuthenticationService) *AuthenticationHandler {
	return &AuthenticationHandler{authenticationService}
}

// Login godoc
// @Summary Аутентификация пользователя
// @Description Получение пары access/refresh токенов по логину и паролю
// @Tags Authentication
// @Accept json
// @Produce json
// @Param body body requestresponse.LoginRequest true "Тело запроса" example({"login": "farmer01", "password": "StrongPass123!"})
// @Success 200 {object} requestresponse.LoginResponse "Успешная аутентификация"
// @Failure 400 {object} requestresponse.ErrorResponse "Некорректный JSON или пустые поля" example({"error": "login и password обязательны"})
// @Failure 401 {object} requestresponse.ErrorResponse "Неверный логин или пароль" example({"error": "неверный логин или пароль"})
// @Failure 429 {object} requestresponse.ErrorResponse "Превышен лимит запросов" example({"error": "превышен лимит запросов"})
// @Failure 500 {object} requestresponse.ErrorResponse "Внутренняя ошибка сервера" example({"error": "внутренняя ошибка сервера"})
// @Router /api/auth [post]
func (h *AuthenticationHandler) Login(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	var req requestresponse.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendErrorResponse(w, 400, "некорректный JSON")
		return
	}

	if req.Login == "" || req.Password == "" {
		sendErrorResponse(w, 400, "login и password обязательны")
		return
	}

	tokens, err := h.AuthenticationService.Login(ctx, req.Login, req.Password)
	if err != nil {
		log.Println(err)
		switch {
		case errors.Is(err, apperr.ErrInvalidCredentials):
			// Единый ответ: существование логина наружу не раскрывается
			sendErrorResponse(w, 401, "неверный логин или пароль")
		default:
			sendErrorResponse(w, 500, "внутренняя ошибка сервера")
		}
		return
	}

	resp := requestresponse.LoginResponse{}
	resp.Response.AccessToken = tokens.AccessToken
	resp.Response.RefreshToken = tokens.RefreshToken

	w.WriteHeader(200)
	json.NewEncoder(w).Encode(resp)
}

// RefreshToken godoc
// @Summary Обновление токенов
// @Description Обменивает действующий refresh токен на новую пару access/refresh (ротация). Использованный refresh токен отзывается.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param body body requestresponse.RefreshTokenRequest true "Тело запроса"
// @Success 200 {object} requestresponse.RefreshTokenResponse "Новые access и refresh токены"
// @Failure 400 {object} requestresponse.ErrorResponse "Неверный JSON" example({"error": "неверный JSON"})
// @Failure 401 {object} requestresponse.ErrorResponse "Невалидный refresh токен" example({"error": "не удалось обновить токены"})
// @Failure 429 {object} requestresponse.ErrorResponse "Превышен лимит запросов"
// @Failure 500 {object} requestresponse.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/auth/refresh [post]
func (h *AuthenticationHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	var req requestresponse.RefreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendErrorResponse(w, 400, "неверный JSON")
		return
	}
	if req.RefreshToken == "" {
		sendErrorResponse(w, 400, "refresh_token обязателен")
		return
	}

	tokensPair, err := h.AuthenticationService.Refresh(ctx, req.RefreshToken)
	if err != nil {
		log.Println(err)
		switch {
		case errors.Is(err, apperr.ErrRenewalInvalid):
			sendErrorResponse(w, 401, "не удалось обновить токены")
		default:
			sendErrorResponse(w, 500, "внутренняя ошибка сервера")
		}
		return
	}

	resp := requestresponse.RefreshTokenResponse{}
	resp.Response.AccessToken = tokensPair.AccessToken
	resp.Response.RefreshToken = tokensPair.RefreshToken

	w.WriteHeader(200)
	json.NewEncoder(w).Encode(resp)
}

// Logout godoc
// @Summary Завершение авторизованной сессии
// @Description Отзывает access токен из заголовка Authorization и refresh токен из тела (если передан), удаляет сессию. Операция best-effort: повторный вызов с теми же токенами так же возвращает 200.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Param body body requestresponse.LogoutRequest false "Тело запроса"
// @Success 200 {object} requestresponse.LogoutResponse
// @Failure 400 {object} requestresponse.ErrorResponse
// @Router /api/auth/logout [delete]
func (h *AuthenticationHandler) Logout(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	ctx := r.Context()

	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		sendErrorResponse(w, http.StatusBadRequest, "пустой или неверный заголовок Authorization")
		return
	}
	accessToken := strings.TrimPrefix(authHeader, "Bearer ")

	var req requestresponse.LogoutRequest
	if r.Body != nil {
		// Тело необязательно; ошибки декодирования не мешают logout
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	h.AuthenticationService.Logout(ctx, accessToken, req.RefreshToken)

	resp := requestresponse.LogoutResponse{}
	resp.Response.LoggedOut = true

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Println("ошибка кодирования ответа:", err)
	}
}

// GetCurrentUsersUUID godoc
// @Summary Получение UUID текущего пользователя
// @Description Возвращает UUID пользователя, который авторизован в системе
// @Tags Authentication
// @Produce json
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.CurrentUserResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Router /api/auth/me [get]
func (h *AuthenticationHandler) GetCurrentUsersUUID(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	claims, err := security.GetClaimsFromContext(r.Context())
	if err != nil || claims == nil {
		sendErrorResponse(w, 401, "не авторизован")
		return
	}

	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}

	resp := requestresponse.CurrentUserResponse{}
	resp.Response.UserUUID = claims.UserUUID

	w.WriteHeader(200)
	json.NewEncoder(w).Encode(resp)
}

// GetCurrentUsersUUIDHead godoc
// @Summary Получение UUID текущего пользователя
// @Tags Authentication
// @Produce json
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.CurrentUserResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Router /api/auth/me [head]
func (h *AuthenticationHandler) GetCurrentUsersUUIDHead(w http.ResponseWriter, r *http.Request) {
	h.GetCurrentUsersUUID(w, r)
}

// SessionProbe godoc
// @Summary Проверка состояния сессии
// @Description Маршрут с необязательной аутентификацией: анонимный запрос не отклоняется, а получает authenticated=false
// @Tags Authentication
// @Produce json
// @Param Authorization header string false "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.SessionProbeResponse
// @Router /api/auth/session [get]
func (h *AuthenticationHandler) SessionProbe(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	resp := requestresponse.SessionProbeResponse{}
	if claims, err := security.GetClaimsFromContext(r.Context()); err == nil {
		resp.Response.Authenticated = true
		resp.Response.UserUUID = claims.UserUUID
	}

	w.WriteHeader(200)
	json.NewEncoder(w).Encode(resp)
}
