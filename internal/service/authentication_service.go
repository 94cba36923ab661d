package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"unicode"

	"farm-auth-server/internal/apperr"
	"farm-auth-server/internal/model"
	"farm-auth-server/internal/ports"
	"farm-auth-server/internal/security"

	"github.com/google/uuid"
)

type AuthenticationService struct {
	userRepository ports.UserRepository
	jwtService     ports.JWTServiceInterface
	sessionStore   ports.SessionStore
	blacklist      ports.BlacklistRegistry
	hasher         *security.Hasher
}

func NewAuthenticationService(
	userRepository ports.UserRepository,
	jwtService ports.JWTServiceInterface,
	sessionStore ports.SessionStore,
	blacklist ports.BlacklistRegistry,
	hasher *security.Hasher,
) *AuthenticationService {
	return &AuthenticationService{
		userRepository: userRepository,
		jwtService:     jwtService,
		sessionStore:   sessionStore,
		blacklist:      blacklist,
		hasher:         hasher,
	}
}

// Register создаёт пользователя и сразу выдаёт ему пару токенов.
// Возвращает apperr.ErrIdentifierExists, если логин занят.
func (s *AuthenticationService) Register(ctx context.Context, login string, password string) (*model.User, *model.TokensPair, error) {
	if err := validateLogin(login); err != nil {
		return nil, nil, fmt.Errorf("[AuthService] %w", err)
	}
	if err := validatePassword(password); err != nil {
		return nil, nil, fmt.Errorf("[AuthService] %w", err)
	}

	hash, err := s.hasher.HashPassword(password)
	if err != nil {
		return nil, nil, fmt.Errorf("[AuthService] не удалось создать хэш пароля: %w", err)
	}

	user := &model.User{
		UUID:         uuid.New().String(),
		Login:        login,
		PasswordHash: hash,
	}

	created, err := s.userRepository.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, apperr.ErrIdentifierExists) {
			return nil, nil, apperr.ErrIdentifierExists
		}
		return nil, nil, fmt.Errorf("[AuthService] ошибка создания пользователя: %w", err)
	}

	tokens, err := s.issueTokens(ctx, created.UUID, created.IsAdmin)
	if err != nil {
		return nil, nil, err
	}

	return created, tokens, nil
}

// Login проверяет логин и пароль и выдаёт пару токенов.
// Неизвестный логин и неверный пароль наружу неразличимы: оба случая —
// apperr.ErrInvalidCredentials, чтобы нельзя было перебирать логины.
func (s *AuthenticationService) Login(ctx context.Context, login string, password string) (*model.TokensPair, error) {
	user, err := s.userRepository.FindByLogin(ctx, login)
	if err != nil {
		log.Printf("[AuthService] вход отклонён: %v", err)
		return nil, apperr.ErrInvalidCredentials
	}

	if !s.hasher.CheckPassword(password, user.PasswordHash) {
		return nil, apperr.ErrInvalidCredentials
	}

	return s.issueTokens(ctx, user.UUID, user.IsAdmin)
}

// Refresh обменивает действующий refresh токен на новую пару (ротация).
// Использованный refresh токен отзывается до выпуска замены, так что
// окно повторного использования закрыто: предъявить его второй раз нельзя,
// даже пока его собственный срок жизни не вышел.
//
// Если Redis недоступен, проверка "токен является текущим" деградирует
// до проверки только подписи и срока жизни — иначе сбой кэша означал бы
// полный локаут всех пользователей. Деградация логируется.
func (s *AuthenticationService) Refresh(ctx context.Context, refreshToken string) (*model.TokensPair, error) {
	claims, err := s.jwtService.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrRenewalInvalid, err)
	}

	if s.blacklist.IsRevoked(ctx, refreshToken) {
		return nil, fmt.Errorf("%w: токен отозван", apperr.ErrRenewalInvalid)
	}

	current, err := s.sessionStore.Validate(ctx, claims.UserUUID, refreshToken)
	if err != nil {
		log.Printf("[AuthService] refresh в деградированном режиме, принимаем токен по подписи: %v", err)
	} else if !current {
		return nil, fmt.Errorf("%w: токен не является текущим", apperr.ErrRenewalInvalid)
	}

	user, err := s.userRepository.FindByUUID(ctx, claims.UserUUID)
	if err != nil {
		log.Printf("[AuthService] refresh отклонён: %v", err)
		return nil, apperr.ErrRenewalInvalid
	}

	// Отзыв использованного токена до выпуска нового: проигравший
	// в гонке двух одновременных refresh получит отказ по чёрному списку
	if err := s.blacklist.Revoke(ctx, refreshToken); err != nil {
		log.Printf("[AuthService] не удалось отозвать использованный refresh токен: %v", err)
	}

	return s.issueTokens(ctx, user.UUID, user.IsAdmin)
}

// Logout отзывает предъявленные токены и удаляет сессию.
// Операция всегда best-effort: повторный logout с теми же токенами или
// сбой Redis не являются ошибкой для клиента.
func (s *AuthenticationService) Logout(ctx context.Context, accessToken string, refreshToken string) {
	if accessToken != "" {
		if err := s.blacklist.Revoke(ctx, accessToken); err != nil {
			log.Printf("[AuthService] не удалось отозвать access токен при logout: %v", err)
		}
	}
	if refreshToken != "" {
		if err := s.blacklist.Revoke(ctx, refreshToken); err != nil {
			log.Printf("[AuthService] не удалось отозвать refresh токен при logout: %v", err)
		}
	}

	userUUID := s.subjectOf(accessToken, refreshToken)
	if userUUID == "" {
		log.Printf("[AuthService] logout без валидного токена, сессия не удалена")
		return
	}

	if err := s.sessionStore.Remove(ctx, userUUID); err != nil {
		log.Printf("[AuthService] не удалось удалить сессию при logout: %v", err)
	}
}

// ChangePassword меняет пароль и инвалидирует все сессии пользователя:
// сессия удаляется, предъявленные токены отзываются. Неверный текущий
// пароль — apperr.ErrInvalidCredentials.
func (s *AuthenticationService) ChangePassword(ctx context.Context, userUUID string, currentPassword string, newPassword string, accessToken string, refreshToken string) error {
	user, err := s.userRepository.FindByUUID(ctx, userUUID)
	if err != nil {
		log.Printf("[AuthService] смена пароля отклонена: %v", err)
		return apperr.ErrInvalidCredentials
	}

	if !s.hasher.CheckPassword(currentPassword, user.PasswordHash) {
		return apperr.ErrInvalidCredentials
	}

	if err := validatePassword(newPassword); err != nil {
		return fmt.Errorf("[AuthService] %w", err)
	}

	hash, err := s.hasher.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("[AuthService] не удалось создать хэш пароля: %w", err)
	}

	if err := s.userRepository.UpdatePassword(ctx, userUUID, hash); err != nil {
		return fmt.Errorf("[AuthService] не удалось обновить пароль: %w", err)
	}

	if err := s.sessionStore.Remove(ctx, userUUID); err != nil {
		log.Printf("[AuthService] не удалось удалить сессию после смены пароля: %v", err)
	}
	if accessToken != "" {
		if err := s.blacklist.Revoke(ctx, accessToken); err != nil {
			log.Printf("[AuthService] не удалось отозвать access токен после смены пароля: %v", err)
		}
	}
	if refreshToken != "" {
		if err := s.blacklist.Revoke(ctx, refreshToken); err != nil {
			log.Printf("[AuthService] не удалось отозвать refresh токен после смены пароля: %v", err)
		}
	}

	return nil
}

// issueTokens выпускает пару и делает новый refresh токен текущим
func (s *AuthenticationService) issueTokens(ctx context.Context, userUUID string, isAdmin bool) (*model.TokensPair, error) {
	tokens, err := s.jwtService.GenerateAccessRefreshTokens(userUUID, isAdmin)
	if err != nil {
		return nil, fmt.Errorf("[AuthService] ошибка генерации токенов: %w", err)
	}

	if err := s.sessionStore.Put(ctx, userUUID, tokens.RefreshToken); err != nil {
		return nil, fmt.Errorf("[AuthService] ошибка сохранения сессии: %w", err)
	}

	return tokens, nil
}

// subjectOf достаёт UUID пользователя из любого из предъявленных токенов
func (s *AuthenticationService) subjectOf(accessToken string, refreshToken string) string {
	if accessToken != "" {
		if claims, err := s.jwtService.VerifyAccessToken(accessToken); err == nil {
			return claims.UserUUID
		}
	}
	if refreshToken != "" {
		if claims, err := s.jwtService.VerifyRefreshToken(refreshToken); err == nil {
			return claims.UserUUID
		}
	}
	return ""
}

func validateLogin(login string) error {
	if len(login) < 8 {
		return fmt.Errorf("логин должен быть не меньше 8 символов")
	}
	for _, c := range login {
		if !unicode.IsLetter(c) && !unicode.IsDigit(c) {
			return fmt.Errorf("логин должен содержать только латинские буквы и цифры")
		}
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("пароль должен содержать минимум 8 символов")
	}

	var upperCount, lowerCount, digitCount, specialCount int

	for _, c := range password {
		switch {
		case unicode.IsUpper(c):
			upperCount++
		case unicode.IsLower(c):
			lowerCount++
		case unicode.IsDigit(c):
			digitCount++
		case unicode.IsPunct(c) || unicode.IsSymbol(c):
			specialCount++
		}
	}

	if upperCount == 0 || lowerCount == 0 || (upperCount+lowerCount) < 2 {
		return fmt.Errorf("пароль должен содержать минимум 2 буквы в разных регистрах")
	}
	if digitCount < 1 {
		return fmt.Errorf("пароль должен содержать хотя бы одну цифру")
	}
	if specialCount < 1 {
		return fmt.Errorf("пароль должен содержать хотя бы один специальный символ")
	}

	return nil
}
