// Package apperr содержит ошибки, которые подсистема аутентификации
// возвращает за пределы своих компонентов. Любая ошибка, пересекающая
// границу сервиса или репозитория, оборачивает одну из этих. Обработчики
// сопоставляют их через errors.Is и выбирают HTTP-статус.
package apperr

import "errors"

var (
	// ErrTokenMalformed : подпись или структура токена не распознаны
	ErrTokenMalformed = errors.New("токен повреждён")

	// ErrTokenExpired : токен прошёл через свой expiry; отличается от других
	// отказов, потому что только после него имеет смысл пробовать refresh
	ErrTokenExpired = errors.New("срок действия токена истёк")

	// ErrTokenInvalid : токен отозван или отклонён по любой другой причине
	ErrTokenInvalid = errors.New("невалидный токен")

	// ErrRenewalInvalid : refresh-токен не является текущим для субъекта
	ErrRenewalInvalid = errors.New("невалидный refresh токен")

	// ErrInvalidCredentials : логин и пароль не подошли; не различает
	// "пользователь не существует" и "неверный пароль"
	ErrInvalidCredentials = errors.New("неверный логин или пароль")

	// ErrIdentifierExists : логин уже занят
	ErrIdentifierExists = errors.New("пользователь с таким логином уже существует")

	// ErrRateLimitExceeded : превышен лимит запросов в текущем окне
	ErrRateLimitExceeded = errors.New("превышен лимит запросов")

	// ErrCacheUnavailable : Redis недоступен. Наружу не отдается напрямую —
	// каждый компонент переводит её в свой fail-open или fail-closed режим.
	ErrCacheUnavailable = errors.New("кэш недоступен")
)
