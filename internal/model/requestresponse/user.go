package requestresponse

// RegisterRequest : тело запроса регистрации
type RegisterRequest struct {
	Login    string `json:"login" example:"farmer01"`
	Password string `json:"password" example:"P@ssw0rd!"`
}

// RegisterResponse : успешный ответ с данными созданного пользователя и парой токенов
type RegisterResponse struct {
	Response RegisterData `json:"response"`
}

type RegisterData struct {
	UserUUID     string `json:"user_uuid" example:"123e4567-e89b-12d3-a456-426614174000"`
	Login        string `json:"login" example:"farmer01"`
	AccessToken  string `json:"access_token" example:"eyJhbGciOiJIUzUxMiIsInR5cCI6IkpXVCJ9..."`
	RefreshToken string `json:"refresh_token" example:"eyJhbGciOiJIUzUxMiIsInR5cCI6IkpXVCJ9..."`
}

// ErrorDetail : детальная информация об ошибке
type ErrorDetail struct {
	Code int    `json:"code" example:"400"`
	Text string `json:"text" example:"for example: invalid login or password"`
}

// ErrorResponse : стандартная структура ошибки
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// UserResponse : успешный ответ с данными пользователя
type UserResponse struct {
	Data struct {
		UUID  string `json:"uuid" example:"123e4567-e89b-12d3-a456-426614174000"`
		Login string `json:"login" example:"farmer01"`
	} `json:"data"`
}

// UpdatePasswordRequest : тело запроса на смену пароля
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password" example:"P@ssw0rd123"`
	NewPassword     string `json:"new_password" example:"N3wP@ssw0rd"`
	RefreshToken    string `json:"refresh_token,omitempty" example:"eyJhbGciOiJIUzUxMiIsInR5cCI6IkpXVCJ9..."`
}

// UpdatePasswordResponse : успешный ответ
type UpdatePasswordResponse struct {
	Response struct {
		Updated bool `json:"updated" example:"true"`
	} `json:"response"`
}
