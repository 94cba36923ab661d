package config

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr        string `yaml:"addr"`
	Password    string `yaml:"password"`
	DB          int    `yaml:"db"`
	OpTimeout   string `yaml:"op_timeout"`
	DialRetries int    `yaml:"dial_retries"`
	DialBackoff string `yaml:"dial_backoff"`
}

type JWTConfig struct {
	AccessSecretKey  string `yaml:"access_secret_key"`
	RefreshSecretKey string `yaml:"refresh_secret_key"`
	AccessTokenTTL   string `yaml:"access_token_ttl"`
	RefreshTokenTTL  string `yaml:"refresh_token_ttl"`
	Issuer           string `yaml:"issuer"`
}

type BcryptConfig struct {
	Cost int `yaml:"cost"`
}

// RateLimitRule : окно и лимит для одного класса маршрутов
type RateLimitRule struct {
	Window      string `yaml:"window"`
	MaxRequests int    `yaml:"max_requests"`
}

type RateLimitConfig struct {
	Login    RateLimitRule `yaml:"login"`
	Register RateLimitRule `yaml:"register"`
	Refresh  RateLimitRule `yaml:"refresh"`
}
