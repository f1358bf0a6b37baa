package config

type App struct {
	Port        string `yaml:"port"`
	DatabaseURL string `yaml:"database_url"`
	JWTSecret   string `yaml:"jwt_secret"`
	JWTTTLHours int    `yaml:"jwt_ttl_hours"`
	Env         string `yaml:"env"`
}
