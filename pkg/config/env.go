package config

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// IsDevelopment reports whether the service runs on a developer machine
func (c *ServerConfig) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

// IsProductionLike returns true if running in staging or production environment.
func (c *ServerConfig) IsProductionLike() bool {
	return c.Environment == EnvStaging || c.Environment == EnvProduction
}
