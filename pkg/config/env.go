package config

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// IsProductionLike reports whether the environment requires production-grade configuration
func IsProductionLike(environment string) bool {
	return environment == EnvStaging || environment == EnvProduction
}
