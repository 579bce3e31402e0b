// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Request body size limits
//   - Database connection timeouts
//
// AppConfig is where everything specific to TaskHub lives: the MongoDB
// connection, the token signing secret, and the Google OAuth client.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Bearer token configuration
	JWTSecret string        // Secret key for signing bearer tokens (must be strong in production)
	TokenTTL  time.Duration // Token lifetime (default 24h)

	// Google OAuth configuration (empty values disable the Google flow)
	GoogleClientID     string
	GoogleClientSecret string

	// BaseURL is this API's externally visible origin, used for the OAuth
	// callback URL. ClientBaseURL is the front-end origin that receives
	// the post-auth redirects.
	BaseURL       string
	ClientBaseURL string
}
