// Package constants defines application-wide constants to avoid magic numbers
package constants

import "time"

// Network and Port Constants
const (
	// DefaultServerPort is the default port for the stackmon API server
	DefaultServerPort = 8090

	// DefaultBackendPort is the port of the built-in backend service
	DefaultBackendPort = 8000

	// DefaultFrontendPort is the port of the built-in frontend dev server
	DefaultFrontendPort = 5173

	// DefaultProbeHost is the host used for port and readiness probes
	DefaultProbeHost = "localhost"

	// LoopbackIPv6 is the alternate family tried when the primary probe fails
	LoopbackIPv6 = "::1"
)

// File System Permissions
const (
	DirPermissions        = 0755
	FilePermissions       = 0644
	SecureDirPermissions  = 0700
	SecureFilePermissions = 0600
)

// Database Configuration
const (
	// DefaultMaxOpenConnections is the default maximum number of database connections
	DefaultMaxOpenConnections = 25

	// DefaultMaxIdleConnections is the default maximum number of idle database connections
	DefaultMaxIdleConnections = 5

	// DefaultConnectionTimeout is the default database connection lifetime
	DefaultConnectionTimeout = 5 * time.Minute

	// DefaultIdleTimeout is the default database idle connection timeout
	DefaultIdleTimeout = 1 * time.Minute
)

// HTTP Configuration
const (
	// DefaultHTTPClientTimeout is the default timeout for API client requests
	DefaultHTTPClientTimeout = 30 * time.Second

	DefaultServerReadTimeout     = 10 * time.Second
	DefaultServerWriteTimeout    = 30 * time.Second
	DefaultServerShutdownTimeout = 30 * time.Second
)

// Port probing
const (
	// PortAvailabilityTimeout bounds the single connect attempt of an availability check
	PortAvailabilityTimeout = 1 * time.Second

	// DefaultPortProbeTimeout bounds each connect attempt while waiting for a port
	DefaultPortProbeTimeout = 1 * time.Second

	// DefaultPortPollInterval is the delay between connect attempts while waiting for a port
	DefaultPortPollInterval = 1 * time.Second
)

// Service lifecycle
const (
	// DefaultStartupTimeout is the readiness budget for services that do not set one
	DefaultStartupTimeout = 30 * time.Second

	// DefaultHealthCheckTimeout bounds a single HTTP readiness probe
	DefaultHealthCheckTimeout = 5 * time.Second

	// DefaultMaxRetries is the number of start attempts per service
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the delay between start attempts
	DefaultRetryDelay = 5 * time.Second

	// DefaultMaxRetryDelay caps the exponential retry policy
	DefaultMaxRetryDelay = 30 * time.Second

	// HealthPollInterval is the delay between readiness probes during startup
	HealthPollInterval = 2 * time.Second

	// StopGracePeriod is how long a terminated process may take before it is killed
	StopGracePeriod = 10 * time.Second
)

// Monitoring
const (
	// DefaultMonitorInterval is the delay between sweeps of the monitoring loop
	DefaultMonitorInterval = 30 * time.Second

	// DefaultSnapshotStaleness is how long a cached health snapshot is served
	DefaultSnapshotStaleness = 60 * time.Second

	// SubscriberBufferSize is the per-subscriber snapshot channel capacity
	SubscriberBufferSize = 4
)

// Credentials
const (
	// CredentialValidationTTL is how long a credential validity verdict is cached
	CredentialValidationTTL = 1 * time.Hour

	// CredentialMaskVisible is the number of trailing characters left unmasked
	CredentialMaskVisible = 4
)

// Logging and Output Limits
const (
	// MaxErrorMessageLength is the maximum length for error messages before truncation
	MaxErrorMessageLength = 500

	// MaxOutputLength is the maximum length for command output before truncation
	MaxOutputLength = 200
)

// Network Port Validation
const (
	MinPortNumber = 1
	MaxPortNumber = 65535
)

// Environment variables
const (
	// EnvServer names a stackmon server the CLI should drive instead of the local stack
	EnvServer = "STACKMON_SERVER"
	// EnvMode switches the logger to JSON output when set to "production"
	EnvMode = "STACKMON_ENV"
)
