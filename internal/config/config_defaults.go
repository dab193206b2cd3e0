package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Remote analysis endpoints
	v.SetDefault("remote.baseURL", "http://localhost:54321/functions/v1")
	v.SetDefault("remote.anonKey", "")
	v.SetDefault("remote.timeout", time.Duration(0)) // No client deadline unless configured

	v.SetDefault("remote.benchmark.path", "synthesize-benchmark")
	v.SetDefault("remote.score.path", "score-resume-match")
	v.SetDefault("remote.gaps.path", "generate-gap-checklist")

	// Circuit Breaker Configuration defaults for all operations
	for _, op := range []string{"benchmark", "score", "gaps"} {
		prefix := "remote." + op + ".circuitBreaker."
		v.SetDefault(prefix+"enabled", true)
		v.SetDefault(prefix+"maxRequests", 3)
		v.SetDefault(prefix+"interval", 60*time.Second)
		v.SetDefault(prefix+"timeout", 60*time.Second)
		v.SetDefault(prefix+"minRequests", 3)
		v.SetDefault(prefix+"failureThreshold", 0.6)
	}

	// Auth Configuration
	v.SetDefault("auth.mode", "static")
	v.SetDefault("auth.accessToken", "")
	v.SetDefault("auth.tokenFile", "")
	v.SetDefault("auth.vaultPath", "")
	v.SetDefault("auth.vaultKey", "access_token")
	v.SetDefault("auth.expiryLeeway", 30*time.Second)

	// Session Configuration
	v.SetDefault("session.debounceDelay", 2000*time.Millisecond)

	// Export Configuration
	v.SetDefault("export.mode", "file")
	v.SetDefault("export.dir", ".")
	v.SetDefault("export.s3.bucket", "")
	v.SetDefault("export.s3.region", "auto")
	v.SetDefault("export.s3.endpoint", "")
	v.SetDefault("export.s3.prefix", "exports/")
	v.SetDefault("export.s3.usePathStyle", false)

	// Events Configuration
	v.SetDefault("events.mode", "log")
	v.SetDefault("events.amqp.url", "")
	v.SetDefault("events.amqp.exchange", "session_updates")
	v.SetDefault("events.amqp.routingKeyPrefix", "session")

	// Server Configuration
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 30*time.Second)
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.maxRequestSize", 1024*1024) // 1MB
	v.SetDefault("server.sessionTTL", 2*time.Hour)
	v.SetDefault("server.tls.mode", "disabled") // disabled, server, mutual
	v.SetDefault("server.tls.certFile", "")
	v.SetDefault("server.tls.keyFile", "")
	v.SetDefault("server.tls.caFile", "")
	v.SetDefault("server.tls.minVersion", "1.2")
	v.SetDefault("server.apiKeys", []string{})
	v.SetDefault("server.rateLimit.enabled", false)
	v.SetDefault("server.rateLimit.requestsPerMin", 60)
	v.SetDefault("server.rateLimit.burstCapacity", 10)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byAPIKey", false)
	v.SetDefault("server.rateLimit.window", time.Minute)

	// App Configuration
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "text")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.maxFileSize", 1024*1024) // 1MB

	// Vault Configuration
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.apiKeys", "")
	v.SetDefault("vault.secrets.anonKey", "")
	v.SetDefault("vault.secrets.s3Credentials", "")

	// Observability Configuration
	v.SetDefault("observability.enabled", false)
	v.SetDefault("observability.serviceName", "resumetailor")
	v.SetDefault("observability.serviceVersion", "")  // Will use app version if empty
	v.SetDefault("observability.serviceInstance", "") // Will be auto-generated if empty
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.sampleRate", 1.0)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)
	v.SetDefault("observability.customMetrics.remoteOperations.enabled", true)
	v.SetDefault("observability.customMetrics.remoteOperations.trackDuration", true)
	v.SetDefault("observability.customMetrics.businessMetrics.enabled", true)
	v.SetDefault("observability.customMetrics.infrastructure.enabled", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackRateLimits", true)
	v.SetDefault("observability.console.prettyPrint", true)
	v.SetDefault("observability.prometheus.enabled", true)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})
}
