package logging

// Component names attached to log records as the "component" attribute.
const (
	ComponentStartup     = "startup"
	ComponentDatabase    = "database"
	ComponentAPIDither   = "api-dither"
	ComponentAPIPresets  = "api-presets"
	ComponentAPIRenders  = "api-renders"
	ComponentPipeline    = "pipeline"
	ComponentFetch       = "fetch"
	ComponentRateLimit   = "rate-limit"
	ComponentPresetsFile = "presets-file"
	ComponentPoller      = "poller"
)
