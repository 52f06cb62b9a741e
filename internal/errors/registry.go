package errors

import "sort"

// Registered error codes.
const (
	CodeUnknownMode          = "E001"
	CodeFrameSyncUnsupported = "E002"
	CodeAlreadyRunning       = "E003"
	CodeNoHost               = "E004"

	CodeTreeDecode    = "E010"
	CodeDepthExceeded = "E011"
	CodeInvalidFrame  = "E012"
	CodeEventEncode   = "E013"

	CodeDial            = "E020"
	CodeConnectionLost  = "E021"
	CodeRecordingOpen   = "E022"
	CodeObjectFetch     = "E023"
	CodeRecordingFormat = "E024"

	CodeConfigParse   = "E030"
	CodeConfigInvalid = "E031"
	CodeConfigMissing = "E032"

	CodeInvalidArgument = "E040"
	CodeMetricsServer   = "E041"
)

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Runtime Errors (E001-E009)
	// ============================================

	CodeUnknownMode: {
		Category: CategoryRuntime,
		Message:  "Unknown bridge mode",
		Detail:   "The bridge mode must be \"push\" or \"frame-sync\".",
	},
	CodeFrameSyncUnsupported: {
		Category: CategoryRuntime,
		Message:  "Frame-synchronized mode unsupported",
		Detail:   "Frame-synchronized mode needs a producer that can be asked for frames. This producer only pushes trees.",
	},
	CodeAlreadyRunning: {
		Category: CategoryRuntime,
		Message:  "Bridge already running",
		Detail:   "A bridge owns one producer subscription. Create a new bridge instead of running one twice.",
	},
	CodeNoHost: {
		Category: CategoryRuntime,
		Message:  "No host",
		Detail:   "A bridge needs a host to render into.",
	},

	// ============================================
	// Protocol Errors (E010-E019)
	// ============================================

	CodeTreeDecode: {
		Category: CategoryProtocol,
		Message:  "Tree decode failed",
		Detail:   "The producer sent a tree that could not be decoded.",
	},
	CodeDepthExceeded: {
		Category: CategoryProtocol,
		Message:  "Maximum nesting depth exceeded",
		Detail:   "The producer sent a tree or value nested deeper than the decoder allows.",
	},
	CodeInvalidFrame: {
		Category: CategoryProtocol,
		Message:  "Invalid frame",
		Detail:   "The producer sent a malformed or unexpected frame.",
	},
	CodeEventEncode: {
		Category: CategoryProtocol,
		Message:  "Event encode failed",
		Detail:   "The handler context or event value could not be encoded for the producer.",
	},

	// ============================================
	// Transport Errors (E020-E029)
	// ============================================

	CodeDial: {
		Category: CategoryTransport,
		Message:  "Producer connection failed",
		Detail:   "Could not open a websocket connection to the producer.",
	},
	CodeConnectionLost: {
		Category: CategoryTransport,
		Message:  "Producer connection lost",
		Detail:   "The websocket connection to the producer closed unexpectedly.",
	},
	CodeRecordingOpen: {
		Category: CategoryTransport,
		Message:  "Recording could not be opened",
		Detail:   "The recorded tree stream could not be read.",
	},
	CodeObjectFetch: {
		Category: CategoryTransport,
		Message:  "Object fetch failed",
		Detail:   "The recorded tree stream could not be fetched from object storage.",
	},
	CodeRecordingFormat: {
		Category: CategoryTransport,
		Message:  "Invalid recording",
		Detail:   "Each line of a recording must hold one JSON tree or null.",
	},

	// ============================================
	// Config Errors (E030-E039)
	// ============================================

	CodeConfigParse: {
		Category: CategoryConfig,
		Message:  "Config parse failed",
		Detail:   "The configuration file is not valid YAML or JSON.",
	},
	CodeConfigInvalid: {
		Category: CategoryConfig,
		Message:  "Invalid config value",
	},
	CodeConfigMissing: {
		Category: CategoryConfig,
		Message:  "Config file not found",
	},

	// ============================================
	// CLI Errors (E040-E049)
	// ============================================

	CodeInvalidArgument: {
		Category: CategoryCLI,
		Message:  "Invalid argument",
	},
	CodeMetricsServer: {
		Category: CategoryCLI,
		Message:  "Metrics server failed",
		Detail:   "The HTTP server for /metrics and /healthz stopped with an error.",
	},
}

// GetAllCodes returns all registered error codes in order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
