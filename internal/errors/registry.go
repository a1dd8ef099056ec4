package errors

import "fmt"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// Config errors (W001-W099)
	"W001": {
		Category: CategoryConfig,
		Message:  "Malformed wayfind.json",
		Detail:   "The project configuration could not be parsed.",
		DocURL:   "https://wayfind.dev/docs/errors/W001",
	},
	"W002": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration field holds a value outside its allowed range.",
		DocURL:   "https://wayfind.dev/docs/errors/W002",
	},

	// Generator errors (W100-W199)
	"W100": {
		Category: CategoryGenerate,
		Message:  "Routes directory not readable",
		Detail:   "The generator could not scan the configured routes directory.",
		DocURL:   "https://wayfind.dev/docs/errors/W100",
	},
	"W101": {
		Category: CategoryGenerate,
		Message:  "Conflicting route files",
		Detail:   "Two files define the same aspect for one route.",
		DocURL:   "https://wayfind.dev/docs/errors/W101",
	},
	"W102": {
		Category: CategoryGenerate,
		Message:  "Output write failed",
		Detail:   "The generated file could not be written.",
		DocURL:   "https://wayfind.dev/docs/errors/W102",
	},

	// Watch errors (W200-W299)
	"W200": {
		Category: CategoryWatch,
		Message:  "Dev server failed to start",
		Detail:   "The watch server could not bind its address.",
		DocURL:   "https://wayfind.dev/docs/errors/W200",
	},
}

// New creates an error from a registered code. Unknown codes yield a
// CLI-category error naming the code, never a panic.
func New(code string) *WayfindError {
	tpl, ok := registry[code]
	if !ok {
		return &WayfindError{
			Code:     code,
			Category: CategoryCLI,
			Message:  fmt.Sprintf("unknown error code %s", code),
		}
	}
	return &WayfindError{
		Code:     code,
		Category: tpl.Category,
		Message:  tpl.Message,
		Detail:   tpl.Detail,
		DocURL:   tpl.DocURL,
	}
}

// Newf creates an unregistered error with a formatted message.
func Newf(category Category, format string, args ...any) *WayfindError {
	return &WayfindError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}
