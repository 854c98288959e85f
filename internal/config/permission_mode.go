package config

// PermissionMode controls how the peer asks before using tools. The SDK only
// forwards it; enforcement belongs to the CLI.
type PermissionMode string

const (
	// PermissionModeDefault prompts for dangerous tools.
	PermissionModeDefault PermissionMode = "default"
	// PermissionModeAcceptEdits auto-accepts file edits.
	PermissionModeAcceptEdits PermissionMode = "acceptEdits"
	// PermissionModeBypassPermissions allows every tool without prompting.
	PermissionModeBypassPermissions PermissionMode = "bypassPermissions"
)

// NormalizePermissionMode maps legacy permission mode names to current values.
//
// Legacy mappings:
//   - "acceptAll" -> "bypassPermissions"
//   - "prompt" -> "default"
func NormalizePermissionMode(mode PermissionMode) PermissionMode {
	switch mode {
	case "acceptAll":
		return PermissionModeBypassPermissions
	case "prompt":
		return PermissionModeDefault
	default:
		return mode
	}
}

// Valid reports whether m is empty or one of the known modes, after
// normalization.
func (m PermissionMode) Valid() bool {
	switch NormalizePermissionMode(m) {
	case "", PermissionModeDefault, PermissionModeAcceptEdits, PermissionModeBypassPermissions:
		return true
	default:
		return false
	}
}
