package logfields

import "log/slog"

// Canonical log field names shared across packages.
const (
	KeyPackage     = "package"
	KeyPhase       = "phase"
	KeyState       = "state"
	KeyPath        = "path"
	KeyURL         = "url"
	KeyFingerprint = "fingerprint"
	KeyCommand     = "command"
	KeyError       = "error"
)

func Package(name string) slog.Attr   { return slog.String(KeyPackage, name) }
func Phase(p string) slog.Attr        { return slog.String(KeyPhase, p) }
func State(s string) slog.Attr        { return slog.String(KeyState, s) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Fingerprint(fp string) slog.Attr { return slog.String(KeyFingerprint, fp) }
func Command(args []string) slog.Attr { return slog.Any(KeyCommand, args) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
