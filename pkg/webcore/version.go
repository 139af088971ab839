package webcore

import "github.com/AmakeSashaDev/maker-web/internal/herrors"

// Version is the HTTP protocol version used by a connection.
type Version uint8

const (
	// VersionHTTP09 is the minimal dialect: "METHOD /path\r\n", no
	// headers, raw response body. Enabled only when a server is built
	// with Http09Limits configured.
	VersionHTTP09 Version = iota
	VersionHTTP10
	VersionHTTP11
)

func (v Version) String() string {
	switch v {
	case VersionHTTP11:
		return "HTTP/1.1"
	case VersionHTTP10:
		return "HTTP/1.0"
	default:
		return "HTTP/0.9+"
	}
}

// HerrorsVersion maps a Version onto herrors.ProtoVersion for canned error
// rendering, keeping herrors free of a dependency on this package.
func (v Version) HerrorsVersion() herrors.ProtoVersion {
	switch v {
	case VersionHTTP11:
		return herrors.ProtoHTTP11
	case VersionHTTP10:
		return herrors.ProtoHTTP10
	default:
		return herrors.ProtoHTTP09
	}
}
