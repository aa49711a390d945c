package connection

import "strings"

// Protocol selects the storage backend. Identifiers outside the constants below are
// passed to the adapter factory untouched.
type Protocol string

const (
	ProtocolFile   Protocol = "file"
	ProtocolS3     Protocol = "s3"
	ProtocolGCS    Protocol = "gcs"
	ProtocolMemory Protocol = "memory"

	DefaultProtocol = ProtocolFile

	gcsTokenParam = "token"
)

func (p Protocol) String() string {
	return string(p)
}

// Canonical resolves aliases, for example "gs" to "gcs".
func (p Protocol) Canonical() Protocol {
	lower := Protocol(strings.ToLower(string(p)))
	switch lower {
	case "local":
		return ProtocolFile
	case "s3a":
		return ProtocolS3
	case "gs":
		return ProtocolGCS
	default:
		return lower
	}
}

// normalizeParams shapes the secrets of a connection into adapter params. The gcs
// adapter takes credentials as one nested token mapping; every other protocol takes
// secrets as flat params.
func normalizeParams(p Protocol, secrets Params) Params {
	switch p.Canonical() {
	case ProtocolGCS:
		if len(secrets) == 0 {
			return Params{}
		}
		return Params{gcsTokenParam: map[string]interface{}(secrets)}
	default:
		return secrets
	}
}
