package domain

// EvidenceFile is a user-supplied file staged for sealing. Bytes are owned by
// the caller and passed by reference; the engine never retains them beyond a
// single seal operation. Digest is computed once over Bytes and never
// recomputed.
type EvidenceFile struct {
	Name      string
	MediaType string
	Bytes     []byte
	Digest    string
}

// EvidenceRef is the manifest-level record of one evidence file. Order in a
// manifest is the caller-supplied staging order and is significant.
type EvidenceRef struct {
	FileName string `json:"file_name"`
	Digest   string `json:"digest"`
}

type GeolocationStatus string

const (
	GeolocationAvailable   GeolocationStatus = "available"
	GeolocationUnavailable GeolocationStatus = "unavailable"
)

// Geolocation is always present on a manifest: coordinates when the source
// supplied them, an explicit unavailable status otherwise. Never null.
type Geolocation struct {
	Status    GeolocationStatus `json:"status"`
	Latitude  *float64          `json:"latitude,omitempty"`
	Longitude *float64          `json:"longitude,omitempty"`
}

func GeolocationAt(latitude, longitude float64) Geolocation {
	return Geolocation{
		Status:    GeolocationAvailable,
		Latitude:  &latitude,
		Longitude: &longitude,
	}
}

func GeolocationNone() Geolocation {
	return Geolocation{Status: GeolocationUnavailable}
}
