package domain

const ManifestVersion = "verum.seal.v1"

// Manifest is the canonical record of what was sealed, by whom (fingerprint)
// and when. Every field is fully determined before signing; a manifest is
// immutable once constructed. Field changes require a new manifest and a new
// signature.
type Manifest struct {
	Version            string        `json:"version"`
	ManifestID         string        `json:"manifest_id"`
	SealedAtUTC        string        `json:"sealed_at_utc"`
	DevicePublicKeyPEM string        `json:"device_public_key_pem"`
	DeviceFingerprint  string        `json:"device_fingerprint"`
	Evidence           []EvidenceRef `json:"evidence"`
	Geolocation        Geolocation   `json:"geolocation"`
}

// Signature is bound 1:1 to the manifest whose canonical serialization it was
// computed from.
type Signature struct {
	Alg   string `json:"alg"`
	Value string `json:"value"` // base64 ASN.1 DER
}

// SealedReport is the terminal artifact of a seal operation. It is produced
// atomically: callers never observe a manifest without a matching signature
// or a document without a matching digest. DocumentDigest is deliberately not
// embedded in DocumentBytes; it is disclosed out-of-band.
type SealedReport struct {
	Narrative      string
	Manifest       Manifest
	Signature      Signature
	DocumentBytes  []byte
	DocumentDigest string
	PageCount      int
}

// SealRecord is the durable trace of an issued seal: identifiers and digests
// only, never evidence bytes or key material.
type SealRecord struct {
	ManifestID        string
	DeviceFingerprint string
	DocumentDigest    string
	PageCount         int
	EvidenceCount     int
	SealedAtUTC       string
}
