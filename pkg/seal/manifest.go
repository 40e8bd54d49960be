// Package seal is the offline surface of the sealing engine: building,
// signing and verifying manifests without the service. External reviewers
// import it to authenticate a certified document independently of the device
// that issued it.
package seal

import (
	"errors"
	"fmt"
	"time"

	"github.com/Liamhigh/Verumlast/internal/domain"
	cryptoinfra "github.com/Liamhigh/Verumlast/internal/infra/crypto"
)

type ManifestInput struct {
	Version            string
	ManifestID         string
	SealedAt           time.Time
	DevicePublicKeyPEM string
	Evidence           []domain.EvidenceRef
	Geolocation        domain.Geolocation
}

// BuildManifest assembles and validates a manifest. The device fingerprint is
// always derived from the PEM public key, never supplied by the caller.
func BuildManifest(input ManifestInput) (domain.Manifest, error) {
	version := input.Version
	if version == "" {
		version = domain.ManifestVersion
	}
	geolocation := input.Geolocation
	if geolocation.Status == "" {
		geolocation = domain.GeolocationNone()
	}
	evidence := input.Evidence
	if evidence == nil {
		evidence = []domain.EvidenceRef{}
	}
	manifest := domain.Manifest{
		Version:            version,
		ManifestID:         input.ManifestID,
		SealedAtUTC:        input.SealedAt.UTC().Truncate(time.Second).Format(time.RFC3339),
		DevicePublicKeyPEM: input.DevicePublicKeyPEM,
		DeviceFingerprint:  cryptoinfra.Digest([]byte(input.DevicePublicKeyPEM)),
		Evidence:           evidence,
		Geolocation:        geolocation,
	}
	if err := ValidateManifest(manifest); err != nil {
		return domain.Manifest{}, err
	}
	return manifest, nil
}

func ValidateManifest(manifest domain.Manifest) error {
	if manifest.Version == "" {
		return errors.New("manifest version is required")
	}
	if manifest.ManifestID == "" {
		return errors.New("manifest_id is required")
	}
	if manifest.SealedAtUTC == "" {
		return errors.New("sealed_at_utc is required")
	}
	if _, err := time.Parse(time.RFC3339, manifest.SealedAtUTC); err != nil {
		return fmt.Errorf("sealed_at_utc must be RFC3339: %w", err)
	}
	if manifest.DevicePublicKeyPEM == "" || manifest.DeviceFingerprint == "" {
		return errors.New("device public key and fingerprint are required")
	}
	for _, ev := range manifest.Evidence {
		if ev.FileName == "" || ev.Digest == "" {
			return errors.New("evidence entries need file_name and digest")
		}
	}
	switch manifest.Geolocation.Status {
	case domain.GeolocationAvailable:
		if manifest.Geolocation.Latitude == nil || manifest.Geolocation.Longitude == nil {
			return errors.New("available geolocation needs coordinates")
		}
	case domain.GeolocationUnavailable:
	default:
		return errors.New("geolocation status is required")
	}
	return nil
}

// CanonicalManifest returns the exact bytes a signature over the manifest is
// computed from.
func CanonicalManifest(manifest domain.Manifest) ([]byte, error) {
	return cryptoinfra.NewService().CanonicalizeManifest(manifest)
}
