package orchestrator

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/FACorreiaa/loci-search-core/internal/search/models"
)

// normalizeQuery lowercases and collapses whitespace, so two submissions
// differing only by casing or incidental spacing fingerprint identically.
func normalizeQuery(text string) string {
	fields := strings.Fields(strings.ToLower(text))
	return strings.Join(fields, " ")
}

// locationHash fingerprints a user location to ~11m precision (4 decimal
// places), so near-duplicate submissions from the same device collapse to
// the same key without requiring exact float equality.
func locationHash(loc *models.LatLng) string {
	if loc == nil {
		return "none"
	}
	return fmt.Sprintf("%.4f,%.4f", loc.Lat, loc.Lng)
}

// computeIdempotencyKey derives the deterministic fingerprint
// from {sessionId, normalizedQuery, mode, locationHash} when the caller
// did not supply an explicit idempotencyKey.
func computeIdempotencyKey(req models.Request, mode string) string {
	parts := strings.Join([]string{
		req.SessionID,
		normalizeQuery(req.OriginalText),
		mode,
		locationHash(req.UserLocation),
	}, "|")
	sum := sha256.Sum256([]byte(parts))
	return hex.EncodeToString(sum[:16])
}
