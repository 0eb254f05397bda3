// Package ident resolves graph identifiers for model elements and the
// synthetic nodes (properties, substances, ports) attached to them.
package ident

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// InstancePrefix is the prefix name every generated identifier lives under.
const InstancePrefix = "inst:"

// Role selects the id prefix of a model-backed entity.
type Role string

// Entity roles.
const (
	RoleBuilding          Role = "Building"
	RoleStorey            Role = "Storey"
	RoleSpace             Role = "Space"
	RoleVentilationSystem Role = "VentilationSys"
	RoleHydraulicSystem   Role = "HydraulicSys"
	RoleComponent         Role = "Comp"
	RolePort              Role = "Port"
	RoleSubstance         Role = "Substance"
)

// Mode controls how synthetic identifiers are produced.
type Mode string

const (
	// ModeStable derives synthetic ids from their parent and kind, so an
	// unchanged model renders to an identical document.
	ModeStable Mode = "stable"
	// ModeRandom generates a fresh id per node per export.
	ModeRandom Mode = "random"
)

// ParseMode parses a configured mode name. Empty selects ModeStable.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeStable:
		return ModeStable, nil
	case ModeRandom:
		return ModeRandom, nil
	default:
		return "", fmt.Errorf("unknown synthetic id mode: %s (valid: stable, random)", s)
	}
}

// Resolver hands out identifiers for one export pass. It is not safe for
// concurrent use; each pass owns its own Resolver.
type Resolver struct {
	mode      Mode
	namespace uuid.UUID
	ordinals  map[string]int
}

// NewResolver creates a resolver. The namespace IRI seeds stable synthetic
// ids so two buildings exported under different namespaces do not collide.
func NewResolver(mode Mode, namespaceIRI string) *Resolver {
	if mode == "" {
		mode = ModeStable
	}
	return &Resolver{
		mode:      mode,
		namespace: uuid.NewSHA1(uuid.NameSpaceURL, []byte(namespaceIRI)),
		ordinals:  make(map[string]int),
	}
}

// Mode returns the synthetic id mode of the resolver.
func (r *Resolver) Mode() Mode {
	return r.mode
}

// EntityID returns the identifier of a model-backed entity. It depends only
// on the role and the element's persistent identity. Distinct references
// always yield distinct identifiers.
func (r *Resolver) EntityID(role Role, nativeRef string) string {
	return InstancePrefix + string(role) + "_" + LocalName(nativeRef)
}

// PortID returns the identifier of a connector owned by an element. LocalName
// never produces '.', so the owner and connector parts cannot run together.
func (r *Resolver) PortID(ownerRef, connectorID string) string {
	return InstancePrefix + string(RolePort) + "_" + LocalName(ownerRef) + "." + LocalName(connectorID)
}

// Synthetic returns a new identifier for a node without native identity.
// Within one resolver the result never repeats.
func (r *Resolver) Synthetic(parentID, prefix string) string {
	key := parentID + "|" + prefix
	n := r.ordinals[key]
	r.ordinals[key] = n + 1

	var id uuid.UUID
	if r.mode == ModeRandom {
		id = uuid.New()
	} else {
		id = uuid.NewSHA1(r.namespace, []byte(fmt.Sprintf("%s|%d", key, n)))
	}
	return InstancePrefix + Sanitize(prefix) + "_" + id.String()
}

// hashLen is the number of hex digits of the digest appended by LocalName.
const hashLen = 12

// LocalName is the injective counterpart of Sanitize used for identifiers.
// A reference made only of ASCII letters, digits and '-' is kept as is.
// Anything else is sanitized and suffixed with '_' and a digest of the raw
// reference, so "lvl 1" and "lvl-1" stay apart. Untouched names never
// contain '_', which keeps the two forms from meeting.
func LocalName(s string) string {
	if isPlainName(s) {
		return s
	}
	sum := sha256.Sum256([]byte(s))
	return Sanitize(s) + "_" + hex.EncodeToString(sum[:])[:hashLen]
}

func isPlainName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '-' && !('a' <= c && c <= 'z') && !('A' <= c && c <= 'Z') && !('0' <= c && c <= '9') {
			return false
		}
	}
	return true
}

// Sanitize makes s usable as the local part of a prefixed name or a file
// name. Diacritics are folded to their base letter, whitespace becomes '-'
// and anything else outside [A-Za-z0-9_-] becomes '_'. The mapping is lossy;
// identifiers go through LocalName.
func Sanitize(s string) string {
	folded, _, err := transform.String(foldDiacritics(), s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, c := range folded {
		switch {
		case c == '-' || c == '_':
			b.WriteRune(c)
		case c < unicode.MaxASCII && (unicode.IsLetter(c) || unicode.IsDigit(c)):
			b.WriteRune(c)
		case unicode.IsSpace(c):
			b.WriteByte('-')
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}

func foldDiacritics() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}
