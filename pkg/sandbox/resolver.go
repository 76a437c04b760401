package sandbox

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EscapePolicy decides what happens to a path that canonicalizes outside the root.
type EscapePolicy string

const (
	// EscapeClamp re-roots the leaf name of an escaping path under the root.
	EscapeClamp EscapePolicy = "clamp"
	// EscapeReject refuses escaping paths with ErrOutsideRoot.
	EscapeReject EscapePolicy = "reject"
)

// maxLinkHops mirrors the Linux MAXSYMLINKS limit.
const maxLinkHops = 40

// ErrOutsideRoot is returned when a path cannot be confined to the sandbox root.
var ErrOutsideRoot = errors.New("path outside sandbox root")

// ParsePolicy maps a config value to an EscapePolicy. Empty means clamp.
func ParsePolicy(value string) (EscapePolicy, error) {
	switch EscapePolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", EscapeClamp:
		return EscapeClamp, nil
	case EscapeReject:
		return EscapeReject, nil
	default:
		return "", fmt.Errorf("unknown escape policy: %q", value)
	}
}

// Resolver maps user supplied paths to locations inside a fixed root.
type Resolver struct {
	root   string
	policy EscapePolicy
}

// NewResolver creates the root directory if needed and canonicalizes it.
func NewResolver(root string, policy EscapePolicy) (*Resolver, error) {
	if root == "" {
		return nil, errors.New("sandbox root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve sandbox root %q: %w", root, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create sandbox root: %w", err)
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("canonicalize sandbox root: %w", err)
	}
	info, err := os.Stat(canonical)
	if err != nil {
		return nil, fmt.Errorf("stat sandbox root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("sandbox root is not a directory: %s", canonical)
	}
	if policy == "" {
		policy = EscapeClamp
	}
	return &Resolver{root: canonical, policy: policy}, nil
}

func (r *Resolver) Root() string {
	return r.root
}

func (r *Resolver) Policy() EscapePolicy {
	return r.policy
}

// Resolve returns the confined absolute location of input as seen from cwd.
// Empty input resolves to cwd. The result may not exist.
func (r *Resolver) Resolve(cwd, input string) (string, error) {
	if input == "" {
		return cwd, nil
	}
	candidate := input
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(cwd, candidate)
	}
	resolved := Canonicalize(candidate)
	if Within(r.root, resolved) {
		return resolved, nil
	}
	if r.policy == EscapeReject {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, input)
	}

	name := filepath.Base(resolved)
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return r.root, nil
	}
	clamped := Canonicalize(filepath.Join(r.root, name))
	if !Within(r.root, clamped) {
		// root/name is itself a link that leads out.
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, input)
	}
	return clamped, nil
}

// Contains reports whether the canonical form of p is the root or below it.
func (r *Resolver) Contains(p string) bool {
	return Within(r.root, Canonicalize(p))
}

// Display renders p relative to the root with a leading separator.
func (r *Resolver) Display(p string) string {
	rel, err := filepath.Rel(r.root, p)
	if err != nil || rel == "." {
		return string(filepath.Separator)
	}
	return string(filepath.Separator) + rel
}

// Resolve is the stateless form of Resolver.Resolve using the clamp policy.
// root must already be canonical.
func Resolve(root, cwd, input string) (string, error) {
	r := &Resolver{root: root, policy: EscapeClamp}
	return r.Resolve(cwd, input)
}

// Within reports whether p equals root or has root as an ancestor.
// Both paths must be absolute and clean.
func Within(root, p string) bool {
	if p == root {
		return true
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(p, prefix)
}

// Canonicalize makes p absolute, collapses . and .., and follows symlinks.
// Components that do not exist yet are re-appended to the canonical form of
// their longest existing ancestor. Dangling links are followed to their
// target so a later create cannot write through them unnoticed.
func Canonicalize(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		abs = filepath.Clean(p)
	}
	return canonicalize(abs, 0)
}

func canonicalize(p string, hops int) string {
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		return resolved
	}
	if hops < maxLinkHops {
		if info, err := os.Lstat(p); err == nil && info.Mode()&os.ModeSymlink != 0 {
			if target, err := os.Readlink(p); err == nil {
				if !filepath.IsAbs(target) {
					target = filepath.Join(filepath.Dir(p), target)
				}
				return canonicalize(filepath.Clean(target), hops+1)
			}
		}
	}
	parent := filepath.Dir(p)
	if parent == p {
		return p
	}
	return filepath.Join(canonicalize(parent, hops), filepath.Base(p))
}
