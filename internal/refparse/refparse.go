// Package refparse parses content-reference strings into source references
// plus a modifier map.
//
// Grammar:
//
//	input        = primary ';' {modifier}
//	primary      = single-ref {'|' single-ref}
//	single-ref   = folder-ref | prefixed-ref | bare-path
//	folder-ref   = token {'+' token}          (space-joined folder name)
//	prefixed-ref = prefix ':' value
//	modifier     = key ':' value {',' value} | 'version' value | flag-name
//
// Prefix ownership comes entirely from the adapter registry; this package
// has no knowledge of any concrete integration.
package refparse

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/vmunix/omnicast/internal/media"
	"github.com/vmunix/omnicast/internal/registry"
)

// FolderResolver maps a human folder name ("ambient music") to a local id
// on the default source. Implemented by the filesystem adapter.
type FolderResolver interface {
	ResolveFolder(name string) (localID string, ok bool)
}

// Result is a parsed content reference.
type Result struct {
	Sources   []media.SourceReference
	Modifiers media.Modifiers
}

// Parser turns reference strings into Results using the registry's prefix
// table. New integrations extend the grammar with zero changes here.
type Parser struct {
	reg           *registry.Registry
	folders       FolderResolver
	defaultSource string
	logger        *slog.Logger
}

// New creates a parser. defaultSource names the adapter that owns
// unprefixed bare paths (the filesystem adapter). folders may be nil when
// no folder-ref resolution is available.
func New(reg *registry.Registry, defaultSource string, folders FolderResolver, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{
		reg:           reg,
		folders:       folders,
		defaultSource: defaultSource,
		logger:        logger.With("component", "refparse"),
	}
}

// Parse parses input. Unknown prefixes inside a piped multi-source list are
// logged and dropped, never fatal; a reference that resolves to no source
// at all is a hard failure.
func (p *Parser) Parse(input string) (*Result, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("%w: empty reference", media.ErrInvalidReference)
	}

	segments := strings.Split(input, ";")
	primary := strings.TrimSpace(segments[0])
	if primary == "" {
		return nil, fmt.Errorf("%w: empty primary", media.ErrInvalidReference)
	}

	res := &Result{Modifiers: make(media.Modifiers)}
	for _, seg := range segments[1:] {
		parseModifier(strings.TrimSpace(seg), res.Modifiers)
	}

	for _, raw := range strings.Split(primary, "|") {
		ref, err := p.parseSingle(strings.TrimSpace(raw))
		if err != nil {
			// Drop this source, keep the rest of the piped list.
			p.logger.Warn("dropping unresolvable source", "ref", raw, "error", err)
			continue
		}
		res.Sources = append(res.Sources, ref)
	}
	if len(res.Sources) == 0 {
		return nil, fmt.Errorf("%w: no resolvable source in %q", media.ErrInvalidReference, primary)
	}
	return res, nil
}

func (p *Parser) parseSingle(raw string) (media.SourceReference, error) {
	if raw == "" {
		return media.SourceReference{}, fmt.Errorf("empty source reference")
	}

	// folder-ref: +-joined tokens, no prefix.
	if strings.Contains(raw, "+") && !strings.Contains(raw, media.IDSeparator) {
		name := strings.Join(splitTrim(raw, "+"), " ")
		if p.folders == nil {
			return media.SourceReference{}, fmt.Errorf("folder references not supported")
		}
		localID, ok := p.folders.ResolveFolder(name)
		if !ok {
			return media.SourceReference{}, fmt.Errorf("no folder matching %q", name)
		}
		return media.SourceReference{Source: p.defaultSource, LocalID: localID}, nil
	}

	// prefixed-ref: adapter-owned prefix before the first separator.
	if prefix, value, ok := strings.Cut(raw, media.IDSeparator); ok {
		prefix = strings.TrimSpace(prefix)
		value = strings.TrimSpace(value)
		adapter, localID := p.reg.ResolveFromPrefix(prefix, value)
		if adapter == nil {
			return media.SourceReference{}, fmt.Errorf("unknown prefix %q", prefix)
		}
		if localID == "" {
			return media.SourceReference{}, fmt.Errorf("empty id for prefix %q", prefix)
		}
		return media.SourceReference{Source: adapter.Name(), LocalID: localID}, nil
	}

	// bare-path: defaults to the filesystem adapter.
	return media.SourceReference{Source: p.defaultSource, LocalID: raw}, nil
}

// parseModifier parses one modifier segment into mods. Modifiers never fail
// the parse; a nonsense segment just becomes a flag.
func parseModifier(seg string, mods media.Modifiers) {
	if seg == "" {
		return
	}
	if key, value, ok := strings.Cut(seg, ":"); ok {
		key = normalizeKey(key)
		value = strings.TrimSpace(value)
		if vals := splitTrim(value, ","); len(vals) > 1 {
			mods[key] = media.List(vals...)
		} else {
			mods[key] = media.Scalar(value)
		}
		return
	}
	// 'version value' is the one space-separated modifier form.
	if rest, ok := strings.CutPrefix(seg, "version "); ok {
		mods["version"] = media.Scalar(strings.TrimSpace(rest))
		return
	}
	mods[normalizeKey(seg)] = media.Flag()
}

// ParseSuffix parses the trailing comma-joined keyword form used on list
// and play endpoint paths ("shuffle,recent_on_top"). Both entry points are
// semantically identical once parsed.
func ParseSuffix(suffix string) media.Modifiers {
	mods := make(media.Modifiers)
	for _, kw := range splitTrim(suffix, ",") {
		parseModifier(kw, mods)
	}
	return mods
}

func normalizeKey(k string) string {
	return strings.ToLower(strings.TrimSpace(k))
}

func splitTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
