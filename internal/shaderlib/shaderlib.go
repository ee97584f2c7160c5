// Package shaderlib holds the GLSL sources of the standard material.
//
// Sources are stored without a #version line and reference shared code
// through #include <name> markers. Material hooks may rewrite markers before
// Resolve expands them, which is how per-material patches replace a single
// chunk without forking the whole program.
package shaderlib

import (
	"embed"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

//go:embed glsl/standard.vert
var standardVert string

//go:embed glsl/standard.frag
var standardFrag string

//go:embed glsl/chunks/*.glsl
var chunkFS embed.FS

// Version is the GLSL header every program starts with.
const Version = "#version 410 core"

// maxIncludeDepth bounds nested includes.
const maxIncludeDepth = 8

var includeRe = regexp.MustCompile(`(?m)^[ \t]*#include <(\w+)>[ \t]*$`)

// StandardVertex returns the unresolved vertex source.
func StandardVertex() string { return standardVert }

// StandardFragment returns the unresolved fragment source.
func StandardFragment() string { return standardFrag }

// Include returns the marker line for a chunk.
func Include(name string) string {
	return "#include <" + name + ">"
}

// Chunk returns the body of a named chunk.
func Chunk(name string) (string, error) {
	b, err := chunkFS.ReadFile("glsl/chunks/" + name + ".glsl")
	if err != nil {
		return "", fmt.Errorf("shader chunk %q not found", name)
	}
	return string(b), nil
}

// Resolve expands every #include marker. Unknown chunks are an error.
func Resolve(src string) (string, error) {
	for depth := 0; depth < maxIncludeDepth; depth++ {
		var missing error
		out := includeRe.ReplaceAllStringFunc(src, func(line string) string {
			name := includeRe.FindStringSubmatch(line)[1]
			body, err := Chunk(name)
			if err != nil && missing == nil {
				missing = err
			}
			return body
		})
		if missing != nil {
			return "", missing
		}
		if out == src {
			return out, nil
		}
		src = out
	}
	if includeRe.MatchString(src) {
		return "", fmt.Errorf("shader includes nested deeper than %d", maxIncludeDepth)
	}
	return src, nil
}

// Header builds the version line followed by sorted #define lines.
// An empty value defines the name without a value.
func Header(defines map[string]string) string {
	var b strings.Builder
	b.WriteString(Version)
	b.WriteByte('\n')

	names := make([]string, 0, len(defines))
	for k := range defines {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		b.WriteString("#define ")
		b.WriteString(k)
		if v := defines[k]; v != "" {
			b.WriteByte(' ')
			b.WriteString(v)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Build resolves src and prefixes the header.
func Build(src string, defines map[string]string) (string, error) {
	body, err := Resolve(src)
	if err != nil {
		return "", err
	}
	return Header(defines) + body, nil
}
