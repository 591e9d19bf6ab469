package capability

import (
	"sort"
	"strings"
)

// ServerExtensionDescription describes extensions that are only known
// because a server advertised them.
const ServerExtensionDescription = "advertised by the server"

// Registry maps names to signatures and extensions to what they unlock.
// It is immutable once built and safe for concurrent use.
type Registry struct {
	Name string

	commands   map[string]*Spec
	tests      map[string]*Spec
	extensions map[string]Extension

	// offered restricts the extensions a script may require. Nil means every
	// known extension is offered.
	offered map[string]struct{}
}

// Command returns the signature of a command.
func (r *Registry) Command(name string) (*Spec, bool) {
	s, ok := r.commands[strings.ToLower(name)]
	return s, ok
}

// Test returns the signature of a test.
func (r *Registry) Test(name string) (*Spec, bool) {
	s, ok := r.tests[strings.ToLower(name)]
	return s, ok
}

// Extension returns a known extension.
func (r *Registry) Extension(name string) (Extension, bool) {
	e, ok := r.extensions[name]
	return e, ok
}

// Knows reports whether name is a known extension.
func (r *Registry) Knows(name string) bool {
	_, ok := r.extensions[name]
	return ok
}

// Offers reports whether a script may require name.
func (r *Registry) Offers(name string) bool {
	if !r.Knows(name) {
		return false
	}
	if r.offered == nil {
		return true
	}
	_, ok := r.offered[name]
	return ok
}

// Extensions returns the known extensions sorted by name.
func (r *Registry) Extensions() []Extension {
	out := make([]Extension, 0, len(r.extensions))
	for _, e := range r.extensions {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Offered returns the names a script may require, sorted.
func (r *Registry) Offered() []string {
	var out []string
	for name := range r.extensions {
		if r.Offers(name) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Commands returns all command signatures sorted by name.
func (r *Registry) Commands() []*Spec {
	return sortedSpecs(r.commands)
}

// Tests returns all test signatures sorted by name.
func (r *Registry) Tests() []*Spec {
	return sortedSpecs(r.tests)
}

// Unlocks returns what an extension makes available: command and test names
// and ":tag" names, sorted.
func (r *Registry) Unlocks(ext string) []string {
	seen := make(map[string]struct{})
	for _, specs := range []map[string]*Spec{r.commands, r.tests} {
		for _, s := range specs {
			if s.Extension == ext {
				seen[s.Name] = struct{}{}
			}
			for _, t := range s.Tags {
				if t.Extension == ext {
					seen[":"+t.Name] = struct{}{}
				}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Restrict returns a registry that only offers the given extensions, for
// example the SIEVE capability advertised by a ManageSieve server. Names the
// registry does not know are added as extensions that unlock nothing, so a
// script may require a vendor extension the server advertises. A name that
// is known but not offered by r stays unavailable. The receiver is not
// modified.
func (r *Registry) Restrict(names ...string) *Registry {
	cp := *r
	cp.extensions = make(map[string]Extension, len(r.extensions)+len(names))
	for name, e := range r.extensions {
		cp.extensions[name] = e
	}

	cp.offered = make(map[string]struct{}, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		if !r.Knows(n) {
			cp.extensions[n] = Extension{Name: n, Description: ServerExtensionDescription}
		} else if !r.Offers(n) {
			continue
		}
		cp.offered[n] = struct{}{}
	}
	return &cp
}

func sortedSpecs(m map[string]*Spec) []*Spec {
	out := make([]*Spec, 0, len(m))
	for _, s := range m {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Builder assembles a Registry.
type Builder struct {
	r *Registry
}

// New starts a registry with the given name.
func New(name string) *Builder {
	return &Builder{r: &Registry{
		Name:       name,
		commands:   make(map[string]*Spec),
		tests:      make(map[string]*Spec),
		extensions: make(map[string]Extension),
	}}
}

// Extend starts a builder from a copy of base.
func Extend(base *Registry, name string) *Builder {
	b := New(name)
	for k, v := range base.commands {
		cp := *v
		b.r.commands[k] = &cp
	}
	for k, v := range base.tests {
		cp := *v
		b.r.tests[k] = &cp
	}
	for k, v := range base.extensions {
		b.r.extensions[k] = v
	}
	return b
}

// Extension declares an extension.
func (b *Builder) Extension(name, rfc, description string) *Builder {
	b.r.extensions[name] = Extension{Name: name, RFC: rfc, Description: description}
	return b
}

// Command adds or replaces a command signature.
func (b *Builder) Command(s Spec) *Builder {
	s.Name = strings.ToLower(s.Name)
	b.r.commands[s.Name] = &s
	return b
}

// Test adds or replaces a test signature.
func (b *Builder) Test(s Spec) *Builder {
	s.Name = strings.ToLower(s.Name)
	b.r.tests[s.Name] = &s
	return b
}

// AddTags appends tags to an existing command or test, as extensions such as
// copy or imap4flags do. Unknown names are ignored.
func (b *Builder) AddTags(name string, tags ...TagSpec) *Builder {
	name = strings.ToLower(name)
	if s, ok := b.r.commands[name]; ok {
		s.Tags = append(append([]TagSpec(nil), s.Tags...), tags...)
	}
	if s, ok := b.r.tests[name]; ok {
		s.Tags = append(append([]TagSpec(nil), s.Tags...), tags...)
	}
	return b
}

// Build returns the registry. The builder must not be used afterwards.
func (b *Builder) Build() *Registry {
	r := b.r
	b.r = nil
	return r
}
