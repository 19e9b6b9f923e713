package access

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type NavModule struct {
	Key   string
	Name  string
	Slug  string
	Known bool
}

func NewNavModule(key string) NavModule {
	key = ModuleKey(key)
	return NavModule{
		Key:  key,
		Name: DisplayName(key),
		Slug: ModuleSlug(key),
	}
}

// DisplayName turns ABOUT_US into "About Us".
func DisplayName(key string) string {
	words := strings.Fields(strings.ReplaceAll(ModuleKey(key), "_", " "))
	return cases.Title(language.English).String(strings.ToLower(strings.Join(words, " ")))
}

// ModulesFromPermissions derives a module list by stripping CRUD suffixes off
// permission strings. This is lossy: a module the subject holds no grant on
// is invisible, and grants for a renamed module still show up.
func ModulesFromPermissions(permissions []string) []NavModule {
	seen := make(map[string]struct{})
	modules := make([]NavModule, 0)
	for _, permission := range permissions {
		key, ok := stripAction(permission)
		if !ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		modules = append(modules, NewNavModule(key))
	}
	return modules
}

func stripAction(permission string) (string, bool) {
	for _, action := range crudActions {
		suffix := "_" + string(action)
		if strings.HasSuffix(permission, suffix) {
			key := strings.TrimSuffix(permission, suffix)
			return key, key != ""
		}
	}
	return "", false
}

// ModuleLister returns the backend's authoritative module keys.
type ModuleLister interface {
	ModuleNames(ctx context.Context, token string) ([]string, error)
}

// ResolveModules picks the navigation source: the backend list for privileged
// subjects, the permission heuristic otherwise or when the backend fails.
func ResolveModules(ctx context.Context, s Subject, permissions []string, lister ModuleLister, token string) []NavModule {
	if s.Privileged() && lister != nil {
		names, err := lister.ModuleNames(ctx, token)
		if err == nil {
			modules := make([]NavModule, 0, len(names))
			for _, name := range names {
				if strings.TrimSpace(name) == "" {
					continue
				}
				m := NewNavModule(name)
				m.Known = true
				modules = append(modules, m)
			}
			return modules
		}
	}
	return ModulesFromPermissions(permissions)
}
