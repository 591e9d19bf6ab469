package commands

import (
	"embed"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

//go:embed all:templates
var templateFS embed.FS

// scaffold is the outcome of unpacking a project template.
type scaffold struct {
	Created []string
	Skipped []string
}

// templateRoot returns the embedded directory of a named template.
func templateRoot(name string) (fs.FS, error) {
	return fs.Sub(templateFS, path.Join("templates", name))
}

// copyTemplate unpacks a template into targetDir. Files that already exist
// are left alone unless force is set; they are reported as skipped.
func copyTemplate(templateName, targetDir string, force bool) (*scaffold, error) {
	tmpl, err := templateRoot(templateName)
	if err != nil {
		return nil, err
	}

	result := &scaffold{}
	err = fs.WalkDir(tmpl, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil || name == "." {
			return err
		}
		dest := filepath.Join(targetDir, filepath.FromSlash(name))
		if d.IsDir() {
			return os.MkdirAll(dest, 0750)
		}

		if _, statErr := os.Stat(dest); statErr == nil && !force {
			result.Skipped = append(result.Skipped, name)
			return nil
		} else if statErr != nil && !errors.Is(statErr, fs.ErrNotExist) {
			return statErr
		}

		content, err := fs.ReadFile(tmpl, name)
		if err != nil {
			return err
		}
		if err := os.WriteFile(dest, content, 0600); err != nil {
			return err
		}
		result.Created = append(result.Created, name)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// groupTemplateFiles splits template files into config and filters.
func groupTemplateFiles(files []string) map[string][]string {
	groups := map[string][]string{"config": {}, "filters": {}}
	for _, f := range files {
		key := "config"
		if strings.HasPrefix(f, "filters/") {
			key = "filters"
		}
		groups[key] = append(groups[key], f)
	}
	return groups
}
