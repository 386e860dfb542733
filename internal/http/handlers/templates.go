package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type templateView struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// TemplatesList enumerates the bundled lifestyle scene templates. Only raster
// files are listed; anything else in the directory is ignored.
func (a *App) TemplatesList(w http.ResponseWriter, r *http.Request) {
	entries, err := os.ReadDir(a.Config.TemplateDir)
	if err != nil {
		if os.IsNotExist(err) {
			a.json(w, http.StatusOK, map[string]any{"templates": []templateView{}})
			return
		}
		a.serviceError(w, err)
		return
	}

	templates := make([]templateView, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !isTemplateFile(entry.Name()) {
			continue
		}
		templates = append(templates, templateView{
			Name: entry.Name(),
			URL:  "/templates/" + entry.Name(),
		})
	}
	sort.Slice(templates, func(i, j int) bool { return templates[i].Name < templates[j].Name })
	a.json(w, http.StatusOK, map[string]any{"templates": templates})
}

func isTemplateFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".webp":
		return true
	}
	return false
}
