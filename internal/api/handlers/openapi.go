package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v3"
)

// resolveOpenAPIPath returns a readable path to openapi.yaml by checking
// common locations when tests change the working directory. It honors
// ALERT_ENGINE_OPENAPI_PATH if set, then tries relative fallbacks.
func resolveOpenAPIPath() string {
	if p := os.Getenv("ALERT_ENGINE_OPENAPI_PATH"); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	candidates := []string{
		"api/openapi.yaml",                              // repo root
		filepath.FromSlash("../../api/openapi.yaml"),    // from internal/api
		filepath.FromSlash("../../../api/openapi.yaml"), // from internal/api/handlers
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return "api/openapi.yaml"
}

// GetOpenAPISpec serves the API contract as JSON for clients that cannot
// consume YAML.
func GetOpenAPISpec(c *gin.Context) {
	path := resolveOpenAPIPath()
	data, err := os.ReadFile(path)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "failed to load openapi.yaml"})
		return
	}
	var obj any
	if err := yaml.Unmarshal(data, &obj); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "failed to parse openapi.yaml"})
		return
	}

	c.JSON(http.StatusOK, obj)
}
