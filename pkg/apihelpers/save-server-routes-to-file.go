package apihelpers

import (
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/gin-gonic/gin"
)

// WriteRoutesToFile dumps the registered routes of a router as one
// "METHOD\tPATH" line each, sorted by path. Used in debug mode to diff the
// exposed API surface between builds.
func WriteRoutesToFile(router *gin.Engine, filename string) {
	file, err := os.Create(filename)
	if err != nil {
		slog.Error("could not create route dump file", slog.String("filename", filename), slog.String("error", err.Error()))
		return
	}
	defer file.Close()

	routes := router.Routes()
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}
		return routes[i].Method < routes[j].Method
	})

	for _, route := range routes {
		if _, err := fmt.Fprintf(file, "%s\t%s\n", route.Method, route.Path); err != nil {
			slog.Error("could not write route dump file", slog.String("filename", filename), slog.String("error", err.Error()))
			return
		}
	}
}
