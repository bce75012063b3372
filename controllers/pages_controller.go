package controllers

import (
	"fmt"
	"html"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ConsolePage serves a bare shell for an admin console page. The console
// front end renders into #app; access is decided by the gate before this
// handler runs.
func ConsolePage(title string) gin.HandlerFunc {
	body := []byte(fmt.Sprintf(`<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>%s</title></head>
<body><div id="app" data-page="%s"></div></body>
</html>
`, html.EscapeString(title), html.EscapeString(title)))

	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Data(http.StatusOK, "text/html; charset=utf-8", body)
	}
}

func Ping() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	}
}
