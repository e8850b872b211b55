package handler

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v3"
)

//go:embed openapi.yaml
var openAPIYAML []byte

// openAPIJSON converts the embedded document once.
var openAPIJSON = sync.OnceValues(func() ([]byte, error) {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(openAPIYAML, &doc); err != nil {
		return nil, fmt.Errorf("parsing openapi.yaml: %w", err)
	}
	return json.Marshal(jsonCompatible(doc))
})

// jsonCompatible rewrites the non-string map keys yaml can produce.
func jsonCompatible(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, val := range t {
			t[k] = jsonCompatible(val)
		}
		return t
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = jsonCompatible(val)
		}
		return out
	case []interface{}:
		for i, val := range t {
			t[i] = jsonCompatible(val)
		}
		return t
	default:
		return v
	}
}

// SwaggerSpec serves the OpenAPI document, as JSON when the client asks for
// it and as the embedded YAML otherwise.
func SwaggerSpec(c *gin.Context) {
	if !strings.Contains(c.GetHeader("Accept"), "application/json") && c.Query("format") != "json" {
		c.Data(http.StatusOK, "application/x-yaml", openAPIYAML)
		return
	}
	b, err := openAPIJSON()
	if err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	c.Data(http.StatusOK, "application/json", b)
}

const swaggerPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Merchant Dashboard - API Docs</title>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: '/swagger/spec?format=json',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      requestInterceptor: function (req) {
        var token = window.localStorage.getItem('dashboard_token');
        if (token) { req.headers['Authorization'] = 'Bearer ' + token; }
        return req;
      }
    });
  </script>
</body>
</html>`

// SwaggerUI serves a Swagger UI page over /swagger/spec. A bearer token kept
// in localStorage under dashboard_token is attached to "Try it out" calls.
func SwaggerUI(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(swaggerPage))
}
