package http

import "github.com/labstack/echo/v4"

// Handler is anything that mounts routes on the server: the console API
// and the snapshot stream both implement it.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}

// HandlerFunc adapts a plain route-registration function to Handler.
type HandlerFunc func(e *echo.Echo)

func (f HandlerFunc) RegisterRoutes(e *echo.Echo) { f(e) }
