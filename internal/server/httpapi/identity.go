package httpapi

import (
	"github.com/labstack/echo/v4"

	"github.com/dmitrijs2005/clipvault/internal/server/auth"
)

const capsKey = "clipvault.caps"

// identity turns the front end's headers into Capabilities for the request.
func (s *Server) identity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		caps, err := auth.FromHeaders(c.Request().Header, s.roles.Admin, s.roles.Uploader)
		if err != nil {
			return s.fail(c, err)
		}
		c.Set(capsKey, caps)
		return next(c)
	}
}

func capsFrom(c echo.Context) auth.Capabilities {
	caps, _ := c.Get(capsKey).(auth.Capabilities)
	return caps
}
