package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"
)

// HeaderActorID carries the caller's identity: a LINE user id for pawners and investors,
// the drop point id for drop-point staff.
const HeaderActorID = "Ax-Actor-Id"

const actorKey = "actor_id"

var reActorID = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.:-]{0,63}$`)

func validActorID(id string) bool { return reActorID.MatchString(id) }

// RequireActor rejects requests without a well-formed Ax-Actor-Id and stores it for handlers.
func RequireActor() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := strings.TrimSpace(c.Request().Header.Get(HeaderActorID))
			if id == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing Ax-Actor-Id"})
			}
			if !validActorID(id) {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid Ax-Actor-Id"})
			}
			c.Set(actorKey, id)
			return next(c)
		}
	}
}

// Actor returns the id RequireActor stored, or "" when the route is not behind it.
func Actor(c echo.Context) string {
	id, _ := c.Get(actorKey).(string)
	return id
}
