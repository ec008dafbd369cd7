package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CallerIDHeader carries the authenticated local user id forwarded by the
// API gateway. Token verification and identity issuance happen upstream.
const CallerIDHeader = "X-Auth-User-ID"

const callerIDLocal = "caller_user_id"

// CallerIdentity stores the forwarded caller id in request locals.
func CallerIdentity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if uid := strings.TrimSpace(c.Get(CallerIDHeader)); uid != "" {
			c.Locals(callerIDLocal, uid)
		}
		return c.Next()
	}
}

// CallerID returns the caller's local user id, or "" when the request is
// anonymous.
func CallerID(c *fiber.Ctx) string {
	uid, _ := c.Locals(callerIDLocal).(string)
	return uid
}
