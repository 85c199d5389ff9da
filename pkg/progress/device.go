package progress

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	// DeviceCookieName identifies the browser that owns a progress map.
	DeviceCookieName = "dac_device"
	deviceCookieAge  = 400 * 24 * time.Hour
	contextKeyDevice = "device_id"
)

// DeviceMiddleware makes sure every request carries a device id, issuing a
// new one when the cookie is missing or malformed.
func DeviceMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		deviceID := ""
		if cookie, err := c.Cookie(DeviceCookieName); err == nil {
			if id, err := uuid.Parse(cookie.Value); err == nil {
				deviceID = id.String()
			}
		}

		if deviceID == "" {
			deviceID = uuid.NewString()
			c.SetCookie(&http.Cookie{
				Name:     DeviceCookieName,
				Value:    deviceID,
				Path:     "/",
				MaxAge:   int(deviceCookieAge.Seconds()),
				HttpOnly: true,
				Secure:   c.Request().TLS != nil || c.Request().Header.Get("X-Forwarded-Proto") == "https",
				SameSite: http.SameSiteLaxMode,
			})
		}

		c.Set(contextKeyDevice, deviceID)
		return next(c)
	}
}

// DeviceID returns the id set by DeviceMiddleware.
func DeviceID(c echo.Context) string {
	id, _ := c.Get(contextKeyDevice).(string)
	return id
}
