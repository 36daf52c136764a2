package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestTimeout puts a deadline on the request context. pgx aborts the
// in-flight statement when it passes, and the client gets a 504.
func RequestTimeout(timeout time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			defer cancel()

			c.SetRequest(c.Request().WithContext(ctx))

			done := make(chan result, 1)
			go func() {
				var res result
				// Panics are handed back so Recovery sees them on its goroutine.
				defer func() {
					res.panic = recover()
					done <- res
				}()
				res.err = next(c)
			}()

			select {
			case res := <-done:
				if res.panic != nil {
					panic(res.panic)
				}
				if res.err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
					return gatewayTimeout(c)
				}
				return res.err
			case <-ctx.Done():
				// Wait for the handler so it does not write to a response
				// that has already been finished.
				res := <-done
				if res.panic != nil {
					panic(res.panic)
				}
				if errors.Is(ctx.Err(), context.DeadlineExceeded) {
					return gatewayTimeout(c)
				}
				return ctx.Err()
			}
		}
	}
}

type result struct {
	err   error
	panic any
}

func gatewayTimeout(c echo.Context) error {
	if c.Response().Committed {
		return nil
	}
	return c.JSON(http.StatusGatewayTimeout, map[string]string{
		"error": "request processing exceeded the allowed time limit",
	})
}
