// Package handlers contains HTTP building blocks shared by the API server:
// health checking and reusable middleware.
//
// # Health Checks
//
// The HealthChecker interface allows registering multiple named health checks
// that are executed in parallel:
//
//	checker := handlers.NewCompositeHealthChecker("v1.0.0")
//	checker.AddCheck("store", handlers.NewPingCheck(store))
//	checker.AddCheck("redis", handlers.NewPingCheck(cache))
//	checker.AddCheck("wallet", handlers.NewPingCheck(walletClient))
//
//	status := checker.Check(ctx)
//
// # Middleware
//
//	auth := handlers.NewAPIKeyAuth("X-API-Key", []string{"parent-key"})
//	handler := handlers.ChainHandler(
//	    myHandler,
//	    handlers.SecurityHeadersMiddleware,
//	    handlers.NoCacheMiddleware,
//	    auth.Middleware,
//	)
//
// Chain runs the first middleware outermost.
package handlers
