package main

import (
	"net/http"
	"time"
)

// Decision checks are cheap per call, so under load the pressure lands on
// connection churn. Keep the idle pool as wide as the largest profile's VUs.
func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 15 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        128,
			MaxIdleConnsPerHost: 128,
			IdleConnTimeout:     60 * time.Second,
		},
	}
}
